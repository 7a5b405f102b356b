// Package services defines the [Provider] and [Authenticator] interfaces and implements both for Spotify.
//
// # Provider contract
//
// [SpotifyService] calls the Spotify Web API with a caller-supplied bearer token. The four calls used by the
// playlist engine never fail loudly: a non-2xx status or a transport error is logged with the status and
// response body and the call returns an absent value. There is no caching, retrying or client side rate
// limiting at this layer.
//
// # Token exchange
//
// [SpotifyService.Exchange] trades an authorization code for [models.Credentials] through [oauth2.Config]
// against the Spotify accounts endpoint using HTTP Basic client authentication. A provider rejection is
// reported as [*ExchangeError] carrying the provider's error code; anything else (network failure, malformed
// response) wraps [shared.ErrTokenExchange].
package services
