// package services defines the provider interfaces and their Spotify implementation
package services

import (
	"context"

	"github.com/desertthunder/jams/internal/models"
)

// Provider is the subset of the music provider API the playlist engine needs.
//
// Implementations never return errors: upstream or transport failures are logged and reported as an
// absent value ("" or nil) or false.
type Provider interface {
	// UserProfile returns the profile of the token's owner, or nil.
	UserProfile(ctx context.Context, token string) *SpotifyUser

	// CreatePlaylist creates a private playlist for userID and returns its ID, or "".
	CreatePlaylist(ctx context.Context, userID, name, token string) string

	// SearchTrack returns the best match for a free-text query, or "".
	SearchTrack(ctx context.Context, query, token string) models.TrackReference

	// AddTracksToPlaylist appends tracks to the playlist in a single request.
	AddTracksToPlaylist(ctx context.Context, playlistID string, uris []models.TrackReference, token string) bool
}

// Authenticator runs the provider side of the authorization-code flow.
type Authenticator interface {
	// AuthURL returns the provider authorization URL carrying the given state.
	AuthURL(state string) string

	// Exchange trades an authorization code for credentials.
	Exchange(ctx context.Context, code string) (models.Credentials, error)
}
