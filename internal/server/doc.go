// Package server provides HTTP routing, middleware, the Spotify login flow and the JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Login flow
//
// GET /api/login generates a 16 character state, stores an HS256-signed copy in the HttpOnly
// spotify_auth_state cookie and redirects to the Spotify authorize page. GET /api/callback rejects a
// missing or (when session.verify_state is on) unsigned state with /?error=state_mismatch before any
// exchange. A rejected code yields /?error=invalid_token&details=<provider code>, any other failure
// /?error=server_error. On success the access token is stored in the spotify_access_token cookie and the
// browser is sent back to the base URL.
//
// The same router serves the CLI login: [Options.Notify] receives each callback outcome without blocking.
//
// # JSON API
//
//   - GET /               : login status and callback error echo
//   - GET /health         : liveness
//   - GET /api/songs      : songs for ?birthYear= (400 invalid, 404 no data)
//   - POST /api/playlists : create a playlist (401 without token, 502 when the run fails)
//   - GET /api/runs       : run history
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
