// package server contains middleware & handlers for the jams web service
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/desertthunder/jams/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the jams service.
// Implementations handle specific endpoints (auth, songs, playlists).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// PlaylistRunner creates a playlist for resolved songs (implemented by [tasks.PlaylistEngine]).
type PlaylistRunner interface {
	Run(ctx context.Context, res *catalog.Resolution, token string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// RunLister lists stored runs (implemented by repositories.RunRepository).
type RunLister interface {
	List(criteria map[string]any) ([]*models.Run, error)
}

// Options holds the dependencies of the web service.
type Options struct {
	Config  *shared.Config
	Auth    services.Authenticator
	Catalog *catalog.Catalog
	Engine  PlaylistRunner // nil disables POST /api/playlists
	Runs    RunLister      // nil disables GET /api/runs
	Logger  *log.Logger

	// Notify receives the outcome of each callback without blocking. Used by the CLI login flow.
	Notify chan<- OAuthResult
}

// New builds the router serving the login flow and JSON API.
func New(opts Options) *BasicRouter {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	cfg := opts.Config
	signer := NewStateSigner(cfg.SessionSecret(), cfg.StateTTL())
	cookies := CookiePolicy{Secure: cfg.IsProduction()}

	router := NewBasicRouter()
	router.Use(RecoverMiddleware(opts.Logger), LoggingMiddleware(opts.Logger))

	router.Handler(&LoginHandler{
		auth:    opts.Auth,
		signer:  signer,
		cookies: cookies,
		verify:  cfg.Session.VerifyState,
		logger:  opts.Logger,
	})
	router.Handler(&CallbackHandler{
		auth:    opts.Auth,
		signer:  signer,
		cookies: cookies,
		verify:  cfg.Session.VerifyState,
		baseURL: cfg.BaseURL(),
		notify:  opts.Notify,
		logger:  opts.Logger,
	})

	api := &APIHandler{catalog: opts.Catalog, engine: opts.Engine, runs: opts.Runs, logger: opts.Logger}
	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(api.Status))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(api.Health))
	router.Handle(http.MethodGet, "/api/songs", http.HandlerFunc(api.Songs))
	router.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(api.CreatePlaylist))
	router.Handle(http.MethodGet, "/api/runs", http.HandlerFunc(api.Runs))

	return router
}

// NewHTTPServer wraps handler in an [http.Server] with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
}
