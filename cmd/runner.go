package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/repositories"
	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/desertthunder/jams/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    *catalog.Catalog
	provider   services.Provider
	auth       services.Authenticator
	runs       *repositories.RunRepository
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	browser    func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    *catalog.Catalog
	Provider   services.Provider
	Auth       services.Authenticator
	Runs       *repositories.RunRepository // opened lazily from Config.Database when nil
	Logger     *log.Logger
	Output     io.Writer
	Browser    func(url string) error // opens the login page during `jams auth`; defaults to the system browser
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Browser == nil {
		opts.Browser = launchBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		provider:   opts.Provider,
		auth:       opts.Auth,
		runs:       opts.Runs,
		logger:     opts.Logger,
		output:     opts.Output,
		browser:    opts.Browser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		songsCommand, authCommand, playlistCommand, historyCommand, setupCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner, its provider and anything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if p, ok := r.provider.(interface{ SetLogger(*log.Logger) }); ok {
		p.SetLogger(shared.WithLogger(l, "service", "spotify"))
	}
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.runs = nil
	return err
}

// runRepository returns the run history store, opening the configured database on first use.
func (r *Runner) runRepository() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

// engine builds a playlist engine. History is recorded when the database can be opened.
func (r *Runner) engine() (*tasks.PlaylistEngine, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized (set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET)", shared.ErrServiceUnavailable)
	}

	opts := tasks.EngineOpts{
		Workers:   r.config.Engine.Workers,
		RateLimit: r.config.Engine.RateLimit,
		Logger:    shared.WithLogger(r.logger, "component", "engine"),
	}
	if runs, err := r.runRepository(); err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		opts.Recorder = runs
	}

	return tasks.NewPlaylistEngine(r.provider, opts), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
