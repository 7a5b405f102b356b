package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFiles(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := os.Getenv("JAMS_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
		config = shared.DefaultConfig()
	}
	config.ApplyEnv(nil)

	var spotifyService *services.SpotifyService
	if err := config.Validate(); err == nil {
		svc, err := services.NewSpotifyService(config.Credentials.Spotify, config.RedirectURI(),
			services.WithLogger(shared.WithLogger(logger, "service", "spotify")))
		if err != nil {
			logger.Warn("spotify service unavailable", "error", err)
		} else {
			spotifyService = svc
		}
	} else if errors.Is(err, shared.ErrInvalidConfig) {
		logger.Warn("spotify service disabled", "error", err)
	} else {
		logger.Debug("spotify credentials not configured", "error", err)
	}

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}
	if spotifyService != nil {
		opts.Provider = spotifyService
		opts.Auth = spotifyService
	}
	runner := NewRunner(opts)
	defer runner.Close()

	app := &cli.Command{
		Name:     "jams",
		Usage:    "Build a Spotify playlist of the songs that were hits when you were in 8th grade",
		Version:  version,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
