package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/jams/internal/server"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web service until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	opts := server.Options{
		Config:  r.config,
		Auth:    r.auth,
		Catalog: r.catalog,
		Logger:  shared.WithLogger(r.logger, "component", "http"),
	}
	if engine, err := r.engine(); err == nil {
		opts.Engine = engine
	} else {
		r.logger.Warn("playlist API disabled", "error", err)
	}
	if runs, err := r.runRepository(); err == nil {
		opts.Runs = runs
	} else {
		r.logger.Warn("run history API disabled", "error", err)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}

	router := server.New(opts)
	httpServer := server.NewHTTPServer(addr, router)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr, "base_url", r.config.BaseURL(), "routes", len(router.Routes()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
