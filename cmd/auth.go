package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/server"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// storedToken is the token file written by `jams auth`.
type storedToken struct {
	models.Credentials
	ObtainedAt time.Time `json:"obtained_at"`
}

// Expired reports whether the access token is past its advertised lifetime.
func (t storedToken) Expired() bool {
	if t.ExpiresIn <= 0 || t.ObtainedAt.IsZero() {
		return false
	}
	return time.Since(t.ObtainedAt) > time.Duration(t.ExpiresIn)*time.Second
}

func saveToken(path string, creds models.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := shared.MarshalJSON(storedToken{Credentials: creds, ObtainedAt: time.Now().UTC()}, true)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func loadToken(path string) (*storedToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token storedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if !token.Valid() {
		return nil, fmt.Errorf("%w: token file has no access token", shared.ErrNotAuthenticated)
	}
	return &token, nil
}

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts the login routes on the configured address, opens the browser at /api/login,
// waits for the callback and saves the credentials to the token file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	creds, err := r.doOAuth(ctx, !cmd.Bool("no-browser"), authTimeout)
	if err != nil {
		return err
	}

	path := r.config.TokenPath()
	if err := saveToken(path, creds); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", path)
	r.writePlain("You can now use: jams playlist create --birth-year 1990\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, openBrowser bool, timeout time.Duration) (models.Credentials, error) {
	results := make(chan server.OAuthResult, 1)
	router := server.New(server.Options{
		Config:  r.config,
		Auth:    r.auth,
		Catalog: r.catalog,
		Logger:  r.logger,
		Notify:  results,
	})

	listener, err := net.Listen("tcp", r.config.Addr())
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to listen on %s: %w", r.config.Addr(), err)
	}

	httpServer := server.NewHTTPServer(listener.Addr().String(), router)
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	loginURL := r.config.BaseURL() + "/api/login"
	if openBrowser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := r.browser(loginURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", loginURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n%s\n\n", loginURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if err := result.Error(); err != nil {
			return models.Credentials{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		if !result.Credentials.Valid() {
			return models.Credentials{}, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Credentials, nil
	case err := <-serverErrors:
		return models.Credentials{}, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return models.Credentials{}, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return models.Credentials{}, ctx.Err()
	}
}

// browserCommand returns the command that opens url in the default browser on goos.
func browserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("%w: no browser launcher for %s", shared.ErrNotImplemented, goos)
}

func launchBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}
