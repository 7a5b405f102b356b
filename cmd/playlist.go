package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/jams/internal/shared"
	"github.com/desertthunder/jams/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate resolves the songs for a birth year and creates the Spotify playlist,
// printing progress as the engine moves through its phases.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	res, err := r.catalog.Resolve(cmd.String("birth-year"))
	if err != nil {
		return err
	}

	token, err := r.accessToken(cmd.String("token"))
	if err != nil {
		return err
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	if !useJSON {
		r.writePlainHeader(tasks.PlaylistName(res.TargetYear))
		if res.Warning != "" {
			r.writePlain("⚠ %s\n", res.Warning)
		}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if useJSON {
				continue
			}
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := engine.Run(ctx, res, token, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	if useJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	}

	if !result.Succeeded() {
		if !useJSON {
			r.writePlainln("✗ %s", result.Message)
		}
		if result.Playlist != nil {
			r.logger.Warn("playlist left behind by failed run", "id", result.Playlist.ID)
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Message)
	}

	if !useJSON {
		r.writePlainln("✓ Playlist ready: %s", result.PlaylistURL)
		r.writePlain("Tracks: %d/%d\n", result.Resolved, result.Resolved+result.Missing)
	}
	return nil
}

// accessToken returns the explicit token, or the one saved by `jams auth`.
func (r *Runner) accessToken(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	stored, err := loadToken(r.config.TokenPath())
	if err != nil {
		return "", fmt.Errorf("%w: run `jams auth` or pass --token (%v)", shared.ErrNotAuthenticated, err)
	}
	if stored.Expired() {
		r.logger.Warn("saved token has probably expired; run `jams auth` again if Spotify rejects it",
			"obtained_at", stored.ObtainedAt)
	}
	return stored.AccessToken, nil
}
