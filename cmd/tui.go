package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/desertthunder/jams/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
//
// Without a token the UI still browses songs; playlist creation asks the user to run `jams auth`.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs go to a file so they do not interfere with rendering.
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	token, err := r.accessToken(cmd.String("token"))
	if err != nil {
		r.logger.Warn("no access token, playlist creation disabled", "error", err)
	}

	var runner ui.Runner
	if engine, err := r.engine(); err == nil {
		runner = engine
	} else {
		r.logger.Warn("playlist engine unavailable", "error", err)
	}

	model := ui.NewModel(ctx, r.catalog, runner, token)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
