package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jams/internal/formatter"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded playlist runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", shared.ErrInvalidArgument)
	}

	runs, err := r.runRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": limit}
	if state := cmd.String("state"); state != "" {
		criteria["state"] = models.RunState(state)
	}
	if cmd.Bool("leaked") {
		criteria["leaked"] = true
	}

	list, err := runs.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if list == nil {
			list = []*models.Run{}
		}
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No runs recorded yet. Try `jams playlist create --birth-year 1990`.\n")
	}
	return r.writePlain("%s\n", formatter.RunsTable(list))
}
