package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Songs resolves a birth year and prints (or saves) the song list.
//
// A missing-data result still prints the empty list before returning the error.
func (r *Runner) Songs(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")

	res, err := r.catalog.Resolve(cmd.String("birth-year"))
	var noData *catalog.NoDataError
	if err != nil && !errors.As(err, &noData) {
		return err
	}
	if res.Warning != "" {
		r.logger.Warn(res.Warning)
	}

	if cmd.IsSet("output") && err == nil {
		path := cmd.String("output")
		if path == "-" {
			path = ""
		}
		written, werr := formatter.WriteSongs(res, format, path)
		if werr != nil {
			return werr
		}
		r.logger.Info("songs written", "path", written, "count", len(res.Songs))
		return r.writePlain("✓ Saved %d songs to %s\n", len(res.Songs), written)
	}

	data, ferr := formatter.FormatSongs(res, format)
	if ferr != nil {
		return ferr
	}
	if _, werr := r.output.Write(data); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}

	return err
}
