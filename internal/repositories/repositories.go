package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// ErrUnknownSequence is returned when a table has no "<table>_sequence" counter row.
var ErrUnknownSequence = errors.New("unknown sequence")

var tableName = regexp.MustCompile(`^[a-z_]+$`)

// NextSequence bumps the counter in "<table>_sequence" and returns the new value.
//
// Runs are numbered from 1 in the order they were started (run #1, run #2, ...), which is
// what `jams history` shows next to each playlist.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("%w: invalid table name %q", ErrUnknownSequence, table)
	}

	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var next int
	err := db.QueryRowContext(ctx, query).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("%w: %s_sequence has no counter row", ErrUnknownSequence, table)
	case err != nil:
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return next, nil
}
