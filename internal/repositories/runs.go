package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
)

// ErrRunNotFound is returned when a run does not exist or was deleted.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, sequence, user_id, birth_year, target_year, playlist_name, playlist_id, playlist_url,
		state, message, resolved, missing, created_at, updated_at, deleted_at`

// RunRepository implements models.Repository[*models.Run] for orchestration history.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	return r.create(context.Background(), run)
}

// Begin creates and stores an idle run for the given years.
func (r *RunRepository) Begin(ctx context.Context, birthYear, targetYear int) (*models.Run, error) {
	run := models.NewRun(0, birthYear, targetYear)
	if err := r.create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) create(ctx context.Context, run *models.Run) error {
	sequence, err := NextSequence(ctx, r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (id, sequence, user_id, birth_year, target_year, playlist_name, playlist_id, playlist_url,
			state, message, resolved, missing, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID(),
		run.Sequence(),
		run.UserID(),
		run.BirthYear(),
		run.TargetYear(),
		run.PlaylistName(),
		run.PlaylistID(),
		run.PlaylistURL(),
		string(run.State()),
		run.Message(),
		run.Resolved(),
		run.Missing(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.Run) error {
	return r.update(context.Background(), run)
}

// Save stores the current state of a run.
func (r *RunRepository) Save(ctx context.Context, run *models.Run) error {
	return r.update(ctx, run)
}

func (r *RunRepository) update(ctx context.Context, run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET user_id = ?, playlist_name = ?, playlist_id = ?, playlist_url = ?, state = ?, message = ?,
			resolved = ?, missing = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		run.UserID(),
		run.PlaylistName(),
		run.PlaylistID(),
		run.PlaylistURL(),
		string(run.State()),
		run.Message(),
		run.Resolved(),
		run.Missing(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs matching the given criteria, newest first, excluding soft-deleted runs.
//
// Supported criteria: "state" (string or [models.RunState]), "user_id" (string), "leaked" (bool, failed
// runs that still created a playlist) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	switch state := criteria["state"].(type) {
	case string:
		if state != "" {
			query += " AND state = ?"
			args = append(args, state)
		}
	case models.RunState:
		query += " AND state = ?"
		args = append(args, string(state))
	}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if leaked, ok := criteria["leaked"].(bool); ok && leaked {
		query += " AND state = ? AND playlist_id != ''"
		args = append(args, string(models.StateFailed))
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads a single row into a [models.Run]
func (r *RunRepository) scan(row scanner) (*models.Run, error) {
	var (
		id, userID, playlistName, playlistID, playlistURL, state, message string
		sequence, birthYear, targetYear, resolved, missing                int
		createdAt, updatedAt                                              time.Time
		deletedAt                                                         sql.NullTime
	)

	err := row.Scan(&id, &sequence, &userID, &birthYear, &targetYear, &playlistName, &playlistID, &playlistURL,
		&state, &message, &resolved, &missing, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(sequence, birthYear, targetYear)
	run.SetID(id)
	run.SetUserID(userID)
	run.SetPlaylist(playlistID, playlistName, playlistURL)
	run.SetState(models.RunState(state), message)
	run.SetCounts(resolved, missing)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)
