// Package repositories implements SQLite persistence for playlist run history.
//
// [RunRepository] implements models.Repository[*models.Run] with soft deletes via deleted_at timestamps;
// deleted records are excluded from queries by default. It also satisfies tasks.RunRecorder so the playlist
// engine can store each state transition as it happens.
//
// Each run also carries a run number (the "#" column of `jams history`) drawn from the runs_sequence
// counter by [NextSequence].
package repositories
