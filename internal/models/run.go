package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunState is a node of the playlist orchestration state machine.
type RunState string

const (
	StateIdle             RunState = "idle"
	StateFetchingProfile  RunState = "fetching_profile"
	StateCreatingPlaylist RunState = "creating_playlist"
	StateResolvingTracks  RunState = "resolving_tracks"
	StateAddingTracks     RunState = "adding_tracks"
	StateDone             RunState = "done"
	StateFailed           RunState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Run records one orchestration attempt. Failed runs may still carry a playlist ID when the
// playlist was created but left empty.
type Run struct {
	id           string
	sequence     int
	userID       string
	birthYear    int
	targetYear   int
	playlistName string
	playlistID   string
	playlistURL  string
	state        RunState
	message      string
	resolved     int
	missing      int
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewRun creates an idle [Run] for the given years.
func NewRun(sequence, birthYear, targetYear int) *Run {
	now := time.Now()
	return &Run{
		sequence:   sequence,
		birthYear:  birthYear,
		targetYear: targetYear,
		state:      StateIdle,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *Run) ID() string            { return r.id }
func (r *Run) Sequence() int         { return r.sequence }
func (r *Run) UserID() string        { return r.userID }
func (r *Run) BirthYear() int        { return r.birthYear }
func (r *Run) TargetYear() int       { return r.targetYear }
func (r *Run) PlaylistName() string  { return r.playlistName }
func (r *Run) PlaylistID() string    { return r.playlistID }
func (r *Run) PlaylistURL() string   { return r.playlistURL }
func (r *Run) State() RunState       { return r.state }
func (r *Run) Message() string       { return r.message }
func (r *Run) Resolved() int         { return r.resolved }
func (r *Run) Missing() int          { return r.missing }
func (r *Run) CreatedAt() time.Time  { return r.createdAt }
func (r *Run) UpdatedAt() time.Time  { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string)                 { r.id = id }
func (r *Run) SetSequence(seq int)             { r.sequence = seq }
func (r *Run) SetUserID(id string)             { r.userID = id }
func (r *Run) SetCreatedAt(t time.Time)        { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)        { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time)       { r.deletedAt = t }
func (r *Run) SetCounts(resolved, missing int) { r.resolved, r.missing = resolved, missing }

// SetPlaylist records the playlist created by this run.
func (r *Run) SetPlaylist(id, name, url string) {
	r.playlistID = id
	r.playlistName = name
	r.playlistURL = url
}

// SetState moves the run to state with an optional human-readable message.
func (r *Run) SetState(state RunState, message string) {
	r.state = state
	r.message = message
}

// Validate checks required fields.
func (r *Run) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run ID is required")
	}
	if r.birthYear == 0 || r.targetYear == 0 {
		return fmt.Errorf("birth year and target year are required")
	}
	if r.state == "" {
		return fmt.Errorf("run state is required")
	}
	return nil
}

type runJSON struct {
	ID           string    `json:"id"`
	Sequence     int       `json:"sequence"`
	UserID       string    `json:"userId,omitempty"`
	BirthYear    int       `json:"birthYear"`
	TargetYear   int       `json:"targetYear"`
	PlaylistName string    `json:"playlistName,omitempty"`
	PlaylistID   string    `json:"playlistId,omitempty"`
	PlaylistURL  string    `json:"url,omitempty"`
	State        RunState  `json:"state"`
	Message      string    `json:"message,omitempty"`
	Resolved     int       `json:"resolved"`
	Missing      int       `json:"missing"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarshalJSON exposes the private fields for API and CLI output.
func (r *Run) MarshalJSON() ([]byte, error) {
	return json.Marshal(runJSON{
		ID:           r.id,
		Sequence:     r.sequence,
		UserID:       r.userID,
		BirthYear:    r.birthYear,
		TargetYear:   r.targetYear,
		PlaylistName: r.playlistName,
		PlaylistID:   r.playlistID,
		PlaylistURL:  r.playlistURL,
		State:        r.state,
		Message:      r.message,
		Resolved:     r.resolved,
		Missing:      r.missing,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	})
}

var _ Model = (*Run)(nil)
