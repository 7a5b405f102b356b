package tasks

import (
	"fmt"

	"github.com/desertthunder/jams/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase mirrors the orchestration state a progress update belongs to.
type Phase int

const (
	FetchProfile Phase = iota
	CreatePlaylist
	ResolveTracks
	AddTracks
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case CreatePlaylist:
		return "create_playlist"
	case ResolveTracks:
		return "resolve_tracks"
	case AddTracks:
		return "add_tracks"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// State returns the run state a phase reports on.
func (p Phase) State() models.RunState {
	switch p {
	case FetchProfile:
		return models.StateFetchingProfile
	case CreatePlaylist:
		return models.StateCreatingPlaylist
	case ResolveTracks:
		return models.StateResolvingTracks
	case AddTracks:
		return models.StateAddingTracks
	case Done:
		return models.StateDone
	case Failed:
		return models.StateFailed
	default:
		return models.StateIdle
	}
}

func fetchProfileUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchProfile, Step: 1, Total: 1, Message: "Fetching Spotify profile..."}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func resolveTrackUpdate(step, total int, song models.Song, ref models.TrackReference) ProgressUpdate {
	mark := "✓"
	if ref == "" {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, song.Artist, song.Title),
		Data:    ref,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks to playlist...", count),
	}
}

func doneUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist ready: %s", result.PlaylistURL),
		Data:    result,
	}
}

func failedUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Step: 1, Total: 1, Message: result.Message, Data: result}
}
