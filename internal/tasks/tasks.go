// package tasks turns a resolved song list into a Spotify playlist.
//
// [PlaylistEngine] runs the linear orchestration and emits progress updates through channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
	"golang.org/x/time/rate"
)

// Failure messages exposed by a failed run.
const (
	MsgProfileFailed = "could not fetch profile"
	MsgCreateFailed  = "could not create playlist"
	MsgNoTracksFound = "none of these songs found"
	MsgAddFailed     = "add tracks failed"
	MsgRunCancelled  = "run cancelled"
)

const maxWorkers = 10

// PlaylistName returns the name given to the playlist for a target year.
func PlaylistName(targetYear int) string {
	return fmt.Sprintf("8th Grade Jams (%d)", targetYear)
}

// RunResult is the terminal outcome of [PlaylistEngine.Run].
type RunResult struct {
	RunID       string                  `json:"runId,omitempty"`
	State       models.RunState         `json:"state"`
	Playlist    *models.Playlist        `json:"playlist,omitempty"`
	PlaylistURL string                  `json:"url,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Resolved    int                     `json:"resolved"`
	Missing     int                     `json:"missing"`
	References  []models.TrackReference `json:"-"`
}

// Succeeded reports whether the run reached the done state.
func (r *RunResult) Succeeded() bool {
	return r.State == models.StateDone
}

// RunRecorder persists run history. Failures are logged and never fail the run.
type RunRecorder interface {
	// Begin creates and stores a new idle run.
	Begin(ctx context.Context, birthYear, targetYear int) (*models.Run, error)

	// Save stores the current state of a run.
	Save(ctx context.Context, run *models.Run) error
}

// EngineOpts configures a [PlaylistEngine].
type EngineOpts struct {
	Workers   int         // Concurrent track searches (<= 1 is sequential)
	RateLimit float64     // Search requests per second (0 is unlimited)
	Recorder  RunRecorder // Optional run history
	Logger    *log.Logger
}

// PlaylistEngine drives the IDLE → FETCHING_PROFILE → CREATING_PLAYLIST → RESOLVING_TRACKS →
// ADDING_TRACKS → DONE | FAILED state machine for a single run.
type PlaylistEngine struct {
	provider  services.Provider
	workers   int
	rateLimit float64
	recorder  RunRecorder
	logger    *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided provider.
func NewPlaylistEngine(provider services.Provider, opts EngineOpts) *PlaylistEngine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &PlaylistEngine{
		provider:  provider,
		workers:   opts.Workers,
		rateLimit: opts.RateLimit,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run creates a playlist for the resolved songs using token.
//
// Provider failures end the run in the failed state and are reported through [RunResult.Message]; the returned
// error is reserved for invalid arguments. A playlist that was created before a failure is left in place.
func (e *PlaylistEngine) Run(ctx context.Context, res *catalog.Resolution, token string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if res == nil || len(res.Songs) == 0 {
		return nil, fmt.Errorf("%w: nothing to add", shared.ErrNoSongData)
	}

	r := &run{engine: e, result: &RunResult{State: models.StateIdle}, progress: progress}
	r.begin(ctx, res)

	r.transition(ctx, models.StateFetchingProfile)
	e.sendProgress(progress, fetchProfileUpdate())
	user := e.provider.UserProfile(ctx, token)
	if user == nil {
		return r.fail(ctx, MsgProfileFailed), nil
	}

	name := PlaylistName(res.TargetYear)
	r.transition(ctx, models.StateCreatingPlaylist)
	e.sendProgress(progress, createPlaylistUpdate(name))
	id := e.provider.CreatePlaylist(ctx, user.ID, name, token)
	if id == "" {
		return r.fail(ctx, MsgCreateFailed), nil
	}

	r.result.Playlist = &models.Playlist{ID: id, Name: name}
	if r.record != nil {
		r.record.SetUserID(user.ID)
		r.record.SetPlaylist(id, name, services.PlaylistURL(id))
	}
	e.sendProgress(progress, playlistCreatedUpdate(r.result.Playlist))

	r.transition(ctx, models.StateResolvingTracks)
	refs, err := e.resolve(ctx, res.Songs, token, progress)
	r.result.Resolved = len(refs)
	r.result.Missing = len(res.Songs) - len(refs)
	if err != nil {
		return r.fail(ctx, fmt.Sprintf("%s: %v", MsgRunCancelled, err)), nil
	}
	if len(refs) == 0 {
		return r.fail(ctx, MsgNoTracksFound), nil
	}
	r.result.References = refs

	r.transition(ctx, models.StateAddingTracks)
	e.sendProgress(progress, addTracksUpdate(len(refs)))
	if !e.provider.AddTracksToPlaylist(ctx, id, refs, token) {
		return r.fail(ctx, MsgAddFailed), nil
	}

	r.result.PlaylistURL = services.PlaylistURL(id)
	r.result.State = models.StateDone
	r.save(ctx, "")
	e.sendProgress(progress, doneUpdate(r.result))

	e.logger.Info("playlist created", "playlist", id, "resolved", r.result.Resolved, "missing", r.result.Missing)
	return r.result, nil
}

// resolve searches each song and returns the references found, in song order.
func (e *PlaylistEngine) resolve(ctx context.Context, songs []models.Song, token string, progress chan<- ProgressUpdate) ([]models.TrackReference, error) {
	var limiter *rate.Limiter
	if e.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.rateLimit), 1)
	}

	total := len(songs)
	found := make([]models.TrackReference, total)
	var step atomic.Int32

	search := func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		song := songs[i]
		found[i] = e.provider.SearchTrack(ctx, shared.SearchQuery(song.Title, song.Artist), token)
		e.sendProgress(progress, resolveTrackUpdate(int(step.Add(1)), total, song, found[i]))
		return nil
	}

	var err error
	if e.workers <= 1 || total <= 1 {
		for i := range songs {
			if err = search(i); err != nil {
				break
			}
		}
	} else {
		err = e.resolvePool(total, search)
	}

	refs := make([]models.TrackReference, 0, total)
	for _, ref := range found {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs, err
}

// resolvePool runs search for every index on a bounded worker pool and returns the first error.
func (e *PlaylistEngine) resolvePool(total int, search func(int) error) error {
	jobs := make(chan int, total)
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	workers := min(e.workers, total)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := search(i); err != nil {
					once.Do(func() { firstErr = err })
					return
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// run tracks the state of one [PlaylistEngine.Run] call and its history record.
type run struct {
	engine   *PlaylistEngine
	result   *RunResult
	record   *models.Run
	progress chan<- ProgressUpdate
}

func (r *run) begin(ctx context.Context, res *catalog.Resolution) {
	if r.engine.recorder == nil {
		return
	}
	record, err := r.engine.recorder.Begin(ctx, res.BirthYear, res.TargetYear)
	if err != nil {
		r.engine.logger.Warn("failed to record run", "error", err)
		return
	}
	r.record = record
	r.result.RunID = record.ID()
}

func (r *run) transition(ctx context.Context, state models.RunState) {
	r.engine.logger.Debug("run state", "from", r.result.State, "to", state)
	r.result.State = state
	r.save(ctx, "")
}

func (r *run) fail(ctx context.Context, msg string) *RunResult {
	r.engine.logger.Error("playlist run failed", "state", r.result.State, "message", msg)
	r.result.State = models.StateFailed
	r.result.Message = msg
	r.save(ctx, msg)
	r.engine.sendProgress(r.progress, failedUpdate(r.result))
	return r.result
}

func (r *run) save(ctx context.Context, msg string) {
	if r.record == nil {
		return
	}
	r.record.SetState(r.result.State, msg)
	r.record.SetCounts(r.result.Resolved, r.result.Missing)
	if r.result.PlaylistURL != "" && r.result.Playlist != nil {
		r.record.SetPlaylist(r.result.Playlist.ID, r.result.Playlist.Name, r.result.PlaylistURL)
	}
	if err := r.engine.recorder.Save(context.WithoutCancel(ctx), r.record); err != nil {
		r.engine.logger.Warn("failed to save run", "run", r.record.ID(), "error", err)
	}
}
