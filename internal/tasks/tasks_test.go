package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
	tu "github.com/desertthunder/jams/internal/testing"
)

type mockProvider struct {
	mu         sync.Mutex
	user       *services.SpotifyUser
	playlistID string
	matches    map[string]models.TrackReference
	addOK      bool
	delay      time.Duration

	calls    []string
	queries  []string
	added    [][]models.TrackReference
	inflight int
	peak     int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		user:       &services.SpotifyUser{ID: "user-1"},
		playlistID: "pl-1",
		matches:    map[string]models.TrackReference{},
		addOK:      true,
	}
}

func (m *mockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockProvider) UserProfile(ctx context.Context, token string) *services.SpotifyUser {
	m.record("profile")
	return m.user
}

func (m *mockProvider) CreatePlaylist(ctx context.Context, userID, name, token string) string {
	m.record("create:" + userID + ":" + name)
	return m.playlistID
}

func (m *mockProvider) SearchTrack(ctx context.Context, query, token string) models.TrackReference {
	m.mu.Lock()
	m.calls = append(m.calls, "search")
	m.queries = append(m.queries, query)
	m.inflight++
	m.peak = max(m.peak, m.inflight)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
	return m.matches[query]
}

func (m *mockProvider) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []models.TrackReference, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "add:"+playlistID)
	m.added = append(m.added, append([]models.TrackReference(nil), uris...))
	return m.addOK
}

func (m *mockProvider) callCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type mockRecorder struct {
	mu       sync.Mutex
	beginErr error
	saveErr  error
	runs     []*models.Run
	states   []models.RunState
}

func (m *mockRecorder) Begin(ctx context.Context, birthYear, targetYear int) (*models.Run, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	r := models.NewRun(len(m.runs)+1, birthYear, targetYear)
	r.SetID(fmt.Sprintf("run-%d", len(m.runs)+1))
	m.runs = append(m.runs, r)
	return r, nil
}

func (m *mockRecorder) Save(ctx context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, run.State())
	return m.saveErr
}

func resolution(songs ...models.Song) *catalog.Resolution {
	return &catalog.Resolution{BirthYear: 1990, TargetYear: 2004, Songs: songs}
}

func song(title, artist string) models.Song {
	return models.Song{Title: title, Artist: artist}
}

func newEngine(p services.Provider, opts EngineOpts) *PlaylistEngine {
	logger, _ := tu.NewBufferLogger()
	opts.Logger = logger
	return NewPlaylistEngine(p, opts)
}

func TestPlaylistEngine(t *testing.T) {
	ctx := context.Background()
	songs := []models.Song{song("Hey Ya!", "OutKast"), song("Crazy in Love", "Beyoncé"), song("Toxic", "Britney Spears")}

	t.Run("Run", func(t *testing.T) {
		t.Run("creates playlist with matched tracks in order", func(t *testing.T) {
			p := newMockProvider()
			p.matches["Hey Ya! OutKast"] = "spotify:track:1"
			p.matches["Toxic Britney Spears"] = "spotify:track:3"

			result, err := newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.State != models.StateDone || !result.Succeeded() {
				t.Fatalf("expected done, got %s (%s)", result.State, result.Message)
			}
			if result.PlaylistURL != "https://open.spotify.com/playlist/pl-1" {
				t.Errorf("unexpected URL %s", result.PlaylistURL)
			}
			if result.Resolved != 2 || result.Missing != 1 {
				t.Errorf("expected 2 resolved / 1 missing, got %d / %d", result.Resolved, result.Missing)
			}
			if result.Playlist == nil || result.Playlist.Name != "8th Grade Jams (2004)" {
				t.Errorf("unexpected playlist %+v", result.Playlist)
			}

			if len(p.added) != 1 {
				t.Fatalf("expected a single add call, got %d", len(p.added))
			}
			if got := p.added[0]; len(got) != 2 || got[0] != "spotify:track:1" || got[1] != "spotify:track:3" {
				t.Errorf("unexpected added tracks %v", got)
			}

			wantQueries := []string{"Hey Ya! OutKast", "Crazy in Love Beyoncé", "Toxic Britney Spears"}
			if strings.Join(p.queries, "|") != strings.Join(wantQueries, "|") {
				t.Errorf("expected queries %v, got %v", wantQueries, p.queries)
			}
			if p.calls[1] != "create:user-1:8th Grade Jams (2004)" {
				t.Errorf("unexpected create call %s", p.calls[1])
			}
		})

		t.Run("profile failure", func(t *testing.T) {
			p := newMockProvider()
			p.user = nil

			result, err := newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.State != models.StateFailed || result.Message != MsgProfileFailed {
				t.Errorf("unexpected result %+v", result)
			}
			if p.callCount("create") != 0 || p.callCount("search") != 0 {
				t.Error("expected no further calls after profile failure")
			}
		})

		t.Run("create failure", func(t *testing.T) {
			p := newMockProvider()
			p.playlistID = ""

			result, _ := newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil)
			if result.State != models.StateFailed || result.Message != MsgCreateFailed {
				t.Errorf("unexpected result %+v", result)
			}
			if p.callCount("search") != 0 {
				t.Error("expected no searches after create failure")
			}
		})

		t.Run("no matches never calls add", func(t *testing.T) {
			p := newMockProvider()

			result, _ := newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil)
			if result.State != models.StateFailed || result.Message != MsgNoTracksFound {
				t.Errorf("unexpected result %+v", result)
			}
			if p.callCount("add") != 0 {
				t.Error("add must not be called with an empty list")
			}
			if result.Playlist == nil || result.Playlist.ID != "pl-1" {
				t.Error("expected leaked playlist to be reported")
			}
			if result.Missing != 3 {
				t.Errorf("expected 3 missing, got %d", result.Missing)
			}
		})

		t.Run("add failure", func(t *testing.T) {
			p := newMockProvider()
			p.matches["Hey Ya! OutKast"] = "spotify:track:1"
			p.addOK = false

			result, _ := newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil)
			if result.State != models.StateFailed || result.Message != MsgAddFailed {
				t.Errorf("unexpected result %+v", result)
			}
			if result.PlaylistURL != "" {
				t.Error("failed run should not expose a playlist URL")
			}
		})

		t.Run("invalid arguments", func(t *testing.T) {
			e := newEngine(newMockProvider(), EngineOpts{})

			if _, err := e.Run(ctx, resolution(songs...), "", nil); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if _, err := e.Run(ctx, resolution(), "tok", nil); !errors.Is(err, shared.ErrNoSongData) {
				t.Errorf("expected ErrNoSongData, got %v", err)
			}
			if _, err := e.Run(ctx, nil, "tok", nil); !errors.Is(err, shared.ErrNoSongData) {
				t.Errorf("expected ErrNoSongData, got %v", err)
			}
			if _, err := newEngine(nil, EngineOpts{}).Run(ctx, resolution(songs...), "tok", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("cancelled context stops resolution", func(t *testing.T) {
			p := newMockProvider()
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			result, _ := newEngine(p, EngineOpts{}).Run(cctx, resolution(songs...), "tok", nil)
			if result.State != models.StateFailed || !strings.HasPrefix(result.Message, MsgRunCancelled) {
				t.Errorf("unexpected result %+v", result)
			}
			if p.callCount("search") != 0 || p.callCount("add") != 0 {
				t.Error("expected no searches or adds after cancellation")
			}
		})
	})

	t.Run("Workers", func(t *testing.T) {
		many := make([]models.Song, 12)
		p := newMockProvider()
		p.delay = 5 * time.Millisecond
		for i := range many {
			many[i] = song(fmt.Sprintf("Song %02d", i), "Artist")
			if i%3 != 0 {
				p.matches[shared.SearchQuery(many[i].Title, "Artist")] = models.TrackReference(fmt.Sprintf("spotify:track:%02d", i))
			}
		}

		result, err := newEngine(p, EngineOpts{Workers: 4}).Run(ctx, resolution(many...), "tok", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != models.StateDone {
			t.Fatalf("expected done, got %s", result.State)
		}
		if p.peak < 2 {
			t.Errorf("expected concurrent searches, peak was %d", p.peak)
		}
		if p.peak > 4 {
			t.Errorf("expected at most 4 concurrent searches, peak was %d", p.peak)
		}

		added := p.added[0]
		if len(added) != 8 {
			t.Fatalf("expected 8 tracks, got %d", len(added))
		}
		for i := 1; i < len(added); i++ {
			if added[i-1] >= added[i] {
				t.Fatalf("tracks out of list order: %v", added)
			}
		}
	})

	t.Run("RateLimit", func(t *testing.T) {
		p := newMockProvider()
		p.matches["Hey Ya! OutKast"] = "spotify:track:1"

		start := time.Now()
		result, _ := newEngine(p, EngineOpts{RateLimit: 20}).Run(ctx, resolution(songs...), "tok", nil)
		if result.State != models.StateDone {
			t.Fatalf("expected done, got %s", result.State)
		}
		if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
			t.Errorf("expected paced searches, took %s", elapsed)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		p := newMockProvider()
		p.matches["Hey Ya! OutKast"] = "spotify:track:1"
		progress := make(chan ProgressUpdate, 32)

		newEngine(p, EngineOpts{}).Run(ctx, resolution(songs...), "tok", progress)
		close(progress)

		var phases []string
		resolveSteps := 0
		for u := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != u.Phase.String() {
				phases = append(phases, u.Phase.String())
			}
			if u.Phase == ResolveTracks {
				resolveSteps++
				if u.Total != 3 {
					t.Errorf("expected total 3, got %d", u.Total)
				}
			}
		}

		want := "fetch_profile,create_playlist,resolve_tracks,add_tracks,done"
		if strings.Join(phases, ",") != want {
			t.Errorf("expected phases %s, got %v", want, phases)
		}
		if resolveSteps != 3 {
			t.Errorf("expected 3 resolve updates, got %d", resolveSteps)
		}

		t.Run("full channel never blocks", func(t *testing.T) {
			blocked := make(chan ProgressUpdate)
			done := make(chan struct{})
			go func() {
				newEngine(newMockProvider(), EngineOpts{}).Run(ctx, resolution(songs...), "tok", blocked)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("run blocked on progress channel")
			}
		})
	})

	t.Run("Recorder", func(t *testing.T) {
		t.Run("records transitions", func(t *testing.T) {
			p := newMockProvider()
			p.matches["Hey Ya! OutKast"] = "spotify:track:1"
			rec := &mockRecorder{}

			result, _ := newEngine(p, EngineOpts{Recorder: rec}).Run(ctx, resolution(songs...), "tok", nil)
			if result.RunID != "run-1" {
				t.Errorf("expected run-1, got %q", result.RunID)
			}

			want := []models.RunState{
				models.StateFetchingProfile, models.StateCreatingPlaylist, models.StateResolvingTracks,
				models.StateAddingTracks, models.StateDone,
			}
			if fmt.Sprint(rec.states) != fmt.Sprint(want) {
				t.Errorf("expected states %v, got %v", want, rec.states)
			}

			run := rec.runs[0]
			if run.UserID() != "user-1" || run.PlaylistID() != "pl-1" || run.Resolved() != 1 || run.Missing() != 2 {
				t.Errorf("unexpected run record %+v", run)
			}
		})

		t.Run("leaked playlist stays in history", func(t *testing.T) {
			rec := &mockRecorder{}
			newEngine(newMockProvider(), EngineOpts{Recorder: rec}).Run(ctx, resolution(songs...), "tok", nil)

			run := rec.runs[0]
			if run.State() != models.StateFailed || run.Message() != MsgNoTracksFound || run.PlaylistID() != "pl-1" {
				t.Errorf("unexpected run record: state=%s message=%q playlist=%q", run.State(), run.Message(), run.PlaylistID())
			}
		})

		t.Run("recorder errors do not fail the run", func(t *testing.T) {
			p := newMockProvider()
			p.matches["Hey Ya! OutKast"] = "spotify:track:1"

			for _, rec := range []*mockRecorder{{beginErr: errors.New("db down")}, {saveErr: errors.New("db down")}} {
				result, err := newEngine(p, EngineOpts{Recorder: rec}).Run(ctx, resolution(songs...), "tok", nil)
				if err != nil || result.State != models.StateDone {
					t.Errorf("expected done despite recorder error, got %v / %+v", err, result)
				}
			}
		})
	})

	t.Run("Against Spotify API", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.Tracks["Crazy in Love Beyoncé"] = "spotify:track:crazy"

		logger, _ := tu.NewBufferLogger()
		svc, err := services.NewSpotifyService(
			shared.SpotifyConfig{ClientID: fake.ClientID, ClientSecret: fake.ClientSecret}, "",
			services.WithBaseURL(fake.APIURL()), services.WithLogger(logger),
		)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		result, err := newEngine(svc, EngineOpts{}).Run(ctx, resolution(songs...), fake.AccessToken, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != models.StateDone || result.PlaylistURL != "https://open.spotify.com/playlist/playlist-1" {
			t.Errorf("unexpected result %+v", result)
		}
		if added := fake.Added(); len(added) != 1 || len(added[0]) != 1 || added[0][0] != "spotify:track:crazy" {
			t.Errorf("unexpected adds %v", added)
		}
	})
}

func TestPhase(t *testing.T) {
	tests := []struct {
		phase Phase
		name  string
		state models.RunState
	}{
		{FetchProfile, "fetch_profile", models.StateFetchingProfile},
		{CreatePlaylist, "create_playlist", models.StateCreatingPlaylist},
		{ResolveTracks, "resolve_tracks", models.StateResolvingTracks},
		{AddTracks, "add_tracks", models.StateAddingTracks},
		{Done, "done", models.StateDone},
		{Failed, "failed", models.StateFailed},
		{Phase(99), "", models.StateIdle},
	}
	for _, tt := range tests {
		if tt.phase.String() != tt.name {
			t.Errorf("expected %q, got %q", tt.name, tt.phase.String())
		}
		if tt.phase.State() != tt.state {
			t.Errorf("expected %s, got %s", tt.state, tt.phase.State())
		}
	}
}
