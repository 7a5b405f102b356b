package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/tasks"
)

type fakeRunner struct {
	result *tasks.RunResult
	err    error
	calls  int
	token  string
}

func (f *fakeRunner) Run(_ context.Context, res *catalog.Resolution, token string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	f.calls++
	f.token = token
	progress <- tasks.ProgressUpdate{Phase: tasks.ResolveTracks, Step: 1, Total: len(res.Songs), Message: "[1/2] ✓ Artist - Song"}
	return f.result, f.err
}

func testCatalog() *catalog.Catalog {
	return catalog.FromMap(map[string][]models.Song{
		"2004": {{Title: "Yeah!", Artist: "Usher"}, {Title: "Hey Ya!", Artist: "OutKast"}},
		"2000": {{Title: "Breathe", Artist: "Faith Hill"}},
	})
}

func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func pressRune(m *Model, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

// drain feeds engine messages back into the model until the run completes.
func drain(t *testing.T, m *Model) {
	t.Helper()
	for i := 0; i < 10 && m.view == CreatingView; i++ {
		m.Update(waitForProgress(m.progressChan, m.doneChan)())
	}
	if m.view != ResultView {
		t.Fatalf("expected ResultView, got %v", m.view)
	}
}

func TestModel(t *testing.T) {
	t.Run("valid year shows songs", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)

		if m.view != SongListView {
			t.Fatalf("expected SongListView, got %v", m.view)
		}
		if m.resolution.TargetYear != 2004 {
			t.Errorf("expected target 2004, got %d", m.resolution.TargetYear)
		}
		if len(m.songList.Items()) != 2 {
			t.Errorf("expected 2 items, got %d", len(m.songList.Items()))
		}
	})

	t.Run("fallback shows warning", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		typeText(t, m, "1987")
		press(m, tea.KeyEnter)

		if m.view != SongListView {
			t.Fatalf("expected SongListView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Showing top songs from 2000s") {
			t.Errorf("expected fallback warning in view")
		}
	})

	t.Run("invalid year stays on input", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		typeText(t, m, "1900")
		press(m, tea.KeyEnter)

		if m.view != BirthYearView {
			t.Fatalf("expected BirthYearView, got %v", m.view)
		}
		if m.inputErr == nil {
			t.Fatal("expected input error")
		}
		if !strings.Contains(m.View(), "between 1950 and 2015") {
			t.Errorf("expected validation message in view")
		}
	})

	t.Run("missing data stays on input", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		typeText(t, m, "1960")
		press(m, tea.KeyEnter)

		if m.view != BirthYearView {
			t.Fatalf("expected BirthYearView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "don't have song data for 1974") {
			t.Errorf("expected no data message in view")
		}
	})

	t.Run("confirm without token does not start a run", func(t *testing.T) {
		runner := &fakeRunner{}
		m := NewModel(context.Background(), testCatalog(), runner, "")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEnter)

		if m.view != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "jams auth") {
			t.Errorf("expected login notice in view")
		}
		if cmd := pressRune(m, 'y'); cmd != nil {
			t.Error("expected no command without a token")
		}
		if runner.calls != 0 {
			t.Errorf("expected no engine calls, got %d", runner.calls)
		}
	})

	t.Run("successful run", func(t *testing.T) {
		runner := &fakeRunner{result: &tasks.RunResult{
			State:       models.StateDone,
			Playlist:    &models.Playlist{ID: "pl", Name: "8th Grade Jams (2004)"},
			PlaylistURL: "https://open.spotify.com/playlist/pl",
			Resolved:    1,
			Missing:     1,
		}}
		m := NewModel(context.Background(), testCatalog(), runner, "token")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEnter)
		if cmd := pressRune(m, 'y'); cmd == nil {
			t.Fatal("expected run command")
		}
		if m.view != CreatingView {
			t.Fatalf("expected CreatingView, got %v", m.view)
		}
		drain(t, m)

		if runner.token != "token" {
			t.Errorf("expected token to be passed, got %q", runner.token)
		}
		view := m.View()
		for _, want := range []string{"Playlist ready", "open.spotify.com/playlist/pl", "1 songs were not found"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in view", want)
			}
		}
	})

	t.Run("failed run shows message", func(t *testing.T) {
		runner := &fakeRunner{result: &tasks.RunResult{State: models.StateFailed, Message: tasks.MsgNoTracksFound}}
		m := NewModel(context.Background(), testCatalog(), runner, "token")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEnter)
		pressRune(m, 'y')
		drain(t, m)

		if !strings.Contains(m.View(), tasks.MsgNoTracksFound) {
			t.Errorf("expected failure message in view")
		}
	})

	t.Run("restart returns to input", func(t *testing.T) {
		runner := &fakeRunner{result: &tasks.RunResult{State: models.StateFailed, Message: "failed"}}
		m := NewModel(context.Background(), testCatalog(), runner, "token")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEnter)
		pressRune(m, 'y')
		drain(t, m)
		pressRune(m, 'r')

		if m.view != BirthYearView {
			t.Fatalf("expected BirthYearView, got %v", m.view)
		}
		if m.input.Value() != "" || m.resolution != nil || m.result != nil {
			t.Error("expected state to be reset")
		}
	})

	t.Run("escape from song list goes back", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEsc)

		if m.view != BirthYearView {
			t.Fatalf("expected BirthYearView, got %v", m.view)
		}
	})

	t.Run("declining confirmation returns to songs", func(t *testing.T) {
		runner := &fakeRunner{}
		m := NewModel(context.Background(), testCatalog(), runner, "token")
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		press(m, tea.KeyEnter)
		pressRune(m, 'n')

		if m.view != SongListView {
			t.Fatalf("expected SongListView, got %v", m.view)
		}
		if runner.calls != 0 {
			t.Errorf("expected no engine calls, got %d", runner.calls)
		}
	})

	t.Run("q is typed into the input but quits elsewhere", func(t *testing.T) {
		m := NewModel(context.Background(), testCatalog(), nil, "")
		pressRune(m, 'q')
		if m.view != BirthYearView || m.input.Value() != "q" {
			t.Fatalf("expected q to be typed, got view %v value %q", m.view, m.input.Value())
		}

		m.input.Reset()
		typeText(t, m, "1990")
		press(m, tea.KeyEnter)
		cmd := pressRune(m, 'q')
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected q to quit from the song list")
		}
	})
}
