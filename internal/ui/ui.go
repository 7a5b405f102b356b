package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BirthYearView ViewState = iota
	SongListView
	ConfirmView
	CreatingView
	ResultView
)

// Runner creates a playlist for a resolution (implemented by [tasks.PlaylistEngine]).
type Runner interface {
	Run(ctx context.Context, res *catalog.Resolution, token string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      *catalog.Catalog
	engine       Runner
	token        string
	width        int
	height       int
	input        textinput.Model
	songList     list.Model
	spinner      spinner.Model
	resolution   *catalog.Resolution
	progressChan chan tasks.ProgressUpdate
	doneChan     chan runCompleteMsg
	progress     []tasks.ProgressUpdate
	result       *tasks.RunResult
	inputErr     error
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates the TUI model. An empty token leaves the song browser usable
// but disables playlist creation.
func NewModel(ctx context.Context, cat *catalog.Catalog, engine Runner, token string) *Model {
	input := textinput.New()
	input.Placeholder = "1990"
	input.CharLimit = 4
	input.Width = 10
	input.Prompt = "Birth year: "
	input.Focus()

	return &Model{
		ctx:     ctx,
		view:    BirthYearView,
		catalog: cat,
		engine:  engine,
		token:   token,
		width:   80,
		height:  24,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.success)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resolution != nil {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case BirthYearView:
			return m.handleBirthYearKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != CreatingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = append(m.progress, tasks.ProgressUpdate(msg))
		return m, waitForProgress(m.progressChan, m.doneChan)

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case BirthYearView:
		return m.renderBirthYear()
	case SongListView:
		return m.renderSongList()
	case ConfirmView:
		return m.renderConfirm()
	case CreatingView:
		return m.renderCreating()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleBirthYearKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.submit):
		res, err := m.catalog.Resolve(m.input.Value())
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		m.showSongs(res)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.reset()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.create):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		if !m.canCreate() {
			return m, nil
		}
		m.view = CreatingView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.again):
		m.reset()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BirthYearView:
		m.input, cmd = m.input.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) showSongs(res *catalog.Resolution) {
	m.resolution = res
	m.songList = list.New(songItems(res.Songs), list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = tasks.PlaylistName(res.TargetYear)
	m.songList.SetShowStatusBar(false)
	m.songList.SetFilteringEnabled(false)
	m.songList.SetSize(m.width-4, m.height-8)
	m.view = SongListView
}

func (m *Model) reset() {
	m.view = BirthYearView
	m.resolution = nil
	m.progress = nil
	m.result = nil
	m.err = nil
	m.inputErr = nil
	m.input.Reset()
	m.input.Focus()
}

func (m *Model) canCreate() bool {
	return m.engine != nil && m.token != "" && m.resolution != nil && len(m.resolution.Songs) > 0
}

// startRun launches the engine in a goroutine. Progress and completion are delivered
// back to Update through [waitForProgress].
func (m *Model) startRun() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan runCompleteMsg, 1)
	m.progressChan = progress
	m.doneChan = done
	m.progress = nil

	ctx, engine, res, token := m.ctx, m.engine, m.resolution, m.token
	go func() {
		result, err := engine.Run(ctx, res, token, progress)
		done <- runCompleteMsg{result: result, err: err}
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

// waitForProgress blocks until the next progress update or the completion message.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan runCompleteMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderBirthYear() string {
	title := styles.title.Render("8th Grade Jams")
	prompt := "What year were you born? We'll find the hits from when you were 14."

	var status string
	if m.inputErr != nil {
		status = "\n\n" + styles.error.Render(capitalize(m.inputErr.Error()))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s", title, prompt, m.input.View(), status, helpView)
}

func (m *Model) renderSongList() string {
	var warning string
	if m.resolution.Warning != "" {
		warning = styles.warning.Render(m.resolution.Warning) + "\n\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.scroll, m.keys.create, m.keys.back, m.keys.exit})
	return fmt.Sprintf("%s%s\n\n%s", warning, m.songList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	name := tasks.PlaylistName(m.resolution.TargetYear)
	title := styles.title.Render(fmt.Sprintf("Create '%s' on Spotify?", name))
	info := fmt.Sprintf("Birth year: %d\nSongs: %d", m.resolution.BirthYear, len(m.resolution.Songs))

	if !m.canCreate() {
		notice := styles.warning.Render("Not logged in to Spotify. Run `jams auth` first.")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, notice, helpView)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.confirm, m.keys.cancel, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderCreating() string {
	title := styles.title.Render("Creating Playlist")

	phase := "Starting..."
	if n := len(m.progress); n > 0 {
		last := m.progress[n-1]
		switch last.Phase {
		case tasks.FetchProfile:
			phase = "Fetching your Spotify profile..."
		case tasks.CreatePlaylist:
			phase = "Creating playlist..."
		case tasks.ResolveTracks:
			phase = fmt.Sprintf("Searching tracks (%d/%d)", last.Step, last.Total)
		case tasks.AddTracks:
			phase = "Adding tracks..."
		default:
			phase = last.Message
		}
	}

	var lines []string
	for _, u := range m.progress {
		if u.Phase == tasks.ResolveTracks {
			lines = append(lines, styles.muted.Render(u.Message))
		}
	}

	return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), phase, strings.Join(lines, "\n"))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.again, m.keys.exit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render(fmt.Sprintf("Playlist creation failed: %v", m.err)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render("No result available"), helpView)
	}
	if !m.result.Succeeded() {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render("✗ "+m.result.Message), helpView)
	}

	title := styles.success.Render("✓ Playlist ready!")
	info := fmt.Sprintf("%s\nTracks: %d/%d\n\n%s",
		m.result.Playlist.Name,
		m.result.Resolved,
		m.result.Resolved+m.result.Missing,
		m.result.PlaylistURL,
	)

	var missing string
	if m.result.Missing > 0 {
		missing = "\n\n" + styles.warning.Render(fmt.Sprintf("%d songs were not found on Spotify", m.result.Missing))
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, styles.box.Render(info), missing, helpView)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
