// Package tui provides a terminal user interface.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/netguard/internal/model"
	"github.com/user/netguard/internal/monitor"
	"github.com/user/netguard/internal/util"
)

const (
	pollInterval = 500 * time.Millisecond
	toastTTL     = 4 * time.Second
)

// Session is the part of the monitoring session the UI drives.
type Session interface {
	Toggle() error
	Refresh(ctx context.Context) error
	Snapshot() monitor.Snapshot
}

// App is the main TUI application.
type App struct {
	session Session
	notes   <-chan model.Notification
	config  *util.Config
}

// NewApp creates a new TUI application. notes may be nil.
func NewApp(session Session, notes <-chan model.Notification, cfg *util.Config) *App {
	return &App{
		session: session,
		notes:   notes,
		config:  cfg,
	}
}

// Run starts the TUI application and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(newModel(a.session, a.notes, a.config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// appModel is the main bubbletea model.
type appModel struct {
	session    Session
	notes      <-chan model.Notification
	timeout    time.Duration
	spinner    spinner.Model
	snap       monitor.Snapshot
	toast      *model.Notification
	toastUntil time.Time
	ready      bool
	width      int
	height     int
	err        error
}

func newModel(session Session, notes <-chan model.Notification, cfg *util.Config) appModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(Primary)

	m := appModel{
		session: session,
		notes:   notes,
		spinner: s,
		width:   80,
	}
	if cfg != nil {
		m.timeout = cfg.RequestTimeout
	}
	return m
}

// Init initializes the model.
func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadSnapshot(m.session),
		waitForNote(m.notes),
	)
}

// Update handles messages.
func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s", " ":
			return m, toggle(m.session)
		case "r":
			return m, refresh(m.session, m.timeout)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.ready = true
		m.snap = msg.snap
		if m.toast != nil && msg.at.After(m.toastUntil) {
			m.toast = nil
		}
		return m, tea.Tick(pollInterval, func(t time.Time) tea.Msg {
			return pollMsg{}
		})

	case pollMsg:
		return m, loadSnapshot(m.session)

	case actionMsg:
		m.snap = msg.snap

	case noteMsg:
		n := model.Notification(msg)
		m.toast = &n
		m.toastUntil = time.Now().Add(toastTTL)
		return m, waitForNote(m.notes)

	case errMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI.
func (m appModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render("Error: " + m.err.Error())
	}

	if !m.ready {
		return LoadingStyle.Render(m.spinner.View() + " Loading...")
	}

	d := NewDashboard(m.snap, m.width, m.height)
	d.Toast = m.toast
	d.Spinner = m.spinner.View()
	return d.View()
}

// Messages
type snapshotMsg struct {
	snap monitor.Snapshot
	at   time.Time
}

type pollMsg struct{}

// actionMsg carries the snapshot after a key action. Unlike snapshotMsg it
// does not schedule another poll.
type actionMsg struct {
	snap monitor.Snapshot
}

type noteMsg model.Notification

type errMsg struct {
	err error
}

func loadSnapshot(s Session) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: s.Snapshot(), at: time.Now()}
	}
}

func toggle(s Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.Toggle(); err != nil {
			return errMsg{err}
		}
		return actionMsg{snap: s.Snapshot()}
	}
}

// refresh failures are reported through the notifier, so only the new
// snapshot is returned here.
func refresh(s Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.Refresh(ctx); err != nil {
			util.Debug("Refresh: %v", err)
		}
		return actionMsg{snap: s.Snapshot()}
	}
}

func waitForNote(ch <-chan model.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noteMsg(n)
	}
}
