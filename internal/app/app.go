package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/screens/home"
	"github.com/abhisek/nextstep/internal/screens/welcome"
	"github.com/abhisek/nextstep/internal/session"
	"github.com/abhisek/nextstep/internal/ui/layout"
)

// Options configures the terminal test-taker.
type Options struct {
	Deps screen.Deps

	// Notes delivers orchestrator notifications (countdown ticks and
	// timer-forced submissions) into the program. May be nil.
	Notes <-chan session.Notification

	// SkipWelcome opens the home screen directly.
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	deps   screen.Deps
	notes  <-chan session.Notification
	width  int
	height int
}

// newAppModel creates a new AppModel starting at the welcome screen.
func newAppModel(opts Options) AppModel {
	var first screen.Screen = home.New(opts.Deps)
	if !opts.SkipWelcome {
		first = welcome.New(opts.Deps.Candidate, func() screen.Screen { return home.New(opts.Deps) })
	}
	return AppModel{
		router: router.New(first),
		deps:   opts.Deps,
		notes:  opts.Notes,
	}
}

// waitForNote blocks on the notification channel. It is re-issued after
// every delivered notification.
func waitForNote(notes <-chan session.Notification) tea.Cmd {
	if notes == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-notes
		if !ok {
			return nil
		}
		return screen.NotificationMsg{Notification: n}
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), waitForNote(m.notes))
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case screen.NotificationMsg:
		return m, tea.Batch(m.router.Update(msg), waitForNote(m.notes))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(m.router.Trail(), m.deps.Candidate, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
