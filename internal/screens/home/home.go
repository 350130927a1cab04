package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/screens/result"
	"github.com/abhisek/nextstep/internal/screens/subtest"
	"github.com/abhisek/nextstep/internal/ui/components"
	"github.com/abhisek/nextstep/internal/ui/theme"
)

// statusMsg carries the persisted state of every sub-test.
type statusMsg struct {
	Sessions map[assessment.SubTest]*assessment.Session
	Err      error
}

// HomeScreen lists the sub-tests with their progress and links to the
// final result.
type HomeScreen struct {
	deps     screen.Deps
	menu     components.Menu
	sessions map[assessment.SubTest]*assessment.Session
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.buildMenu()
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStatus()
}

// Resume refreshes sub-test progress when the candidate returns here.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStatus()
}

func (h *HomeScreen) loadStatus() tea.Cmd {
	deps := h.deps
	return func() tea.Msg {
		ctx := context.Background()
		out := make(map[assessment.SubTest]*assessment.Session, len(assessment.AllSubTests))
		for _, st := range assessment.AllSubTests {
			sess, err := deps.Sessions.Current(ctx, deps.Token, st)
			if err != nil {
				return statusMsg{Err: err}
			}
			out[st] = sess
		}
		return statusMsg{Sessions: out}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statusMsg); ok {
		h.loaded = true
		h.errMsg = ""
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
		} else {
			h.sessions = msg.Sessions
		}
		selected := h.menu.Selected
		h.buildMenu()
		if selected < len(h.menu.Items) {
			h.menu.Selected = selected
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) buildMenu() {
	items := make([]components.MenuItem, 0, len(assessment.AllSubTests)+2)
	complete := 0
	for _, st := range assessment.AllSubTests {
		sess := h.sessions[st]
		if sess != nil && sess.State == assessment.StateComplete {
			complete++
		}
		items = append(items, components.MenuItem{
			Label:  st.Label(),
			Status: statusText(sess),
			Action: h.openSubTest(st, sess),
		})
	}

	finalStatus := fmt.Sprintf("%d of %d tests complete", complete, len(assessment.AllSubTests))
	items = append(items,
		components.MenuItem{Label: "Final Result", Status: finalStatus, Action: func() tea.Cmd {
			return push(result.NewFinal(h.deps))
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	h.menu = components.NewMenu(items)
}

// openSubTest shows the result of a completed sub-test and runs any other.
func (h *HomeScreen) openSubTest(st assessment.SubTest, sess *assessment.Session) func() tea.Cmd {
	deps := h.deps
	var takeTest func(restart bool) screen.Screen
	showResult := func() screen.Screen {
		return result.NewSubTest(deps, st, func() screen.Screen { return takeTest(true) })
	}
	takeTest = func(restart bool) screen.Screen {
		return subtest.New(deps, st, restart, showResult)
	}

	return func() tea.Cmd {
		if sess != nil && sess.State == assessment.StateComplete {
			return push(showResult())
		}
		return push(takeTest(false))
	}
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func statusText(sess *assessment.Session) string {
	if sess == nil {
		return ""
	}
	switch sess.State {
	case assessment.StateInProgress, assessment.StateCompleting:
		return fmt.Sprintf("in progress %d/%d", sess.AnsweredCount, sess.QuestionCount)
	case assessment.StateComplete:
		return "complete ✓"
	}
	return "not started"
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	greeting := "Your assessment"
	if h.deps.Candidate != "" {
		greeting = "Hi " + h.deps.Candidate + ", here is your assessment"
	}
	sections = append(sections, theme.Title.Width(cw).Render(greeting))
	sections = append(sections, theme.Subtitle.Width(cw).Render("Take the tests in any order. Progress is saved as you go."))
	sections = append(sections, components.Card(h.menu.View(), cw))
	if h.errMsg != "" {
		sections = append(sections, theme.Bad.Render(h.errMsg))
	} else if !h.loaded {
		sections = append(sections, theme.Hint.Render("loading progress..."))
	}

	return components.Center(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
