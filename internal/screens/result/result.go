package result

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/ui/layout"
)

type subTestMsg struct {
	Result *assessment.SubTestResult
	Err    error
}

type finalMsg struct {
	Result *assessment.FinalResult
	Err    error
}

// Screen shows either one sub-test's summary or the aggregated final result.
type Screen struct {
	deps      screen.Deps
	subTest   assessment.SubTest // empty for the final result
	onRestart func() screen.Screen

	loading bool
	sub     *assessment.SubTestResult
	final   *assessment.FinalResult
	missing []assessment.SubTest
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// NewSubTest creates a screen for one completed sub-test. onRestart, if set,
// builds the screen that replaces this one when the candidate retakes it.
func NewSubTest(deps screen.Deps, st assessment.SubTest, onRestart func() screen.Screen) *Screen {
	return &Screen{deps: deps, subTest: st, onRestart: onRestart, loading: true}
}

// NewFinal creates the final result screen. It generates the result on
// open, which reuses the stored guidance when no sub-test has changed.
func NewFinal(deps screen.Deps) *Screen {
	return &Screen{deps: deps, loading: true}
}

func (s *Screen) Init() tea.Cmd {
	if s.subTest != "" {
		deps, st := s.deps, s.subTest
		return func() tea.Msg {
			r, err := deps.Results.SubTestResult(context.Background(), deps.CandidateID, st)
			return subTestMsg{Result: r, Err: err}
		}
	}
	return s.generate()
}

func (s *Screen) generate() tea.Cmd {
	s.loading = true
	deps := s.deps
	return func() tea.Msg {
		r, err := deps.Results.Generate(context.Background(), deps.CandidateID)
		return finalMsg{Result: r, Err: err}
	}
}

func (s *Screen) Title() string {
	if s.subTest != "" {
		return s.subTest.Label() + " Result"
	}
	return "Final Result"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	switch {
	case s.subTest != "" && s.onRestart != nil:
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retake"})
	case s.subTest == "":
		hints = append(hints, layout.KeyHint{Key: "G", Description: "Regenerate"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case subTestMsg:
		s.loading = false
		s.sub = msg.Result
		s.setErr(msg.Err)
		return s, nil

	case finalMsg:
		s.loading = false
		s.final = msg.Result
		s.missing = nil
		s.setErr(msg.Err)
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "enter", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r", "R":
			if s.subTest != "" && s.onRestart != nil {
				next := s.onRestart()
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
		case "g", "G":
			if s.subTest == "" && !s.loading {
				return s, s.generate()
			}
		}
	}
	return s, nil
}

func (s *Screen) setErr(err error) {
	s.errMsg = ""
	if err == nil {
		return
	}
	var incomplete *assessment.AggregationIncompleteError
	switch {
	case errors.As(err, &incomplete):
		s.missing = incomplete.Missing
	case errors.Is(err, assessment.ErrNotFound):
		s.errMsg = "No result yet. Finish the test first."
	default:
		s.errMsg = err.Error()
	}
}
