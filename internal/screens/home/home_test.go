package home

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/screens/result"
	"github.com/abhisek/nextstep/internal/screens/subtest"
)

// stateSessions reports a fixed state per sub-test from Current.
type stateSessions struct {
	screen.Sessions
	states map[assessment.SubTest]assessment.SessionState
}

func (s *stateSessions) Current(_ context.Context, _ string, st assessment.SubTest) (*assessment.Session, error) {
	state, ok := s.states[st]
	if !ok {
		state = assessment.StateNotStarted
	}
	return &assessment.Session{SubTest: st, State: state, AnsweredCount: 4, QuestionCount: 20}, nil
}

func newHome(states map[assessment.SubTest]assessment.SessionState) *HomeScreen {
	h := New(screen.Deps{Token: "tok", Candidate: "Ada", Sessions: &stateSessions{states: states}})
	h.Update(h.Init()())
	return h
}

func selectItem(h *HomeScreen, n int) tea.Msg {
	for i := 0; i < n; i++ {
		h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd()
}

func TestStatusShownPerSubTest(t *testing.T) {
	h := newHome(map[assessment.SubTest]assessment.SessionState{
		assessment.SubTestGapAnalysis: assessment.StateComplete,
		assessment.SubTestCoding:      assessment.StateInProgress,
	})

	view := h.View(100, 30)
	for _, want := range []string{"Hi Ada", "complete ✓", "in progress 4/20", "not started", "1 of 3 tests complete"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestCompletedSubTestOpensResult(t *testing.T) {
	h := newHome(map[assessment.SubTest]assessment.SessionState{
		assessment.SubTestGapAnalysis: assessment.StateComplete,
	})

	msg, ok := selectItem(h, 0).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := msg.Screen.(*result.Screen); !ok {
		t.Errorf("expected result screen, got %T", msg.Screen)
	}
}

func TestOpenSubTestStartsTest(t *testing.T) {
	h := newHome(nil)

	msg, ok := selectItem(h, 1).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	st, ok := msg.Screen.(*subtest.Screen)
	if !ok {
		t.Fatalf("expected sub-test screen, got %T", msg.Screen)
	}
	if st.Title() != assessment.SubTestCoding.Label() {
		t.Errorf("expected coding test, got %q", st.Title())
	}
}

func TestFinalResultItem(t *testing.T) {
	h := newHome(nil)
	msg, ok := selectItem(h, len(assessment.AllSubTests)).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if msg.Screen.Title() != "Final Result" {
		t.Errorf("expected final result screen, got %q", msg.Screen.Title())
	}
}

func TestResumeReloadsStatus(t *testing.T) {
	states := map[assessment.SubTest]assessment.SessionState{}
	h := newHome(states)
	if strings.Contains(h.View(100, 30), "complete ✓") {
		t.Fatal("nothing should be complete yet")
	}

	states[assessment.SubTestPersonality] = assessment.StateComplete
	h.Update(h.Resume()())
	if !strings.Contains(h.View(100, 30), "complete ✓") {
		t.Error("expected refreshed status after resume")
	}
}
