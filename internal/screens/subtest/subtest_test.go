package subtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/scoring/coding"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/session"
)

// fakeSessions serves a scripted list of questions and records calls.
type fakeSessions struct {
	sess      *assessment.Session
	questions []*assessment.Question
	submitted []session.Answer
	submitErr error
	canEnd    bool
	calls     []string
}

func newFake(st assessment.SubTest, qs ...*assessment.Question) *fakeSessions {
	return &fakeSessions{
		sess: &assessment.Session{
			CandidateID:   "c1",
			SubTest:       st,
			Attempt:       1,
			State:         assessment.StateNotStarted,
			QuestionCount: len(qs),
		},
		questions: qs,
	}
}

func (f *fakeSessions) snapshot() *assessment.Session {
	s := *f.sess
	return &s
}

func (f *fakeSessions) serve() {
	if f.sess.AnsweredCount >= len(f.questions) {
		f.sess.State = assessment.StateComplete
		f.sess.Current = nil
		return
	}
	f.sess.State = assessment.StateInProgress
	f.sess.Current = f.questions[f.sess.AnsweredCount]
}

func (f *fakeSessions) Start(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "start")
	if f.sess.State == assessment.StateNotStarted {
		f.serve()
	}
	return f.snapshot(), nil
}

func (f *fakeSessions) Restart(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "restart")
	f.sess.Attempt++
	f.sess.AnsweredCount = 0
	f.serve()
	return f.snapshot(), nil
}

func (f *fakeSessions) Current(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "current")
	return f.snapshot(), nil
}

func (f *fakeSessions) NextQuestion(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "next")
	f.serve()
	return f.snapshot(), nil
}

func (f *fakeSessions) Submit(_ context.Context, _ string, _ assessment.SubTest, ans session.Answer) (*session.SubmitResult, error) {
	f.calls = append(f.calls, "submit")
	f.submitted = append(f.submitted, ans)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.sess.AnsweredCount++
	f.serve()
	return &session.SubmitResult{Session: f.snapshot(), Accepted: true}, nil
}

func (f *fakeSessions) Resume(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "resume")
	f.submitErr = nil
	f.sess.AnsweredCount++
	f.serve()
	return f.snapshot(), nil
}

func (f *fakeSessions) End(context.Context, string, assessment.SubTest) (*assessment.Session, error) {
	f.calls = append(f.calls, "end")
	f.sess.AnsweredCount = len(f.questions)
	f.serve()
	return f.snapshot(), nil
}

func (f *fakeSessions) CanEnd(assessment.SubTest) bool { return f.canEnd }

type doneScreen struct{}

func (d *doneScreen) Init() tea.Cmd                           { return nil }
func (d *doneScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return d, nil }
func (d *doneScreen) View(int, int) string                    { return "done" }
func (d *doneScreen) Title() string                           { return "Done" }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func gapQuestions() []*assessment.Question {
	return []*assessment.Question{
		{ID: "g1", Prompt: "What does a mutex protect?", Options: []string{"Shared state", "Disk", "Network"}, Topic: "Concurrency"},
		{ID: "g2", Prompt: "Big-O of binary search?", Options: []string{"O(n)", "O(log n)"}},
	}
}

func newScreen(t *testing.T, f *fakeSessions) *Screen {
	t.Helper()
	deps := screen.Deps{Token: "tok", CandidateID: "c1", Sessions: f}
	s := New(deps, f.sess.SubTest, false, func() screen.Screen { return &doneScreen{} })
	s.Update(s.Init()())
	return s
}

// run executes cmd and feeds its message back into the screen.
func run(t *testing.T, s *Screen, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	s.Update(msg)
	return msg
}

func TestStartShowsFirstQuestion(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()...)
	s := newScreen(t, f)

	if s.phase != phaseQuestion {
		t.Fatalf("expected question phase, got %d", s.phase)
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "What does a mutex protect?") {
		t.Error("expected prompt in view")
	}
	if !strings.Contains(view, "Concurrency") {
		t.Error("expected topic in view")
	}
	if f.calls[0] != "start" {
		t.Errorf("expected start call, got %v", f.calls)
	}
}

func TestNumberKeySubmitsOption(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()...)
	s := newScreen(t, f)

	_, cmd := s.Update(keyPress('1'))
	if s.phase != phaseSubmitting {
		t.Fatalf("expected submitting phase, got %d", s.phase)
	}
	run(t, s, cmd)

	if len(f.submitted) != 1 || *f.submitted[0].Value != "Shared state" || f.submitted[0].QuestionID != "g1" {
		t.Fatalf("unexpected submission %+v", f.submitted)
	}
	if s.questionID != "g2" || s.phase != phaseQuestion {
		t.Errorf("expected second question, got %q phase %d", s.questionID, s.phase)
	}
	if s.choice.Done() {
		t.Error("expected a fresh selector for the new question")
	}
}

func TestCompletionReplacesScreen(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()[:1]...)
	s := newScreen(t, f)

	_, cmd := s.Update(keyPress('2'))
	run(t, s, cmd)
	if s.phase != phaseDone {
		t.Fatalf("expected done phase, got %d", s.phase)
	}
}

func TestCompletionEmitsReplace(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()[:1]...)
	s := newScreen(t, f)

	_, cmd := s.Update(keyPress('2'))
	_, next := s.Update(cmd())
	if next == nil {
		t.Fatal("expected navigation command")
	}
	msg, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", next())
	}
	if _, ok := msg.Screen.(*doneScreen); !ok {
		t.Errorf("expected completion screen, got %T", msg.Screen)
	}
}

func TestLikertSubmitsScalePosition(t *testing.T) {
	f := newFake(assessment.SubTestPersonality,
		&assessment.Question{ID: "p01", Prompt: "I prefer working alone."})
	s := newScreen(t, f)

	if !strings.Contains(s.View(100, 30), "Strongly agree") {
		t.Error("expected scale anchors in view")
	}
	_, cmd := s.Update(keyPress('7'))
	run(t, s, cmd)
	if len(f.submitted) != 1 || *f.submitted[0].Value != "7" {
		t.Fatalf("expected value 7, got %+v", f.submitted)
	}
}

func TestCodingSubmitsFileAsAnswer(t *testing.T) {
	f := newFake(assessment.SubTestCoding, &assessment.Question{
		ID:      "c01",
		Prompt:  "Sum two numbers.",
		Problem: &assessment.ProblemSpec{Title: "Sum", InputExample: "3 5", MinLines: 1, MaxLines: 5},
	})
	s := newScreen(t, f)
	if !strings.Contains(s.View(100, 40), "Sum two numbers.") {
		t.Error("expected problem in view")
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || s.path.Err() == "" {
		t.Fatal("expected validation error for empty path")
	}

	path := filepath.Join(t.TempDir(), "sum.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.path.Model.SetValue(path)

	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	msg := cmd()
	if _, ok := msg.(solutionMsg); !ok {
		t.Fatalf("expected solutionMsg, got %T", msg)
	}
	_, cmd = s.Update(msg)
	run(t, s, cmd)

	if len(f.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(f.submitted))
	}
	a := coding.ParseAnswer(*f.submitted[0].Value)
	if a.Language != "go" || a.Code != "package main\n" {
		t.Errorf("unexpected answer %+v", a)
	}
}

func TestCodingMissingFileShowsError(t *testing.T) {
	f := newFake(assessment.SubTestCoding, &assessment.Question{ID: "c01", Prompt: "x"})
	s := newScreen(t, f)
	s.path.Model.SetValue(filepath.Join(t.TempDir(), "nope.py"))

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())
	if s.path.Err() == "" {
		t.Error("expected read error under the input")
	}
	if len(f.submitted) != 0 {
		t.Error("nothing should be submitted")
	}
}

func TestTickAndForcedNotifications(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()...)
	s := newScreen(t, f)
	key := assessment.Key{CandidateID: "c1", SubTest: assessment.SubTestGapAnalysis}

	// Another candidate's tick is ignored.
	s.Update(screen.NotificationMsg{Notification: session.Notification{
		Kind: session.NotifyTick, Key: assessment.Key{CandidateID: "c2", SubTest: key.SubTest}, Remaining: 4 * time.Second,
	}})
	if s.remaining != 0 {
		t.Fatalf("expected foreign tick ignored, got %v", s.remaining)
	}

	s.Update(screen.NotificationMsg{Notification: session.Notification{Kind: session.NotifyTick, Key: key, Remaining: 4 * time.Second}})
	if !strings.Contains(s.View(100, 30), "4s") {
		t.Error("expected countdown in view")
	}

	f.sess.AnsweredCount++
	f.serve()
	s.Update(screen.NotificationMsg{Notification: session.Notification{
		Kind: session.NotifyForced, Key: key, Result: &session.SubmitResult{Session: f.snapshot(), Accepted: true},
	}})
	if s.questionID != "g2" {
		t.Errorf("expected forced submission to advance, got %q", s.questionID)
	}
	if s.remaining != 0 {
		t.Error("countdown should reset for the new question")
	}
	if !strings.Contains(s.View(100, 30), "Time's up") {
		t.Error("expected time's up notice")
	}
}

func TestSubmissionFailedThenRetry(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()...)
	f.submitErr = &assessment.SubmissionFailedError{QuestionID: "g1", Attempts: 3, Err: errors.New("scorer down")}
	s := newScreen(t, f)

	_, cmd := s.Update(keyPress('1'))
	run(t, s, cmd)
	if s.phase != phaseFailed {
		t.Fatalf("expected failed phase, got %d", s.phase)
	}
	if !strings.Contains(s.View(100, 30), "could not be scored") {
		t.Error("expected failure message")
	}

	_, cmd = s.Update(keyPress('r'))
	run(t, s, cmd)
	if s.phase != phaseQuestion || s.questionID != "g2" {
		t.Errorf("expected recovery to the next question, phase %d question %q", s.phase, s.questionID)
	}
}

func TestEscConfirmLeaves(t *testing.T) {
	f := newFake(assessment.SubTestGapAnalysis, gapQuestions()...)
	s := newScreen(t, f)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if !s.confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	s.Update(keyPress('n'))
	if s.confirmQuit {
		t.Fatal("expected confirmation dismissed")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd := s.Update(keyPress('y'))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestCtrlEEndsTest(t *testing.T) {
	f := newFake(assessment.SubTestCoding, &assessment.Question{ID: "c01", Prompt: "x"}, &assessment.Question{ID: "c02", Prompt: "y"})
	f.canEnd = true
	s := newScreen(t, f)
	if !hasHint(s, "Ctrl+E") {
		t.Error("expected end hint")
	}

	s.Update(tea.KeyPressMsg{Code: 'e', Mod: tea.ModCtrl})
	if !s.confirmEnd {
		t.Fatal("expected end confirmation")
	}
	_, cmd := s.Update(keyPress('y'))
	run(t, s, cmd)
	if f.calls[len(f.calls)-1] != "end" {
		t.Errorf("expected end call, got %v", f.calls)
	}
	if s.phase != phaseDone {
		t.Errorf("expected done phase, got %d", s.phase)
	}
}

func TestRestartFlag(t *testing.T) {
	f := newFake(assessment.SubTestPersonality, &assessment.Question{ID: "p01", Prompt: "x"})
	deps := screen.Deps{Token: "tok", CandidateID: "c1", Sessions: f}
	s := New(deps, assessment.SubTestPersonality, true, nil)
	s.Update(s.Init()())
	if f.calls[0] != "restart" {
		t.Errorf("expected restart call, got %v", f.calls)
	}
}

func hasHint(s *Screen, key string) bool {
	for _, h := range s.KeyHints() {
		if h.Key == key {
			return true
		}
	}
	return false
}

func TestCtrlEIgnoredWhenEndNotAllowed(t *testing.T) {
	f := newFake(assessment.SubTestPersonality,
		&assessment.Question{ID: "p01", Prompt: "x"}, &assessment.Question{ID: "p02", Prompt: "y"})
	s := newScreen(t, f)

	if hasHint(s, "Ctrl+E") {
		t.Error("end hint shown for a sub-test that cannot be ended early")
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'e', Mod: tea.ModCtrl})
	if cmd != nil || s.confirmEnd {
		t.Fatal("expected ctrl+e to be ignored")
	}
	for _, c := range f.calls {
		if c == "end" {
			t.Errorf("unexpected end call, got %v", f.calls)
		}
	}
	if s.phase != phaseQuestion {
		t.Errorf("expected question phase, got %d", s.phase)
	}
}
