package subtest

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/router"
	"github.com/abhisek/nextstep/internal/scoring/coding"
	"github.com/abhisek/nextstep/internal/screen"
	"github.com/abhisek/nextstep/internal/session"
	"github.com/abhisek/nextstep/internal/ui/components"
	"github.com/abhisek/nextstep/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseSubmitting
	phaseFailed
	phaseDone
)

// Screen runs the question loop of one sub-test.
type Screen struct {
	deps       screen.Deps
	subTest    assessment.SubTest
	restart    bool
	onComplete func() screen.Screen

	sess  *assessment.Session
	phase phase

	choice components.Choice
	likert components.Likert
	path   components.TextInput

	questionID  string
	remaining   time.Duration
	notice      string
	errMsg      string
	confirmQuit bool
	confirmEnd  bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the screen. restart discards any earlier attempt first.
// onComplete builds the screen that replaces this one once the attempt is
// complete.
func New(deps screen.Deps, st assessment.SubTest, restart bool, onComplete func() screen.Screen) *Screen {
	return &Screen{
		deps:       deps,
		subTest:    st,
		restart:    restart,
		onComplete: onComplete,
	}
}

func (s *Screen) Init() tea.Cmd {
	deps, st, restart := s.deps, s.subTest, s.restart
	return func() tea.Msg {
		ctx := context.Background()
		var sess *assessment.Session
		var err error
		if restart {
			sess, err = deps.Sessions.Restart(ctx, deps.Token, st)
		} else {
			sess, err = deps.Sessions.Start(ctx, deps.Token, st)
		}
		if err != nil {
			return loadedMsg{Session: sess, Err: err}
		}
		sess, err = settle(ctx, deps, st, sess)
		return loadedMsg{Session: sess, Err: err}
	}
}

// settle drives a session that is between steps to its next stable point.
func settle(ctx context.Context, deps screen.Deps, st assessment.SubTest, sess *assessment.Session) (*assessment.Session, error) {
	switch {
	case sess == nil:
		return nil, nil
	case sess.State == assessment.StateCompleting:
		return deps.Sessions.Resume(ctx, deps.Token, st)
	case sess.State == assessment.StateInProgress && (sess.Current == nil || sess.Pending != nil):
		return deps.Sessions.NextQuestion(ctx, deps.Token, st)
	}
	return sess, nil
}

func (s *Screen) Title() string {
	return s.subTest.Label()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirmQuit || s.confirmEnd:
		return []layout.KeyHint{{Key: "Y", Description: "Yes"}, {Key: "N", Description: "No"}}
	case s.phase == phaseFailed:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Leave"}}
	case s.phase != phaseQuestion:
		return nil
	}
	hints := []layout.KeyHint{}
	switch s.subTest {
	case assessment.SubTestCoding:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit file"})
	default:
		hints = append(hints, layout.KeyHint{Key: "1-" + itoa(len(s.options())), Description: "Answer"})
	}
	if s.deps.Sessions.CanEnd(s.subTest) {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+E", Description: "End test"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg.Session, msg.Err)

	case submittedMsg:
		if msg.Err != nil {
			return s.handleLoaded(nil, msg.Err)
		}
		if !msg.Result.Accepted {
			s.notice = "That answer was already recorded."
		}
		return s.handleLoaded(msg.Result.Session, nil)

	case solutionMsg:
		if msg.QuestionID != s.questionID || s.phase != phaseQuestion {
			return s, nil
		}
		if msg.Err != nil {
			s.path.SetError(msg.Err.Error())
			return s, nil
		}
		return s.submit(msg.Value)

	case screen.NotificationMsg:
		return s.handleNotification(msg.Notification)

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseQuestion && s.subTest == assessment.SubTestCoding {
		var cmd tea.Cmd
		s.path, cmd = s.path.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleLoaded(sess *assessment.Session, err error) (screen.Screen, tea.Cmd) {
	if err != nil {
		var failed *assessment.SubmissionFailedError
		if errors.As(err, &failed) {
			s.phase = phaseFailed
			s.errMsg = "Your answer is saved but could not be scored yet."
			return s, nil
		}
		if errors.Is(err, assessment.ErrSessionNotActive) {
			return s, s.reload()
		}
		s.phase = phaseFailed
		s.errMsg = err.Error()
		return s, nil
	}
	if sess == nil {
		return s, nil
	}

	s.sess = sess
	s.errMsg = ""
	switch {
	case sess.State == assessment.StateComplete:
		s.phase = phaseDone
		if s.onComplete == nil {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		next := s.onComplete()
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case sess.Current != nil && sess.Pending == nil:
		s.phase = phaseQuestion
		if sess.Current.ID != s.questionID {
			return s, s.showQuestion(sess.Current)
		}
		return s, nil
	}

	s.phase = phaseLoading
	return s, s.reload()
}

// showQuestion resets the answer widgets for a newly served question.
func (s *Screen) showQuestion(q *assessment.Question) tea.Cmd {
	s.questionID = q.ID
	s.remaining = 0
	switch s.subTest {
	case assessment.SubTestPersonality:
		s.likert = components.NewLikert()
	case assessment.SubTestCoding:
		s.path = components.NewTextInput("path/to/solution.py", 512)
		return s.path.Init()
	default:
		s.choice = components.NewChoice(q.Options)
	}
	return nil
}

func (s *Screen) handleNotification(n session.Notification) (screen.Screen, tea.Cmd) {
	if n.Key.CandidateID != s.deps.CandidateID || n.Key.SubTest != s.subTest {
		return s, nil
	}
	switch n.Kind {
	case session.NotifyTick:
		if s.phase == phaseQuestion {
			s.remaining = n.Remaining
		}
		return s, nil

	case session.NotifyForced:
		s.notice = "Time's up. The question was recorded without an answer."
		s.confirmEnd = false
		if n.Err != nil {
			return s.handleLoaded(nil, n.Err)
		}
		if n.Result != nil {
			return s.handleLoaded(n.Result.Session, nil)
		}
		return s, s.reload()
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}
	if s.confirmEnd {
		switch key {
		case "y", "Y":
			s.confirmEnd = false
			return s.end()
		case "n", "N", "esc":
			s.confirmEnd = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "ctrl+e":
		if !s.deps.Sessions.CanEnd(s.subTest) {
			return s, nil
		}
		if s.phase == phaseQuestion || s.phase == phaseFailed {
			s.confirmEnd = true
		}
		return s, nil
	}

	switch s.phase {
	case phaseFailed:
		if key == "r" || key == "R" {
			return s.resume()
		}
		return s, nil
	case phaseQuestion:
		return s.answerKey(msg)
	}
	return s, nil
}

// answerKey routes a key to the widget for the current sub-test.
func (s *Screen) answerKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch s.subTest {
	case assessment.SubTestPersonality:
		s.likert, _ = s.likert.Update(msg)
		if s.likert.Done() {
			s.notice = ""
			return s.submit(s.likert.Value())
		}
		return s, nil

	case assessment.SubTestCoding:
		if msg.String() == "enter" {
			path := s.path.Value()
			if path == "" {
				s.path.SetError("enter the path of your solution file")
				return s, nil
			}
			id := s.questionID
			return s, func() tea.Msg {
				v, err := coding.ReadAnswerFile(path)
				return solutionMsg{QuestionID: id, Value: v, Err: err}
			}
		}
		var cmd tea.Cmd
		s.path, cmd = s.path.Update(msg)
		return s, cmd
	}

	s.choice, _ = s.choice.Update(msg)
	if s.choice.Done() {
		s.notice = ""
		return s.submit(s.choice.Value())
	}
	return s, nil
}

func (s *Screen) submit(value string) (screen.Screen, tea.Cmd) {
	s.phase = phaseSubmitting
	deps, st := s.deps, s.subTest
	ans := session.Answer{QuestionID: s.questionID, Value: &value}
	return s, func() tea.Msg {
		res, err := deps.Sessions.Submit(context.Background(), deps.Token, st, ans)
		return submittedMsg{Result: res, Err: err}
	}
}

func (s *Screen) end() (screen.Screen, tea.Cmd) {
	s.phase = phaseSubmitting
	deps, st := s.deps, s.subTest
	return s, func() tea.Msg {
		sess, err := deps.Sessions.End(context.Background(), deps.Token, st)
		return loadedMsg{Session: sess, Err: err}
	}
}

func (s *Screen) resume() (screen.Screen, tea.Cmd) {
	s.phase = phaseLoading
	s.errMsg = ""
	deps, st := s.deps, s.subTest
	return s, func() tea.Msg {
		ctx := context.Background()
		sess, err := deps.Sessions.Resume(ctx, deps.Token, st)
		if err != nil {
			return loadedMsg{Err: err}
		}
		sess, err = settle(ctx, deps, st, sess)
		return loadedMsg{Session: sess, Err: err}
	}
}

// reload fetches the persisted session and settles it.
func (s *Screen) reload() tea.Cmd {
	deps, st := s.deps, s.subTest
	return func() tea.Msg {
		ctx := context.Background()
		sess, err := deps.Sessions.Current(ctx, deps.Token, st)
		if err != nil {
			return loadedMsg{Err: err}
		}
		if sess.State == assessment.StateNotStarted {
			return loadedMsg{Err: errors.New("this test has not been started")}
		}
		sess, err = settle(ctx, deps, st, sess)
		return loadedMsg{Session: sess, Err: err}
	}
}

func (s *Screen) options() []string {
	if s.subTest == assessment.SubTestPersonality {
		return components.LikertLabels
	}
	if s.sess != nil && s.sess.Current != nil {
		return s.sess.Current.Options
	}
	return nil
}
