// Package session drives every sub-test through one lifecycle:
// NotStarted → InProgress → Completing → Complete. Session state is loaded
// from the store on every call and written back before the call returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/capture"
	"github.com/abhisek/nextstep/internal/store"
)

// Orchestrator administers sub-test sessions for many candidates. Calls for
// the same (candidate, sub-test) are serialized; different keys proceed in
// parallel.
type Orchestrator struct {
	store    Store
	auth     assessment.Authorizer
	kinds    map[assessment.SubTest]Kind
	clock    clockwork.Clock
	retry    RetryPolicy
	log      *zap.Logger
	events   EventSink
	observer Observer

	// bg is the context for work started by timers.
	bg     context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	locks    map[assessment.Key]*sync.Mutex
	captures map[assessment.Key]*capture.Capture
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock injects the clock used for timers and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithEvents records lifecycle events to sink.
func WithEvents(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// WithObserver registers a callback for countdown ticks and forced
// submissions.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New returns an orchestrator for the given sub-test kinds.
func New(st Store, auth assessment.Authorizer, kinds []Kind, opts ...Option) *Orchestrator {
	bg, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:    st,
		auth:     auth,
		kinds:    make(map[assessment.SubTest]Kind, len(kinds)),
		clock:    clockwork.NewRealClock(),
		retry:    DefaultRetryPolicy,
		log:      zap.NewNop(),
		bg:       bg,
		cancel:   cancel,
		locks:    make(map[assessment.Key]*sync.Mutex),
		captures: make(map[assessment.Key]*capture.Capture),
	}
	for _, k := range kinds {
		o.kinds[k.SubTest] = k
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close stops all countdowns and waits for in-flight forced submissions.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.cancel()
	pending := make([]*capture.Capture, 0, len(o.captures))
	for key, c := range o.captures {
		c.Cancel()
		pending = append(pending, c)
		delete(o.captures, key)
	}
	o.mu.Unlock()

	for _, c := range pending {
		<-c.Done()
	}
}

// Kind returns the configuration of a sub-test.
func (o *Orchestrator) Kind(st assessment.SubTest) (Kind, bool) {
	k, ok := o.kinds[st]
	return k, ok
}

// CanEnd reports whether End may finish the sub-test early.
func (o *Orchestrator) CanEnd(st assessment.SubTest) bool {
	return o.kinds[st].EarlyEnd
}

// Countdown returns the time left on the displayed question of key. ok is
// false when no countdown is running.
func (o *Orchestrator) Countdown(key assessment.Key) (time.Duration, bool) {
	o.mu.Lock()
	c := o.captures[key]
	o.mu.Unlock()
	if c == nil || c.Sealed() {
		return 0, false
	}
	return c.Remaining(), true
}

// lock serializes work on one session key.
func (o *Orchestrator) lock(key assessment.Key) func() {
	o.mu.Lock()
	l, ok := o.locks[key]
	if !ok {
		l = &sync.Mutex{}
		o.locks[key] = l
	}
	o.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// begin authorizes the caller and loads the session under its key lock.
func (o *Orchestrator) begin(ctx context.Context, token string, st assessment.SubTest) (Kind, *assessment.Session, func(), error) {
	kind, ok := o.kinds[st]
	if !ok {
		return Kind{}, nil, nil, fmt.Errorf("unknown sub-test %q", st)
	}
	candidateID, err := o.auth.Authorize(ctx, token)
	if err != nil {
		return Kind{}, nil, nil, err
	}
	key := assessment.Key{CandidateID: candidateID, SubTest: st}
	unlock := o.lock(key)
	sess, err := o.store.LoadSession(ctx, key)
	if err != nil {
		unlock()
		return Kind{}, nil, nil, err
	}
	return kind, sess, unlock, nil
}

// Start begins a fresh attempt and serves its first question. Calling Start
// on a session that is already in progress returns it unchanged; use
// Restart to discard progress.
func (o *Orchestrator) Start(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if sess.State == assessment.StateInProgress || sess.State == assessment.StateCompleting {
		o.ensureCapture(kind, sess)
		return sess, nil
	}
	return o.fresh(ctx, kind, sess, "start")
}

// Restart abandons the current attempt in any state and starts a new one.
// Responses of the abandoned attempt stay in history but never count
// toward the new attempt.
func (o *Orchestrator) Restart(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return o.fresh(ctx, kind, sess, "restart")
}

func (o *Orchestrator) fresh(ctx context.Context, kind Kind, prev *assessment.Session, action string) (*assessment.Session, error) {
	key := prev.Key()
	o.dropCapture(key)

	if _, err := o.withRetry(ctx, "reset", func(ctx context.Context) error {
		return kind.Scorer.Reset(ctx, key.CandidateID)
	}); err != nil {
		return nil, fmt.Errorf("reset scorer: %w", err)
	}

	sess := &assessment.Session{
		CandidateID:   key.CandidateID,
		SubTest:       key.SubTest,
		Attempt:       prev.Attempt + 1,
		State:         assessment.StateInProgress,
		Phase:         assessment.PhaseAwaitingQuestion,
		QuestionCount: kind.QuestionCount,
		StartedAt:     o.clock.Now().UTC(),
	}
	if err := o.store.ResetSession(ctx, sess); err != nil {
		return nil, err
	}

	o.log.Info("sub-test attempt started",
		zap.String("candidate", key.CandidateID),
		zap.String("sub_test", string(key.SubTest)),
		zap.Int("attempt", sess.Attempt),
		zap.String("action", action))
	o.emit(ctx, sess, action, "")

	if err := o.advance(ctx, kind, sess, true); err != nil {
		return sess, err
	}
	return sess, nil
}

// Current returns the session as persisted. A timed question whose
// countdown was lost (for example across a process restart) is re-armed
// with the budget that remains.
func (o *Orchestrator) Current(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()
	o.ensureCapture(kind, sess)
	return sess, nil
}

// NextQuestion returns the displayed question, fetching one when the
// session is between questions. It is the retry path after a sequencer
// error.
func (o *Orchestrator) NextQuestion(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if sess.State != assessment.StateInProgress {
		return sess, assessment.ErrSessionNotActive
	}
	if sess.Pending != nil {
		if _, err := o.score(ctx, kind, sess, true); err != nil {
			return sess, err
		}
		return sess, nil
	}
	if sess.Current != nil {
		o.ensureCapture(kind, sess)
		return sess, nil
	}
	if err := o.advance(ctx, kind, sess, true); err != nil {
		return sess, err
	}
	return sess, nil
}

// Submit seals and scores an explicit answer for the displayed question.
// Duplicates and stale answers are absorbed and reported as not accepted.
func (o *Orchestrator) Submit(ctx context.Context, token string, st assessment.SubTest, ans Answer) (*SubmitResult, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if sess.State != assessment.StateInProgress {
		return nil, assessment.ErrSessionNotActive
	}

	resp, err := o.seal(kind, sess, ans)
	if err == nil {
		return o.record(ctx, kind, sess, resp, true)
	}
	if !assessment.IsAbsorbed(err) {
		return nil, err
	}

	o.log.Debug("submission absorbed",
		zap.String("candidate", sess.CandidateID),
		zap.String("sub_test", string(sess.SubTest)),
		zap.String("question", ans.QuestionID),
		zap.Error(err))

	// A repeat of a response whose scoring failed drives the stored
	// response again.
	if errors.Is(err, assessment.ErrDuplicateResponse) && sess.Pending != nil && sess.Pending.QuestionID == ans.QuestionID {
		if _, serr := o.score(ctx, kind, sess, true); serr != nil {
			return nil, serr
		}
	}
	return &SubmitResult{Session: sess, Accepted: false}, nil
}

// seal turns an explicit answer into the question's one response. A value
// the scorer rejects leaves the question open.
func (o *Orchestrator) seal(kind Kind, sess *assessment.Session, ans Answer) (assessment.Response, error) {
	if sess.Pending != nil && sess.Pending.QuestionID == ans.QuestionID {
		return assessment.Response{}, assessment.ErrDuplicateResponse
	}
	if sess.Current == nil || sess.Current.ID != ans.QuestionID {
		return assessment.Response{}, assessment.ErrStaleResponse
	}
	if v, ok := kind.Scorer.(assessment.Validator); ok && ans.Value != nil {
		if err := v.Validate(sess.Current, *ans.Value); err != nil {
			return assessment.Response{}, err
		}
	}

	key := sess.Key()
	o.mu.Lock()
	c := o.captures[key]
	o.mu.Unlock()
	if c != nil && c.QuestionID() == ans.QuestionID {
		return c.Submit(ans.Value)
	}

	resp := assessment.Response{
		CandidateID: sess.CandidateID,
		SubTest:     sess.SubTest,
		Attempt:     sess.Attempt,
		QuestionID:  sess.Current.ID,
		Ordinal:     sess.Current.Ordinal,
		SubmittedAt: o.clock.Now().UTC(),
	}
	if ans.Value != nil {
		v := *ans.Value
		resp.Value = &v
	}
	return resp, nil
}

// Resume finishes whatever an earlier call left half done: an unscored
// sealed response, a missing next question, or a pending completion.
func (o *Orchestrator) Resume(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()

	switch sess.State {
	case assessment.StateCompleting:
		return sess, o.complete(ctx, kind, sess)
	case assessment.StateInProgress:
		switch {
		case sess.Pending != nil:
			_, err := o.score(ctx, kind, sess, true)
			return sess, err
		case sess.Current == nil:
			return sess, o.advance(ctx, kind, sess, true)
		default:
			o.ensureCapture(kind, sess)
		}
	}
	return sess, nil
}

// End finishes the attempt early. Every question not yet answered is
// sealed with a forced null response, so the attempt completes with
// answeredCount == N and partial metrics. Only kinds with EarlyEnd may be
// ended while in progress.
func (o *Orchestrator) End(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error) {
	kind, sess, unlock, err := o.begin(ctx, token, st)
	if err != nil {
		return nil, err
	}
	defer unlock()

	switch sess.State {
	case assessment.StateComplete:
		return sess, nil
	case assessment.StateCompleting:
		return sess, o.complete(ctx, kind, sess)
	case assessment.StateNotStarted:
		return sess, assessment.ErrSessionNotActive
	}
	if !kind.EarlyEnd {
		return sess, assessment.ErrEndNotAllowed
	}

	o.dropCapture(sess.Key())
	o.emit(ctx, sess, "end", "")

	if sess.Pending != nil {
		if _, err := o.score(ctx, kind, sess, false); err != nil {
			return sess, err
		}
	}
	for sess.State == assessment.StateInProgress {
		if sess.Current == nil {
			if err := o.advance(ctx, kind, sess, false); err != nil {
				return sess, err
			}
			continue
		}
		resp := assessment.Response{
			CandidateID: sess.CandidateID,
			SubTest:     sess.SubTest,
			Attempt:     sess.Attempt,
			QuestionID:  sess.Current.ID,
			Ordinal:     sess.Current.Ordinal,
			SubmittedAt: o.clock.Now().UTC(),
			Forced:      true,
		}
		res, err := o.record(ctx, kind, sess, resp, false)
		if err != nil {
			return sess, err
		}
		if !res.Accepted {
			return sess, fmt.Errorf("end: forced response for %s not accepted", resp.QuestionID)
		}
	}
	return sess, nil
}

func (o *Orchestrator) emit(ctx context.Context, sess *assessment.Session, action, questionID string) {
	if o.events == nil {
		return
	}
	err := o.events.AppendSessionEvent(ctx, store.SessionEventData{
		CandidateID:   sess.CandidateID,
		SubTest:       string(sess.SubTest),
		Attempt:       sess.Attempt,
		Action:        action,
		AnsweredCount: sess.AnsweredCount,
		QuestionID:    questionID,
	})
	if err != nil {
		o.log.Warn("failed to record session event", zap.String("action", action), zap.Error(err))
	}
}
