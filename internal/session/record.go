package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/capture"
)

// record seals resp in the store and scores it. Responses for another
// attempt or another position are stale; a second response for the same
// question is a duplicate. Both are absorbed.
func (o *Orchestrator) record(ctx context.Context, kind Kind, sess *assessment.Session, resp assessment.Response, timed bool) (*SubmitResult, error) {
	if err := checkFresh(sess, resp); err != nil {
		o.log.Debug("response absorbed",
			zap.String("candidate", resp.CandidateID),
			zap.String("sub_test", string(resp.SubTest)),
			zap.String("question", resp.QuestionID),
			zap.Int("attempt", resp.Attempt),
			zap.Int("ordinal", resp.Ordinal),
			zap.Error(err))
		return &SubmitResult{Session: sess, Accepted: false}, nil
	}

	prev := *sess
	sess.Pending = &resp
	sess.Phase = assessment.PhaseRecording
	if err := o.store.SealResponse(ctx, sess, resp); err != nil {
		*sess = prev
		if errors.Is(err, assessment.ErrDuplicateResponse) {
			return &SubmitResult{Session: sess, Accepted: false}, nil
		}
		return nil, err
	}
	if resp.Forced {
		o.log.Info("forced response recorded",
			zap.String("candidate", resp.CandidateID),
			zap.String("sub_test", string(resp.SubTest)),
			zap.String("question", resp.QuestionID))
		o.emit(ctx, sess, "forced", resp.QuestionID)
	}

	j, err := o.score(ctx, kind, sess, timed)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Session: sess, Accepted: true, Judgement: j}, nil
}

func checkFresh(sess *assessment.Session, resp assessment.Response) error {
	switch {
	case sess.State != assessment.StateInProgress:
		return assessment.ErrStaleResponse
	case resp.Attempt != sess.Attempt:
		return assessment.ErrStaleResponse
	case sess.Pending != nil && sess.Pending.QuestionID == resp.QuestionID:
		return assessment.ErrDuplicateResponse
	case sess.Pending != nil:
		return assessment.ErrStaleResponse
	case resp.Ordinal != sess.AnsweredCount:
		return assessment.ErrStaleResponse
	case sess.Current == nil || sess.Current.ID != resp.QuestionID:
		return assessment.ErrStaleResponse
	}
	return nil
}

// score submits the pending response to the scorer, retrying with the
// identical response. On persistent failure the response stays pending and
// answeredCount is untouched.
func (o *Orchestrator) score(ctx context.Context, kind Kind, sess *assessment.Session, timed bool) (*assessment.Judgement, error) {
	resp := *sess.Pending

	var j *assessment.Judgement
	attempts, err := o.withRetry(ctx, "submit", func(ctx context.Context) error {
		var err error
		j, err = kind.Scorer.Submit(ctx, resp)
		return err
	})
	if err != nil {
		o.log.Error("scoring failed",
			zap.String("candidate", resp.CandidateID),
			zap.String("sub_test", string(resp.SubTest)),
			zap.String("question", resp.QuestionID),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil, &assessment.SubmissionFailedError{QuestionID: resp.QuestionID, Attempts: attempts, Err: err}
	}

	prev := *sess
	sess.AnsweredCount++
	sess.Pending = nil
	sess.Current = nil
	sess.ShownAt = time.Time{}
	sess.Phase = assessment.PhaseAwaitingQuestion
	if err := o.store.RecordScored(ctx, sess, resp, j); err != nil {
		*sess = prev
		if errors.Is(err, assessment.ErrStaleResponse) {
			o.log.Warn("session advanced concurrently",
				zap.String("candidate", resp.CandidateID),
				zap.String("question", resp.QuestionID))
			return j, nil
		}
		return nil, err
	}

	if err := o.advance(ctx, kind, sess, timed); err != nil {
		return j, err
	}
	return j, nil
}

// advance serves the next question or completes the attempt. A sequencer
// error leaves the session waiting for a question so the caller can retry.
func (o *Orchestrator) advance(ctx context.Context, kind Kind, sess *assessment.Session, timed bool) error {
	if sess.AnsweredCount >= sess.QuestionCount {
		return o.complete(ctx, kind, sess)
	}

	q, err := kind.Sequencer.Next(ctx, sess.CandidateID, sess.Progress())
	if errors.Is(err, assessment.ErrEndOfSequence) {
		o.log.Info("question sequence exhausted early",
			zap.String("candidate", sess.CandidateID),
			zap.String("sub_test", string(sess.SubTest)),
			zap.Int("answered", sess.AnsweredCount),
			zap.Int("target", sess.QuestionCount))
		return o.complete(ctx, kind, sess)
	}
	if err != nil {
		return fmt.Errorf("next question: %w", err)
	}

	q.Ordinal = sess.AnsweredCount
	sess.Current = q
	sess.Phase = assessment.PhaseAwaitingResponse
	sess.ShownAt = o.clock.Now().UTC()
	if err := o.store.SaveSession(ctx, sess); err != nil {
		return err
	}
	if timed {
		o.startCapture(kind, sess, kind.Timer.Budget)
	}
	return nil
}

// complete asks the scorer for its summary and persists the result together
// with the Complete state.
func (o *Orchestrator) complete(ctx context.Context, kind Kind, sess *assessment.Session) error {
	o.dropCapture(sess.Key())
	if sess.State != assessment.StateCompleting {
		sess.State = assessment.StateCompleting
		sess.Phase = assessment.PhaseNone
		sess.Current = nil
		sess.ShownAt = time.Time{}
		if err := o.store.SaveSession(ctx, sess); err != nil {
			return err
		}
	}

	var summary *assessment.Summary
	if _, err := o.withRetry(ctx, "end", func(ctx context.Context) error {
		var err error
		summary, err = kind.Scorer.End(ctx, sess.CandidateID)
		return err
	}); err != nil {
		return fmt.Errorf("end sub-test: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("end sub-test: %s scorer returned no summary", sess.SubTest)
	}

	summary.Answered = sess.AnsweredCount
	sess.State = assessment.StateComplete
	result := assessment.SubTestResult{
		CandidateID: sess.CandidateID,
		SubTest:     sess.SubTest,
		Attempt:     sess.Attempt,
		Summary:     *summary,
		CompletedAt: o.clock.Now().UTC(),
	}
	if err := o.store.CompleteSession(ctx, sess, result); err != nil {
		sess.State = assessment.StateCompleting
		return err
	}

	o.log.Info("sub-test complete",
		zap.String("candidate", sess.CandidateID),
		zap.String("sub_test", string(sess.SubTest)),
		zap.Int("attempt", sess.Attempt),
		zap.Int("answered", sess.AnsweredCount))
	o.emit(ctx, sess, "complete", "")
	return nil
}

// startCapture arms the countdown for the displayed question. Nothing is
// armed once Close has begun.
func (o *Orchestrator) startCapture(kind Kind, sess *assessment.Session, budget time.Duration) {
	if !kind.Timer.Enabled || sess.Current == nil {
		return
	}
	key := sess.Key()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.bg.Err() != nil {
		return
	}

	template := assessment.Response{CandidateID: sess.CandidateID, SubTest: sess.SubTest, Attempt: sess.Attempt}

	c := capture.Start(o.clock, template, sess.Current, capture.Options{
		Budget: budget,
		OnTick: func(remaining time.Duration) {
			o.notify(Notification{Kind: NotifyTick, Key: key, Remaining: remaining})
		},
		OnExpire: func(resp assessment.Response) {
			o.recordForced(key, resp)
		},
	})
	if old := o.captures[key]; old != nil {
		old.Cancel()
	}
	o.captures[key] = c
}

// ensureCapture re-arms a lost countdown with whatever budget remains.
func (o *Orchestrator) ensureCapture(kind Kind, sess *assessment.Session) {
	if !kind.Timer.Enabled || sess.State != assessment.StateInProgress || sess.Current == nil || sess.Pending != nil {
		return
	}
	o.mu.Lock()
	c := o.captures[sess.Key()]
	o.mu.Unlock()
	if c != nil && c.QuestionID() == sess.Current.ID && !c.Sealed() {
		return
	}

	remaining := kind.Timer.Budget
	if !sess.ShownAt.IsZero() {
		remaining -= o.clock.Since(sess.ShownAt)
	}
	if remaining <= 0 {
		remaining = time.Nanosecond
	}
	o.startCapture(kind, sess, remaining)
}

func (o *Orchestrator) dropCapture(key assessment.Key) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c := o.captures[key]; c != nil {
		c.Cancel()
		delete(o.captures, key)
	}
}

// recordForced records a timer-sealed response and fetches the next
// question. It runs on the countdown goroutine.
func (o *Orchestrator) recordForced(key assessment.Key, resp assessment.Response) {
	unlock := o.lock(key)
	defer unlock()

	ctx := o.bg
	if ctx.Err() != nil {
		return
	}
	kind, ok := o.kinds[key.SubTest]
	if !ok {
		return
	}
	sess, err := o.store.LoadSession(ctx, key)
	if err != nil {
		o.log.Error("load session for forced response", zap.Error(err))
		o.notify(Notification{Kind: NotifyForced, Key: key, Err: err})
		return
	}

	res, err := o.record(ctx, kind, sess, resp, true)
	if err != nil {
		o.log.Error("forced response failed",
			zap.String("candidate", key.CandidateID),
			zap.String("question", resp.QuestionID),
			zap.Error(err))
	}
	if res == nil {
		res = &SubmitResult{Session: sess}
	}
	o.notify(Notification{Kind: NotifyForced, Key: key, Result: res, Err: err})
}

func (o *Orchestrator) notify(n Notification) {
	if o.observer != nil {
		o.observer(n)
	}
}
