package session

import (
	"context"
	"time"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/store"
)

// Kind is the capability set that makes one sub-test different from another.
// Every sub-test shares the same lifecycle.
type Kind struct {
	SubTest       assessment.SubTest
	Sequencer     assessment.Sequencer
	Scorer        assessment.Scorer
	QuestionCount int
	Timer         assessment.TimerPolicy

	// EarlyEnd allows End before every question is answered.
	EarlyEnd bool
}

// Store is the persistence the orchestrator drives. *store.Store satisfies it.
type Store interface {
	LoadSession(ctx context.Context, key assessment.Key) (*assessment.Session, error)
	SaveSession(ctx context.Context, sess *assessment.Session) error
	ResetSession(ctx context.Context, sess *assessment.Session) error
	SealResponse(ctx context.Context, sess *assessment.Session, resp assessment.Response) error
	RecordScored(ctx context.Context, sess *assessment.Session, resp assessment.Response, j *assessment.Judgement) error
	CompleteSession(ctx context.Context, sess *assessment.Session, result assessment.SubTestResult) error
}

// EventSink receives session lifecycle events. store.EventRepo satisfies it.
type EventSink interface {
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
}

// RetryPolicy bounds how often a scoring call is retried with the same
// sealed response.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy retries a scoring call three times over about a second.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     2 * time.Second,
	Multiplier:  2,
}

// NotificationKind distinguishes background notifications.
type NotificationKind int

const (
	// NotifyTick reports the countdown of the displayed question.
	NotifyTick NotificationKind = iota

	// NotifyForced reports that the timer sealed a question and the session
	// has moved on.
	NotifyForced
)

// Notification is delivered to an Observer from background goroutines.
type Notification struct {
	Kind      NotificationKind
	Key       assessment.Key
	Remaining time.Duration
	Result    *SubmitResult
	Err       error
}

// Observer receives notifications. It must not block.
type Observer func(Notification)

// Answer is an explicit submission for the displayed question.
type Answer struct {
	QuestionID string
	Value      *string
}

// SubmitResult reports the outcome of a submission. Accepted is false when
// the response was absorbed as a duplicate or a stale retry.
type SubmitResult struct {
	Session   *assessment.Session
	Accepted  bool
	Judgement *assessment.Judgement
}
