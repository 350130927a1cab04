package assessment

import (
	"context"
	"time"
)

// Sequencer returns the question at the candidate's current position, or
// ErrEndOfSequence. Implementations must not mutate progress and must
// return the same question when called again for the same Progress.
type Sequencer interface {
	Next(ctx context.Context, candidateID string, p Progress) (*Question, error)
}

// Scorer is the opaque per-sub-test scoring service.
type Scorer interface {
	// Reset discards the candidate's scoring state for a fresh attempt.
	Reset(ctx context.Context, candidateID string) error

	// Submit judges one sealed response. It may be called more than once
	// with the identical response when a previous call failed.
	Submit(ctx context.Context, resp Response) (*Judgement, error)

	// End returns the summary metrics for the finished attempt.
	End(ctx context.Context, candidateID string) (*Summary, error)
}

// Validator is implemented by scoring services that can reject a value
// before it is sealed. Errors wrap ErrInvalidAnswer.
type Validator interface {
	Validate(q *Question, value string) error
}

// Picker is implemented by adaptive scoring services that choose the next
// question id themselves. ok=false signals exhaustion.
type Picker interface {
	Pick(ctx context.Context, candidateID string, p Progress) (questionID string, ok bool, err error)
}

// Bank is a read-only question bank.
type Bank interface {
	// At returns the question at ordinal position i (0-based).
	At(i int) (*Question, bool)

	// Get returns the question with the given id.
	Get(id string) (*Question, bool)

	// Len returns the number of questions in the bank.
	Len() int
}

// TimerPolicy configures the optional per-question countdown.
type TimerPolicy struct {
	Enabled bool
	Budget  time.Duration
}

// DefaultGapTimer is the observed per-question budget for gap analysis.
const DefaultGapTimer = 10 * time.Second

// Authorizer resolves an identity token to a candidate id.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (candidateID string, err error)
}
