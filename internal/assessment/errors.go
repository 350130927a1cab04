package assessment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAuthorized means the identity token is missing, invalid or expired.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrEndOfSequence means no further question will be served. It is a
	// completion signal, not a failure.
	ErrEndOfSequence = errors.New("end of sequence")

	// ErrDuplicateResponse means the question is already sealed.
	ErrDuplicateResponse = errors.New("duplicate response")

	// ErrStaleResponse means the response targets an earlier ordinal or an
	// abandoned attempt.
	ErrStaleResponse = errors.New("stale response")

	// ErrSessionNotActive means the session is not in progress.
	ErrSessionNotActive = errors.New("session not active")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAnswer means the value is not a legal answer to the
	// question. Nothing is sealed.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrEndNotAllowed means the sub-test cannot be ended early.
	ErrEndNotAllowed = errors.New("sub-test cannot be ended early")
)

// SubmissionFailedError is returned when a scoring service kept failing for
// a sealed response. The response stays sealed and can be resumed.
type SubmissionFailedError struct {
	QuestionID string
	Attempts   int
	Err        error
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("submission of question %s failed after %d attempts: %v", e.QuestionID, e.Attempts, e.Err)
}

func (e *SubmissionFailedError) Unwrap() error { return e.Err }

// AggregationIncompleteError names the sub-tests that have no result yet.
type AggregationIncompleteError struct {
	Missing []SubTest
}

func (e *AggregationIncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	return "aggregation incomplete: missing " + strings.Join(names, ", ")
}

// IsAbsorbed reports whether err is a component-local rejection that must
// never reach the end user.
func IsAbsorbed(err error) bool {
	return errors.Is(err, ErrDuplicateResponse) || errors.Is(err, ErrStaleResponse)
}
