package subtest

import (
	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/session"
)

// loadedMsg carries the session after a lifecycle call.
type loadedMsg struct {
	Session *assessment.Session
	Err     error
}

// submittedMsg carries the outcome of an explicit answer.
type submittedMsg struct {
	Result *session.SubmitResult
	Err    error
}

// solutionMsg is sent once a coding solution file has been read.
type solutionMsg struct {
	QuestionID string
	Value      string
	Err        error
}
