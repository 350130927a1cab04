package assessment

import "time"

// SessionState is the lifecycle state of one sub-test attempt.
type SessionState string

const (
	StateNotStarted SessionState = "not_started"
	StateInProgress SessionState = "in_progress"
	StateCompleting SessionState = "completing"
	StateComplete   SessionState = "complete"
)

// Phase is the position inside the InProgress question loop.
type Phase string

const (
	PhaseNone             Phase = ""
	PhaseAwaitingQuestion Phase = "awaiting_question"
	PhaseAwaitingResponse Phase = "awaiting_response"
	PhaseRecording        Phase = "recording"
)

// Session is the explicit progress record for one (candidate, sub-test) pair.
// It is loaded from and saved to the store on every orchestrator call.
type Session struct {
	CandidateID   string       `json:"candidate_id"`
	SubTest       SubTest      `json:"sub_test"`
	Attempt       int          `json:"attempt"`
	State         SessionState `json:"state"`
	Phase         Phase        `json:"phase,omitempty"`
	AnsweredCount int          `json:"answered_count"`
	QuestionCount int          `json:"question_count"`
	StartedAt     time.Time    `json:"started_at"`

	// Current is the question on display, nil between questions.
	Current *Question `json:"current,omitempty"`

	// ShownAt is when Current was handed to the candidate.
	ShownAt time.Time `json:"shown_at,omitempty"`

	// Pending is a sealed Response whose scoring has not succeeded yet.
	Pending *Response `json:"pending,omitempty"`
}

// Key identifies a session.
type Key struct {
	CandidateID string
	SubTest     SubTest
}

// Key returns the session's identity.
func (s *Session) Key() Key {
	return Key{CandidateID: s.CandidateID, SubTest: s.SubTest}
}

// Remaining returns how many questions are left before N.
func (s *Session) Remaining() int {
	r := s.QuestionCount - s.AnsweredCount
	if r < 0 {
		return 0
	}
	return r
}

// Progress is the read-only view a sequencer gets of a session.
type Progress struct {
	Attempt       int
	AnsweredCount int
	QuestionCount int
}

// Progress returns the sequencer view of the session.
func (s *Session) Progress() Progress {
	return Progress{
		Attempt:       s.Attempt,
		AnsweredCount: s.AnsweredCount,
		QuestionCount: s.QuestionCount,
	}
}
