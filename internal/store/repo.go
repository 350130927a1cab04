package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit       int       // max results (0 = unlimited)
	After       int64     // id > After
	CandidateID string    // only events for this candidate
	Kind        string    // only events of this kind
	From        time.Time // created_at >= From
	To          time.Time // created_at <= To
}

// Event kinds.
const (
	KindSession    = "session"
	KindLLMRequest = "llm_request"
)

// Event is one row of the append-only audit log.
type Event struct {
	ID          int64
	Kind        string
	CandidateID string
	SubTest     string
	Payload     string
	CreatedAt   time.Time
}

// SessionEventData captures one lifecycle transition of a sub-test session.
type SessionEventData struct {
	CandidateID   string `json:"candidate_id"`
	SubTest       string `json:"sub_test"`
	Attempt       int    `json:"attempt"`
	Action        string `json:"action"` // "start", "restart", "forced", "complete", "end"
	AnsweredCount int    `json:"answered_count"`
	QuestionID    string `json:"question_id,omitempty"`
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Purpose      string `json:"purpose"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// EventRepo provides append and query access to the audit log.
type EventRepo interface {
	// AppendSessionEvent records a session lifecycle transition.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// Events lists events in append order.
	Events(ctx context.Context, opts QueryOpts) ([]Event, error)
}
