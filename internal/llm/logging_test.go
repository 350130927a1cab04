package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/nextstep/internal/store"
)

type recordingEvents struct {
	llm []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendSessionEvent(context.Context, store.SessionEventData) error {
	return nil
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.llm = append(r.llm, data)
	return r.err
}

func (r *recordingEvents) Events(context.Context, store.QueryOpts) ([]store.Event, error) {
	return nil, nil
}

func TestLogging_RecordsSuccess(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"summary":"ok"}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 80},
	})
	p := WithLogging(mock, events, nil)

	ctx := WithPurpose(context.Background(), "career-guidance")
	_, err := p.Generate(ctx, Request{
		System:   "coach",
		Messages: []Message{{Role: RoleUser, Content: "advise me"}},
		Schema:   milestonesSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.llm) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.llm))
	}
	got := events.llm[0]
	if !got.Success || got.Purpose != "career-guidance" || got.InputTokens != 120 || got.OutputTokens != 80 {
		t.Fatalf("unexpected event %+v", got)
	}
	for _, want := range []string{"[system]\ncoach", "[user]\nadvise me", "[schema: test-milestones]"} {
		if !strings.Contains(got.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, got.RequestBody)
		}
	}
	if got.ResponseBody != `{"summary":"ok"}` {
		t.Fatalf("unexpected response body %q", got.ResponseBody)
	}
}

func TestLogging_RecordsFailureAndIgnoresRepoErrors(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(), events, nil)

	_, err := p.Generate(context.Background(), Request{})
	var un *ErrProviderUnavailable
	if !errors.As(err, &un) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(events.llm) != 1 || events.llm[0].Success || events.llm[0].ErrorMessage == "" {
		t.Fatalf("unexpected events %+v", events.llm)
	}
	if events.llm[0].Purpose != "unknown" {
		t.Fatalf("expected unknown purpose, got %q", events.llm[0].Purpose)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
