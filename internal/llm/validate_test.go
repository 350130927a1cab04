package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var milestonesSchema = &Schema{
	Name: "test-milestones",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":    map[string]any{"type": "string"},
			"milestones": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []string{"summary", "milestones"},
		"additionalProperties": false,
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"valid", milestonesSchema, `{"summary":"s","milestones":["ship a CLI"]}`, false},
		{"missing field", milestonesSchema, `{"summary":"s"}`, true},
		{"wrong type", milestonesSchema, `{"summary":"s","milestones":"ship"}`, true},
		{"extra field", milestonesSchema, `{"summary":"s","milestones":[],"x":1}`, true},
		{"not json", milestonesSchema, `summary: s`, true},
		{"nil schema", nil, `not even json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestFinish_TruncatedStructuredOutput(t *testing.T) {
	_, err := finish(Request{Schema: milestonesSchema}, json.RawMessage(`{"summ`), Usage{}, "m", "max_tokens")
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}
