package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestMockProvider_ReplaysScript(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"summary":"a"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"summary":"b"}`)},
	)

	first, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "one"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first.Content) != `{"summary":"a"}` || first.Usage.InputTokens != 10 || first.StopReason != "end" {
		t.Fatalf("unexpected first response: %+v", first)
	}

	second, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Content) != `{"summary":"b"}` {
		t.Fatalf("unexpected second content: %s", second.Content)
	}

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable once the script is empty, got %T", err)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
	if mock.Calls[0].Messages[0].Content != "one" {
		t.Fatalf("request not recorded: %+v", mock.Calls[0])
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, "career-guidance")
	if p := PurposeFrom(ctx); p != "career-guidance" {
		t.Fatalf("expected 'career-guidance', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "sk-or"}}, false},
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock", Config{Provider: "mock"}, false},
		{"none", Config{Provider: "none"}, false},
		{"unknown", Config{Provider: "watson"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateNamesVariable(t *testing.T) {
	err := Config{Provider: "openrouter"}.Validate()
	if err == nil || err.Error() != "NEXTSTEP_OPENROUTER_API_KEY is required for the openrouter provider" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NEXTSTEP_LLM_PROVIDER", "openrouter")
	t.Setenv("NEXTSTEP_OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("NEXTSTEP_OPENROUTER_MODEL", "openai/gpt-3.5-turbo")
	t.Setenv("NEXTSTEP_LLM_TIMEOUT", "45s")

	cfg := ConfigFromEnv(DefaultConfig())
	if cfg.Provider != "openrouter" || cfg.OpenRouter.APIKey != "sk-or-test" || cfg.OpenRouter.Model != "openai/gpt-3.5-turbo" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Timeout.Seconds() != 45 {
		t.Fatalf("expected 45s timeout, got %s", cfg.Timeout)
	}
	if cfg.Anthropic.Model != "claude-haiku" {
		t.Fatalf("untouched defaults changed: %q", cfg.Anthropic.Model)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(DefaultConfig()); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := DiscoverConfig(DefaultConfig())
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-oai" {
		t.Fatalf("expected openai to win over anthropic, got %+v", cfg)
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), DefaultConfig(), nil, zap.NewNop()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected missing key error")
	}

	cfg.OpenRouter.APIKey = "sk-or"
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
	if _, ok := p.(*TimeoutProvider); !ok {
		t.Fatalf("expected outermost TimeoutProvider, got %T", p)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected gpt-4o-mini pricing")
	}
	if got := c.Cost(1_000_000, 1_000_000); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if LookupCost("openai/gpt-4o-mini") == nil {
		t.Fatal("expected vendor prefixed id to resolve")
	}
	if LookupCost("unknown-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
