package guidance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/llm"
)

func testProfile() Profile {
	return Profile{AverageScore: 1420, Personality: "INTJ", SkillLevel: "Programming Adept", TechnicalTest: "10/15"}
}

func validOutput() json.RawMessage {
	return json.RawMessage(`{
		"summary": "You are a competent developer ready to specialise.",
		"technologies": ["Go", "PostgreSQL"],
		"learning_strategy": "Deep solo study blocks.",
		"career_paths": ["Backend developer"],
		"mistakes": ["Over-engineering"],
		"milestones": ["1 month: ship a CLI"],
		"roadmap_url": "https://roadmap.sh/backend"
	}`)
}

func TestLLMNarrator_RendersStructuredOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validOutput()})
	n := NewLLMNarrator(mock, DefaultConfig())

	text, err := n.Narrate(context.Background(), testProfile())
	require.NoError(t, err)

	assert.Contains(t, text, "You are a competent developer ready to specialise.")
	assert.Contains(t, text, "Technologies to master\n- Go\n- PostgreSQL\n")
	assert.Contains(t, text, "Roadmap: https://roadmap.sh/backend")

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, GuidanceSchema, req.Schema)
	assert.Equal(t, 0.7, req.Temperature)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "rated at 1420")
	assert.Contains(t, req.Messages[0].Content, "'INTJ'")
	assert.Contains(t, req.Messages[0].Content, "adept programmer")
}

func TestLLMNarrator_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
	_, err := NewLLMNarrator(mock, DefaultConfig()).Narrate(context.Background(), testProfile())
	assert.ErrorContains(t, err, "career guidance generation")
}

func TestLLMNarrator_EmptySummary(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"  "}`)})
	_, err := NewLLMNarrator(mock, DefaultConfig()).Narrate(context.Background(), testProfile())
	assert.Error(t, err)
}

func TestTemplateNarrator_Deterministic(t *testing.T) {
	a, err := TemplateNarrator{}.Narrate(context.Background(), testProfile())
	require.NoError(t, err)
	b, err := TemplateNarrator{}.Narrate(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "1420 is strong")
	assert.Contains(t, a, "As an INTJ")
	assert.Contains(t, a, "https://roadmap.sh/system-design")
}

func TestTemplateNarrator_Bands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{900, "computer-science"},
		{1100, "data-structures"},
		{1300, "roadmap.sh/backend"},
		{1500, "system-design"},
	}
	for _, tt := range tests {
		p := testProfile()
		p.AverageScore = tt.score
		text, err := TemplateNarrator{}.Narrate(context.Background(), p)
		require.NoError(t, err)
		assert.Contains(t, text, tt.want, "score %v", tt.score)
	}
}

func TestFallback(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue: provider unavailable
	f := Fallback{Primary: NewLLMNarrator(mock, DefaultConfig()), Log: zap.NewNop()}

	text, err := f.Narrate(context.Background(), testProfile())
	require.NoError(t, err)
	want, _ := TemplateNarrator{}.Narrate(context.Background(), testProfile())
	assert.Equal(t, want, text)

	mock.AddResponse(llm.MockResponse{Content: validOutput()})
	text, err = f.Narrate(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Contains(t, text, "ready to specialise")
}

func TestSkillWord(t *testing.T) {
	assert.Equal(t, "adept", skillWord("Programming Adept"))
	assert.Equal(t, "advanced", skillWord("Programming Advanced"))
	assert.Equal(t, "beginner", skillWord(""))
}
