package personality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/bank"
	"github.com/abhisek/nextstep/internal/scoring"
)

func TestType(t *testing.T) {
	tests := []struct {
		scores map[string]int
		want   string
	}{
		{map[string]int{"I": 5, "E": 1, "S": 0, "N": 3, "T": 4, "F": -2, "J": 6, "P": 0}, "INTJ"},
		{map[string]int{}, "ENFP"},
		{map[string]int{"I": 2, "E": 2, "S": 1, "T": 1, "J": 1}, "ESTJ"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Type(tt.scores))
	}
}

func answer(t *testing.T, s *Service, id string, v *string) {
	t.Helper()
	_, err := s.Submit(context.Background(), assessment.Response{
		CandidateID: "cand", SubTest: assessment.SubTestPersonality, QuestionID: id, Value: v,
	})
	require.NoError(t, err)
}

func TestService_INTJ(t *testing.T) {
	b, err := bank.Default(assessment.SubTestPersonality)
	require.NoError(t, err)
	s := NewService(b, scoring.NewMemoryStateStore())

	prefer := map[string]bool{"I": true, "N": true, "T": true, "J": true}
	for i := 0; i < b.Len(); i++ {
		q, _ := b.At(i)
		v := "1"
		if prefer[q.Topic] {
			v = "7"
		}
		answer(t, s, q.ID, &v)
	}

	sum, err := s.End(context.Background(), "cand")
	require.NoError(t, err)
	assert.Equal(t, "INTJ", sum.Label)
	assert.Nil(t, sum.Score)
	assert.Equal(t, QuestionCount, sum.Answered)
	assert.Equal(t, 9.0, sum.Metrics["I"])
}

func TestService_ForcedIsNeutralAndRepeatIsIgnored(t *testing.T) {
	b, err := bank.Default(assessment.SubTestPersonality)
	require.NoError(t, err)
	s := NewService(b, scoring.NewMemoryStateStore())

	answer(t, s, "p01", nil)
	seven := "7"
	answer(t, s, "p02", &seven)
	answer(t, s, "p02", &seven)

	sum, err := s.End(context.Background(), "cand")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum.Metrics["I"])
	assert.Equal(t, 3.0, sum.Metrics["E"])
	assert.Equal(t, 2, sum.Answered)
}

func TestService_RejectsOutOfScale(t *testing.T) {
	b, err := bank.Default(assessment.SubTestPersonality)
	require.NoError(t, err)
	s := NewService(b, scoring.NewMemoryStateStore())

	eight := "8"
	_, err = s.Submit(context.Background(), assessment.Response{CandidateID: "cand", QuestionID: "p01", Value: &eight})
	assert.ErrorIs(t, err, assessment.ErrInvalidAnswer)
}

func TestService_Validate(t *testing.T) {
	b, err := bank.Default(assessment.SubTestPersonality)
	require.NoError(t, err)
	s := NewService(b, scoring.NewMemoryStateStore())

	for _, v := range []string{"1", "4", "7"} {
		assert.NoError(t, s.Validate(nil, v), v)
	}
	for _, v := range []string{"0", "8", "9", "", "four", "3.5"} {
		assert.ErrorIs(t, s.Validate(nil, v), assessment.ErrInvalidAnswer, v)
	}
}
