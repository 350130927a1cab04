package assessment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregationIncompleteErrorNamesMissing(t *testing.T) {
	err := &AggregationIncompleteError{Missing: []SubTest{SubTestCoding, SubTestPersonality}}
	assert.Equal(t, "aggregation incomplete: missing technical_test, non_technical_test", err.Error())

	var target *AggregationIncompleteError
	assert.True(t, errors.As(fmt.Errorf("generate: %w", err), &target))
	assert.Equal(t, []SubTest{SubTestCoding, SubTestPersonality}, target.Missing)
}

func TestSubmissionFailedUnwraps(t *testing.T) {
	cause := errors.New("scorer down")
	err := &SubmissionFailedError{QuestionID: "q1", Attempts: 3, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestIsAbsorbed(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrDuplicateResponse, true},
		{fmt.Errorf("record: %w", ErrStaleResponse), true},
		{ErrNotAuthorized, false},
		{&SubmissionFailedError{Err: errors.New("x")}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAbsorbed(tt.err), "%v", tt.err)
	}
}

func TestParseSubTest(t *testing.T) {
	for in, want := range map[string]SubTest{
		"gap":                SubTestGapAnalysis,
		"gap_analysis":       SubTestGapAnalysis,
		"personality":        SubTestPersonality,
		"non_technical_test": SubTestPersonality,
		"coding":             SubTestCoding,
		"technical_test":     SubTestCoding,
	} {
		got, err := ParseSubTest(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSubTest("chess")
	assert.Error(t, err)
}

func TestSessionRemaining(t *testing.T) {
	s := &Session{QuestionCount: 15, AnsweredCount: 10}
	assert.Equal(t, 5, s.Remaining())
	s.AnsweredCount = 20
	assert.Equal(t, 0, s.Remaining())
}
