package assessment

import (
	"fmt"
	"time"
)

// SubTest identifies one of the three independent assessments.
type SubTest string

const (
	SubTestGapAnalysis SubTest = "gap_analysis"
	SubTestPersonality SubTest = "non_technical_test"
	SubTestCoding      SubTest = "technical_test"
)

// AllSubTests lists every sub-test in report order.
var AllSubTests = []SubTest{SubTestGapAnalysis, SubTestCoding, SubTestPersonality}

// ParseSubTest accepts the canonical name or a short alias ("gap", "personality", "coding").
func ParseSubTest(s string) (SubTest, error) {
	switch s {
	case string(SubTestGapAnalysis), "gap", "gap-analysis":
		return SubTestGapAnalysis, nil
	case string(SubTestPersonality), "personality", "non-technical":
		return SubTestPersonality, nil
	case string(SubTestCoding), "coding", "technical":
		return SubTestCoding, nil
	}
	return "", fmt.Errorf("unknown sub-test %q", s)
}

// Label returns a human-readable name.
func (s SubTest) Label() string {
	switch s {
	case SubTestGapAnalysis:
		return "Gap Analysis"
	case SubTestPersonality:
		return "Personality"
	case SubTestCoding:
		return "Coding"
	}
	return string(s)
}

// Question is a read-only item from a sub-test's question bank.
type Question struct {
	ID         string       `json:"id" yaml:"id"`
	Prompt     string       `json:"prompt" yaml:"prompt"`
	Options    []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Ordinal    int          `json:"ordinal" yaml:"-"`
	Topic      string       `json:"topic,omitempty" yaml:"topic,omitempty"`
	Difficulty string       `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Problem    *ProblemSpec `json:"problem,omitempty" yaml:"problem,omitempty"`

	// Answer is the answer key; never serialised to candidates.
	Answer string `json:"-" yaml:"answer,omitempty"`
}

// ProblemSpec is the language-agnostic description of a coding question.
type ProblemSpec struct {
	Title          string `json:"title" yaml:"title"`
	InputExample   string `json:"input_example" yaml:"input_example"`
	ExpectedOutput string `json:"-" yaml:"expected_output"`
	Constraints    string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	MinLines       int    `json:"min_lines" yaml:"min_lines"`
	MaxLines       int    `json:"max_lines" yaml:"max_lines"`
}

// Response is the single sealed answer to one question within one attempt.
// Value is nil for a forced response.
type Response struct {
	CandidateID string    `json:"candidate_id"`
	SubTest     SubTest   `json:"sub_test"`
	Attempt     int       `json:"attempt"`
	QuestionID  string    `json:"question_id"`
	Ordinal     int       `json:"ordinal"`
	Value       *string   `json:"value"`
	SubmittedAt time.Time `json:"submitted_at"`
	Forced      bool      `json:"forced"`
}

// Judgement is a scoring service's per-answer verdict.
type Judgement struct {
	Correct bool    `json:"correct"`
	Rating  float64 `json:"rating,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}

// Summary holds the final metrics a scoring service reports for a sub-test.
// Score is set only when the sub-test yields a numeric proficiency rating;
// categorical sub-tests contribute Label only.
type Summary struct {
	Score    *float64           `json:"score,omitempty"`
	Label    string             `json:"label,omitempty"`
	Solved   int                `json:"solved,omitempty"`
	Total    int                `json:"total,omitempty"`
	Level    string             `json:"level,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Answered int                `json:"answered"`
}

// SubTestResult is produced once a session reaches Complete.
type SubTestResult struct {
	CandidateID string    `json:"candidate_id"`
	SubTest     SubTest   `json:"sub_test"`
	Attempt     int       `json:"attempt"`
	Summary     Summary   `json:"summary"`
	CompletedAt time.Time `json:"completed_at"`
}

// FinalResult is the aggregated report. It is derived data and may be
// regenerated at any time from the three SubTestResults.
type FinalResult struct {
	CandidateID      string              `json:"candidate_id"`
	AverageScore     float64             `json:"average_elo"`
	TechnicalTest    string              `json:"technical_test"`
	TechnicalLevel   string              `json:"technical_level"`
	NonTechnicalTest string              `json:"non_technical_test"`
	PerSubTest       map[SubTest]Summary `json:"per_sub_test"`
	Narrative        string              `json:"career_guidance"`
	InputDigest      string              `json:"input_digest"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// Candidate is the identity the assessment is administered to.
type Candidate struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
