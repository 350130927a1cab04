// Package personality scores the Likert questionnaire into a four-letter
// type. Each statement belongs to one trait; an answer of 1..7 adds
// answer-4 to that trait's score.
package personality

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/scoring"
)

// Likert scale bounds.
const (
	ScaleMin = 1
	ScaleMax = 7
	Neutral  = 4
)

// QuestionCount is the number of statements in the questionnaire.
const QuestionCount = 20

// dichotomies in type-letter order. The first letter wins only on a strict
// majority.
var dichotomies = [4][2]string{{"I", "E"}, {"S", "N"}, {"T", "F"}, {"J", "P"}}

// State is the persisted trait tally.
type State struct {
	Scores map[string]int `json:"scores"`
	Judged map[string]int `json:"judged"`
}

// Service implements assessment.Scorer.
type Service struct {
	bank   assessment.Bank
	states scoring.StateStore
}

var (
	_ assessment.Scorer    = (*Service)(nil)
	_ assessment.Validator = (*Service)(nil)
)

// NewService returns a personality scorer over bank. Each question's Topic
// names its trait letter.
func NewService(bank assessment.Bank, states scoring.StateStore) *Service {
	return &Service{bank: bank, states: states}
}

func (s *Service) load(ctx context.Context, candidateID string) (*State, error) {
	st := &State{Scores: map[string]int{}, Judged: map[string]int{}}
	if _, err := scoring.Load(ctx, s.states, candidateID, assessment.SubTestPersonality, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Reset clears the tally.
func (s *Service) Reset(ctx context.Context, candidateID string) error {
	return s.states.DeleteScorerState(ctx, candidateID, assessment.SubTestPersonality)
}

// Validate rejects anything but an integer on the Likert scale.
func (s *Service) Validate(_ *assessment.Question, value string) error {
	_, err := parseAnswer(value)
	return err
}

func parseAnswer(value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil || v < ScaleMin || v > ScaleMax {
		return 0, fmt.Errorf("%w: %q is not on the scale %d..%d", assessment.ErrInvalidAnswer, value, ScaleMin, ScaleMax)
	}
	return v, nil
}

// Submit adds one answer to its trait. A forced null counts as neutral.
func (s *Service) Submit(ctx context.Context, resp assessment.Response) (*assessment.Judgement, error) {
	q, ok := s.bank.Get(resp.QuestionID)
	if !ok {
		return nil, fmt.Errorf("question %q not in personality bank", resp.QuestionID)
	}

	delta := 0
	if resp.Value != nil {
		v, err := parseAnswer(*resp.Value)
		if err != nil {
			return nil, err
		}
		delta = v - Neutral
	}

	st, err := s.load(ctx, resp.CandidateID)
	if err != nil {
		return nil, err
	}
	if _, done := st.Judged[resp.QuestionID]; !done {
		st.Scores[q.Topic] += delta
		st.Judged[resp.QuestionID] = delta
		if err := scoring.Save(ctx, s.states, resp.CandidateID, assessment.SubTestPersonality, st); err != nil {
			return nil, err
		}
	}
	return &assessment.Judgement{Correct: true, Detail: q.Topic}, nil
}

// End reports the personality type as the categorical label. There is no
// numeric score.
func (s *Service) End(ctx context.Context, candidateID string) (*assessment.Summary, error) {
	st, err := s.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	metrics := make(map[string]float64, 8)
	for _, d := range dichotomies {
		metrics[d[0]] = float64(st.Scores[d[0]])
		metrics[d[1]] = float64(st.Scores[d[1]])
	}
	return &assessment.Summary{
		Label:    Type(st.Scores),
		Metrics:  metrics,
		Answered: len(st.Judged),
	}, nil
}

// Type derives the four-letter type from trait scores.
func Type(scores map[string]int) string {
	out := make([]byte, 0, 4)
	for _, d := range dichotomies {
		if scores[d[0]] > scores[d[1]] {
			out = append(out, d[0]...)
		} else {
			out = append(out, d[1]...)
		}
	}
	return string(out)
}
