// Package coding scores the coding test: each answer is a program that must
// fit the problem's line bounds and print the expected output for the
// problem's example input.
package coding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/scoring"
)

// QuestionCount is the number of problems in the coding test.
const QuestionCount = 15

// DefaultLanguage is used when an answer is bare source code.
const DefaultLanguage = "python"

// Level names the skill band for a solved count.
func Level(solved int) string {
	switch {
	case solved >= QuestionCount:
		return "Programming Advanced"
	case solved >= 10:
		return "Programming Adept"
	case solved >= 5:
		return "Programming Basic"
	default:
		return "Programming Beginner"
	}
}

// Answer is a decoded coding response.
type Answer struct {
	Language string
	Code     string
}

// ParseAnswer accepts either a JSON object {"language", "code"} or bare
// source code in DefaultLanguage.
func ParseAnswer(raw string) Answer {
	if gjson.Valid(raw) {
		r := gjson.Parse(raw)
		if r.IsObject() && r.Get("code").Exists() {
			lang := r.Get("language").String()
			if lang == "" {
				lang = DefaultLanguage
			}
			return Answer{Language: lang, Code: r.Get("code").String()}
		}
	}
	return Answer{Language: DefaultLanguage, Code: raw}
}

// CountLines counts non-blank lines.
func CountLines(code string) int {
	n := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// State is the persisted per-attempt tally.
type State struct {
	Judged map[string]assessment.Judgement `json:"judged"`
	Solved int                             `json:"solved"`
}

// Service implements assessment.Scorer.
type Service struct {
	bank   assessment.Bank
	states scoring.StateStore
	runner Runner
	total  int
	log    *zap.Logger
}

var _ assessment.Scorer = (*Service)(nil)

// NewService returns a coding scorer. total is the denominator reported in
// the summary.
func NewService(bank assessment.Bank, states scoring.StateStore, runner Runner, total int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if total <= 0 {
		total = QuestionCount
	}
	return &Service{bank: bank, states: states, runner: runner, total: total, log: log}
}

func (s *Service) load(ctx context.Context, candidateID string) (*State, error) {
	st := &State{Judged: map[string]assessment.Judgement{}}
	if _, err := scoring.Load(ctx, s.states, candidateID, assessment.SubTestCoding, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Reset clears the solved count.
func (s *Service) Reset(ctx context.Context, candidateID string) error {
	return s.states.DeleteScorerState(ctx, candidateID, assessment.SubTestCoding)
}

// Submit judges one program. A null value (unsolved at end of test) and a
// program outside the line bounds are incorrect. Runner failures are
// returned so the caller can retry the same response.
func (s *Service) Submit(ctx context.Context, resp assessment.Response) (*assessment.Judgement, error) {
	st, err := s.load(ctx, resp.CandidateID)
	if err != nil {
		return nil, err
	}
	if j, ok := st.Judged[resp.QuestionID]; ok {
		return &j, nil
	}

	q, ok := s.bank.Get(resp.QuestionID)
	if !ok || q.Problem == nil {
		return nil, fmt.Errorf("question %q not in coding bank", resp.QuestionID)
	}

	j, err := s.judge(ctx, q.Problem, resp.Value)
	if err != nil {
		return nil, err
	}
	st.Judged[resp.QuestionID] = *j
	if j.Correct {
		st.Solved++
	}
	if err := scoring.Save(ctx, s.states, resp.CandidateID, assessment.SubTestCoding, st); err != nil {
		return nil, err
	}

	s.log.Debug("coding answer judged",
		zap.String("candidate", resp.CandidateID),
		zap.String("question", resp.QuestionID),
		zap.Bool("correct", j.Correct),
		zap.String("detail", j.Detail))
	return j, nil
}

func (s *Service) judge(ctx context.Context, p *assessment.ProblemSpec, value *string) (*assessment.Judgement, error) {
	if value == nil {
		return &assessment.Judgement{Detail: "unsolved"}, nil
	}
	ans := ParseAnswer(*value)

	lines := CountLines(ans.Code)
	if lines < p.MinLines || (p.MaxLines > 0 && lines > p.MaxLines) {
		return &assessment.Judgement{
			Detail: fmt.Sprintf("code must be between %d and %d lines, got %d", p.MinLines, p.MaxLines, lines),
		}, nil
	}

	out, err := s.runner.Run(ctx, ans.Language, ans.Code, p.InputExample)
	if err != nil {
		return nil, fmt.Errorf("run code: %w", err)
	}
	if out == strings.TrimSpace(p.ExpectedOutput) {
		return &assessment.Judgement{Correct: true, Detail: "output matches"}, nil
	}
	return &assessment.Judgement{Detail: "wrong output"}, nil
}

// End reports solved/total and the derived level.
func (s *Service) End(ctx context.Context, candidateID string) (*assessment.Summary, error) {
	st, err := s.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return &assessment.Summary{
		Solved:   st.Solved,
		Total:    s.total,
		Level:    Level(st.Solved),
		Answered: len(st.Judged),
		Metrics:  map[string]float64{"solved": float64(st.Solved)},
	}, nil
}
