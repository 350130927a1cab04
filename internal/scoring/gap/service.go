// Package gap is the adaptive gap-analysis scoring service: per-topic Elo
// ratings and a picker that rotates topics and matches difficulty to the
// candidate's current rating.
package gap

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/scoring"
)

// Topic rotation limits.
const (
	RotationLimit = 3
	HistoryLimit  = 10
)

// QuestionCount is the number of questions in one gap analysis.
const QuestionCount = 60

// State is the persisted scoring state of one attempt.
type State struct {
	Ratings    map[string]int                  `json:"topic_ratings"`
	PrevTopics []string                        `json:"prev_topics"`
	Asked      []string                        `json:"asked"`
	Picks      map[int]string                  `json:"picks"`
	Judged     map[string]assessment.Judgement `json:"judged"`
	Correct    int                             `json:"correct"`
}

// Average is the integer mean of all topic ratings.
func (s *State) Average() int {
	if len(s.Ratings) == 0 {
		return InitialRating
	}
	sum := 0
	for _, r := range s.Ratings {
		sum += r
	}
	return sum / len(s.Ratings)
}

// Service implements assessment.Scorer and assessment.Picker.
type Service struct {
	bank    assessment.Bank
	states  scoring.StateStore
	topics  []string
	byTopic map[string][]*assessment.Question
	rng     *rand.Rand
	log     *zap.Logger
}

var (
	_ assessment.Scorer = (*Service)(nil)
	_ assessment.Picker = (*Service)(nil)
)

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used for topic and question choice.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService indexes bank by topic. Topics keep their first-seen order.
func NewService(bank assessment.Bank, states scoring.StateStore, opts ...Option) *Service {
	s := &Service{
		bank:    bank,
		states:  states,
		byTopic: make(map[string][]*assessment.Question),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	for i := 0; i < bank.Len(); i++ {
		q, _ := bank.At(i)
		if _, seen := s.byTopic[q.Topic]; !seen {
			s.topics = append(s.topics, q.Topic)
		}
		s.byTopic[q.Topic] = append(s.byTopic[q.Topic], q)
	}
	return s
}

func (s *Service) newState() *State {
	st := &State{
		Ratings: make(map[string]int, len(s.topics)),
		Picks:   make(map[int]string),
		Judged:  make(map[string]assessment.Judgement),
	}
	for _, t := range s.topics {
		st.Ratings[t] = InitialRating
	}
	return st
}

func (s *Service) load(ctx context.Context, candidateID string) (*State, error) {
	st := s.newState()
	if _, err := scoring.Load(ctx, s.states, candidateID, assessment.SubTestGapAnalysis, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, candidateID string, st *State) error {
	return scoring.Save(ctx, s.states, candidateID, assessment.SubTestGapAnalysis, st)
}

// Reset discards the candidate's ratings and history.
func (s *Service) Reset(ctx context.Context, candidateID string) error {
	return s.states.DeleteScorerState(ctx, candidateID, assessment.SubTestGapAnalysis)
}

// Pick chooses the question for position p.AnsweredCount. The choice is
// remembered, so asking again for the same position returns the same id.
func (s *Service) Pick(ctx context.Context, candidateID string, p assessment.Progress) (string, bool, error) {
	st, err := s.load(ctx, candidateID)
	if err != nil {
		return "", false, err
	}
	if id, ok := st.Picks[p.AnsweredCount]; ok {
		return id, true, nil
	}

	q := s.choose(st)
	if q == nil {
		s.log.Info("gap bank exhausted", zap.String("candidate", candidateID), zap.Int("answered", p.AnsweredCount))
		return "", false, nil
	}

	st.PrevTopics = append(st.PrevTopics, q.Topic)
	if len(st.PrevTopics) > HistoryLimit {
		st.PrevTopics = st.PrevTopics[len(st.PrevTopics)-HistoryLimit:]
	}
	st.Asked = append(st.Asked, q.ID)
	st.Picks[p.AnsweredCount] = q.ID

	if err := s.save(ctx, candidateID, st); err != nil {
		return "", false, err
	}
	return q.ID, true, nil
}

// choose returns an unasked question from a rotation-eligible topic, or nil
// when the bank is exhausted.
func (s *Service) choose(st *State) *assessment.Question {
	valid := make([]string, 0, len(s.topics))
	for _, t := range s.topics {
		if count(st.PrevTopics, t) < RotationLimit {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		st.PrevTopics = nil
		valid = slices.Clone(s.topics)
	}

	// Eligible topics first in random order, then any topic with questions
	// left so an exhausted topic never ends the test early.
	s.rng.Shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })
	for _, t := range s.topics {
		if !slices.Contains(valid, t) {
			valid = append(valid, t)
		}
	}

	for _, t := range valid {
		if q := s.chooseInTopic(st, t); q != nil {
			return q
		}
	}
	return nil
}

func (s *Service) chooseInTopic(st *State, topic string) *assessment.Question {
	var remaining []*assessment.Question
	available := map[string]int{}
	for _, q := range s.byTopic[topic] {
		if slices.Contains(st.Asked, q.ID) {
			continue
		}
		remaining = append(remaining, q)
		available[q.Difficulty]++
	}
	if len(remaining) == 0 {
		return nil
	}

	if d := difficultyFor(st.Ratings[topic], available); d != "" {
		var pool []*assessment.Question
		for _, q := range remaining {
			if q.Difficulty == d {
				pool = append(pool, q)
			}
		}
		return pool[s.rng.IntN(len(pool))]
	}
	return remaining[s.rng.IntN(len(remaining))]
}

// Submit updates the topic rating of the answered question. A forced null
// response counts as incorrect. Repeat calls for an already judged question
// return the stored judgement without changing ratings.
func (s *Service) Submit(ctx context.Context, resp assessment.Response) (*assessment.Judgement, error) {
	st, err := s.load(ctx, resp.CandidateID)
	if err != nil {
		return nil, err
	}
	if j, ok := st.Judged[resp.QuestionID]; ok {
		return &j, nil
	}

	q, ok := s.bank.Get(resp.QuestionID)
	if !ok {
		return nil, fmt.Errorf("question %q not in gap bank", resp.QuestionID)
	}

	correct := resp.Value != nil && *resp.Value == q.Answer
	current, ok := st.Ratings[q.Topic]
	if !ok {
		current = InitialRating
	}
	next := UpdateRating(current, difficultyRating(q.Difficulty), correct)
	st.Ratings[q.Topic] = next
	if correct {
		st.Correct++
	}

	j := assessment.Judgement{Correct: correct, Rating: float64(next), Detail: q.Topic}
	st.Judged[resp.QuestionID] = j
	if err := s.save(ctx, resp.CandidateID, st); err != nil {
		return nil, err
	}

	s.log.Debug("gap answer judged",
		zap.String("candidate", resp.CandidateID),
		zap.String("topic", q.Topic),
		zap.Bool("correct", correct),
		zap.Int("from", current),
		zap.Int("to", next))
	return &j, nil
}

// End reports the average rating as the numeric score, with per-topic
// ratings as metrics.
func (s *Service) End(ctx context.Context, candidateID string) (*assessment.Summary, error) {
	st, err := s.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	avg := float64(st.Average())
	metrics := make(map[string]float64, len(st.Ratings)+1)
	for t, r := range st.Ratings {
		metrics[t] = float64(r)
	}
	metrics["correct"] = float64(st.Correct)
	return &assessment.Summary{
		Score:    &avg,
		Level:    Band(st.Average()),
		Metrics:  metrics,
		Answered: len(st.Judged),
	}, nil
}

// Band names a rating range. 1200 is the competence threshold.
func Band(rating int) string {
	switch {
	case rating >= 1400:
		return "Strong"
	case rating >= 1200:
		return "Competent"
	case rating >= 1000:
		return "Developing"
	default:
		return "Foundational"
	}
}

func count(xs []string, x string) int {
	n := 0
	for _, v := range xs {
		if v == x {
			n++
		}
	}
	return n
}
