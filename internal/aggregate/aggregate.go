// Package aggregate combines the three sub-test results of a candidate into
// one FinalResult.
package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/guidance"
)

// Store is the persistence the aggregator reads from and writes to.
type Store interface {
	SubTestResult(ctx context.Context, candidateID string, st assessment.SubTest) (*assessment.SubTestResult, error)
	SaveFinalResult(ctx context.Context, fr *assessment.FinalResult) error
	FinalResult(ctx context.Context, candidateID string) (*assessment.FinalResult, error)
}

// Aggregator generates and serves final results.
type Aggregator struct {
	store    Store
	narrator guidance.Narrator
	clock    clockwork.Clock
	log      *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock injects the clock used for GeneratedAt.
func WithClock(c clockwork.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New returns an aggregator. A nil narrator uses guidance.TemplateNarrator.
func New(st Store, narrator guidance.Narrator, opts ...Option) *Aggregator {
	if narrator == nil {
		narrator = guidance.TemplateNarrator{}
	}
	a := &Aggregator{
		store:    st,
		narrator: narrator,
		clock:    clockwork.NewRealClock(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SubTestResult returns one stored sub-test result.
func (a *Aggregator) SubTestResult(ctx context.Context, candidateID string, st assessment.SubTest) (*assessment.SubTestResult, error) {
	return a.store.SubTestResult(ctx, candidateID, st)
}

// Get returns the last generated FinalResult. It never computes.
func (a *Aggregator) Get(ctx context.Context, candidateID string) (*assessment.FinalResult, error) {
	return a.store.FinalResult(ctx, candidateID)
}

// Generate recomputes the FinalResult from the current sub-test results and
// overwrites the stored one. It fails with *AggregationIncompleteError and
// writes nothing if any sub-test result is missing.
func (a *Aggregator) Generate(ctx context.Context, candidateID string) (*assessment.FinalResult, error) {
	results, err := a.collect(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	fr, err := combine(candidateID, results)
	if err != nil {
		return nil, err
	}

	prev, err := a.store.FinalResult(ctx, candidateID)
	switch {
	case err == nil && prev.InputDigest == fr.InputDigest && prev.Narrative != "":
		fr.Narrative = prev.Narrative
		a.log.Debug("reusing career guidance", zap.String("candidate", candidateID))
	case err == nil || errors.Is(err, assessment.ErrNotFound):
		fr.Narrative, err = a.narrator.Narrate(ctx, guidance.Profile{
			AverageScore:  fr.AverageScore,
			Personality:   fr.NonTechnicalTest,
			SkillLevel:    fr.TechnicalLevel,
			TechnicalTest: fr.TechnicalTest,
		})
		if err != nil {
			return nil, fmt.Errorf("career guidance: %w", err)
		}
	default:
		return nil, err
	}

	fr.GeneratedAt = a.clock.Now().UTC()
	if err := a.store.SaveFinalResult(ctx, fr); err != nil {
		return nil, err
	}

	a.log.Info("final result generated",
		zap.String("candidate", candidateID),
		zap.Float64("average", fr.AverageScore),
		zap.String("digest", fr.InputDigest[:12]))
	return fr, nil
}

// collect loads every sub-test result, naming all that are missing.
func (a *Aggregator) collect(ctx context.Context, candidateID string) (map[assessment.SubTest]*assessment.SubTestResult, error) {
	results := make(map[assessment.SubTest]*assessment.SubTestResult, len(assessment.AllSubTests))
	var missing []assessment.SubTest
	for _, st := range assessment.AllSubTests {
		r, err := a.store.SubTestResult(ctx, candidateID, st)
		if errors.Is(err, assessment.ErrNotFound) {
			missing = append(missing, st)
			continue
		}
		if err != nil {
			return nil, err
		}
		results[st] = r
	}
	if len(missing) > 0 {
		return nil, &assessment.AggregationIncompleteError{Missing: missing}
	}
	return results, nil
}

// combine derives everything in the FinalResult except the narrative and
// timestamp. Only sub-tests with a numeric score enter the mean.
func combine(candidateID string, results map[assessment.SubTest]*assessment.SubTestResult) (*assessment.FinalResult, error) {
	fr := &assessment.FinalResult{
		CandidateID: candidateID,
		PerSubTest:  make(map[assessment.SubTest]assessment.Summary, len(results)),
	}

	var (
		sum float64
		n   int
	)
	for _, st := range assessment.AllSubTests {
		s := results[st].Summary
		fr.PerSubTest[st] = s
		if s.Score != nil {
			sum += *s.Score
			n++
		}
	}
	if n > 0 {
		fr.AverageScore = sum / float64(n)
	}

	coding := results[assessment.SubTestCoding].Summary
	fr.TechnicalTest = fmt.Sprintf("%d/%d", coding.Solved, coding.Total)
	fr.TechnicalLevel = coding.Level
	fr.NonTechnicalTest = results[assessment.SubTestPersonality].Summary.Label

	digest, err := inputDigest(results)
	if err != nil {
		return nil, err
	}
	fr.InputDigest = digest
	return fr, nil
}

// inputDigest fingerprints the inputs of a generation so an unchanged set of
// results yields the same digest.
func inputDigest(results map[assessment.SubTest]*assessment.SubTestResult) (string, error) {
	type input struct {
		Attempt int                `json:"attempt"`
		Summary assessment.Summary `json:"summary"`
	}
	in := make(map[assessment.SubTest]input, len(results))
	for st, r := range results {
		in[st] = input{Attempt: r.Attempt, Summary: r.Summary}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("digest inputs: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
