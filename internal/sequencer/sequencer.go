// Package sequencer hands out the question at a candidate's current
// position. It never mutates progress, so every call is safe to retry.
package sequencer

import (
	"context"
	"fmt"

	"github.com/abhisek/nextstep/internal/assessment"
)

// Fixed serves a bank in file order: the question at ordinal answeredCount.
type Fixed struct {
	bank assessment.Bank
}

var _ assessment.Sequencer = (*Fixed)(nil)

// NewFixed returns a fixed-order sequencer over bank.
func NewFixed(bank assessment.Bank) *Fixed {
	return &Fixed{bank: bank}
}

// Next returns the question at p.AnsweredCount, or ErrEndOfSequence once the
// target count is reached or the bank runs out first.
func (f *Fixed) Next(_ context.Context, _ string, p assessment.Progress) (*assessment.Question, error) {
	if p.QuestionCount > 0 && p.AnsweredCount >= p.QuestionCount {
		return nil, assessment.ErrEndOfSequence
	}
	q, ok := f.bank.At(p.AnsweredCount)
	if !ok {
		return nil, assessment.ErrEndOfSequence
	}
	return q, nil
}

// Adaptive relays the question id chosen by an adaptive scoring service.
type Adaptive struct {
	picker assessment.Picker
	bank   assessment.Bank
}

var _ assessment.Sequencer = (*Adaptive)(nil)

// NewAdaptive returns a sequencer that delegates ordering to picker and
// resolves the picked id against bank.
func NewAdaptive(picker assessment.Picker, bank assessment.Bank) *Adaptive {
	return &Adaptive{picker: picker, bank: bank}
}

// Next asks the picker for the next id. A picker that reports exhaustion
// ends the sequence early.
func (a *Adaptive) Next(ctx context.Context, candidateID string, p assessment.Progress) (*assessment.Question, error) {
	if p.QuestionCount > 0 && p.AnsweredCount >= p.QuestionCount {
		return nil, assessment.ErrEndOfSequence
	}
	id, ok, err := a.picker.Pick(ctx, candidateID, p)
	if err != nil {
		return nil, fmt.Errorf("pick next question: %w", err)
	}
	if !ok {
		return nil, assessment.ErrEndOfSequence
	}
	q, found := a.bank.Get(id)
	if !found {
		return nil, fmt.Errorf("picked question %q not in bank", id)
	}
	q.Ordinal = p.AnsweredCount
	return q, nil
}
