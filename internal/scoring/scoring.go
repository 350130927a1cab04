// Package scoring holds what the per-sub-test scoring services share: where
// their opaque state lives between calls.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/abhisek/nextstep/internal/assessment"
)

// StateStore persists a scorer's opaque per-candidate state.
// *store.Store satisfies it.
type StateStore interface {
	LoadScorerState(ctx context.Context, candidateID string, st assessment.SubTest) ([]byte, error)
	SaveScorerState(ctx context.Context, candidateID string, st assessment.SubTest, data []byte) error
	DeleteScorerState(ctx context.Context, candidateID string, st assessment.SubTest) error
}

// Load decodes the state for candidateID into v. It reports false when no
// state has been saved yet.
func Load(ctx context.Context, s StateStore, candidateID string, st assessment.SubTest, v any) (bool, error) {
	data, err := s.LoadScorerState(ctx, candidateID, st)
	if errors.Is(err, assessment.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s state: %w", st, err)
	}
	return true, nil
}

// Save encodes v as the state for candidateID.
func Save(ctx context.Context, s StateStore, candidateID string, st assessment.SubTest, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s state: %w", st, err)
	}
	return s.SaveScorerState(ctx, candidateID, st, data)
}

// MemoryStateStore is an in-process StateStore.
type MemoryStateStore struct {
	mu   sync.Mutex
	data map[assessment.Key][]byte
}

// NewMemoryStateStore returns an empty in-process store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{data: make(map[assessment.Key][]byte)}
}

func (m *MemoryStateStore) LoadScorerState(_ context.Context, candidateID string, st assessment.SubTest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[assessment.Key{CandidateID: candidateID, SubTest: st}]
	if !ok {
		return nil, assessment.ErrNotFound
	}
	return append([]byte(nil), d...), nil
}

func (m *MemoryStateStore) SaveScorerState(_ context.Context, candidateID string, st assessment.SubTest, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[assessment.Key{CandidateID: candidateID, SubTest: st}] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStateStore) DeleteScorerState(_ context.Context, candidateID string, st assessment.SubTest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, assessment.Key{CandidateID: candidateID, SubTest: st})
	return nil
}
