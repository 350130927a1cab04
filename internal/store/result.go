package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/nextstep/internal/assessment"
)

// SubTestResult returns the stored result for one sub-test, or ErrNotFound.
func (s *Store) SubTestResult(ctx context.Context, candidateID string, st assessment.SubTest) (*assessment.SubTestResult, error) {
	b := s.builder()
	query, args := b.Select("attempt", "summary", "completed_at").
		From(b.Table(tSubTestResults)).
		Where(sessionKey(assessment.Key{CandidateID: candidateID, SubTest: st})).
		Query()

	res := &assessment.SubTestResult{CandidateID: candidateID, SubTest: st}
	var (
		summary     string
		completedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&res.Attempt, &summary, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sub-test result %s: %w", st, assessment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load sub-test result: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &res.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	res.CompletedAt = fromMillis(completedAt)
	return res, nil
}

// SaveFinalResult overwrites the candidate's FinalResult with a single
// upsert statement.
func (s *Store) SaveFinalResult(ctx context.Context, fr *assessment.FinalResult) error {
	payload, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("encode final result: %w", err)
	}
	ins := s.builder().Insert(tFinalResults).
		Columns("candidate_id", "payload", "digest", "generated_at").
		Values(fr.CandidateID, string(payload), fr.InputDigest, toMillis(fr.GeneratedAt)).
		OnConflict(entsql.ConflictColumns("candidate_id"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save final result: %w", err)
	}
	return nil
}

// FinalResult returns the last persisted FinalResult, or ErrNotFound.
func (s *Store) FinalResult(ctx context.Context, candidateID string) (*assessment.FinalResult, error) {
	b := s.builder()
	query, args := b.Select("payload").
		From(b.Table(tFinalResults)).
		Where(entsql.EQ("candidate_id", candidateID)).
		Query()

	var payload string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("final result: %w", assessment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load final result: %w", err)
	}
	fr := &assessment.FinalResult{}
	if err := json.Unmarshal([]byte(payload), fr); err != nil {
		return nil, fmt.Errorf("decode final result: %w", err)
	}
	return fr, nil
}

// LoadScorerState returns the opaque scoring state for (candidate, sub-test),
// or ErrNotFound.
func (s *Store) LoadScorerState(ctx context.Context, candidateID string, st assessment.SubTest) ([]byte, error) {
	b := s.builder()
	query, args := b.Select("data").
		From(b.Table(tScorerStates)).
		Where(sessionKey(assessment.Key{CandidateID: candidateID, SubTest: st})).
		Query()

	var data string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assessment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scorer state: %w", err)
	}
	return []byte(data), nil
}

// SaveScorerState upserts the opaque scoring state.
func (s *Store) SaveScorerState(ctx context.Context, candidateID string, st assessment.SubTest, data []byte) error {
	ins := s.builder().Insert(tScorerStates).
		Columns("candidate_id", "sub_test", "data", "updated_at").
		Values(candidateID, string(st), string(data), time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("candidate_id", "sub_test"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save scorer state: %w", err)
	}
	return nil
}

// DeleteScorerState drops the scoring state, if any.
func (s *Store) DeleteScorerState(ctx context.Context, candidateID string, st assessment.SubTest) error {
	del := s.builder().Delete(tScorerStates).
		Where(sessionKey(assessment.Key{CandidateID: candidateID, SubTest: st}))
	if _, err := exec(ctx, s.db, del); err != nil {
		return fmt.Errorf("delete scorer state: %w", err)
	}
	return nil
}
