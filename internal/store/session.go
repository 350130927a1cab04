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

var sessionSelectColumns = []string{
	"attempt", "state", "phase", "answered_count", "question_count",
	"started_at", "current_question", "shown_at", "pending_response",
}

// LoadSession returns the persisted session for key. A candidate who never
// started the sub-test gets a NotStarted session at attempt 0.
func (s *Store) LoadSession(ctx context.Context, key assessment.Key) (*assessment.Session, error) {
	return loadSession(ctx, s.db, s.builder(), key)
}

func loadSession(ctx context.Context, q querier, b *entsql.DialectBuilder, key assessment.Key) (*assessment.Session, error) {
	query, args := b.Select(sessionSelectColumns...).
		From(b.Table(tSessions)).
		Where(sessionKey(key)).
		Query()

	sess := &assessment.Session{CandidateID: key.CandidateID, SubTest: key.SubTest}
	var (
		state, phase       string
		startedAt, shownAt int64
		current, pending   sql.NullString
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&sess.Attempt, &state, &phase, &sess.AnsweredCount, &sess.QuestionCount,
		&startedAt, &current, &shownAt, &pending,
	)
	if errors.Is(err, sql.ErrNoRows) {
		sess.State = assessment.StateNotStarted
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.State = assessment.SessionState(state)
	sess.Phase = assessment.Phase(phase)
	sess.StartedAt = fromMillis(startedAt)
	sess.ShownAt = fromMillis(shownAt)
	if current.Valid {
		sess.Current = new(assessment.Question)
		if err := json.Unmarshal([]byte(current.String), sess.Current); err != nil {
			return nil, fmt.Errorf("decode current question: %w", err)
		}
	}
	if pending.Valid {
		sess.Pending = new(assessment.Response)
		if err := json.Unmarshal([]byte(pending.String), sess.Pending); err != nil {
			return nil, fmt.Errorf("decode pending response: %w", err)
		}
	}
	return sess, nil
}

// SaveSession upserts the full session record.
func (s *Store) SaveSession(ctx context.Context, sess *assessment.Session) error {
	return saveSession(ctx, s.db, s.builder(), sess)
}

func saveSession(ctx context.Context, q querier, b *entsql.DialectBuilder, sess *assessment.Session) error {
	current, err := nullJSON(sess.Current)
	if err != nil {
		return fmt.Errorf("encode current question: %w", err)
	}
	pending, err := nullJSON(sess.Pending)
	if err != nil {
		return fmt.Errorf("encode pending response: %w", err)
	}

	ins := b.Insert(tSessions).
		Columns("candidate_id", "sub_test", "attempt", "state", "phase", "answered_count", "question_count",
			"started_at", "current_question", "shown_at", "pending_response", "updated_at").
		Values(sess.CandidateID, string(sess.SubTest), sess.Attempt, string(sess.State), string(sess.Phase),
			sess.AnsweredCount, sess.QuestionCount, toMillis(sess.StartedAt), current, toMillis(sess.ShownAt),
			pending, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("candidate_id", "sub_test"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, q, ins); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ResetSession saves sess as a fresh attempt and drops the prior
// SubTestResult in the same transaction, so a restarted sub-test can never
// be aggregated with a stale result.
func (s *Store) ResetSession(ctx context.Context, sess *assessment.Session) error {
	b := s.builder()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveSession(ctx, tx, b, sess); err != nil {
			return err
		}
		del := b.Delete(tSubTestResults).Where(sessionKey(sess.Key()))
		if _, err := exec(ctx, tx, del); err != nil {
			return fmt.Errorf("drop sub-test result: %w", err)
		}
		return nil
	})
}

// SealResponse inserts resp and saves sess (carrying resp as Pending) in one
// transaction. A second response for the same question in the same attempt
// yields ErrDuplicateResponse and changes nothing.
func (s *Store) SealResponse(ctx context.Context, sess *assessment.Session, resp assessment.Response) error {
	b := s.builder()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ins := b.Insert(tResponses).
			Columns("candidate_id", "sub_test", "attempt", "question_id", "ordinal", "value", "forced",
				"submitted_at", "scored").
			Values(resp.CandidateID, string(resp.SubTest), resp.Attempt, resp.QuestionID, resp.Ordinal,
				nullString(resp.Value), resp.Forced, toMillis(resp.SubmittedAt), false).
			OnConflict(
				entsql.ConflictColumns("candidate_id", "sub_test", "attempt", "question_id"),
				entsql.DoNothing(),
			)
		res, err := exec(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("insert response: %w", err)
		} else if n == 0 {
			return assessment.ErrDuplicateResponse
		}
		return saveSession(ctx, tx, b, sess)
	})
}

// RecordScored marks resp scored and saves sess, whose AnsweredCount must
// already be one past the persisted value. If another writer advanced the
// session first, ErrStaleResponse is returned and nothing changes.
func (s *Store) RecordScored(ctx context.Context, sess *assessment.Session, resp assessment.Response, j *assessment.Judgement) error {
	judgement, err := nullJSON(j)
	if err != nil {
		return fmt.Errorf("encode judgement: %w", err)
	}
	b := s.builder()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		upd := b.Update(tResponses).
			Set("scored", true).
			Set("judgement", judgement).
			Where(entsql.And(
				entsql.EQ("candidate_id", resp.CandidateID),
				entsql.EQ("sub_test", string(resp.SubTest)),
				entsql.EQ("attempt", resp.Attempt),
				entsql.EQ("question_id", resp.QuestionID),
				entsql.EQ("scored", false),
			))
		res, err := exec(ctx, tx, upd)
		if err != nil {
			return fmt.Errorf("mark response scored: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return assessment.ErrStaleResponse
		}

		current, err := nullJSON(sess.Current)
		if err != nil {
			return fmt.Errorf("encode current question: %w", err)
		}
		pending, err := nullJSON(sess.Pending)
		if err != nil {
			return fmt.Errorf("encode pending response: %w", err)
		}
		adv := b.Update(tSessions).
			Set("answered_count", sess.AnsweredCount).
			Set("state", string(sess.State)).
			Set("phase", string(sess.Phase)).
			Set("current_question", current).
			Set("shown_at", toMillis(sess.ShownAt)).
			Set("pending_response", pending).
			Set("updated_at", time.Now().UnixMilli()).
			Where(entsql.And(
				sessionKey(sess.Key()),
				entsql.EQ("attempt", sess.Attempt),
				entsql.EQ("answered_count", sess.AnsweredCount-1),
			))
		res, err = exec(ctx, tx, adv)
		if err != nil {
			return fmt.Errorf("advance session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return assessment.ErrStaleResponse
		}
		return nil
	})
}

// CompleteSession saves sess (in state Complete) and upserts its
// SubTestResult atomically.
func (s *Store) CompleteSession(ctx context.Context, sess *assessment.Session, result assessment.SubTestResult) error {
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	b := s.builder()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveSession(ctx, tx, b, sess); err != nil {
			return err
		}
		ins := b.Insert(tSubTestResults).
			Columns("candidate_id", "sub_test", "attempt", "summary", "completed_at").
			Values(result.CandidateID, string(result.SubTest), result.Attempt, string(summary), toMillis(result.CompletedAt)).
			OnConflict(entsql.ConflictColumns("candidate_id", "sub_test"), entsql.ResolveWithNewValues())
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("save sub-test result: %w", err)
		}
		return nil
	})
}

// Responses lists the sealed responses of one attempt in ordinal order.
func (s *Store) Responses(ctx context.Context, key assessment.Key, attempt int) ([]assessment.Response, error) {
	b := s.builder()
	query, args := b.Select("question_id", "ordinal", "value", "forced", "submitted_at").
		From(b.Table(tResponses)).
		Where(entsql.And(sessionKey(key), entsql.EQ("attempt", attempt))).
		OrderBy("ordinal").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []assessment.Response
	for rows.Next() {
		r := assessment.Response{CandidateID: key.CandidateID, SubTest: key.SubTest, Attempt: attempt}
		var (
			value       sql.NullString
			submittedAt int64
		)
		if err := rows.Scan(&r.QuestionID, &r.Ordinal, &value, &r.Forced, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if value.Valid {
			v := value.String
			r.Value = &v
		}
		r.SubmittedAt = fromMillis(submittedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func sessionKey(key assessment.Key) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("candidate_id", key.CandidateID),
		entsql.EQ("sub_test", string(key.SubTest)),
	)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// nullJSON encodes v, mapping a nil pointer to SQL NULL.
func nullJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
