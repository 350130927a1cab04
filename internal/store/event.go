package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo stores every event kind in one table. The auto-increment id
// gives a single cross-kind order.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	return r.append(ctx, KindSession, data.CandidateID, data.SubTest, data)
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.append(ctx, KindLLMRequest, "", "", data)
}

func (r *eventRepo) append(ctx context.Context, kind, candidateID, subTest string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}
	ins := r.s.builder().Insert(tEvents).
		Columns("kind", "candidate_id", "sub_test", "payload", "created_at").
		Values(kind, candidateID, subTest, string(payload), time.Now().UnixMilli())
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("save %s event: %w", kind, err)
	}
	return nil
}

func (r *eventRepo) Events(ctx context.Context, opts QueryOpts) ([]Event, error) {
	b := r.s.builder()
	sel := b.Select("id", "kind", "candidate_id", "sub_test", "payload", "created_at").
		From(b.Table(tEvents)).
		OrderBy("id")

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("id", opts.After))
	}
	if opts.CandidateID != "" {
		preds = append(preds, entsql.EQ("candidate_id", opts.CandidateID))
	}
	if opts.Kind != "" {
		preds = append(preds, entsql.EQ("kind", opts.Kind))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.CandidateID, &e.SubTest, &e.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
