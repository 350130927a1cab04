package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/nextstep/internal/assessment"
)

// ErrCandidateExists is returned when the email is already registered.
var ErrCandidateExists = errors.New("candidate already exists")

// CreateCandidate registers a new candidate. The id is generated when empty.
func (s *Store) CreateCandidate(ctx context.Context, c *assessment.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	ins := s.builder().Insert(tCandidates).
		Columns("id", "full_name", "email", "created_at").
		Values(c.ID, c.FullName, c.Email, toMillis(c.CreatedAt)).
		OnConflict(entsql.DoNothing())
	res, err := exec(ctx, s.db, ins)
	if err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", c.Email, ErrCandidateExists)
	}
	return nil
}

// Candidate looks a candidate up by id or email.
func (s *Store) Candidate(ctx context.Context, idOrEmail string) (*assessment.Candidate, error) {
	b := s.builder()
	query, args := b.Select("id", "full_name", "email", "created_at").
		From(b.Table(tCandidates)).
		Where(entsql.Or(
			entsql.EQ("id", idOrEmail),
			entsql.EQ("email", strings.ToLower(idOrEmail)),
		)).
		Query()

	c := &assessment.Candidate{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.FullName, &c.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", idOrEmail, assessment.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

// Candidates lists all candidates ordered by registration time.
func (s *Store) Candidates(ctx context.Context) ([]assessment.Candidate, error) {
	b := s.builder()
	query, args := b.Select("id", "full_name", "email", "created_at").
		From(b.Table(tCandidates)).
		OrderBy("created_at").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []assessment.Candidate
	for rows.Next() {
		var (
			c         assessment.Candidate
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// IssueToken creates a bearer token for candidateID that expires at expiresAt.
func (s *Store) IssueToken(ctx context.Context, candidateID string, expiresAt time.Time) (string, error) {
	if _, err := s.Candidate(ctx, candidateID); err != nil {
		return "", err
	}
	token := uuid.NewString()
	ins := s.builder().Insert(tAuthTokens).
		Columns("token", "candidate_id", "expires_at", "created_at").
		Values(token, candidateID, toMillis(expiresAt), time.Now().UnixMilli())
	if _, err := exec(ctx, s.db, ins); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// LookupToken returns the candidate a token belongs to and its expiry, or
// ErrNotFound.
func (s *Store) LookupToken(ctx context.Context, token string) (candidateID string, expiresAt time.Time, err error) {
	b := s.builder()
	query, args := b.Select("candidate_id", "expires_at").
		From(b.Table(tAuthTokens)).
		Where(entsql.EQ("token", token)).
		Query()

	var exp int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&candidateID, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, assessment.ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("lookup token: %w", err)
	}
	return candidateID, fromMillis(exp), nil
}
