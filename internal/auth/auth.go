// Package auth resolves bearer tokens to candidate ids.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abhisek/nextstep/internal/assessment"
)

// TokenStore is the persistence the authorizer needs.
type TokenStore interface {
	IssueToken(ctx context.Context, candidateID string, expiresAt time.Time) (string, error)
	LookupToken(ctx context.Context, token string) (candidateID string, expiresAt time.Time, err error)
}

// TokenAuthorizer checks tokens against the store and rejects expired ones.
type TokenAuthorizer struct {
	store TokenStore
	clock clockwork.Clock
}

var _ assessment.Authorizer = (*TokenAuthorizer)(nil)

// New returns a TokenAuthorizer. A nil clock uses the real clock.
func New(store TokenStore, clock clockwork.Clock) *TokenAuthorizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenAuthorizer{store: store, clock: clock}
}

// Authorize returns the candidate a token belongs to. Unknown, empty and
// expired tokens yield ErrNotAuthorized.
func (a *TokenAuthorizer) Authorize(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", assessment.ErrNotAuthorized
	}
	id, expiresAt, err := a.store.LookupToken(ctx, token)
	if errors.Is(err, assessment.ErrNotFound) {
		return "", assessment.ErrNotAuthorized
	}
	if err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	if !a.clock.Now().Before(expiresAt) {
		return "", fmt.Errorf("token expired at %s: %w", expiresAt.Format(time.RFC3339), assessment.ErrNotAuthorized)
	}
	return id, nil
}

// Issue creates a token for candidateID valid for ttl.
func (a *TokenAuthorizer) Issue(ctx context.Context, candidateID string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	expiresAt = a.clock.Now().Add(ttl).UTC()
	token, err = a.store.IssueToken(ctx, candidateID, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
