package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/store"
)

func setup(t *testing.T) (*TokenAuthorizer, *clockwork.FakeClock, string) {
	t.Helper()
	st, err := store.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := &assessment.Candidate{FullName: "Ada Lovelace", Email: "ada@example.com"}
	require.NoError(t, st.CreateCandidate(context.Background(), c))

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return New(st, clock), clock, c.ID
}

func TestAuthorize_ValidToken(t *testing.T) {
	a, _, id := setup(t)
	ctx := context.Background()

	token, exp, err := a.Issue(ctx, id, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), exp)

	got, err := a.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestAuthorize_Expired(t *testing.T) {
	a, clock, id := setup(t)
	ctx := context.Background()

	token, _, err := a.Issue(ctx, id, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = a.Authorize(ctx, token)
	assert.ErrorIs(t, err, assessment.ErrNotAuthorized)
}

func TestAuthorize_UnknownAndEmpty(t *testing.T) {
	a, _, _ := setup(t)
	for _, token := range []string{"", "   ", "not-a-token"} {
		_, err := a.Authorize(context.Background(), token)
		assert.ErrorIs(t, err, assessment.ErrNotAuthorized, "token %q", token)
	}
}

func TestIssue_Validation(t *testing.T) {
	a, _, id := setup(t)
	_, _, err := a.Issue(context.Background(), id, 0)
	assert.Error(t, err)

	_, _, err = a.Issue(context.Background(), "nobody", time.Hour)
	assert.ErrorIs(t, err, assessment.ErrNotFound)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, BearerToken(in), "header %q", in)
	}
}
