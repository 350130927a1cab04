package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/config"
	"github.com/abhisek/nextstep/internal/engine"
	"github.com/abhisek/nextstep/internal/store"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, _, code, _ string) (string, error) { return code, nil }

type fixture struct {
	srv   *Server
	token string
}

func newFixture(t *testing.T, tweaks ...func(*config.Config)) *fixture {
	t.Helper()
	st, err := store.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.GapAnalysis.Timer = 0
	cfg.Personality.Questions = 2
	for _, tweak := range tweaks {
		tweak(&cfg)
	}

	eng, err := engine.Build(context.Background(), &cfg, st, nil, engine.Options{
		Clock:  clockwork.NewFakeClockAt(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)),
		Runner: echoRunner{},
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	c := &assessment.Candidate{FullName: "Linus", Email: "linus@example.com"}
	require.NoError(t, st.CreateCandidate(context.Background(), c))
	token, _, err := eng.Auth.Issue(context.Background(), c.ID, time.Hour)
	require.NoError(t, err)

	return &fixture{srv: New(eng.Orchestrator, eng.Aggregator, eng.Auth, nil), token: token}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.token = "bogus"

	rec, body := f.do(t, http.MethodPost, "/api/sessions/personality/start", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not authorized", body["error"])

	rec, _ = f.do(t, http.MethodGet, "/api/final-result", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownSubTest(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/sessions/chess/start", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPersonalityFlow(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/sessions/personality/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", body["state"])
	current := body["current"].(map[string]any)
	_, hasAnswer := current["answer"]
	assert.False(t, hasAnswer)

	rec, body = f.do(t, http.MethodPost, "/api/sessions/personality/answers",
		`{"question_id":"`+current["id"].(string)+`","value":"6"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["accepted"])

	// Resending the same question is absorbed.
	rec, body = f.do(t, http.MethodPost, "/api/sessions/personality/answers",
		`{"question_id":"`+current["id"].(string)+`","value":"6"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["accepted"])

	rec, body = f.do(t, http.MethodGet, "/api/sessions/personality/question", "")
	require.Equal(t, http.StatusOK, rec.Code)
	next := body["current"].(map[string]any)["id"].(string)

	rec, body = f.do(t, http.MethodPost, "/api/sessions/personality/answers", `{"question_id":"`+next+`","value":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "complete", body["session"].(map[string]any)["state"])

	rec, body = f.do(t, http.MethodGet, "/api/results/non_technical_test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "non_technical_test", body["sub_test"])

	rec, body = f.do(t, http.MethodGet, "/api/sessions/personality", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["answered_count"])
}

func TestBadAnswerBody(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/sessions/personality/start", "")

	rec, _ := f.do(t, http.MethodPost, "/api/sessions/personality/answers", `{"value":"3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotActive(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/sessions/coding/answers", `{"question_id":"c01","value":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/sessions/coding/end", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFinalResultIncomplete(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/final-result", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.ElementsMatch(t, []any{"gap_analysis", "technical_test", "non_technical_test"}, body["missing"])

	rec, _ = f.do(t, http.MethodGet, "/api/final-result", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/results/gap", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCodingEndThenRestart(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/sessions/coding/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["attempt"])

	rec, body = f.do(t, http.MethodPost, "/api/sessions/coding/end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "complete", body["state"])
	assert.Equal(t, float64(15), body["answered_count"])

	rec, body = f.do(t, http.MethodGet, "/api/results/technical_test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, "Programming Beginner", summary["level"])

	rec, body = f.do(t, http.MethodPost, "/api/sessions/coding/restart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["attempt"])

	rec, _ = f.do(t, http.MethodGet, "/api/results/technical_test", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidAnswerRejected(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, http.MethodPost, "/api/sessions/personality/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := body["current"].(map[string]any)["id"].(string)

	rec, body = f.do(t, http.MethodPost, "/api/sessions/personality/answers", `{"question_id":"`+id+`","value":"9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid answer")

	rec, body = f.do(t, http.MethodPost, "/api/sessions/personality/answers", `{"question_id":"`+id+`","value":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, float64(1), body["session"].(map[string]any)["answered_count"])
}

func TestEndOnlyForCoding(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/sessions/personality/start", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/api/sessions/personality/end", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "sub-test cannot be ended early", body["error"])

	rec, body = f.do(t, http.MethodGet, "/api/sessions/personality", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", body["state"])
	assert.Equal(t, float64(0), body["answered_count"])

	rec, _ = f.do(t, http.MethodGet, "/api/results/non_technical_test", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionReportsCountdown(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.GapAnalysis.Timer = 10 * time.Second })

	rec, body := f.do(t, http.MethodPost, "/api/sessions/gap/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(10000), body["remaining_ms"])

	rec, body = f.do(t, http.MethodGet, "/api/sessions/coding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, timed := body["remaining_ms"]
	assert.False(t, timed)
}
