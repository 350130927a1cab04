package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nextstep/internal/assessment"
)

// clearEnv isolates a test from the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NEXTSTEP_LLM_PROVIDER", "NEXTSTEP_DB_DSN", "NEXTSTEP_GAP_QUESTIONS", "NEXTSTEP_GAP_TIMER",
		"NEXTSTEP_LOG_LEVEL", "NEXTSTEP_TOKEN_TTL", "NEXTSTEP_SERVER_ADDR", "NEXTSTEP_ADDR",
		"NEXTSTEP_GAP_ANALYSIS_TIMER", "NEXTSTEP_PISTON_TIMEOUT", "NEXTSTEP_RETRY_MULTIPLIER",
		"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"NEXTSTEP_OPENROUTER_API_KEY", "NEXTSTEP_OPENAI_API_KEY", "NEXTSTEP_ANTHROPIC_API_KEY", "NEXTSTEP_GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.GapAnalysis.Questions)
	assert.Equal(t, 10*time.Second, cfg.GapAnalysis.Timer)
	assert.Equal(t, 20, cfg.Personality.Questions)
	assert.Zero(t, cfg.Personality.Timer)
	assert.Equal(t, 15, cfg.Coding.Questions)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nextstep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://localhost/nextstep
server:
  addr: ":9090"
gap_analysis:
  questions: 30
  timer: 20s
auth:
  token_ttl: 1h
`), 0o644))

	t.Setenv("NEXTSTEP_GAP_TIMER", "5s")
	t.Setenv("NEXTSTEP_LOG_LEVEL", "debug")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/nextstep", cfg.Database.DSN)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.GapAnalysis.Questions)
	assert.Equal(t, 5*time.Second, cfg.GapAnalysis.Timer)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15, cfg.Coding.Questions)
}

func TestLoad_EnvKeyNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXTSTEP_SERVER_ADDR", ":7070")
	t.Setenv("NEXTSTEP_GAP_ANALYSIS_TIMER", "15s")
	t.Setenv("NEXTSTEP_PISTON_TIMEOUT", "1m")
	t.Setenv("NEXTSTEP_RETRY_MULTIPLIER", "1.5")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.GapAnalysis.Timer)
	assert.Equal(t, time.Minute, cfg.Piston.Timeout)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)

	t.Setenv("NEXTSTEP_GAP_TIMER", "3s")
	cfg, err = Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.GapAnalysis.Timer, "the key path name wins over the short alias")

	t.Setenv("NEXTSTEP_GAP_ANALYSIS_TIMER", "")
	cfg, err = Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.GapAnalysis.Timer)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("NEXTSTEP_DB_DSN")
	os.Unsetenv("NEXTSTEP_LLM_PROVIDER")
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("NEXTSTEP_DB_DSN=file:test.db\nNEXTSTEP_LLM_PROVIDER=mock\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("NEXTSTEP_DB_DSN")
		os.Unsetenv("NEXTSTEP_LLM_PROVIDER")
	})

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_DiscoversLLMKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("NEXTSTEP_GAP_QUESTIONS", "many")
	_, err := Load("", "")
	assert.Error(t, err)

	t.Setenv("NEXTSTEP_GAP_QUESTIONS", "0")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "gap_analysis.questions")

	t.Setenv("NEXTSTEP_GAP_QUESTIONS", "")
	t.Setenv("NEXTSTEP_LLM_PROVIDER", "openai")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "NEXTSTEP_OPENAI_API_KEY")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestSubTest(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Coding, cfg.SubTest(assessment.SubTestCoding))
	assert.Equal(t, cfg.Personality, cfg.SubTest(assessment.SubTestPersonality))
	assert.Equal(t, cfg.GapAnalysis, cfg.SubTest(assessment.SubTestGapAnalysis))
}
