// Package config loads nextstep settings from defaults, an optional YAML
// file, an optional .env file and NEXTSTEP_ environment variables, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/llm"
	"github.com/abhisek/nextstep/internal/logging"
	"github.com/abhisek/nextstep/internal/scoring/coding"
	"github.com/abhisek/nextstep/internal/scoring/gap"
	"github.com/abhisek/nextstep/internal/scoring/personality"
)

// EnvPrefix prefixes every environment override, e.g. NEXTSTEP_SERVER_ADDR.
const EnvPrefix = "NEXTSTEP"

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logging.Config `mapstructure:"log"`

	GapAnalysis SubTestConfig `mapstructure:"gap_analysis"`
	Personality SubTestConfig `mapstructure:"personality"`
	Coding      SubTestConfig `mapstructure:"coding"`

	Retry  RetryConfig  `mapstructure:"retry"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Piston PistonConfig `mapstructure:"piston"`

	// LLM is read from the environment only so API keys stay out of files.
	LLM llm.Config `mapstructure:"-"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SubTestConfig sizes one sub-test. An empty Bank uses the embedded bank.
type SubTestConfig struct {
	Questions int           `mapstructure:"questions"`
	Timer     time.Duration `mapstructure:"timer"`
	Bank      string        `mapstructure:"bank"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

type AuthConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type PistonConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:    DatabaseConfig{Driver: "sqlite"},
		Server:      ServerConfig{Addr: ":8080"},
		Log:         logging.DefaultConfig(),
		GapAnalysis: SubTestConfig{Questions: gap.QuestionCount, Timer: assessment.DefaultGapTimer},
		Personality: SubTestConfig{Questions: personality.QuestionCount},
		Coding:      SubTestConfig{Questions: coding.QuestionCount},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2,
		},
		Auth:   AuthConfig{TokenTTL: 72 * time.Hour},
		Piston: PistonConfig{URL: coding.DefaultPistonURL, Timeout: 15 * time.Second},
		LLM:    llm.DefaultConfig(),
	}
}

// aliases are the short variable names accepted next to the ones derived
// from the key path.
var aliases = map[string]string{
	"database.driver":        "NEXTSTEP_DB_DRIVER",
	"database.dsn":           "NEXTSTEP_DB_DSN",
	"server.addr":            "NEXTSTEP_ADDR",
	"auth.token_ttl":         "NEXTSTEP_TOKEN_TTL",
	"gap_analysis.questions": "NEXTSTEP_GAP_QUESTIONS",
	"gap_analysis.timer":     "NEXTSTEP_GAP_TIMER",
	"gap_analysis.bank":      "NEXTSTEP_GAP_BANK",
}

// setDefaults registers every key so AutomaticEnv can find it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	for key, st := range map[string]SubTestConfig{
		"gap_analysis": d.GapAnalysis,
		"personality":  d.Personality,
		"coding":       d.Coding,
	} {
		v.SetDefault(key+".questions", st.Questions)
		v.SetDefault(key+".timer", st.Timer)
		v.SetDefault(key+".bank", st.Bank)
	}

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)

	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)

	v.SetDefault("piston.url", d.Piston.URL)
	v.SetDefault("piston.timeout", d.Piston.Timeout)
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path, envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range aliases {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM = llm.ConfigFromEnv(cfg.LLM)
	if !cfg.LLM.Enabled() {
		if found, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = found
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the orchestrator cannot run with.
func (c *Config) Validate() error {
	for name, st := range map[string]SubTestConfig{
		"gap_analysis": c.GapAnalysis,
		"personality":  c.Personality,
		"coding":       c.Coding,
	} {
		if st.Questions <= 0 {
			return fmt.Errorf("%s.questions must be positive", name)
		}
		if st.Timer < 0 {
			return fmt.Errorf("%s.timer must not be negative", name)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return c.LLM.Validate()
}

// SubTest returns the settings for st.
func (c *Config) SubTest(st assessment.SubTest) SubTestConfig {
	switch st {
	case assessment.SubTestPersonality:
		return c.Personality
	case assessment.SubTestCoding:
		return c.Coding
	default:
		return c.GapAnalysis
	}
}
