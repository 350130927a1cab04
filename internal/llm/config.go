package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by ConfigFromEnv.
const EnvPrefix = "NEXTSTEP_"

// Config selects and configures a provider.
type Config struct {
	// Provider is one of "openrouter", "openai", "anthropic", "gemini",
	// "mock" or "none".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig is the backoff policy for transient provider errors.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a config with no provider selected.
func DefaultConfig() Config {
	return Config{
		Provider:   "none",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 90 * time.Second,
	}
}

// envBindings lists the variables ConfigFromEnv reads, without prefix.
func (c *Config) envBindings() map[string]*string {
	return map[string]*string{
		"LLM_PROVIDER":        &c.Provider,
		"ANTHROPIC_API_KEY":   &c.Anthropic.APIKey,
		"ANTHROPIC_MODEL":     &c.Anthropic.Model,
		"ANTHROPIC_BASE_URL":  &c.Anthropic.BaseURL,
		"OPENAI_API_KEY":      &c.OpenAI.APIKey,
		"OPENAI_MODEL":        &c.OpenAI.Model,
		"OPENAI_BASE_URL":     &c.OpenAI.BaseURL,
		"GEMINI_API_KEY":      &c.Gemini.APIKey,
		"GEMINI_MODEL":        &c.Gemini.Model,
		"OPENROUTER_API_KEY":  &c.OpenRouter.APIKey,
		"OPENROUTER_MODEL":    &c.OpenRouter.Model,
		"OPENROUTER_BASE_URL": &c.OpenRouter.BaseURL,
	}
}

// ConfigFromEnv overlays NEXTSTEP_* variables on base.
func ConfigFromEnv(base Config) Config {
	cfg := base
	for name, field := range cfg.envBindings() {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}
	if v := os.Getenv(EnvPrefix + "LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// DiscoverConfig looks for a vendor API key in the conventional,
// unprefixed variables and selects the first provider found.
func DiscoverConfig(base Config) (Config, bool) {
	cfg := base
	switch {
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider, cfg.OpenRouter.APIKey = "openrouter", os.Getenv("OPENROUTER_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = "openai", os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = "anthropic", os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = "gemini", os.Getenv("GEMINI_API_KEY")
	default:
		return base, false
	}
	return cfg, true
}

// Enabled reports whether a real or mock provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	case "mock", "none", "":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s%s_API_KEY is required for the %s provider", EnvPrefix, strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
