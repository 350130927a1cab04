package guidance

// Config holds narrative generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the defaults for career guidance generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1500,
		Temperature: 0.7,
	}
}
