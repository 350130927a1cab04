// Package guidance writes the career-guidance narrative of a final report.
package guidance

import (
	"context"
	"strings"
)

// Profile is what a narrator knows about the candidate.
type Profile struct {
	AverageScore  float64
	Personality   string
	SkillLevel    string
	TechnicalTest string
}

// Narrator produces career guidance for a profile.
type Narrator interface {
	Narrate(ctx context.Context, p Profile) (string, error)
}

// skillWord maps a coding level label to the word used in prompts.
func skillWord(level string) string {
	l := strings.ToLower(level)
	for _, w := range []string{"advanced", "adept", "basic", "beginner"} {
		if strings.Contains(l, w) {
			return w
		}
	}
	return "beginner"
}
