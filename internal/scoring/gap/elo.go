package gap

import "math"

// Rating constants for the per-topic Elo model.
const (
	InitialRating = 1200
	MinRating     = 500
	MaxRating     = 1600
)

// DifficultyRatings is the opponent rating of each question difficulty.
var DifficultyRatings = map[string]int{
	"easy":   800,
	"medium": 1200,
	"hard":   1600,
}

// difficultyRating returns the opponent rating for a difficulty label.
func difficultyRating(d string) int {
	if r, ok := DifficultyRatings[d]; ok {
		return r
	}
	return InitialRating
}

// kFactor rises gently and drops sharply: correct answers move low ratings
// most, wrong answers punish mid ratings hardest.
func kFactor(rating int, correct bool) float64 {
	if correct {
		switch {
		case rating < 1000:
			return 64
		case rating < 1400:
			return 48
		default:
			return 32
		}
	}
	switch {
	case rating > 1400:
		return 100
	case rating > 1000:
		return 120
	default:
		return 140
	}
}

// Expected is the Elo win probability of rating against difficulty.
func Expected(rating, difficulty int) float64 {
	return 1 / (1 + math.Pow(10, float64(difficulty-rating)/400))
}

// UpdateRating returns the new topic rating after one answer. Drops are
// 20% sharper than rises; the result is clamped to [MinRating, MaxRating].
func UpdateRating(rating, difficulty int, correct bool) int {
	k := kFactor(rating, correct)
	exp := Expected(rating, difficulty)

	var next int
	if correct {
		next = int(float64(rating) + k*(1-exp))
	} else {
		next = int(float64(rating) - k*(1-exp)*1.2)
	}
	return max(MinRating, min(next, MaxRating))
}

// difficultyFor picks the target difficulty for a topic rating, falling
// through to harder levels when the preferred one has no questions left.
func difficultyFor(rating int, available map[string]int) string {
	switch {
	case rating < 1000 && available["easy"] > 0:
		return "easy"
	case rating < 1400 && available["medium"] > 0:
		return "medium"
	case available["hard"] > 0:
		return "hard"
	}
	return ""
}
