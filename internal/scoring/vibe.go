package scoring

import "strings"

// Vibe bonus tuning
const (
	VibeWeight = 0.2
	VibeCap    = 1.0
)

// vibeCloseness maps related vibes to a closeness in (0, 1). Pairs are symmetric.
var vibeCloseness = map[string]map[string]float64{
	"chill":       {"relaxed": 0.9, "leisurely": 0.8, "scenic": 0.6, "quiet": 0.7},
	"relaxed":     {"leisurely": 0.8, "quiet": 0.6, "scenic": 0.5},
	"adventurous": {"active": 0.8, "outdoor": 0.6, "thrilling": 0.9},
	"active":      {"outdoor": 0.7, "sporty": 0.8},
	"cultural":    {"historic": 0.8, "artsy": 0.7, "educational": 0.6},
	"romantic":    {"scenic": 0.7, "intimate": 0.9, "chill": 0.4},
	"family":      {"leisurely": 0.7, "educational": 0.5, "kid-friendly": 0.9},
	"party":       {"nightlife": 0.9, "lively": 0.8},
	"foodie":      {"culinary": 0.9, "lively": 0.4},
}

// VibeCloseness returns how close two vibes are: 1 for an exact match, 0 when unrelated
func VibeCloseness(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if v, ok := vibeCloseness[a][b]; ok {
		return v
	}
	return vibeCloseness[b][a]
}
