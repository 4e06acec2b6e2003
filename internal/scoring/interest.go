package scoring

import (
	"math"
	"sort"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// Interest scoring constants
const (
	ExtremeThreshold     = 8.5 // member interest at or above this is "extreme"
	ExtremeDiffThreshold = 3.0 // extreme group must lead the rest by at least this much
	MaxCreditsPerMember  = 2
	PopularityWeight     = 2.0
)

// GroupScore is the outcome of scoring an activity for the whole party
type GroupScore struct {
	Score     float64            // value used for ranking, popularity bonus included
	Average   float64            // plain average interest across members
	PerMember map[string]float64 // raw tag-weighted interest per member
	Credits   map[string]int     // credits to debit on commit, nil for the plain path
	Extreme   bool               // true when the score comes from an extreme accommodation
}

// Funded returns the members whose credits pay for an extreme accommodation, sorted
func (g GroupScore) Funded() []string {
	names := make([]string, 0, len(g.Credits))
	for name := range g.Credits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemberInterest sums a member's weights over the activity's tags
func MemberInterest(m *models.PartyMember, act *models.Activity) float64 {
	total := 0.0
	for _, tag := range act.Tags {
		total += m.Interest(tag)
	}
	return total
}

// PopularityBonus is the small nudge given to popular activities
func PopularityBonus(act *models.Activity) float64 {
	return act.Popularity * PopularityWeight
}

// RequiredCredits returns the credits an extreme accommodation costs: one per two hours, rounded up
func RequiredCredits(act *models.Activity) int {
	return int(math.Ceil(float64(act.DurationMin) / 60 / 2))
}

// GroupInterestScore scores an activity for the party. When a few members are far
// more interested than everyone else and can fund it with credits, the activity is
// valued at their (maximum) interest instead of the group average. The client is
// not modified; callers debit the returned credits when they commit.
func GroupInterestScore(client *models.Client, act *models.Activity) GroupScore {
	names := client.MemberNames()
	per := make(map[string]float64, len(names))

	var extreme, others []string
	sum, best := 0.0, 0.0
	for _, name := range names {
		v := MemberInterest(client.Members[name], act)
		per[name] = v
		sum += v
		if v > best {
			best = v
		}
		if v >= ExtremeThreshold {
			extreme = append(extreme, name)
		} else {
			others = append(others, name)
		}
	}

	avg := 0.0
	if len(names) > 0 {
		avg = sum / float64(len(names))
	}
	bonus := PopularityBonus(act)
	plain := GroupScore{Score: avg + bonus, Average: avg, PerMember: per}

	if len(extreme) == 0 || len(others) == 0 {
		return plain
	}
	if mean(per, extreme)-mean(per, others) < ExtremeDiffThreshold {
		return plain
	}

	required := RequiredCredits(act)
	alloc := allocateCredits(client, per, extreme, required)
	allocated := 0
	for _, c := range alloc {
		allocated += c
	}

	if allocated == required && best > avg {
		return GroupScore{Score: best + bonus, Average: avg, PerMember: per, Credits: alloc, Extreme: true}
	}
	return plain
}

// allocateCredits takes up to MaxCreditsPerMember from each extreme member,
// most interested first, until the requirement is covered.
func allocateCredits(client *models.Client, per map[string]float64, extreme []string, required int) map[string]int {
	order := append([]string(nil), extreme...)
	sort.SliceStable(order, func(i, j int) bool {
		if per[order[i]] != per[order[j]] {
			return per[order[i]] > per[order[j]]
		}
		return order[i] < order[j]
	})

	alloc := make(map[string]int)
	remaining := required
	for _, name := range order {
		if remaining <= 0 {
			break
		}
		take := MaxCreditsPerMember
		if left := client.CreditsLeft[name]; left < take {
			take = left
		}
		if remaining < take {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		alloc[name] = take
		remaining -= take
	}
	return alloc
}

// DebitCredits commits a credit allocation against the client's ledger
func DebitCredits(client *models.Client, alloc map[string]int) {
	for name, c := range alloc {
		client.CreditsLeft[name] -= c
	}
}

// RefundCredits reverses DebitCredits
func RefundCredits(client *models.Client, alloc map[string]int) {
	for name, c := range alloc {
		client.CreditsLeft[name] += c
	}
}

func mean(per map[string]float64, names []string) float64 {
	if len(names) == 0 {
		return 0
	}
	total := 0.0
	for _, n := range names {
		total += per[n]
	}
	return total / float64(len(names))
}
