package scoring

import (
	"math"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// Penalty tuning
const (
	DurationPenaltyWeight   = 4.0
	DurationPenaltyExponent = 1.5
	ConflictPenaltyGamma    = 2.0
	ConflictPenaltyCap      = 10.0
	MaxInterest             = 10.0
)

func dayShare(act *models.Activity, client *models.Client) float64 {
	total := client.TotalDayDuration()
	if total <= 0 {
		return 1
	}
	return float64(act.DurationMin) / float64(total)
}

// DurationPenalty discourages long activities the group is lukewarm about.
// It grows with the share of the day the activity takes and vanishes at full interest.
func DurationPenalty(act *models.Activity, client *models.Client, avgInterest float64) float64 {
	if avgInterest >= MaxInterest {
		return 0
	}
	deficit := (MaxInterest - math.Max(avgInterest, 0)) / MaxInterest
	return DurationPenaltyWeight * math.Pow(dayShare(act, client), DurationPenaltyExponent) * deficit
}

// AvgTagInterest is the party's mean weight for a single tag
func AvgTagInterest(client *models.Client, tag string) float64 {
	if client.Size() == 0 {
		return 0
	}
	total := 0.0
	for _, m := range client.Members {
		total += m.Interest(tag)
	}
	return total / float64(client.Size())
}

// ConflictPenalty discourages repeating tags already scheduled today, more so for
// tags the party cares little about and for long activities. Capped at ConflictPenaltyCap.
func ConflictPenalty(act *models.Activity, client *models.Client, tagCounts map[string]int) float64 {
	share := dayShare(act, client)
	penalty := 0.0
	for _, tag := range act.Tags {
		count := tagCounts[tag]
		if count == 0 {
			continue
		}
		apathy := 1 - AvgTagInterest(client, tag)/MaxInterest
		if apathy < 0 {
			apathy = 0
		}
		penalty += float64(count) * math.Pow(apathy, ConflictPenaltyGamma) * (1 + share)
	}
	return math.Min(penalty, ConflictPenaltyCap)
}

// Priority is the ordering key for the greedy queue
func Priority(client *models.Client, act *models.Activity, tagCounts map[string]int) float64 {
	g := GroupInterestScore(client, act)
	return g.Score - DurationPenalty(act, client, g.Average) - ConflictPenalty(act, client, tagCounts)
}
