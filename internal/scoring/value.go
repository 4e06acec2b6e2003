package scoring

import (
	"math"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// Budget tuning
const (
	LambdaBudget   = 0.03 // score lost per currency unit over the daily cap
	ScoreThreshold = 0.10 // minimum net score to accept an over-cap activity
)

// VibeBonus rewards activities whose vibe tags match the party's vibe.
// Contributions are summed, capped at VibeCap and scaled by VibeWeight.
func VibeBonus(client *models.Client, act *models.Activity) float64 {
	if client.Vibe == "" {
		return 0
	}
	tags := act.VibeTags
	if len(tags) == 0 {
		tags = act.Tags
	}
	total := 0.0
	for _, t := range tags {
		total += VibeCloseness(client.Vibe, t)
	}
	return math.Min(total, VibeCap) * VibeWeight
}

// BaseValue is the group interest score plus the vibe bonus
func BaseValue(client *models.Client, act *models.Activity) float64 {
	return GroupInterestScore(client, act).Score + VibeBonus(client, act)
}

// SoftCapPerDay spreads the total budget evenly across the trip days
func SoftCapPerDay(client *models.Client) float64 {
	return client.BudgetTotal / float64(client.TripDays())
}

// ProjectedSpend is the day's spend if act is booked. alreadyCommitted means
// act is already part of plan and must not be counted twice.
func ProjectedSpend(act *models.Activity, plan *models.PlanDay, alreadyCommitted bool) float64 {
	spent := plan.TotalCost()
	if !alreadyCommitted {
		spent += act.Cost
	}
	return spent
}

// NetScoreWithBudget is BaseValue minus a linear penalty on spend above the daily cap
func NetScoreWithBudget(client *models.Client, act *models.Activity, plan *models.PlanDay, dailyCap float64, alreadyCommitted bool) float64 {
	over := math.Max(0, ProjectedSpend(act, plan, alreadyCommitted)-dailyCap)
	return BaseValue(client, act) - LambdaBudget*over
}

// WithinBudget applies the acceptance rule: spend under the cap is always fine,
// spend over it is accepted only when the net score clears ScoreThreshold.
func WithinBudget(client *models.Client, act *models.Activity, plan *models.PlanDay, dailyCap float64, alreadyCommitted bool) bool {
	if ProjectedSpend(act, plan, alreadyCommitted) <= dailyCap {
		return true
	}
	return NetScoreWithBudget(client, act, plan, dailyCap, alreadyCommitted) >= ScoreThreshold
}
