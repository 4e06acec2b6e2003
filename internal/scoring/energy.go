package scoring

import (
	"math"
	"strings"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// Energy thresholds
const (
	MinEnergyForHigh   = 30.0
	MinEnergyForMedium = 15.0
	defaultEnergyCost  = 15.0
)

// EnergyLevel buckets an activity's energy cost
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

var energyCostByCategory = map[string]float64{
	"walk":       15,
	"hike":       40,
	"sports":     50,
	"active":     45,
	"outdoor":    25,
	"museum":     10,
	"art":        8,
	"culture":    12,
	"viewpoint":  5,
	"attraction": 15,
	"aquarium":   12,
	"concert":    20,
	"theater":    15,
	"shopping":   20,
	"food":       5,
	"relaxation": 3,
	"spa":        2,
	"beach":      15,
	"park":       10,
}

var highEnergyTags = map[string]bool{
	"hiking": true, "running": true, "cycling": true, "swimming": true, "sports": true, "active": true,
	"adventure": true, "extreme": true, "fitness": true, "workout": true, "athletic": true,
}

var lowEnergyTags = map[string]bool{
	"relaxed": true, "leisurely": true, "indoors": true, "sitting": true, "viewing": true, "watching": true,
	"spa": true, "massage": true, "meditation": true, "quiet": true, "calm": true,
}

// EnergyCost estimates the 0-100 energy an activity drains, scaled by its length in hours.
// An explicit EnergyLevel on the activity wins.
func EnergyCost(act *models.Activity) float64 {
	if act.EnergyLevel != nil {
		return clamp(*act.EnergyLevel, 0, 100)
	}

	cost, ok := energyCostByCategory[strings.ToLower(act.Category)]
	if !ok {
		cost = defaultEnergyCost
	}

	var high, low bool
	for _, t := range act.Tags {
		t = strings.ToLower(t)
		high = high || highEnergyTags[t]
		low = low || lowEnergyTags[t]
	}
	if high {
		cost = math.Min(100, cost+25)
	}
	if low {
		cost = math.Max(0, cost-10)
	}

	return clamp(cost*float64(act.DurationMin)/60, 0, 100)
}

// ClassifyEnergy buckets the activity as low, medium or high energy
func ClassifyEnergy(act *models.Activity) EnergyLevel {
	cost := EnergyCost(act)
	switch {
	case cost < 15:
		return EnergyLow
	case cost < 35:
		return EnergyMedium
	default:
		return EnergyHigh
	}
}

// HasSufficientEnergy reports whether the party can take on the activity.
// Clients without an energy ledger always can.
func HasSufficientEnergy(client *models.Client, act *models.Activity) bool {
	if client.Energy == nil {
		return true
	}
	switch ClassifyEnergy(act) {
	case EnergyHigh:
		return client.Energy.Current >= MinEnergyForHigh
	case EnergyMedium:
		return client.Energy.Current >= MinEnergyForMedium
	default:
		return true
	}
}

// DeductEnergy drains the party's energy after an activity and returns the amount taken
func DeductEnergy(client *models.Client, act *models.Activity) float64 {
	if client.Energy == nil {
		return 0
	}
	cost := math.Min(EnergyCost(act), client.Energy.Current)
	client.Energy.Current -= cost
	return cost
}

// RestoreEnergy gives back energy taken by DeductEnergy
func RestoreEnergy(client *models.Client, amount float64) {
	if client.Energy == nil {
		return
	}
	client.Energy.Current = math.Min(client.Energy.Max, client.Energy.Current+amount)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
