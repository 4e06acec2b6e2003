package models

import "strings"

// Restaurant is a food venue returned by a places lookup
type Restaurant struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Vicinity    string   `json:"vicinity,omitempty"`
	Types       []string `json:"types,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	PriceLevel  int      `json:"price_level"` // 0-4, -1 when unknown
	Location    Location `json:"location"`
	DistanceM   float64  `json:"distance_m"`
}

// priceLevelCost is the estimated average spend per person for each price level
var priceLevelCost = []float64{10, 18, 35, 60, 100}

// AverageCost estimates the average spend per person from the price level
func (r Restaurant) AverageCost() float64 {
	if r.PriceLevel < 0 || r.PriceLevel >= len(priceLevelCost) {
		return priceLevelCost[1]
	}
	return priceLevelCost[r.PriceLevel]
}

// SearchText returns the lowercased text used for keyword filtering
func (r Restaurant) SearchText() string {
	return strings.ToLower(r.Name + " " + r.Vicinity + " " + strings.Join(r.Types, " "))
}

// AsActivity converts the restaurant into a meal activity template
func (r Restaurant) AsActivity(meal string, durationMin int) *Activity {
	daily := Window{OpenMin: 0, CloseMin: MinutesPerDay}
	return &Activity{
		ID:           "place:" + r.PlaceID + ":" + meal,
		Name:         r.Name,
		Category:     CategoryFood,
		Tags:         []string{CategoryFood, meal},
		Venue:        r.Name,
		City:         r.Location.City,
		Location:     r.Location,
		DurationMin:  durationMin,
		Cost:         r.AverageCost(),
		AgeMax:       120,
		OpeningHours: OpeningHours{Daily: &daily},
		Popularity:   clamp01(r.Rating / 5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
