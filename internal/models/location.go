package models

import (
	"github.com/jengzang/itinerary-planner-go/internal/spatial"
)

// Location is a point on the map, optionally tagged with its city
type Location struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"gte=-180,lte=180"`
	City string  `json:"city,omitempty"`
}

// DistanceKm returns the great-circle distance to another location in kilometers
func (l Location) DistanceKm(other Location) float64 {
	return spatial.DistanceKm(l.Lat, l.Lng, other.Lat, other.Lng)
}

// DistanceMeters returns the great-circle distance to another location in meters
func (l Location) DistanceMeters(other Location) float64 {
	return spatial.HaversineDistance(l.Lat, l.Lng, other.Lat, other.Lng)
}

// IsZero reports whether the location was never set
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0
}
