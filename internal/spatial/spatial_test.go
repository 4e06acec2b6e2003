package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Toronto City Hall -> CN Tower, roughly 1.2km
	d := HaversineDistance(43.6534, -79.3841, 43.6426, -79.3871)
	assert.InDelta(t, 1220, d, 80)

	assert.Equal(t, 0.0, HaversineDistance(10, 10, 10, 10))
	assert.InDelta(t, d/1000, DistanceKm(43.6534, -79.3841, 43.6426, -79.3871), 1e-9)
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(43.6534, -79.3841, 43.6426, -79.3871, 1500))
	assert.False(t, WithinRadius(43.6534, -79.3841, 43.6426, -79.3871, 500))
}

func TestEncodeGeohash(t *testing.T) {
	assert.Equal(t, "ezs42", EncodeGeohash(42.6, -5.6, 5))
	assert.Len(t, EncodeGeohash(1, 1, 20), 12)
	assert.Len(t, EncodeGeohash(1, 1, 0), 1)
}

func TestCellKeyGroupsNearbyPoints(t *testing.T) {
	// ~20m apart, well inside one precision-7 cell
	a := CellKey(43.64260, -79.38710)
	b := CellKey(43.64262, -79.38712)
	assert.Equal(t, a, b)
	assert.Len(t, a, CachePrecision)

	far := CellKey(43.6534, -79.3841)
	assert.NotEqual(t, a, far)
}

func TestGeohashPrecisionForDistance(t *testing.T) {
	assert.Equal(t, 7, GeohashPrecisionForDistance(150))
	assert.Equal(t, 12, GeohashPrecisionForDistance(0.001))
}
