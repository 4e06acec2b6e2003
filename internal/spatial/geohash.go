package spatial

// Base32 alphabet for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// CachePrecision is the geohash length used for lookup cache keys (~120m cells)
const CachePrecision = 7

// EncodeGeohash encodes latitude and longitude into a geohash string
// precision: number of characters in the geohash (1-12)
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	hash := make([]byte, 0, precision)
	bits, ch := 0, 0
	even := true

	for len(hash) < precision {
		if even {
			mid := (lonLo + lonHi) / 2
			if lon > mid {
				ch |= 1 << (4 - bits)
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat > mid {
				ch |= 1 << (4 - bits)
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even

		bits++
		if bits == 5 {
			hash = append(hash, base32[ch])
			bits, ch = 0, 0
		}
	}

	return string(hash)
}

// CellKey returns the cache cell for a coordinate. Points closer than roughly
// one cell share a key, so nearby venues reuse the same weather lookup.
func CellKey(lat, lon float64) string {
	return EncodeGeohash(lat, lon, CachePrecision)
}

// GeohashCellSize returns the approximate cell size in meters for a given precision
func GeohashCellSize(precision int) float64 {
	sizes := map[int]float64{
		1:  5000000,
		2:  625000,
		3:  123000,
		4:  19500,
		5:  3900,
		6:  610,
		7:  120,
		8:  19,
		9:  3.7,
		10: 0.6,
		11: 0.12,
		12: 0.019,
	}

	if size, ok := sizes[precision]; ok {
		return size
	}
	return 0
}

// GeohashPrecisionForDistance returns the coarsest precision whose cells are no larger than distanceMeters
func GeohashPrecisionForDistance(distanceMeters float64) int {
	for precision := 1; precision <= 12; precision++ {
		if GeohashCellSize(precision) <= distanceMeters {
			return precision
		}
	}
	return 12
}
