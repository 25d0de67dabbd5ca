package geospatial

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash returns the base32 geohash of a coordinate.
// Precision 5 is a ~4.9km cell, 7 is ~150m.
func EncodeGeohash(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = 5
	}

	latMin, latMax := -90.0, 90.0
	lngMin, lngMax := -180.0, 180.0

	hash := make([]byte, 0, precision)
	idx, bit := 0, 0
	even := true

	for len(hash) < precision {
		if even {
			mid := (lngMin + lngMax) / 2
			if lng >= mid {
				idx = idx*2 + 1
				lngMin = mid
			} else {
				idx *= 2
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				idx = idx*2 + 1
				latMin = mid
			} else {
				idx *= 2
				latMax = mid
			}
		}
		even = !even

		bit++
		if bit == 5 {
			hash = append(hash, geohashBase32[idx])
			bit, idx = 0, 0
		}
	}

	return string(hash)
}
