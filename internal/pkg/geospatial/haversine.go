package geospatial

import "math"

// EarthRadiusMeters is the mean radius used for all distances.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := lat1*degToRad, lat2*degToRad
	sinDPhi := math.Sin((phi2 - phi1) / 2)
	sinDLambda := math.Sin((lng2 - lng1) * degToRad / 2)

	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(math.Min(h, 1)))
}

// DistanceKm is Haversine in kilometres. A non-finite coordinate yields +Inf,
// which sorts last and fails every radius test.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	for _, v := range [...]float64{lat1, lng1, lat2, lng2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
	}
	return Haversine(lat1, lng1, lat2, lng2) / 1000
}

// WithinKm reports whether the second point lies within radiusKm of the first.
func WithinKm(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return DistanceKm(lat1, lng1, lat2, lng2) <= radiusKm
}
