package geospatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(43.263, -2.935, 43.263, -2.935))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Dubai Mall to Burj Al Arab, roughly 11km apart.
	d := Haversine(25.1972, 55.2744, 25.1412, 55.1853)
	assert.InDelta(t, 10900, d, 600)
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(25.0, 55.0, 25.5, 55.5)
	b := Haversine(25.5, 55.5, 25.0, 55.0)
	assert.InDelta(t, a, b, 1e-6)
}

func TestDistanceKm_NonFinite(t *testing.T) {
	assert.True(t, math.IsInf(DistanceKm(math.NaN(), 0, 0, 0), 1))
	assert.True(t, math.IsInf(DistanceKm(0, 0, 0, math.Inf(-1)), 1))
}

func TestWithinKm(t *testing.T) {
	assert.True(t, WithinKm(25.0, 55.0, 25.001, 55.001, 1))
	assert.False(t, WithinKm(25.0, 55.0, 25.5, 55.5, 25))
	assert.False(t, WithinKm(25.0, 55.0, math.NaN(), 55.0, 1000))
}

func TestEncodeGeohash(t *testing.T) {
	assert.Equal(t, "u4pruydqqvj", EncodeGeohash(57.64911, 10.40744, 11))
	assert.Equal(t, "u4pru", EncodeGeohash(57.64911, 10.40744, 5))
	assert.Len(t, EncodeGeohash(25.2, 55.3, 7), 7)
}

func TestEncodeGeohash_DefaultPrecision(t *testing.T) {
	assert.Equal(t, EncodeGeohash(57.64911, 10.40744, 5), EncodeGeohash(57.64911, 10.40744, 0))
}
