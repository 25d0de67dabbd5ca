package labeling

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// Viewport is the geographic rectangle covered by a region, with the spans
// used to project coordinates into [0,1] viewport space.
type Viewport struct {
	Bounds  domain.Bounds
	bound   orb.Bound
	latSpan float64
	lngSpan float64
}

// ViewportBounds converts a center + span into min/max latitude and longitude.
func ViewportBounds(r domain.Region) domain.Bounds {
	return domain.Bounds{
		MinLat: r.Latitude - r.LatitudeDelta/2,
		MaxLat: r.Latitude + r.LatitudeDelta/2,
		MinLng: r.Longitude - r.LongitudeDelta/2,
		MaxLng: r.Longitude + r.LongitudeDelta/2,
	}
}

// NewViewport builds the viewport for a region. A zero span is replaced by 1
// so normalisation never divides by zero.
func NewViewport(r domain.Region) Viewport {
	b := ViewportBounds(r)

	latSpan := b.MaxLat - b.MinLat
	if latSpan == 0 {
		latSpan = 1
	}
	lngSpan := b.MaxLng - b.MinLng
	if lngSpan == 0 {
		lngSpan = 1
	}

	return Viewport{
		Bounds: b,
		bound: orb.Bound{
			Min: orb.Point{b.MinLng, b.MinLat},
			Max: orb.Point{b.MaxLng, b.MaxLat},
		},
		latSpan: latSpan,
		lngSpan: lngSpan,
	}
}

// Contains reports whether p lies inside the viewport, edges included.
func (v Viewport) Contains(p domain.GeoPoint) bool {
	return v.bound.Contains(orb.Point{p.Lng, p.Lat})
}

// Normalize projects p into viewport-relative coordinates. Points inside the
// viewport land in [0,1]; points outside fall beyond that range.
func (v Viewport) Normalize(p domain.GeoPoint) (x, y float64) {
	x = (p.Lng - v.Bounds.MinLng) / v.lngSpan
	y = (p.Lat - v.Bounds.MinLat) / v.latSpan
	return x, y
}

// Normalize is Viewport.Normalize for a one-off region.
func Normalize(r domain.Region, p domain.GeoPoint) (x, y float64) {
	return NewViewport(r).Normalize(p)
}

// Denormalize maps viewport-relative coordinates back onto the map.
func (v Viewport) Denormalize(x, y float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: v.Bounds.MinLat + y*v.latSpan,
		Lng: v.Bounds.MinLng + x*v.lngSpan,
	}
}

// Bound returns the viewport as an orb.Bound (X = longitude, Y = latitude).
func (v Viewport) Bound() orb.Bound {
	return v.bound
}
