package http

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// queryFloat parses an optional float query parameter. ok is false when the
// parameter is absent.
func queryFloat(c *fiber.Ctx, key string) (v float64, ok bool, err error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%s must be a finite number", key)
	}
	return v, true, nil
}

// queryPoint reads an optional lat/lng pair. Giving only one of the two is an error.
func queryPoint(c *fiber.Ctx) (*domain.GeoPoint, error) {
	lat, hasLat, err := queryFloat(c, "lat")
	if err != nil {
		return nil, err
	}
	lng, hasLng, err := queryFloat(c, "lng")
	if err != nil {
		return nil, err
	}
	if hasLat != hasLng {
		return nil, fmt.Errorf("lat and lng must be given together")
	}
	if !hasLat {
		return nil, nil
	}
	p := &domain.GeoPoint{Lat: lat, Lng: lng}
	if err := validatePoint(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePoint(p *domain.GeoPoint) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90")
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("lng must be between -180 and 180")
	}
	return nil
}

func validateRegion(r *domain.Region) error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("region.latitude must be between -90 and 90")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("region.longitude must be between -180 and 180")
	}
	if r.LatitudeDelta < 0 || r.LongitudeDelta < 0 {
		return fmt.Errorf("region deltas must not be negative")
	}
	if r.LatitudeDelta > 180 || r.LongitudeDelta > 360 {
		return fmt.Errorf("region deltas exceed the globe")
	}
	return nil
}
