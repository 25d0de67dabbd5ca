package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/pkg/geospatial"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
)

// DefaultRadiusKm is the discovery radius used when none (or a bad one) is given.
const DefaultRadiusKm = 25.0

const (
	cacheKeyPublished    = "clinics:published"
	cacheKeyNearbyPrefix = "clinics:nearby:"
)

// ClinicService handles directory reads for the map.
type ClinicService struct {
	clinics ports.ClinicRepository
	cache   ports.CacheService
}

// NewClinicService creates a new ClinicService.
func NewClinicService(clinics ports.ClinicRepository, cache ports.CacheService) *ClinicService {
	return &ClinicService{clinics: clinics, cache: cache}
}

// ListPublished returns every published clinic in the directory.
func (s *ClinicService) ListPublished(ctx context.Context) ([]domain.Clinic, error) {
	var clinics []domain.Clinic
	if s.cacheGet(ctx, "list_published", cacheKeyPublished, &clinics) {
		return clinics, nil
	}

	clinics, err := s.clinics.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published clinics: %w", err)
	}

	// Directory changes are pushed as events, so 5 minutes is only a backstop.
	s.cacheSet(ctx, cacheKeyPublished, clinics, 300)
	return clinics, nil
}

// GetByID returns a single published clinic.
func (s *ClinicService) GetByID(ctx context.Context, id string) (*domain.Clinic, error) {
	var clinic domain.Clinic
	if s.cacheGet(ctx, "get_by_id", clinicCacheKey(id), &clinic) {
		return &clinic, nil
	}

	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished {
		return nil, domain.ErrNotFound
	}

	s.cacheSet(ctx, clinicCacheKey(id), c, 600)
	return c, nil
}

// FindNearby returns published clinics within radiusKm of a point, nearest first.
func (s *ClinicService) FindNearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]domain.Clinic, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		radiusKm = DefaultRadiusKm
	}

	cacheKey := fmt.Sprintf(cacheKeyNearbyPrefix+"%.4f:%.4f:%.1f:%d", lat, lng, radiusKm, limit)
	var clinics []domain.Clinic
	if s.cacheGet(ctx, "find_nearby", cacheKey, &clinics) {
		return clinics, nil
	}

	clinics, err := s.clinics.FindNearby(ctx, lat, lng, radiusKm*1000, limit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, clinics, 300)
	return clinics, nil
}

// Filter returns the published clinics that are map candidates for f.
func (s *ClinicService) Filter(ctx context.Context, f domain.ClinicFilter) ([]domain.Clinic, error) {
	all, err := s.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	return FilterClinics(all, f), nil
}

// Invalidate drops cached entries touched by a change to clinic id.
func (s *ClinicService) Invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	return evictClinic(ctx, s.cache, id)
}

// evictClinic drops every cached read a change to clinic id can affect.
func evictClinic(ctx context.Context, cache ports.CacheService, id string) error {
	if err := cache.Delete(ctx, cacheKeyPublished); err != nil {
		return fmt.Errorf("evict %s: %w", cacheKeyPublished, err)
	}
	if err := cache.DeletePrefix(ctx, cacheKeyNearbyPrefix); err != nil {
		return fmt.Errorf("evict nearby searches: %w", err)
	}
	if id == "" {
		return nil
	}
	if err := cache.Delete(ctx, clinicCacheKey(id)); err != nil {
		return fmt.Errorf("evict clinic %s: %w", id, err)
	}
	return nil
}

// FilterClinics keeps clinics with a finite coordinate, then applies the
// category filter and, when the user location is known, the radius filter.
// Distance is filled in whenever the user location is known.
func FilterClinics(clinics []domain.Clinic, f domain.ClinicFilter) []domain.Clinic {
	category := f.Category
	if category == "" {
		category = domain.CategoryAll
	}

	radius := f.RadiusKm
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		radius = DefaultRadiusKm
	}

	user := f.UserLocation
	if user != nil && !validPoint(*user) {
		user = nil
	}

	result := make([]domain.Clinic, 0, len(clinics))
	for _, c := range clinics {
		if !c.HasValidGeo() {
			continue
		}
		if category != domain.CategoryAll {
			if got, ok := domain.DeriveCategory(c.Specialty); !ok || got != category {
				continue
			}
		}
		if user != nil {
			d := geospatial.DistanceKm(user.Lat, user.Lng, c.Geo.Lat, c.Geo.Lng)
			if d > radius {
				continue
			}
			c.Distance = &d
		}
		result = append(result, c)
	}
	return result
}

func clinicCacheKey(id string) string {
	return "clinics:id:" + id
}

func (s *ClinicService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheLookup(op, false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.RecordCacheLookup(op, false)
		return false
	}
	metrics.RecordCacheLookup(op, true)
	return true
}

func (s *ClinicService) cacheSet(ctx context.Context, key string, v any, ttlSeconds int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttlSeconds)
	}
}

func validPoint(p domain.GeoPoint) bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}
