package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/labeling"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
	"github.com/samirrijal/clinicmap/internal/pkg/telemetry"
)

// MapConfig holds the map-screen constants.
type MapConfig struct {
	// Labels are only shown below this latitude span.
	ZoomedInThreshold float64
	// Span used around the user when centering on them.
	DefaultLatDelta float64
	DefaultRadiusKm float64
	Box             labeling.Box
	FallbackRegion  domain.Region
	// Span used when centering on the first clinic.
	ClinicRegionDelta float64
}

// DefaultMapConfig returns the production map constants.
func DefaultMapConfig() MapConfig {
	return MapConfig{
		ZoomedInThreshold: 0.05,
		DefaultLatDelta:   labeling.DefaultLatDelta,
		DefaultRadiusKm:   DefaultRadiusKm,
		Box:               labeling.DefaultBox,
		FallbackRegion: domain.Region{
			Latitude:       25.276987,
			Longitude:      55.296249,
			LatitudeDelta:  0.5,
			LongitudeDelta: 0.5,
		},
		ClinicRegionDelta: 0.3,
	}
}

// LabelRequest is one region change reported by a map client.
type LabelRequest struct {
	Region       *domain.Region   `json:"region"`
	UserLocation *domain.GeoPoint `json:"user_location"`
	SelectedID   string           `json:"selected_id"`
	Category     string           `json:"category"`
	RadiusKm     float64          `json:"radius_km"`
}

// MapService computes label plans and initial regions for the map screen.
type MapService struct {
	clinics *ClinicService
	placer  *labeling.Placer
	cfg     MapConfig
	tracer  trace.Tracer
}

// NewMapService creates a new MapService. Zero config values take their defaults.
func NewMapService(clinics *ClinicService, cfg MapConfig) *MapService {
	def := DefaultMapConfig()
	if cfg.ZoomedInThreshold <= 0 {
		cfg.ZoomedInThreshold = def.ZoomedInThreshold
	}
	if cfg.DefaultLatDelta <= 0 {
		cfg.DefaultLatDelta = def.DefaultLatDelta
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = def.DefaultRadiusKm
	}
	if cfg.FallbackRegion.LatitudeDelta <= 0 {
		cfg.FallbackRegion = def.FallbackRegion
	}
	if cfg.ClinicRegionDelta <= 0 {
		cfg.ClinicRegionDelta = def.ClinicRegionDelta
	}
	return &MapService{
		clinics: clinics,
		placer:  labeling.NewPlacer(cfg.Box),
		cfg:     cfg,
		tracer:  otel.Tracer(telemetry.TracerName),
	}
}

// Config returns the effective map configuration.
func (s *MapService) Config() MapConfig {
	return s.cfg
}

// Budget returns the label budget for a latitude span; a negative or
// non-finite span falls back to the default span.
func (s *MapService) Budget(latDelta float64) int {
	if !validDelta(latDelta) {
		latDelta = s.cfg.DefaultLatDelta
	}
	return labeling.Budget(latDelta)
}

// IsZoomedIn reports whether labels are shown at all for a region.
func (s *MapService) IsZoomedIn(region *domain.Region) bool {
	return region != nil && validDelta(region.LatitudeDelta) &&
		region.LatitudeDelta < s.cfg.ZoomedInThreshold
}

// Labels computes the label plan for one region change.
func (s *MapService) Labels(ctx context.Context, req LabelRequest) (*domain.LabelPlan, error) {
	ctx, span := s.tracer.Start(ctx, "MapService.Labels")
	defer span.End()

	plan := &domain.LabelPlan{
		Labeled: []domain.LabelPlacement{},
		Budget:  s.Budget(s.cfg.DefaultLatDelta),
	}
	if req.Region == nil || !validRegion(*req.Region) {
		metrics.RecordLabelPlan(metrics.PlanNoRegion, 0, 0)
		return plan, nil
	}

	region := *req.Region
	plan.Region = &region
	plan.Budget = s.Budget(region.LatitudeDelta)
	plan.ZoomedIn = s.IsZoomedIn(&region)

	user := req.UserLocation
	if user != nil && !validPoint(*user) {
		user = nil
	}

	radius := req.RadiusKm
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		radius = s.cfg.DefaultRadiusKm
	}

	candidates, err := s.clinics.Filter(ctx, domain.ClinicFilter{
		Category:     domain.ParseCategory(req.Category),
		RadiusKm:     radius,
		UserLocation: user,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("filter clinics: %w", err)
	}

	pois := make([]domain.POI, 0, len(candidates))
	for i := range candidates {
		pois = append(pois, candidates[i].POI())
	}

	selected := s.resolveSelected(ctx, strings.TrimSpace(req.SelectedID), candidates)

	in := labeling.Input{
		Region:    region,
		POIs:      pois,
		Reference: user,
		Selected:  selected,
		Budget:    plan.Budget,
	}

	res := s.placer.Place(in)
	plan.Visible = res.Visible
	ref := res.Reference
	plan.Reference = &ref

	if !plan.ZoomedIn {
		metrics.RecordLabelPlan(metrics.PlanZoomedOut, res.Visible, 0)
		span.SetAttributes(attribute.Bool(telemetry.AttrZoomedIn, false), attribute.Int(telemetry.AttrVisible, res.Visible))
		return plan, nil
	}
	plan.Labeled = res.Placements

	metrics.RecordLabelPlan(metrics.PlanZoomedIn, res.Visible, len(res.Placements))
	span.SetAttributes(
		attribute.Bool(telemetry.AttrZoomedIn, true),
		attribute.Int(telemetry.AttrBudget, res.Budget),
		attribute.Int(telemetry.AttrVisible, res.Visible),
		attribute.Int(telemetry.AttrLabeled, len(res.Placements)),
	)
	return plan, nil
}

// resolveSelected finds the selected clinic among the candidates, then in the
// directory. Unknown IDs and clinics without a location are ignored.
func (s *MapService) resolveSelected(ctx context.Context, id string, candidates []domain.Clinic) *domain.POI {
	if id == "" {
		return nil
	}
	for i := range candidates {
		if candidates[i].ID == id {
			p := candidates[i].POI()
			return &p
		}
	}
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil || !c.HasValidGeo() {
		return nil
	}
	p := c.POI()
	return &p
}

// InitialRegion picks where the map opens: around the user when known, else
// around the first published clinic with a location, else the fallback region.
func (s *MapService) InitialRegion(ctx context.Context, user *domain.GeoPoint) (domain.Region, error) {
	if user != nil && validPoint(*user) {
		return domain.Region{
			Latitude:       user.Lat,
			Longitude:      user.Lng,
			LatitudeDelta:  s.cfg.DefaultLatDelta,
			LongitudeDelta: s.cfg.DefaultLatDelta,
		}, nil
	}

	clinics, err := s.clinics.ListPublished(ctx)
	if err != nil {
		return domain.Region{}, fmt.Errorf("initial region: %w", err)
	}
	for i := range clinics {
		if clinics[i].HasValidGeo() {
			return domain.Region{
				Latitude:       clinics[i].Geo.Lat,
				Longitude:      clinics[i].Geo.Lng,
				LatitudeDelta:  s.cfg.ClinicRegionDelta,
				LongitudeDelta: s.cfg.ClinicRegionDelta,
			}, nil
		}
	}
	return s.cfg.FallbackRegion, nil
}

func validDelta(d float64) bool {
	return d >= 0 && !math.IsInf(d, 0)
}

func validRegion(r domain.Region) bool {
	return validPoint(domain.GeoPoint{Lat: r.Latitude, Lng: r.Longitude}) &&
		validDelta(r.LatitudeDelta) && validDelta(r.LongitudeDelta)
}
