package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/pkg/geospatial"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
	"github.com/samirrijal/clinicmap/internal/pkg/telemetry"
)

// DirectorySyncService keeps the public clinic directory in step with
// private clinic profiles.
type DirectorySyncService struct {
	profiles  ports.ClinicProfileRepository
	clinics   ports.ClinicRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
	now       func() time.Time
}

// NewDirectorySyncService creates a new DirectorySyncService.
// publisher and cache may be nil.
func NewDirectorySyncService(
	profiles ports.ClinicProfileRepository,
	clinics ports.ClinicRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
) *DirectorySyncService {
	return &DirectorySyncService{
		profiles:  profiles,
		clinics:   clinics,
		publisher: publisher,
		cache:     cache,
		now:       time.Now,
	}
}

// BuildDirectoryEntry derives the public directory entry for a profile.
// It returns false when the clinic is not subscribed or has no name.
// Optional fields are left empty when the profile lacks them so a merge
// keeps whatever the directory already holds.
func BuildDirectoryEntry(p *domain.ClinicProfile) (*domain.Clinic, bool) {
	if p == nil || !p.Subscribed {
		return nil, false
	}
	name := strings.TrimSpace(p.ClinicName)
	if name == "" {
		return nil, false
	}

	owner := p.OwnerID
	if owner == "" {
		owner = p.ClinicID
	}
	country := p.CountryCode
	if country == "" {
		country = p.Country
	}

	c := &domain.Clinic{
		ID:          p.ClinicID,
		ClinicID:    p.ClinicID,
		OwnerID:     owner,
		Name:        name,
		Country:     country,
		City:        p.City,
		IsPublished: true,
		HeroImage:   firstNonEmpty(p.ProfileImageURL, p.ClinicImageURL, p.ImageURL),
		Phone:       p.ClinicPhone,
		Specialty:   p.ClinicType,
		WhatsApp:    p.WhatsApp,
		Address:     p.Address,
	}
	if p.Location != nil {
		loc := *p.Location
		c.Geo = &loc
		if c.HasValidGeo() {
			c.Geohash = geospatial.EncodeGeohash(loc.Lat, loc.Lng, domain.GeohashPrecision)
		} else {
			c.Geo = nil
		}
	}
	return c, true
}

// LoadEntry reads a profile and builds its directory entry.
// A missing profile is reported as not publishable rather than as an error.
func (s *DirectorySyncService) LoadEntry(ctx context.Context, clinicID string) (*domain.Clinic, bool, error) {
	p, err := s.profiles.GetByID(ctx, clinicID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load profile %s: %w", clinicID, err)
	}
	c, ok := BuildDirectoryEntry(p)
	return c, ok, nil
}

// Store merges an entry into the public directory. Entries with a location
// but no geohash get one before they are written.
func (s *DirectorySyncService) Store(ctx context.Context, c *domain.Clinic) error {
	if c.NeedsGeohash() {
		c.Geohash = geospatial.EncodeGeohash(c.Geo.Lat, c.Geo.Lng, domain.GeohashPrecision)
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.clinics.Merge(ctx, c); err != nil {
		return fmt.Errorf("merge clinic %s: %w", c.ID, err)
	}
	return nil
}

// Announce evicts cached directory reads and publishes the change.
func (s *DirectorySyncService) Announce(ctx context.Context, c *domain.Clinic) error {
	if s.cache != nil {
		if err := evictClinic(ctx, s.cache, c.ID); err != nil {
			slog.Warn("cache eviction failed", "clinic_id", c.ID, "error", err)
		}
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishClinicPublished(ctx, c); err != nil {
		return fmt.Errorf("publish clinic %s: %w", c.ID, err)
	}
	return nil
}

// Publish builds, stores and announces the entry for an already loaded profile.
// It reports whether the profile was publishable.
func (s *DirectorySyncService) Publish(ctx context.Context, p *domain.ClinicProfile) (bool, error) {
	c, ok := BuildDirectoryEntry(p)
	if !ok {
		metrics.RecordSync(metrics.SyncSkipped)
		return false, nil
	}
	if err := s.Store(ctx, c); err != nil {
		metrics.RecordSync(metrics.SyncError)
		return false, err
	}
	if err := s.Announce(ctx, c); err != nil {
		// The directory is already updated; subscribers catch up on the next change.
		slog.Warn("announce clinic failed", "clinic_id", c.ID, "error", err)
	}
	metrics.RecordSync(metrics.SyncPublished)
	return true, nil
}

// EnsurePublished lists a subscribed clinic in the public directory. It is
// idempotent and safe to call after every profile change.
func (s *DirectorySyncService) EnsurePublished(ctx context.Context, clinicID string) (bool, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "DirectorySyncService.EnsurePublished")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrClinicID, clinicID))

	p, err := s.profiles.GetByID(ctx, clinicID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.RecordSync(metrics.SyncSkipped)
		return false, nil
	}
	if err != nil {
		metrics.RecordSync(metrics.SyncError)
		return false, fmt.Errorf("load profile %s: %w", clinicID, err)
	}
	if p.ClinicID == "" {
		p.ClinicID = clinicID
	}
	return s.Publish(ctx, p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
