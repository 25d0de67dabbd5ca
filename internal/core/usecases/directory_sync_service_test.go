package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

func subscribedProfile() *domain.ClinicProfile {
	return &domain.ClinicProfile{
		ClinicID:    "c1",
		ClinicName:  "  Smile Studio  ",
		Subscribed:  true,
		CountryCode: "AE",
		Country:     "United Arab Emirates",
		City:        "Dubai",
	}
}

func TestBuildDirectoryEntry_Gate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.ClinicProfile)
		want   bool
	}{
		{"subscribed with name", func(p *domain.ClinicProfile) {}, true},
		{"not subscribed", func(p *domain.ClinicProfile) { p.Subscribed = false }, false},
		{"blank name", func(p *domain.ClinicProfile) { p.ClinicName = "   " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := subscribedProfile()
			tt.mutate(p)
			_, ok := usecases.BuildDirectoryEntry(p)
			if ok != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ok)
			}
		})
	}

	if _, ok := usecases.BuildDirectoryEntry(nil); ok {
		t.Error("nil profile must not be publishable")
	}
}

func TestBuildDirectoryEntry_Payload(t *testing.T) {
	p := subscribedProfile()
	p.ClinicImageURL = "https://img/clinic.jpg"
	p.ImageURL = "https://img/legacy.jpg"
	p.ClinicType = "laser"
	p.Location = &domain.GeoPoint{Lat: 57.64911, Lng: 10.40744}

	c, ok := usecases.BuildDirectoryEntry(p)
	if !ok {
		t.Fatal("expected publishable profile")
	}
	if c.Name != "Smile Studio" {
		t.Errorf("expected trimmed name, got %q", c.Name)
	}
	if c.OwnerID != "c1" {
		t.Errorf("owner should default to clinic id, got %q", c.OwnerID)
	}
	if c.Country != "AE" {
		t.Errorf("country code should win over country name, got %q", c.Country)
	}
	if c.HeroImage != "https://img/clinic.jpg" {
		t.Errorf("unexpected hero image %q", c.HeroImage)
	}
	if c.Specialty != "laser" || !c.IsPublished {
		t.Errorf("unexpected entry %+v", c)
	}
	if c.Geohash != "u4pruyd" {
		t.Errorf("expected 7-char geohash u4pruyd, got %q", c.Geohash)
	}
	if c.Phone != "" || c.WhatsApp != "" || c.Address != "" {
		t.Error("absent optional fields must stay empty")
	}
}

func TestDirectorySyncService_EnsurePublished(t *testing.T) {
	var merged *domain.Clinic
	profiles := &mockProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.ClinicProfile, error) {
			return subscribedProfile(), nil
		},
	}
	clinics := &mockClinicRepo{
		mergeFn: func(ctx context.Context, c *domain.Clinic) error {
			merged = c
			return nil
		},
	}
	pub := &mockPublisher{}
	cache := newMemCache()

	svc := usecases.NewDirectorySyncService(profiles, clinics, pub, cache)
	ok, err := svc.EnsurePublished(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected clinic to be published")
	}
	if merged == nil || merged.ID != "c1" || merged.UpdatedAt.IsZero() {
		t.Fatalf("unexpected merge %+v", merged)
	}
	if len(pub.published) != 1 || pub.published[0] != "c1" {
		t.Errorf("expected one published event, got %v", pub.published)
	}
	if len(cache.deleted) != 2 {
		t.Errorf("expected 2 cache evictions, got %v", cache.deleted)
	}
	if len(cache.prefixes) != 1 {
		t.Errorf("expected nearby searches evicted, got %v", cache.prefixes)
	}
}

func TestDirectorySyncService_EnsurePublished_Skips(t *testing.T) {
	merges := 0
	clinics := &mockClinicRepo{
		mergeFn: func(ctx context.Context, c *domain.Clinic) error {
			merges++
			return nil
		},
	}

	// Missing profile.
	svc := usecases.NewDirectorySyncService(&mockProfileRepo{}, clinics, nil, nil)
	ok, err := svc.EnsurePublished(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected silent skip, got ok=%v err=%v", ok, err)
	}

	// Unsubscribed profile.
	svc = usecases.NewDirectorySyncService(&mockProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.ClinicProfile, error) {
			p := subscribedProfile()
			p.Subscribed = false
			return p, nil
		},
	}, clinics, nil, nil)
	ok, err = svc.EnsurePublished(context.Background(), "c1")
	if err != nil || ok {
		t.Fatalf("expected silent skip, got ok=%v err=%v", ok, err)
	}

	if merges != 0 {
		t.Errorf("expected no merges, got %d", merges)
	}
}

func TestDirectorySyncService_Errors(t *testing.T) {
	profiles := &mockProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.ClinicProfile, error) {
			return subscribedProfile(), nil
		},
	}
	clinics := &mockClinicRepo{
		mergeFn: func(ctx context.Context, c *domain.Clinic) error {
			return errors.New("db down")
		},
	}

	svc := usecases.NewDirectorySyncService(profiles, clinics, nil, nil)
	if _, err := svc.EnsurePublished(context.Background(), "c1"); err == nil {
		t.Fatal("expected merge error")
	}

	// A failed announcement does not fail the sync.
	svc = usecases.NewDirectorySyncService(profiles, &mockClinicRepo{}, &mockPublisher{err: errors.New("nats down")}, nil)
	ok, err := svc.EnsurePublished(context.Background(), "c1")
	if err != nil || !ok {
		t.Fatalf("expected publish to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestDirectorySyncService_StoreAddsGeohash(t *testing.T) {
	var merged *domain.Clinic
	clinics := &mockClinicRepo{
		mergeFn: func(ctx context.Context, c *domain.Clinic) error {
			merged = c
			return nil
		},
	}
	svc := usecases.NewDirectorySyncService(&mockProfileRepo{}, clinics, nil, nil)

	c := &domain.Clinic{ID: "c9", Geo: &domain.GeoPoint{Lat: 57.64911, Lng: 10.40744}}
	if err := svc.Store(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged == nil || merged.Geohash != "u4pruyd" {
		t.Errorf("expected geohash u4pruyd, got %+v", merged)
	}

	kept := &domain.Clinic{ID: "c10", Geohash: "thrr3", Geo: &domain.GeoPoint{Lat: 25.2, Lng: 55.3}}
	_ = svc.Store(context.Background(), kept)
	if merged.Geohash != "thrr3" {
		t.Errorf("existing geohash must be kept, got %q", merged.Geohash)
	}
}
