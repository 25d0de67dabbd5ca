package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

func TestFilterClinics_DropsInvalidGeo(t *testing.T) {
	clinics := []domain.Clinic{
		published("a", "general", geo(25.2, 55.3)),
		published("b", "general", nil),
		published("c", "general", geo(math.NaN(), 55.3)),
		published("d", "general", geo(25.2, math.Inf(1))),
	}

	got := usecases.FilterClinics(clinics, domain.ClinicFilter{})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only clinic a, got %+v", got)
	}
}

func TestFilterClinics_Category(t *testing.T) {
	clinics := []domain.Clinic{
		published("ortho", "orthodontics", geo(25.2, 55.3)),
		published("laser", "laser", geo(25.2, 55.3)),
		published("beauty", "Beauty", geo(25.2, 55.3)),
		published("other", "veterinary", geo(25.2, 55.3)),
	}

	tests := []struct {
		category domain.Category
		want     []string
	}{
		{domain.CategoryAll, []string{"ortho", "laser", "beauty", "other"}},
		{domain.CategoryDental, []string{"ortho"}},
		{domain.CategoryLaser, []string{"laser"}},
		{domain.CategoryBeauty, []string{"beauty"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got := usecases.FilterClinics(clinics, domain.ClinicFilter{Category: tt.category})
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d clinics, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestFilterClinics_RadiusOnlyWithUserLocation(t *testing.T) {
	clinics := []domain.Clinic{
		published("near", "general", geo(25.21, 55.31)),
		published("far", "general", geo(26.5, 55.3)), // ~140km north
	}

	got := usecases.FilterClinics(clinics, domain.ClinicFilter{RadiusKm: 10})
	if len(got) != 2 {
		t.Fatalf("without user location no radius filter applies, got %d", len(got))
	}
	if got[0].Distance != nil {
		t.Errorf("distance should be unset without user location")
	}

	got = usecases.FilterClinics(clinics, domain.ClinicFilter{UserLocation: geo(25.2, 55.3)})
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("expected only near within default radius, got %+v", got)
	}
	if got[0].Distance == nil || *got[0].Distance > 2 {
		t.Errorf("expected distance under 2km, got %v", got[0].Distance)
	}
}

func TestFilterClinics_BadRadiusUsesDefault(t *testing.T) {
	clinics := []domain.Clinic{
		published("20km", "general", geo(25.38, 55.3)),
	}
	for _, r := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		got := usecases.FilterClinics(clinics, domain.ClinicFilter{RadiusKm: r, UserLocation: geo(25.2, 55.3)})
		if len(got) != 1 {
			t.Errorf("radius %v: expected default %.0fkm radius to keep clinic", r, usecases.DefaultRadiusKm)
		}
	}
}

func TestClinicService_ListPublished_Cached(t *testing.T) {
	calls := 0
	repo := &mockClinicRepo{
		listPublishedFn: func(ctx context.Context) ([]domain.Clinic, error) {
			calls++
			return []domain.Clinic{published("a", "laser", geo(25, 55))}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewClinicService(repo, cache)

	for i := 0; i < 3; i++ {
		clinics, err := svc.ListPublished(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(clinics) != 1 || clinics[0].ID != "a" {
			t.Fatalf("unexpected clinics: %+v", clinics)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}

	if err := svc.Invalidate(context.Background(), "a"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.ListPublished(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected reload after invalidate, got %d calls", calls)
	}
}

func TestClinicService_GetByID_Unpublished(t *testing.T) {
	repo := &mockClinicRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Clinic, error) {
			return &domain.Clinic{ID: id, Name: "Hidden"}, nil
		},
	}
	svc := usecases.NewClinicService(repo, nil)

	_, err := svc.GetByID(context.Background(), "x")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClinicService_FindNearby_ClampLimit(t *testing.T) {
	var gotLimit int
	var gotRadius float64
	repo := &mockClinicRepo{
		findNearbyFn: func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
			gotLimit = limit
			gotRadius = radiusMeters
			return nil, nil
		},
	}
	svc := usecases.NewClinicService(repo, nil)

	if _, err := svc.FindNearby(context.Background(), 25.2, 55.3, 0, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 50 {
		t.Errorf("expected limit clamped to 50, got %d", gotLimit)
	}
	if gotRadius != 25000 {
		t.Errorf("expected default radius 25000m, got %v", gotRadius)
	}
}

func TestClinicService_Invalidate_DropsNearbySearches(t *testing.T) {
	calls := 0
	repo := &mockClinicRepo{
		findNearbyFn: func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
			calls++
			return []domain.Clinic{published("a", "general", geo(25, 55))}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewClinicService(repo, cache)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.FindNearby(ctx, 25, 55, 5, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected cached nearby search, got %d calls", calls)
	}

	if err := svc.Invalidate(ctx, "b"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.FindNearby(ctx, 25, 55, 5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected nearby search reloaded after invalidate, got %d calls", calls)
	}
}
