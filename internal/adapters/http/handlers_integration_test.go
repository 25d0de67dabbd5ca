//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/clinicmap/internal/adapters/http"
	"github.com/samirrijal/clinicmap/internal/adapters/postgres"
	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/config"
)

// setupTestDB connects to the test database configured through CLINICMAP_* env vars.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("clinicmap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real repos, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	clinics := usecases.NewClinicService(postgres.NewClinicRepo(db), nil)
	return &http.Dependencies{
		Clinics: clinics,
		Map:     usecases.NewMapService(clinics, usecases.DefaultMapConfig()),
		DB:      db,
	}
}

// uniqueID returns an ID that does not collide with earlier runs.
func uniqueID(prefix string) string {
	return prefix + "-" + time.Now().Format("20060102150405.000000")
}

// seedClinics upserts published clinics through the repository.
func seedClinics(t *testing.T, db *postgres.DB, clinics ...domain.Clinic) {
	repo := postgres.NewClinicRepo(db)
	if err := repo.UpsertBatch(context.Background(), clinics); err != nil {
		t.Fatalf("seed clinics: %v", err)
	}
}

func TestNearbyClinics_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	// Far off the coast so other seeded rows do not interfere.
	near := clinic(uniqueID("near"), "general", -40.0, -30.0)
	far := clinic(uniqueID("far"), "general", -40.5, -30.0)
	seedClinics(t, db, near, far)

	app := setupApp(setupTestDeps(t, db))

	req := httptest.NewRequest("GET", "/v1/clinics/nearby?lat=-40.0&lng=-30.001&radius_km=5", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var clinics []domain.Clinic
	if err := json.NewDecoder(resp.Body).Decode(&clinics); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	var found bool
	for _, c := range clinics {
		if c.ID == far.ID {
			t.Errorf("clinic %s is ~55km away and must not be returned", far.ID)
		}
		if c.ID == near.ID {
			found = true
			if c.Distance == nil || *c.Distance > 1 {
				t.Errorf("expected distance_km under 1, got %v", c.Distance)
			}
		}
	}
	if !found {
		t.Errorf("expected %s in nearby results", near.ID)
	}
}

func TestLabels_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	a := clinic(uniqueID("a"), "laser", -45.0, -35.0)
	b := clinic(uniqueID("b"), "laser", -45.001, -35.001)
	seedClinics(t, db, a, b)

	app := setupApp(setupTestDeps(t, db))

	body := `{"region":{"latitude":-45.0,"longitude":-35.0,"latitude_delta":0.04,"longitude_delta":0.04},"category":"laser"}`
	req := httptest.NewRequest("POST", "/v1/map/labels", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var plan domain.LabelPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var gotA, gotB bool
	for _, l := range plan.Labeled {
		gotA = gotA || l.ID == a.ID
		gotB = gotB || l.ID == b.ID
	}
	if !gotA || gotB {
		t.Errorf("expected only the centered clinic labeled, got %+v", plan.Labeled)
	}
}

func TestDirectorySync_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	profiles := postgres.NewProfileRepo(db)
	clinics := postgres.NewClinicRepo(db)
	sync := usecases.NewDirectorySyncService(profiles, clinics, nil, nil)

	id := uniqueID("sync")
	if err := profiles.UpsertProfile(ctx, &domain.ClinicProfile{
		ClinicID:    id,
		ClinicName:  "  Smile Studio ",
		Subscribed:  true,
		ClinicPhone: "+971500000000",
		ClinicType:  "orthodontics",
		Location:    &domain.GeoPoint{Lat: 25.2, Lng: 55.3},
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	ok, err := sync.EnsurePublished(ctx, id)
	if err != nil || !ok {
		t.Fatalf("EnsurePublished = %v, %v", ok, err)
	}

	// A later profile without a phone must not erase the stored one.
	if err := profiles.UpsertProfile(ctx, &domain.ClinicProfile{
		ClinicID: id, ClinicName: "Smile Studio", Subscribed: true,
	}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if _, err := sync.EnsurePublished(ctx, id); err != nil {
		t.Fatalf("second EnsurePublished: %v", err)
	}

	got, err := clinics.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get clinic: %v", err)
	}
	if got.Name != "Smile Studio" || got.OwnerID != id || !got.IsPublished {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.Phone != "+971500000000" || got.Geo == nil || len(got.Geohash) != domain.GeohashPrecision {
		t.Errorf("merge lost data: %+v", got)
	}
}
