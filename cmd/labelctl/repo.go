package main

import (
	"context"
	"errors"
	"sort"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/pkg/geospatial"
)

// fileRepo serves a clinic export as a read-only directory.
type fileRepo struct {
	clinics []domain.Clinic
}

func newFileRepo(clinics []domain.Clinic) *fileRepo {
	return &fileRepo{clinics: clinics}
}

var errReadOnly = errors.New("clinic export is read-only")

func (r *fileRepo) Merge(context.Context, *domain.Clinic) error        { return errReadOnly }
func (r *fileRepo) UpsertBatch(context.Context, []domain.Clinic) error { return errReadOnly }

func (r *fileRepo) GetByID(_ context.Context, id string) (*domain.Clinic, error) {
	for i := range r.clinics {
		if r.clinics[i].ID == id {
			c := r.clinics[i]
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListPublished treats entries without is_published as published; exports
// usually contain only the public directory.
func (r *fileRepo) ListPublished(context.Context) ([]domain.Clinic, error) {
	out := make([]domain.Clinic, 0, len(r.clinics))
	for _, c := range r.clinics {
		c.IsPublished = true
		out = append(out, c)
	}
	return out, nil
}

func (r *fileRepo) FindNearby(_ context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
	var out []domain.Clinic
	for _, c := range r.clinics {
		if !c.HasValidGeo() {
			continue
		}
		d := geospatial.DistanceKm(lat, lng, c.Geo.Lat, c.Geo.Lng)
		if d*1000 > radiusMeters {
			continue
		}
		c.Distance = &d
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
