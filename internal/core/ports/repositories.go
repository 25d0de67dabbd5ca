package ports

import (
	"context"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// ClinicRepository persists the public clinic directory.
type ClinicRepository interface {
	// Merge inserts or updates a directory entry, leaving stored optional
	// fields untouched when the incoming value is empty.
	Merge(ctx context.Context, clinic *domain.Clinic) error
	UpsertBatch(ctx context.Context, clinics []domain.Clinic) error
	GetByID(ctx context.Context, id string) (*domain.Clinic, error)
	ListPublished(ctx context.Context) ([]domain.Clinic, error)
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error)
}

// ClinicProfileRepository reads private clinic profiles.
type ClinicProfileRepository interface {
	GetByID(ctx context.Context, clinicID string) (*domain.ClinicProfile, error)
}
