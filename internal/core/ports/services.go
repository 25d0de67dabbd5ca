package ports

import (
	"context"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// ClinicEventHandler reacts to a clinic entering or changing in the public
// directory. A returned error asks the broker to redeliver.
type ClinicEventHandler func(ctx context.Context, clinic *domain.Clinic) error

// EventPublisher announces directory changes.
type EventPublisher interface {
	PublishClinicPublished(ctx context.Context, clinic *domain.Clinic) error
}

// EventSubscriber receives directory changes announced by any instance.
type EventSubscriber interface {
	SubscribeClinicPublished(ctx context.Context, handler ClinicEventHandler) error
}

// CacheService stores serialized directory reads. Get reports a miss as
// domain.ErrNotFound.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// SyncScheduler hands a clinic to the background directory sync and returns
// the run identifier.
type SyncScheduler interface {
	ScheduleSync(ctx context.Context, clinicID string) (runID string, err error)
}
