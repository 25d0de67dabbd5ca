package usecases_test

import (
	"context"
	"strings"
	"sync"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// --- Mock ClinicRepository ---

type mockClinicRepo struct {
	mergeFn         func(ctx context.Context, c *domain.Clinic) error
	getByIDFn       func(ctx context.Context, id string) (*domain.Clinic, error)
	listPublishedFn func(ctx context.Context) ([]domain.Clinic, error)
	findNearbyFn    func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error)
}

func (m *mockClinicRepo) Merge(ctx context.Context, c *domain.Clinic) error {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, c)
	}
	return nil
}

func (m *mockClinicRepo) UpsertBatch(ctx context.Context, cs []domain.Clinic) error { return nil }

func (m *mockClinicRepo) GetByID(ctx context.Context, id string) (*domain.Clinic, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockClinicRepo) ListPublished(ctx context.Context) ([]domain.Clinic, error) {
	if m.listPublishedFn != nil {
		return m.listPublishedFn(ctx)
	}
	return nil, nil
}

func (m *mockClinicRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lng, radiusMeters, limit)
	}
	return nil, nil
}

// --- Mock ClinicProfileRepository ---

type mockProfileRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.ClinicProfile, error)
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*domain.ClinicProfile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	published []string
	err       error
}

func (m *mockPublisher) PublishClinicPublished(ctx context.Context, c *domain.Clinic) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, c.ID)
	return nil
}

// --- In-memory CacheService ---

type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	deleted  []string
	prefixes []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *memCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.prefixes = append(c.prefixes, prefix)
	return nil
}

func geo(lat, lng float64) *domain.GeoPoint {
	return &domain.GeoPoint{Lat: lat, Lng: lng}
}

func published(id, specialty string, g *domain.GeoPoint) domain.Clinic {
	return domain.Clinic{ID: id, ClinicID: id, Name: "Clinic " + id, Specialty: specialty, Geo: g, IsPublished: true}
}
