package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/workflows"
)

type fakeProfiles map[string]*domain.ClinicProfile

func (f fakeProfiles) GetByID(ctx context.Context, id string) (*domain.ClinicProfile, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

type fakeDirectory struct {
	mu      sync.Mutex
	clinics map[string]domain.Clinic
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{clinics: map[string]domain.Clinic{}}
}

func (f *fakeDirectory) Merge(ctx context.Context, c *domain.Clinic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clinics[c.ID] = *c
	return nil
}

func (f *fakeDirectory) UpsertBatch(ctx context.Context, cs []domain.Clinic) error {
	for i := range cs {
		_ = f.Merge(ctx, &cs[i])
	}
	return nil
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (*domain.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clinics[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeDirectory) ListPublished(ctx context.Context) ([]domain.Clinic, error) {
	return nil, nil
}

func (f *fakeDirectory) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
	return nil, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePublisher) PublishClinicPublished(ctx context.Context, c *domain.Clinic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func runSync(t *testing.T, profiles fakeProfiles, dir *fakeDirectory, pub *fakePublisher, clinicID string) workflows.DirectorySyncResult {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	svc := usecases.NewDirectorySyncService(profiles, dir, pub, nil)
	env.RegisterActivity(&workflows.DirectorySyncActivities{Sync: svc})
	env.ExecuteWorkflow(workflows.DirectorySyncWorkflow, workflows.DirectorySyncInput{ClinicID: clinicID})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res workflows.DirectorySyncResult
	require.NoError(t, env.GetWorkflowResult(&res))
	return res
}

func TestDirectorySyncWorkflow_Publishes(t *testing.T) {
	profiles := fakeProfiles{"c1": {
		ClinicID:   "c1",
		ClinicName: "Pearl Dental",
		Subscribed: true,
		ClinicType: "general",
		Location:   &domain.GeoPoint{Lat: 25.2, Lng: 55.3},
	}}
	dir := newFakeDirectory()
	pub := &fakePublisher{}

	res := runSync(t, profiles, dir, pub, "c1")

	assert.True(t, res.Published)
	assert.True(t, res.Announced)
	assert.Equal(t, 1, pub.calls)

	got, err := dir.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Pearl Dental", got.Name)
	assert.Equal(t, "c1", got.OwnerID)
	assert.Len(t, got.Geohash, domain.GeohashPrecision)
}

func TestDirectorySyncWorkflow_SkipsUnsubscribed(t *testing.T) {
	profiles := fakeProfiles{"c2": {ClinicID: "c2", ClinicName: "Closed Clinic"}}
	dir := newFakeDirectory()
	pub := &fakePublisher{}

	res := runSync(t, profiles, dir, pub, "c2")

	assert.False(t, res.Published)
	assert.Empty(t, dir.clinics)
	assert.Zero(t, pub.calls)
}

func TestDirectorySyncWorkflow_MissingProfile(t *testing.T) {
	dir := newFakeDirectory()
	res := runSync(t, fakeProfiles{}, dir, &fakePublisher{}, "ghost")

	assert.False(t, res.Published)
	assert.Empty(t, dir.clinics)
}

func TestDirectorySyncWorkflow_AnnounceFailureIsNotFatal(t *testing.T) {
	profiles := fakeProfiles{"c3": {ClinicID: "c3", ClinicName: "Glow", Subscribed: true}}
	dir := newFakeDirectory()
	pub := &fakePublisher{err: errors.New("nats down")}

	res := runSync(t, profiles, dir, pub, "c3")

	assert.True(t, res.Published)
	assert.False(t, res.Announced)
	assert.Equal(t, 3, pub.calls, "announce is retried before giving up")

	_, err := dir.GetByID(context.Background(), "c3")
	assert.NoError(t, err)
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "directory-sync-abc", workflows.WorkflowID("abc"))
}
