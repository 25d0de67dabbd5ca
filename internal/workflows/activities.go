package workflows

import (
	"context"
	"fmt"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
)

// DirectoryEntry is the result of loading a clinic profile.
type DirectoryEntry struct {
	Clinic      *domain.Clinic
	Publishable bool
}

// DirectorySyncActivities holds the activity implementations for the directory sync workflow.
type DirectorySyncActivities struct {
	Sync *usecases.DirectorySyncService
}

// LoadEntry reads the private profile and derives its public entry.
func (a *DirectorySyncActivities) LoadEntry(ctx context.Context, clinicID string) (DirectoryEntry, error) {
	c, ok, err := a.Sync.LoadEntry(ctx, clinicID)
	if err != nil {
		return DirectoryEntry{}, err
	}
	if !ok {
		metrics.RecordSync(metrics.SyncSkipped)
	}
	return DirectoryEntry{Clinic: c, Publishable: ok}, nil
}

// StoreEntry merges the entry into the public directory.
func (a *DirectorySyncActivities) StoreEntry(ctx context.Context, c *domain.Clinic) error {
	if c == nil {
		return fmt.Errorf("store entry: nil clinic")
	}
	if err := a.Sync.Store(ctx, c); err != nil {
		metrics.RecordSync(metrics.SyncError)
		return err
	}
	metrics.RecordSync(metrics.SyncPublished)
	return nil
}

// AnnounceEntry evicts cached reads and publishes the change event.
func (a *DirectorySyncActivities) AnnounceEntry(ctx context.Context, c *domain.Clinic) error {
	if c == nil {
		return fmt.Errorf("announce entry: nil clinic")
	}
	return a.Sync.Announce(ctx, c)
}
