package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names registered by DirectorySyncActivities.
const (
	ActivityLoadEntry     = "LoadEntry"
	ActivityStoreEntry    = "StoreEntry"
	ActivityAnnounceEntry = "AnnounceEntry"
)

// DirectorySyncInput is the input for the directory sync workflow.
type DirectorySyncInput struct {
	ClinicID string
}

// DirectorySyncResult reports what a sync run did.
type DirectorySyncResult struct {
	Published bool
	Announced bool
}

// DirectorySyncWorkflow publishes one clinic profile into the public
// directory: load and gate the profile, merge the entry, then announce it.
// A failed announcement is logged and does not fail the run; the entry is
// already stored and later changes announce it again.
func DirectorySyncWorkflow(ctx workflow.Context, input DirectorySyncInput) (DirectorySyncResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting directory sync", "clinicID", input.ClinicID)

	var result DirectorySyncResult

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})

	// Step 1: Load the profile and build its directory entry
	var entry DirectoryEntry
	if err := workflow.ExecuteActivity(ctx, ActivityLoadEntry, input.ClinicID).Get(ctx, &entry); err != nil {
		return result, err
	}
	if !entry.Publishable {
		logger.Info("Clinic not publishable, skipping", "clinicID", input.ClinicID)
		return result, nil
	}

	// Step 2: Merge into clinics_public
	if err := workflow.ExecuteActivity(ctx, ActivityStoreEntry, entry.Clinic).Get(ctx, nil); err != nil {
		return result, err
	}
	result.Published = true

	// Step 3: Evict caches and publish the change
	announceCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})
	if err := workflow.ExecuteActivity(announceCtx, ActivityAnnounceEntry, entry.Clinic).Get(ctx, nil); err != nil {
		logger.Warn("announce failed, directory already updated", "clinicID", input.ClinicID, "error", err)
		return result, nil
	}
	result.Announced = true

	logger.Info("Directory sync complete", "clinicID", input.ClinicID)
	return result, nil
}
