package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// Scheduler starts directory sync workflows on a Temporal task queue.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a scheduler that enqueues runs on taskQueue.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// WorkflowID is the workflow ID used for a clinic's sync. While a run is in
// flight, scheduling again for the same clinic returns that run.
func WorkflowID(clinicID string) string {
	return "directory-sync-" + clinicID
}

// ScheduleSync starts a sync run and returns its run ID without waiting for it.
func (s *Scheduler) ScheduleSync(ctx context.Context, clinicID string) (string, error) {
	if clinicID == "" {
		return "", fmt.Errorf("schedule sync: empty clinic id")
	}
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(clinicID),
		TaskQueue: s.taskQueue,
	}, DirectorySyncWorkflow, DirectorySyncInput{ClinicID: clinicID})
	if err != nil {
		return "", fmt.Errorf("start directory sync %s: %w", clinicID, err)
	}
	return run.GetRunID(), nil
}
