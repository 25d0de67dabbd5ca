package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/samirrijal/clinicmap/internal/workflows"
)

func TestScheduler_ScheduleSync(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")

	c.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "directory-sync-c1" && o.TaskQueue == "directory-sync"
		}),
		mock.Anything,
		workflows.DirectorySyncInput{ClinicID: "c1"},
	).Return(run, nil)

	s := workflows.NewScheduler(c, "directory-sync")
	runID, err := s.ScheduleSync(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	c.AssertExpectations(t)
}

func TestScheduler_Errors(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("frontend unavailable"))

	s := workflows.NewScheduler(c, "directory-sync")

	_, err := s.ScheduleSync(context.Background(), "")
	assert.Error(t, err)

	_, err = s.ScheduleSync(context.Background(), "c1")
	assert.ErrorContains(t, err, "frontend unavailable")
}
