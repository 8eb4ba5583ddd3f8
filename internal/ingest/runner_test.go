package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-directory/directory-cli/internal/model"
)

type fakeTracker struct {
	started   bool
	completed *model.RunStats
	failedMsg string
	failStart bool
}

func (f *fakeTracker) Start(_ context.Context, _ model.Source, _ string, _ json.RawMessage, _ string) (string, error) {
	if f.failStart {
		return "", errors.New("insert failed")
	}
	f.started = true
	return "run1", nil
}

func (f *fakeTracker) Complete(_ context.Context, _ string, stats *model.RunStats) error {
	f.completed = stats
	return nil
}

func (f *fakeTracker) Fail(_ context.Context, _ string, msg string) error {
	f.failedMsg = msg
	return nil
}

func TestRunner_BatchPath(t *testing.T) {
	reg := newFakeRegistry()
	audit := newFakeAuditStore()
	tracker := &fakeTracker{}
	runner := NewRunner(tracker, newTestApplicator(reg, audit), 0)

	runID, stats, err := runner.Run(context.Background(), model.SourceSeed, "seed-1", "ops", nil,
		[]*model.NormalizedLead{makeLead("One"), makeLead("Two")})

	require.NoError(t, err)
	assert.Equal(t, "run1", runID)
	assert.True(t, tracker.started)
	require.NotNil(t, tracker.completed)
	assert.Equal(t, 2, stats.Created)
	assert.Empty(t, tracker.failedMsg)
}

func TestRunner_PacedPath(t *testing.T) {
	reg := newFakeRegistry()
	audit := newFakeAuditStore()
	tracker := &fakeTracker{}
	runner := NewRunner(tracker, newTestApplicator(reg, audit), 1000)

	_, stats, err := runner.Run(context.Background(), model.SourceSeed, "seed-1", "ops", nil,
		[]*model.NormalizedLead{makeLead("One"), makeLead("Two"), makeLead("Three")})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Leads)
	assert.Equal(t, 3, stats.Created)
}

func TestRunner_StartFailure(t *testing.T) {
	tracker := &fakeTracker{failStart: true}
	runner := NewRunner(tracker, newTestApplicator(newFakeRegistry(), newFakeAuditStore()), 0)

	runID, _, err := runner.Run(context.Background(), model.SourceSeed, "seed-1", "ops", nil, nil)
	require.Error(t, err)
	assert.Empty(t, runID)
}

func TestRunner_CanceledContextFailsRun(t *testing.T) {
	tracker := &fakeTracker{}
	runner := NewRunner(tracker, newTestApplicator(newFakeRegistry(), newFakeAuditStore()), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runID, _, err := runner.Run(ctx, model.SourceSeed, "seed-1", "ops", nil,
		[]*model.NormalizedLead{makeLead("One")})

	require.Error(t, err)
	assert.Equal(t, "run1", runID)
	assert.NotEmpty(t, tracker.failedMsg)
}
