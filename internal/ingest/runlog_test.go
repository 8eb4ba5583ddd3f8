package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-directory/directory-cli/internal/model"
)

func newMockRunLog(t *testing.T) (pgxmock.PgxPoolIface, *RunLog) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRunLog(mock)
}

func TestRunLogStart(t *testing.T) {
	mock, log := newMockRunLog(t)
	params := json.RawMessage(`{"file":"leads.yaml"}`)
	mock.ExpectQuery("INSERT INTO ingestion_runs").
		WithArgs("seed", "seed-1", params, "ops@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("run1"))

	id, err := log.Start(context.Background(), model.SourceSeed, "seed-1", params, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "run1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLogComplete_StoresStats(t *testing.T) {
	mock, log := newMockRunLog(t)
	stats := &model.RunStats{Leads: 3, Created: 2, Skipped: 1}
	statsJSON, _ := json.Marshal(stats)

	mock.ExpectExec("UPDATE ingestion_runs").
		WithArgs(statsJSON, "run1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, log.Complete(context.Background(), "run1", stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLogFail_StoresErrorInStats(t *testing.T) {
	mock, log := newMockRunLog(t)
	statsJSON, _ := json.Marshal(&model.RunStats{Error: "pool exhausted"})

	mock.ExpectExec("UPDATE ingestion_runs").
		WithArgs(statsJSON, "run1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, log.Fail(context.Background(), "run1", "pool exhausted"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLogList(t *testing.T) {
	mock, log := newMockRunLog(t)
	started := time.Now().Add(-time.Hour)
	ended := time.Now()
	statsJSON := []byte(`{"leads":5,"created":5}`)

	mock.ExpectQuery("SELECT .+ FROM ingestion_runs ORDER BY started_at DESC LIMIT").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "source", "instance_key", "status", "started_at", "ended_at", "params", "stats", "created_by",
		}).
			AddRow("run2", "google_places", "gp-1", "running", ended, nil, nil, nil, "ops").
			AddRow("run1", "seed", "seed-1", "completed", started, &ended, []byte(`{}`), statsJSON, "ops"))

	runs, err := log.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, model.RunStatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].EndedAt)
	assert.Nil(t, runs[0].Stats)

	assert.Equal(t, model.SourceSeed, runs[1].Source)
	assert.NotNil(t, runs[1].EndedAt)
	require.NotNil(t, runs[1].Stats)
	assert.Equal(t, 5, runs[1].Stats.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLogGet_Absent(t *testing.T) {
	mock, log := newMockRunLog(t)
	mock.ExpectQuery("SELECT .+ FROM ingestion_runs WHERE id =").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "source", "instance_key", "status", "started_at", "ended_at", "params", "stats", "created_by",
		}))

	run, err := log.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.NoError(t, mock.ExpectationsWereMet())
}
