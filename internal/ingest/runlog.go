package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/graph-directory/directory-cli/internal/db"
	"github.com/graph-directory/directory-cli/internal/model"
)

// RunLog provides read/write access to the ingestion_runs table. A run is a
// single atomic bracket around a batch: created running, terminated exactly
// once as completed or failed. Run status is an audit signal, not a
// transaction boundary — failing a run never rolls back its leads.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog backed by the given connection pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start records the beginning of a run and returns its ID.
func (r *RunLog) Start(ctx context.Context, source model.Source, instanceKey string, params json.RawMessage, createdBy string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ingestion_runs (source, instance_key, status, started_at, params, created_by)
		 VALUES ($1, $2, 'running', now(), $3, $4) RETURNING id`,
		string(source), instanceKey, params, createdBy,
	).Scan(&id)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start run for %s", source)
	}
	return id, nil
}

// Complete marks a run as successfully completed and stores its stats.
func (r *RunLog) Complete(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal stats")
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE ingestion_runs
		 SET status = 'completed', ended_at = now(), stats = $1
		 WHERE id = $2`,
		statsJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", runID)
	}
	return nil
}

// Fail marks a run as failed. The error message is stored inside the stats
// blob so the admin surface reads one column for both outcomes.
func (r *RunLog) Fail(ctx context.Context, runID string, errMsg string) error {
	statsJSON, err := json.Marshal(&model.RunStats{Error: errMsg})
	if err != nil {
		return eris.Wrap(err, "runlog: marshal failure stats")
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE ingestion_runs
		 SET status = 'failed', ended_at = now(), stats = $1
		 WHERE id = $2`,
		statsJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", runID)
	}
	return nil
}

const runColumns = `id, source, instance_key, status, started_at, ended_at, params, stats, created_by`

// List returns runs ordered most recent first, up to limit (0 = all).
func (r *RunLog) List(ctx context.Context, limit int) ([]model.IngestionRun, error) {
	sql := `SELECT ` + runColumns + ` FROM ingestion_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		sql += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []model.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get fetches one run by ID. Returns (nil, nil) when absent.
func (r *RunLog) Get(ctx context.Context, id string) (*model.IngestionRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+runColumns+` FROM ingestion_runs WHERE id = $1`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: get run %s", id)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

func scanRun(rows pgx.Rows) (*model.IngestionRun, error) {
	var run model.IngestionRun
	var source string
	var endedAt *time.Time
	var paramsJSON, statsJSON []byte
	if err := rows.Scan(&run.ID, &source, &run.InstanceKey, &run.Status,
		&run.StartedAt, &endedAt, &paramsJSON, &statsJSON, &run.CreatedBy); err != nil {
		return nil, eris.Wrap(err, "runlog: scan run")
	}
	run.Source = model.Source(source)
	run.EndedAt = endedAt
	run.Params = paramsJSON
	if statsJSON != nil {
		var stats model.RunStats
		if err := json.Unmarshal(statsJSON, &stats); err == nil {
			run.Stats = &stats
		}
	}
	return &run, nil
}
