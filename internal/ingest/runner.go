package ingest

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/graph-directory/directory-cli/internal/model"
)

// RunTracker is the run bracket surface the runner drives.
type RunTracker interface {
	Start(ctx context.Context, source model.Source, instanceKey string, params json.RawMessage, createdBy string) (string, error)
	Complete(ctx context.Context, runID string, stats *model.RunStats) error
	Fail(ctx context.Context, runID string, errMsg string) error
}

// Applier applies leads under an already-open run.
type Applier interface {
	Apply(ctx context.Context, runID string, lead *model.NormalizedLead) model.IngestionResult
	ApplyBatch(ctx context.Context, runID string, leads []*model.NormalizedLead) *model.RunStats
}

// Runner brackets a batch of leads in an ingestion run. With a positive
// rate it paces leads one at a time; otherwise it hands the batch to the
// concurrent applicator path. Individual lead failures only count toward
// stats — run-level failure is reserved for the bracketing itself.
type Runner struct {
	tracker RunTracker
	applier Applier
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewRunner creates a Runner. ratePerSec <= 0 disables pacing.
func NewRunner(tracker RunTracker, applier Applier, ratePerSec float64) *Runner {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &Runner{
		tracker: tracker,
		applier: applier,
		limiter: limiter,
		log:     zap.L().With(zap.String("component", "ingest.runner")),
	}
}

// Run opens a run, applies every lead, and closes the run with aggregate
// stats. It returns the run ID even on failure so the caller can point at
// the audit record.
func (r *Runner) Run(ctx context.Context, source model.Source, instanceKey, createdBy string, params json.RawMessage, leads []*model.NormalizedLead) (string, *model.RunStats, error) {
	runID, err := r.tracker.Start(ctx, source, instanceKey, params, createdBy)
	if err != nil {
		return "", nil, err
	}

	r.log.Info("run started",
		zap.String("run_id", runID),
		zap.String("source", string(source)),
		zap.String("instance_key", instanceKey),
		zap.Int("leads", len(leads)))

	var stats *model.RunStats
	if r.limiter != nil {
		stats = &model.RunStats{}
		for _, lead := range leads {
			if err := r.limiter.Wait(ctx); err != nil {
				wrapped := eris.Wrap(err, "runner: rate wait")
				if failErr := r.tracker.Fail(ctx, runID, wrapped.Error()); failErr != nil {
					r.log.Error("failed to mark run failed", zap.String("run_id", runID), zap.Error(failErr))
				}
				return runID, stats, wrapped
			}
			stats.Add(r.applier.Apply(ctx, runID, lead))
		}
	} else {
		stats = r.applier.ApplyBatch(ctx, runID, leads)
	}

	if err := r.tracker.Complete(ctx, runID, stats); err != nil {
		return runID, stats, err
	}

	r.log.Info("run completed",
		zap.String("run_id", runID),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("suggested", stats.Suggested),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	return runID, stats, nil
}
