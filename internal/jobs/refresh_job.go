package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// CountRefreshJobName is the name of the periodic stage-count recompute job.
const CountRefreshJobName = "stage_count_refresh"

// SnapshotJobName is the name of the periodic pipeline snapshot job.
const SnapshotJobName = "pipeline_snapshot"

// defaultJobTimeout bounds a single job run.
const defaultJobTimeout = 2 * time.Minute

// DashboardSync is the slice of the controller the jobs need. Defined
// here so the job package does not import the sync package directly.
type DashboardSync interface {
	RefreshCounts(ctx context.Context)
	PipelineSnapshot() []domain.Pipeline
}

// SnapshotStore persists the pipeline set between restarts.
type SnapshotStore interface {
	SaveAll(pipelines []domain.Pipeline) error
}

// CountRefreshJob periodically recomputes every stage count from the
// server, overwriting any optimistic bumps made since the last run.
type CountRefreshJob struct {
	controller DashboardSync
	logger     *zap.Logger
	timeout    time.Duration
}

// NewCountRefreshJob creates the recount job. A zero timeout uses the
// default.
func NewCountRefreshJob(controller DashboardSync, logger *zap.Logger, timeout time.Duration) *CountRefreshJob {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &CountRefreshJob{controller: controller, logger: logger, timeout: timeout}
}

// Run executes one recount. Called by the scheduler.
func (j *CountRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.controller.RefreshCounts(ctx)
	j.logger.Info("stage counts refreshed",
		zap.Duration("duration", time.Since(start)))
}

// SnapshotJob periodically persists the pipeline list to the local
// snapshot cache so the next process start can warm from it.
type SnapshotJob struct {
	controller DashboardSync
	store      SnapshotStore
	logger     *zap.Logger
}

// NewSnapshotJob creates the snapshot job.
func NewSnapshotJob(controller DashboardSync, store SnapshotStore, logger *zap.Logger) *SnapshotJob {
	return &SnapshotJob{controller: controller, store: store, logger: logger}
}

// Run persists the current pipeline list. Called by the scheduler.
func (j *SnapshotJob) Run() {
	pipelines := j.controller.PipelineSnapshot()
	if len(pipelines) == 0 {
		return
	}
	if err := j.store.SaveAll(pipelines); err != nil {
		j.logger.Warn("failed to persist pipeline snapshot", zap.Error(err))
		return
	}
	j.logger.Info("pipeline snapshot persisted",
		zap.Int("pipelines", len(pipelines)))
}
