package sync

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// ContactCounter is the slice of the remote client the aggregator needs.
type ContactCounter interface {
	ListContacts(ctx context.Context, consultantID, stageID string) ([]domain.RawContactRecord, error)
}

// CountAggregator maintains the per-stage contact counts shown on the
// stage headers. Counts are loaded with one fetch per stage, all
// in-flight concurrently, joined all-settled: a failing stage defaults
// to zero without aborting its siblings.
//
// Two optimistic paths bump a count locally (contact created, bulk
// import) purely to bridge UI flicker; the next authoritative LoadAll
// overwrites them unconditionally.
type CountAggregator struct {
	mu      sync.Mutex
	api     ContactCounter
	logger  *zap.Logger
	counts  map[string]int
	gen     uint64
	loading bool
}

// NewCountAggregator creates an empty aggregator.
func NewCountAggregator(api ContactCounter, logger *zap.Logger) *CountAggregator {
	return &CountAggregator{
		api:    api,
		logger: logger,
		counts: make(map[string]int),
	}
}

// LoadAll recomputes every stage's count from the server. Per-stage
// results come back as explicit {StageID, Count} pairs so the join is
// keyed, not positional. The batch is discarded whole when the context
// was cancelled or a Clear ran while it was in flight.
func (a *CountAggregator) LoadAll(ctx context.Context, stages []domain.Stage, consultantID, pipelineID string) map[string]int {
	if len(stages) == 0 {
		a.mu.Lock()
		a.counts = make(map[string]int)
		a.mu.Unlock()
		return map[string]int{}
	}

	a.setLoading(true)
	defer a.setLoading(false)

	a.mu.Lock()
	gen := a.gen
	a.mu.Unlock()

	results := make([]domain.StageCount, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		i, stage := i, stage
		g.Go(func() error {
			records, err := a.api.ListContacts(gctx, consultantID, stage.ID)
			if err != nil {
				// Isolated failure: this stage shows zero, siblings are
				// unaffected and the batch still settles.
				a.logger.Warn("stage count fetch failed",
					zap.String("pipeline_id", pipelineID),
					zap.String("stage_id", stage.ID),
					zap.Error(err),
				)
				results[i] = domain.StageCount{StageID: stage.ID, Count: 0}
				return nil
			}
			results[i] = domain.StageCount{StageID: stage.ID, Count: len(records)}
			return nil
		})
	}
	// Workers never return errors, so Wait is a pure all-settled join.
	_ = g.Wait()

	if ctx.Err() != nil {
		return a.Snapshot()
	}

	fresh := make(map[string]int, len(results))
	for _, r := range results {
		fresh[r.StageID] = r.Count
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return copyCounts(a.counts)
	}
	a.counts = fresh
	return copyCounts(fresh)
}

// Bump optimistically adjusts one stage's count by delta. Used right
// after creating a contact (+1) and after a bulk import
// (+imported count); authoritative recomputes overwrite it.
func (a *CountAggregator) Bump(stageID string, delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.counts[stageID] + delta
	if next < 0 {
		next = 0
	}
	a.counts[stageID] = next
}

// Clear drops all counts and invalidates in-flight batches. Called when
// the pipeline switches.
func (a *CountAggregator) Clear() {
	a.mu.Lock()
	a.counts = make(map[string]int)
	a.gen++
	a.mu.Unlock()
}

// Snapshot returns a copy of the current count map.
func (a *CountAggregator) Snapshot() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyCounts(a.counts)
}

// IsLoading reports whether a batch recompute is in flight. It stays
// true until every per-stage fetch has settled.
func (a *CountAggregator) IsLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

func (a *CountAggregator) setLoading(v bool) {
	a.mu.Lock()
	a.loading = v
	a.mu.Unlock()
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
