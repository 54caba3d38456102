package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

type fakeCounter struct {
	records map[string][]domain.RawContactRecord
	fail    map[string]bool
	calls   atomic.Int64
	onList  func()
}

func (f *fakeCounter) ListContacts(ctx context.Context, consultantID, stageID string) ([]domain.RawContactRecord, error) {
	f.calls.Add(1)
	if f.onList != nil {
		f.onList()
	}
	if f.fail[stageID] {
		return nil, errors.New("upstream unavailable")
	}
	return f.records[stageID], nil
}

func recordsOf(n int) []domain.RawContactRecord {
	out := make([]domain.RawContactRecord, n)
	for i := range out {
		out[i].ID = "r"
	}
	return out
}

func stagesOf(ids ...string) []domain.Stage {
	out := make([]domain.Stage, len(ids))
	for i, id := range ids {
		out[i] = domain.Stage{ID: id, Position: i}
	}
	return out
}

func TestCountAggregator_LoadAll(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(3),
		"s2": recordsOf(0),
		"s3": recordsOf(7),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())

	got := agg.LoadAll(context.Background(), stagesOf("s1", "s2", "s3"), "consultant", "p1")

	assert.Equal(t, map[string]int{"s1": 3, "s2": 0, "s3": 7}, got)
	assert.Equal(t, got, agg.Snapshot())
}

func TestCountAggregator_FailedStageCountsAsZero(t *testing.T) {
	counter := &fakeCounter{
		records: map[string][]domain.RawContactRecord{
			"s1": recordsOf(4),
			"s3": recordsOf(2),
		},
		fail: map[string]bool{"s2": true},
	}
	agg := NewCountAggregator(counter, zap.NewNop())

	got := agg.LoadAll(context.Background(), stagesOf("s1", "s2", "s3"), "consultant", "p1")

	// The failing stage settles at zero without aborting its siblings.
	assert.Equal(t, map[string]int{"s1": 4, "s2": 0, "s3": 2}, got)
}

func TestCountAggregator_LoadAllIsIdempotent(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(5),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())
	stages := stagesOf("s1")

	first := agg.LoadAll(context.Background(), stages, "consultant", "p1")
	second := agg.LoadAll(context.Background(), stages, "consultant", "p1")

	assert.Equal(t, first, second)
}

func TestCountAggregator_BumpIsOverwrittenByRecompute(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(2),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())
	stages := stagesOf("s1")

	agg.LoadAll(context.Background(), stages, "consultant", "p1")
	agg.Bump("s1", 1)
	assert.Equal(t, 3, agg.Snapshot()["s1"])

	// The authoritative recompute wins over the optimistic bump.
	agg.LoadAll(context.Background(), stages, "consultant", "p1")
	assert.Equal(t, 2, agg.Snapshot()["s1"])
}

func TestCountAggregator_BumpNeverGoesNegative(t *testing.T) {
	agg := NewCountAggregator(&fakeCounter{}, zap.NewNop())

	agg.Bump("s1", -5)
	assert.Equal(t, 0, agg.Snapshot()["s1"])
}

func TestCountAggregator_EmptyStagesClearsCounts(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(2),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())

	agg.LoadAll(context.Background(), stagesOf("s1"), "consultant", "p1")
	got := agg.LoadAll(context.Background(), nil, "consultant", "p1")

	assert.Empty(t, got)
	assert.Empty(t, agg.Snapshot())
}

func TestCountAggregator_ClearDuringLoadDiscardsBatch(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(6),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())

	// The pipeline switches away mid-batch; the settled counts belong to
	// the cleared view and must not land.
	counter.onList = func() { agg.Clear() }
	got := agg.LoadAll(context.Background(), stagesOf("s1"), "consultant", "p1")

	assert.Empty(t, got)
	assert.Empty(t, agg.Snapshot())
}

func TestCountAggregator_CancelledContextKeepsPreviousCounts(t *testing.T) {
	counter := &fakeCounter{records: map[string][]domain.RawContactRecord{
		"s1": recordsOf(2),
	}}
	agg := NewCountAggregator(counter, zap.NewNop())
	stages := stagesOf("s1")

	agg.LoadAll(context.Background(), stages, "consultant", "p1")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	counter.records["s1"] = recordsOf(9)
	got := agg.LoadAll(cancelled, stages, "consultant", "p1")

	assert.Equal(t, 2, got["s1"])
	assert.Equal(t, 2, agg.Snapshot()["s1"])
}
