package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

type fakeStageAPI struct {
	stages []domain.Stage
	fail   bool
	onList func()
}

func (f *fakeStageAPI) ListStages(ctx context.Context, pipelineID string) ([]domain.Stage, error) {
	if f.onList != nil {
		f.onList()
	}
	if f.fail {
		return nil, &domain.RemoteError{Status: 500, Message: "Stufen konnten nicht geladen werden"}
	}
	return append([]domain.Stage(nil), f.stages...), nil
}

func (f *fakeStageAPI) CreateStage(ctx context.Context, req *domain.CreateStageRequest) (*domain.Stage, error) {
	return &domain.Stage{ID: "created", PipelineID: req.PipelineID, Name: req.Name, Position: req.Position}, nil
}

func (f *fakeStageAPI) UpdateStage(ctx context.Context, id string, req *domain.UpdateStageRequest) (*domain.Stage, error) {
	return &domain.Stage{ID: id, Name: req.Name, Position: req.Position}, nil
}

func (f *fakeStageAPI) DeleteStage(ctx context.Context, id string) error {
	return nil
}

func TestStageStore_FetchOrdersByPosition(t *testing.T) {
	api := &fakeStageAPI{stages: []domain.Stage{
		{ID: "s3", Position: 2},
		{ID: "s1", Position: 0},
		{ID: "s2", Position: 1},
	}}
	s := NewStageStore(api, zap.NewNop())

	require.NoError(t, s.FetchForPipeline(context.Background(), "p1"))

	got := s.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
	assert.Equal(t, "s3", got[2].ID)

	first := s.First()
	require.NotNil(t, first)
	assert.Equal(t, "s1", first.ID)
}

func TestStageStore_FirstOnEmptyStore(t *testing.T) {
	s := NewStageStore(&fakeStageAPI{}, zap.NewNop())
	assert.Nil(t, s.First())
}

func TestStageStore_CreateKeepsOrder(t *testing.T) {
	api := &fakeStageAPI{stages: []domain.Stage{
		{ID: "s1", Position: 0},
		{ID: "s3", Position: 2},
	}}
	s := NewStageStore(api, zap.NewNop())
	require.NoError(t, s.FetchForPipeline(context.Background(), "p1"))

	_, err := s.Create(context.Background(), &domain.CreateStageRequest{
		PipelineID: "p1",
		Name:       "Mitte",
		Position:   1,
	})
	require.NoError(t, err)

	got := s.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "created", got[1].ID)
}

func TestStageStore_ClearDuringFetchDiscardsResult(t *testing.T) {
	api := &fakeStageAPI{stages: []domain.Stage{{ID: "s1", Position: 0}}}
	s := NewStageStore(api, zap.NewNop())

	api.onList = func() { s.Clear() }
	require.NoError(t, s.FetchForPipeline(context.Background(), "p1"))

	assert.Empty(t, s.Snapshot())
	assert.Nil(t, s.First())
}

func TestStageStore_FailureKeepsPreviousStages(t *testing.T) {
	api := &fakeStageAPI{stages: []domain.Stage{{ID: "s1"}}}
	s := NewStageStore(api, zap.NewNop())
	require.NoError(t, s.FetchForPipeline(context.Background(), "p1"))

	api.fail = true
	require.Error(t, s.FetchForPipeline(context.Background(), "p1"))

	assert.Len(t, s.Snapshot(), 1)
	assert.Equal(t, "Stufen konnten nicht geladen werden", s.Err())
}
