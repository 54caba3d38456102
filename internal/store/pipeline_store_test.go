package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

type fakePipelineAPI struct {
	pipelines []domain.Pipeline
	fail      bool
	onGet     func()
}

func (f *fakePipelineAPI) ListPipelines(ctx context.Context, pipelineType domain.PipelineType) ([]domain.Pipeline, error) {
	if f.fail {
		return nil, &domain.RemoteError{Status: 502, Message: "Upstream nicht erreichbar"}
	}
	return append([]domain.Pipeline(nil), f.pipelines...), nil
}

func (f *fakePipelineAPI) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	if f.onGet != nil {
		f.onGet()
	}
	if f.fail {
		return nil, &domain.RemoteError{Status: 502, Message: "Upstream nicht erreichbar"}
	}
	for _, p := range f.pipelines {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, &domain.RemoteError{Status: 404, Message: "Pipeline nicht gefunden"}
}

func (f *fakePipelineAPI) CreatePipeline(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	created := *pipeline
	created.ID = "new-id"
	return &created, nil
}

func (f *fakePipelineAPI) UpdatePipeline(ctx context.Context, id string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	updated := *pipeline
	updated.ID = id
	return &updated, nil
}

func (f *fakePipelineAPI) DeletePipeline(ctx context.Context, id string) error {
	if f.fail {
		return &domain.RemoteError{Status: 502, Message: "Upstream nicht erreichbar"}
	}
	return nil
}

func TestPipelineStore_FetchAll(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}, {ID: "p2"}}}
	s := NewPipelineStore(api, zap.NewNop())

	require.NoError(t, s.FetchAll(context.Background(), domain.PipelineTypeNormal))

	assert.Len(t, s.Snapshot(), 2)
	assert.Empty(t, s.Err())
}

func TestPipelineStore_FailureKeepsPreviousCollection(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}}}
	s := NewPipelineStore(api, zap.NewNop())
	require.NoError(t, s.FetchAll(context.Background(), domain.PipelineTypeNormal))

	api.fail = true
	err := s.FetchAll(context.Background(), domain.PipelineTypeNormal)
	require.Error(t, err)

	// Previous data survives; the error message is surfaced alongside it.
	assert.Len(t, s.Snapshot(), 1)
	assert.Equal(t, "Upstream nicht erreichbar", s.Err())
}

func TestPipelineStore_ErrClearedOnSuccess(t *testing.T) {
	api := &fakePipelineAPI{fail: true}
	s := NewPipelineStore(api, zap.NewNop())

	require.Error(t, s.FetchAll(context.Background(), domain.PipelineTypeNormal))
	assert.NotEmpty(t, s.Err())

	api.fail = false
	require.NoError(t, s.FetchAll(context.Background(), domain.PipelineTypeNormal))
	assert.Empty(t, s.Err())
}

func TestPipelineStore_FetchByIDSetsCurrent(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1", Name: "Haupt"}}}
	s := NewPipelineStore(api, zap.NewNop())

	p, err := s.FetchByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Haupt", p.Name)

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "p1", cur.ID)
}

func TestPipelineStore_CancelledContextDiscardsResult(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}}}
	s := NewPipelineStore(api, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.FetchAll(ctx, domain.PipelineTypeNormal)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Snapshot())
}

func TestPipelineStore_ClearDuringFetchDiscardsResult(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}}}
	s := NewPipelineStore(api, zap.NewNop())

	api.onGet = func() { s.Clear() }
	pipeline, err := s.FetchByID(context.Background(), "p1")
	require.NoError(t, err)

	// The caller still gets the fetched value, but the cleared store does
	// not take it back.
	assert.Equal(t, "p1", pipeline.ID)
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Snapshot())
}

func TestPipelineStore_SeedOnlyWhenEmpty(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}}}
	s := NewPipelineStore(api, zap.NewNop())

	s.Seed([]domain.Pipeline{{ID: "cached-1"}, {ID: "cached-2"}})
	assert.Len(t, s.Snapshot(), 2)

	require.NoError(t, s.FetchAll(context.Background(), domain.PipelineTypeNormal))
	assert.Len(t, s.Snapshot(), 1)

	// A seed never overwrites fetched data.
	s.Seed([]domain.Pipeline{{ID: "cached-3"}})
	assert.Equal(t, "p1", s.Snapshot()[0].ID)
}

func TestPipelineStore_DeleteClearsMatchingCurrent(t *testing.T) {
	api := &fakePipelineAPI{pipelines: []domain.Pipeline{{ID: "p1"}}}
	s := NewPipelineStore(api, zap.NewNop())
	_, err := s.FetchByID(context.Background(), "p1")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "p1"))

	assert.Nil(t, s.Current())
	assert.Empty(t, s.Snapshot())
}
