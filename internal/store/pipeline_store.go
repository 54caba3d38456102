// Package store holds the last-fetched snapshot of each remote entity
// collection together with loading and error flags. Stores are the only
// shared mutable state in the sync layer; every mutation goes through
// their methods and writes are serialized by a mutex.
//
// Stores deliberately do not de-duplicate or order concurrent fetches:
// the last settlement wins. Staleness is handled at the call site by the
// identity tracker, plus two guards before each apply: a context check,
// and a generation counter advanced by Clear so a fetch that was in
// flight when the store was cleared can never land its result into the
// view that replaced it.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// PipelineAPI is the slice of the remote client the pipeline store needs.
type PipelineAPI interface {
	ListPipelines(ctx context.Context, pipelineType domain.PipelineType) ([]domain.Pipeline, error)
	GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error)
	CreatePipeline(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error)
	UpdatePipeline(ctx context.Context, id string, pipeline *domain.Pipeline) (*domain.Pipeline, error)
	DeletePipeline(ctx context.Context, id string) error
}

// PipelineStore holds the consultant's pipeline list and the currently
// selected pipeline.
type PipelineStore struct {
	mu        sync.Mutex
	api       PipelineAPI
	logger    *zap.Logger
	pipelines []domain.Pipeline
	current   *domain.Pipeline
	gen       uint64
	loading   bool
	errMsg    string
}

// NewPipelineStore creates an empty pipeline store.
func NewPipelineStore(api PipelineAPI, logger *zap.Logger) *PipelineStore {
	return &PipelineStore{api: api, logger: logger}
}

// FetchAll replaces the collection with the server's pipeline list for
// the given type partition. On failure the previous collection is kept.
func (s *PipelineStore) FetchAll(ctx context.Context, pipelineType domain.PipelineType) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	pipelines, err := s.api.ListPipelines(ctx, pipelineType)
	if err != nil {
		s.setError(err)
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.pipelines = pipelines
	s.errMsg = ""
	return nil
}

// FetchByID loads one pipeline (with stages) and makes it current.
func (s *PipelineStore) FetchByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	pipeline, err := s.api.GetPipeline(ctx, id)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return pipeline, nil
	}
	s.current = pipeline
	s.upsertLocked(*pipeline)
	s.errMsg = ""
	return pipeline, nil
}

// Create creates a pipeline; the created pipeline becomes current.
func (s *PipelineStore) Create(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	created, err := s.api.CreatePipeline(ctx, pipeline)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	s.pipelines = append(s.pipelines, *created)
	s.current = created
	s.errMsg = ""
	s.mu.Unlock()
	return created, nil
}

// Update replaces the matching pipeline by id; the current pipeline is
// updated too when its id matches.
func (s *PipelineStore) Update(ctx context.Context, id string, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	updated, err := s.api.UpdatePipeline(ctx, id, pipeline)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	s.upsertLocked(*updated)
	if s.current != nil && s.current.ID == id {
		s.current = updated
	}
	s.errMsg = ""
	s.mu.Unlock()
	return updated, nil
}

// Delete removes the matching pipeline; the current pipeline is cleared
// when it matched.
func (s *PipelineStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeletePipeline(ctx, id); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i := range s.pipelines {
		if s.pipelines[i].ID == id {
			s.pipelines = append(s.pipelines[:i], s.pipelines[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Clear synchronously empties the store. Not a fetch; does not touch the
// loading flag. Advances the generation so in-flight fetches discard
// their result.
func (s *PipelineStore) Clear() {
	s.mu.Lock()
	s.pipelines = nil
	s.current = nil
	s.gen++
	s.mu.Unlock()
}

// Seed replaces the collection without a fetch. Used to warm the store
// from the local snapshot cache before the first network round-trip.
func (s *PipelineStore) Seed(pipelines []domain.Pipeline) {
	s.mu.Lock()
	if len(s.pipelines) == 0 {
		s.pipelines = pipelines
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the collection.
func (s *PipelineStore) Snapshot() []domain.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Pipeline, len(s.pipelines))
	copy(out, s.pipelines)
	return out
}

// Current returns the currently selected pipeline, or nil.
func (s *PipelineStore) Current() *domain.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cur := *s.current
	return &cur
}

// IsLoading reports whether a fetch is in flight.
func (s *PipelineStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error message, empty after a success.
func (s *PipelineStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *PipelineStore) upsertLocked(pipeline domain.Pipeline) {
	for i := range s.pipelines {
		if s.pipelines[i].ID == pipeline.ID {
			s.pipelines[i] = pipeline
			return
		}
	}
	s.pipelines = append(s.pipelines, pipeline)
}

func (s *PipelineStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *PipelineStore) setError(err error) {
	msg := domain.UserMessage(err)
	s.logger.Warn("pipeline store fetch failed", zap.Error(err))
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
