package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// StageAPI is the slice of the remote client the stage store needs.
type StageAPI interface {
	ListStages(ctx context.Context, pipelineID string) ([]domain.Stage, error)
	CreateStage(ctx context.Context, req *domain.CreateStageRequest) (*domain.Stage, error)
	UpdateStage(ctx context.Context, id string, req *domain.UpdateStageRequest) (*domain.Stage, error)
	DeleteStage(ctx context.Context, id string) error
}

// StageStore holds the active pipeline's stages, ordered by position.
type StageStore struct {
	mu      sync.Mutex
	api     StageAPI
	logger  *zap.Logger
	stages  []domain.Stage
	gen     uint64
	loading bool
	errMsg  string
}

// NewStageStore creates an empty stage store.
func NewStageStore(api StageAPI, logger *zap.Logger) *StageStore {
	return &StageStore{api: api, logger: logger}
}

// FetchForPipeline replaces the collection with the pipeline's stages.
// On failure the previous collection is kept; a result arriving after
// a cancellation or a mid-flight Clear is discarded.
func (s *StageStore) FetchForPipeline(ctx context.Context, pipelineID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	stages, err := s.api.ListStages(ctx, pipelineID)
	if err != nil {
		s.setError(err)
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Slice order from the server is not significant; position is.
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Position < stages[j].Position
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.stages = stages
	s.errMsg = ""
	return nil
}

// Create adds a stage via the remote API and appends it in position order.
func (s *StageStore) Create(ctx context.Context, req *domain.CreateStageRequest) (*domain.Stage, error) {
	stage, err := s.api.CreateStage(ctx, req)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	s.stages = append(s.stages, *stage)
	sort.SliceStable(s.stages, func(i, j int) bool {
		return s.stages[i].Position < s.stages[j].Position
	})
	s.errMsg = ""
	s.mu.Unlock()
	return stage, nil
}

// Update replaces the matching stage by id.
func (s *StageStore) Update(ctx context.Context, id string, req *domain.UpdateStageRequest) (*domain.Stage, error) {
	stage, err := s.api.UpdateStage(ctx, id, req)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.stages {
		if s.stages[i].ID == id {
			s.stages[i] = *stage
			break
		}
	}
	sort.SliceStable(s.stages, func(i, j int) bool {
		return s.stages[i].Position < s.stages[j].Position
	})
	s.errMsg = ""
	s.mu.Unlock()
	return stage, nil
}

// Delete removes the matching stage by id. Cascading contact moves are
// the server's responsibility.
func (s *StageStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteStage(ctx, id); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i := range s.stages {
		if s.stages[i].ID == id {
			s.stages = append(s.stages[:i], s.stages[i+1:]...)
			break
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Clear synchronously empties the store without touching the loading
// flag and advances the generation, invalidating in-flight fetches.
func (s *StageStore) Clear() {
	s.mu.Lock()
	s.stages = nil
	s.gen++
	s.mu.Unlock()
}

// Snapshot returns a copy of the collection.
func (s *StageStore) Snapshot() []domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Stage, len(s.stages))
	copy(out, s.stages)
	return out
}

// First returns the first stage by position, or nil when empty.
func (s *StageStore) First() *domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stages) == 0 {
		return nil
	}
	first := s.stages[0]
	return &first
}

// IsLoading reports whether a fetch is in flight.
func (s *StageStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error message, empty after a success.
func (s *StageStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *StageStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *StageStore) setError(err error) {
	msg := domain.UserMessage(err)
	s.logger.Warn("stage store fetch failed", zap.Error(err))
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
