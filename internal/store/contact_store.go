package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// ContactAPI is the slice of the remote client the contact store needs.
type ContactAPI interface {
	ListContacts(ctx context.Context, consultantID, stageID string) ([]domain.RawContactRecord, error)
	CreateContact(ctx context.Context, req *domain.CreateContactRequest) (*domain.RawContactRecord, error)
}

// ContactStore holds the raw contact records of the currently visible
// stage. Records stay raw here; the derive package shapes them into the
// display view model behind the identity gate.
type ContactStore struct {
	mu      sync.Mutex
	api     ContactAPI
	logger  *zap.Logger
	records []domain.RawContactRecord
	gen     uint64
	loading bool
	errMsg  string
}

// NewContactStore creates an empty contact store.
func NewContactStore(api ContactAPI, logger *zap.Logger) *ContactStore {
	return &ContactStore{api: api, logger: logger}
}

// FetchForStage replaces the collection with the consultant's raw
// records for one stage. On failure the previous collection is kept; a
// cancelled context discards the result without applying it, as does a
// Clear that ran while the fetch was in flight.
func (s *ContactStore) FetchForStage(ctx context.Context, consultantID, stageID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	records, err := s.api.ListContacts(ctx, consultantID, stageID)
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
		// The store was cleared mid-flight; the result belongs to a view
		// that no longer exists.
		return nil
	}
	s.records = records
	s.errMsg = ""
	return nil
}

// Create creates a contact and appends the returned record.
func (s *ContactStore) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.RawContactRecord, error) {
	record, err := s.api.CreateContact(ctx, req)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	s.records = append(s.records, *record)
	s.errMsg = ""
	s.mu.Unlock()
	return record, nil
}

// Clear synchronously empties the store without touching the loading
// flag. It also advances the store's generation so fetches started
// before the Clear cannot apply their result afterwards.
func (s *ContactStore) Clear() {
	s.mu.Lock()
	s.records = nil
	s.gen++
	s.mu.Unlock()
}

// Snapshot returns a copy of the raw records.
func (s *ContactStore) Snapshot() []domain.RawContactRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RawContactRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current record count.
func (s *ContactStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// IsLoading reports whether a fetch is in flight.
func (s *ContactStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error message, empty after a success.
func (s *ContactStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *ContactStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *ContactStore) setError(err error) {
	msg := domain.UserMessage(err)
	s.logger.Warn("contact store fetch failed", zap.Error(err))
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
