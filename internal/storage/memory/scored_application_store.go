package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ScoredApplicationStore is an in-memory implementation of storage.ScoredApplicationStore.
type ScoredApplicationStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.ScoredApplication // batch_id -> customer_id -> row
}

// NewScoredApplicationStore creates a new in-memory scored application store.
func NewScoredApplicationStore() *ScoredApplicationStore {
	return &ScoredApplicationStore{
		data: make(map[string]map[int64]*domain.ScoredApplication),
	}
}

// InsertBulk adds a scored batch atomically. Fails entire batch on any duplicate.
func (s *ScoredApplicationStore) InsertBulk(_ context.Context, batchID string, scored []*domain.ScoredApplication) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if len(scored) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[batchID]

	batchKeys := make(map[int64]struct{}, len(scored))
	for _, sa := range scored {
		if sa == nil || !sa.RiskTier.Valid() {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[sa.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sa.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sa.CustomerID] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]*domain.ScoredApplication, len(scored))
		s.data[batchID] = existing
	}
	for _, sa := range scored {
		copy := *sa
		existing[sa.CustomerID] = &copy
	}

	return nil
}

// GetByID retrieves one scored application. Returns ErrNotFound if not exists.
func (s *ScoredApplicationStore) GetByID(_ context.Context, batchID string, customerID int64) (*domain.ScoredApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sa, exists := s.data[batchID][customerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *sa
	return &copy, nil
}

// GetAll retrieves a batch, ordered by customer_id ASC.
func (s *ScoredApplicationStore) GetAll(_ context.Context, batchID string) ([]*domain.ScoredApplication, error) {
	return s.filter(batchID, func(*domain.ScoredApplication) bool { return true }), nil
}

// GetByTier retrieves a batch's applications in one tier, ordered by customer_id ASC.
func (s *ScoredApplicationStore) GetByTier(_ context.Context, batchID string, tier domain.RiskTier) ([]*domain.ScoredApplication, error) {
	return s.filter(batchID, func(sa *domain.ScoredApplication) bool { return sa.RiskTier == tier }), nil
}

func (s *ScoredApplicationStore) filter(batchID string, keep func(*domain.ScoredApplication) bool) []*domain.ScoredApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoredApplication
	for _, sa := range s.data[batchID] {
		if keep(sa) {
			copy := *sa
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})

	return result
}

var _ storage.ScoredApplicationStore = (*ScoredApplicationStore)(nil)
