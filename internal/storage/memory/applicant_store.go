package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ApplicantStore is an in-memory implementation of storage.ApplicantStore.
type ApplicantStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.Applicant // dataset_id -> customer_id -> applicant
}

// NewApplicantStore creates a new in-memory applicant store.
func NewApplicantStore() *ApplicantStore {
	return &ApplicantStore{
		data: make(map[string]map[int64]*domain.Applicant),
	}
}

// InsertBulk adds a dataset's applicants atomically. Fails entire batch on any duplicate.
func (s *ApplicantStore) InsertBulk(_ context.Context, datasetID string, applicants []*domain.Applicant) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(applicants) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[datasetID]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[int64]struct{}, len(applicants))
	for _, a := range applicants {
		if a == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[a.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[a.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[a.CustomerID] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int64]*domain.Applicant, len(applicants))
		s.data[datasetID] = existing
	}
	for _, a := range applicants {
		copy := *a
		existing[a.CustomerID] = &copy
	}

	return nil
}

// GetByID retrieves one applicant. Returns ErrNotFound if not exists.
func (s *ApplicantStore) GetByID(_ context.Context, datasetID string, customerID int64) (*domain.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[datasetID][customerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetAll retrieves a dataset's applicants, ordered by customer_id ASC.
func (s *ApplicantStore) GetAll(_ context.Context, datasetID string) ([]*domain.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Applicant, 0, len(s.data[datasetID]))
	for _, a := range s.data[datasetID] {
		copy := *a
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})

	return result, nil
}

// Count returns the number of applicants stored for a dataset.
func (s *ApplicantStore) Count(_ context.Context, datasetID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data[datasetID]), nil
}

var _ storage.ApplicantStore = (*ApplicantStore)(nil)
