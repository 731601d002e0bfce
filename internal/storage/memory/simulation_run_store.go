package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// SimulationRunStore is an in-memory implementation of storage.SimulationRunStore.
type SimulationRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationRun // keyed by run_id
}

// NewSimulationRunStore creates a new in-memory simulation run store.
func NewSimulationRunStore() *SimulationRunStore {
	return &SimulationRunStore{
		data: make(map[string]*domain.SimulationRun),
	}
}

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *SimulationRunStore) Insert(_ context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = cloneRun(run)
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *SimulationRunStore) GetByID(_ context.Context, runID string) (*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRun(run), nil
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *SimulationRunStore) GetAll(_ context.Context) ([]*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationRun, 0, len(s.data))
	for _, run := range s.data {
		result = append(result, cloneRun(run))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

// cloneRun copies a run including its slices.
func cloneRun(run *domain.SimulationRun) *domain.SimulationRun {
	copy := *run
	copy.Tail = append([]domain.TailMetric(nil), run.Tail...)
	copy.Distribution = append([]domain.DistributionPoint(nil), run.Distribution...)
	return &copy
}

var _ storage.SimulationRunStore = (*SimulationRunStore)(nil)
