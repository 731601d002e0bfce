package storage

import (
	"context"

	"credit-risk-lab/internal/domain"
)

// ApplicantStore provides access to applicants storage.
// Applicants are grouped by dataset id (the dataset hash) and keyed by customer_id within it.
type ApplicantStore interface {
	// InsertBulk adds a dataset's applicants atomically.
	// Fails entire batch on any duplicate (dataset_id, customer_id).
	InsertBulk(ctx context.Context, datasetID string, applicants []*domain.Applicant) error

	// GetByID retrieves one applicant. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, datasetID string, customerID int64) (*domain.Applicant, error)

	// GetAll retrieves a dataset's applicants, ordered by customer_id ASC.
	GetAll(ctx context.Context, datasetID string) ([]*domain.Applicant, error)

	// Count returns the number of applicants stored for a dataset.
	Count(ctx context.Context, datasetID string) (int, error)
}

// ScoredApplicationStore provides access to scored_applications storage.
// Rows are grouped by batch id and keyed by customer_id within it.
type ScoredApplicationStore interface {
	// InsertBulk adds a scored batch atomically.
	// Fails entire batch on any duplicate (batch_id, customer_id).
	InsertBulk(ctx context.Context, batchID string, scored []*domain.ScoredApplication) error

	// GetByID retrieves one scored application. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, batchID string, customerID int64) (*domain.ScoredApplication, error)

	// GetAll retrieves a batch, ordered by customer_id ASC.
	GetAll(ctx context.Context, batchID string) ([]*domain.ScoredApplication, error)

	// GetByTier retrieves a batch's applications in one tier, ordered by customer_id ASC.
	GetByTier(ctx context.Context, batchID string, tier domain.RiskTier) ([]*domain.ScoredApplication, error)
}

// SimulationRunStore provides access to simulation_runs storage.
type SimulationRunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.SimulationRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
	GetAll(ctx context.Context) ([]*domain.SimulationRun, error)
}
