package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ApplicantStore implements storage.ApplicantStore using PostgreSQL.
type ApplicantStore struct {
	pool *Pool
}

// NewApplicantStore creates a new ApplicantStore.
func NewApplicantStore(pool *Pool) *ApplicantStore {
	return &ApplicantStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ApplicantStore = (*ApplicantStore)(nil)

// InsertBulk adds a dataset's applicants with a single COPY.
// COPY is atomic, so any duplicate fails the entire batch.
func (s *ApplicantStore) InsertBulk(ctx context.Context, datasetID string, applicants []*domain.Applicant) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(applicants) == 0 {
		return nil
	}
	for _, a := range applicants {
		if a == nil {
			return storage.ErrInvalidInput
		}
	}

	columns := append([]string{"dataset_id"}, applicantColumns...)
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"applicants"},
		columns,
		pgx.CopyFromSlice(len(applicants), func(i int) ([]any, error) {
			return append([]any{datasetID}, applicantValues(applicants[i])...), nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy applicants: %w", err)
	}
	return nil
}

// GetByID retrieves one applicant. Returns ErrNotFound if not exists.
func (s *ApplicantStore) GetByID(ctx context.Context, datasetID string, customerID int64) (*domain.Applicant, error) {
	query := `SELECT` + applicantSelect + `
		FROM applicants
		WHERE dataset_id = $1 AND customer_id = $2
	`

	a, err := scanApplicant(s.pool.QueryRow(ctx, query, datasetID, customerID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get applicant by id: %w", err)
	}
	return a, nil
}

// GetAll retrieves a dataset's applicants, ordered by customer_id ASC.
func (s *ApplicantStore) GetAll(ctx context.Context, datasetID string) ([]*domain.Applicant, error) {
	query := `SELECT` + applicantSelect + `
		FROM applicants
		WHERE dataset_id = $1
		ORDER BY customer_id ASC
	`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}
	defer rows.Close()

	var result []*domain.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return result, nil
}

// Count returns the number of applicants stored for a dataset.
func (s *ApplicantStore) Count(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applicants WHERE dataset_id = $1`, datasetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return n, nil
}
