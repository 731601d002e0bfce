package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// ScoredApplicationStore implements storage.ScoredApplicationStore using PostgreSQL.
type ScoredApplicationStore struct {
	pool *Pool
}

// NewScoredApplicationStore creates a new ScoredApplicationStore.
func NewScoredApplicationStore(pool *Pool) *ScoredApplicationStore {
	return &ScoredApplicationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoredApplicationStore = (*ScoredApplicationStore)(nil)

var scoreColumns = []string{"prob_default", "risk_score", "risk_tier", "lgd", "expected_loss", "recommendation"}

const scoredSelect = applicantSelect + `,
	prob_default, risk_score, risk_tier, lgd, expected_loss, recommendation`

// InsertBulk adds a scored batch with a single COPY. Fails entire batch on any duplicate.
func (s *ScoredApplicationStore) InsertBulk(ctx context.Context, batchID string, scored []*domain.ScoredApplication) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if len(scored) == 0 {
		return nil
	}
	for _, sa := range scored {
		if sa == nil || !sa.RiskTier.Valid() {
			return storage.ErrInvalidInput
		}
	}

	columns := append([]string{"batch_id"}, applicantColumns...)
	columns = append(columns, scoreColumns...)

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"scored_applications"},
		columns,
		pgx.CopyFromSlice(len(scored), func(i int) ([]any, error) {
			sa := scored[i]
			values := append([]any{batchID}, applicantValues(&sa.Applicant)...)
			return append(values,
				sa.ProbDefault, sa.RiskScore, int16(sa.RiskTier), sa.LGD, sa.ExpectedLoss, sa.Recommendation,
			), nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return fmt.Errorf("copy scored applications: %w", err)
	}
	return nil
}

// GetByID retrieves one scored application. Returns ErrNotFound if not exists.
func (s *ScoredApplicationStore) GetByID(ctx context.Context, batchID string, customerID int64) (*domain.ScoredApplication, error) {
	query := `SELECT` + scoredSelect + `
		FROM scored_applications
		WHERE batch_id = $1 AND customer_id = $2
	`

	sa, err := scanScored(s.pool.QueryRow(ctx, query, batchID, customerID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scored application by id: %w", err)
	}
	return sa, nil
}

// GetAll retrieves a batch, ordered by customer_id ASC.
func (s *ScoredApplicationStore) GetAll(ctx context.Context, batchID string) ([]*domain.ScoredApplication, error) {
	query := `SELECT` + scoredSelect + `
		FROM scored_applications
		WHERE batch_id = $1
		ORDER BY customer_id ASC
	`
	return s.query(ctx, query, batchID)
}

// GetByTier retrieves a batch's applications in one tier, ordered by customer_id ASC.
func (s *ScoredApplicationStore) GetByTier(ctx context.Context, batchID string, tier domain.RiskTier) ([]*domain.ScoredApplication, error) {
	query := `SELECT` + scoredSelect + `
		FROM scored_applications
		WHERE batch_id = $1 AND risk_tier = $2
		ORDER BY customer_id ASC
	`
	return s.query(ctx, query, batchID, int16(tier))
}

func (s *ScoredApplicationStore) query(ctx context.Context, query string, args ...any) ([]*domain.ScoredApplication, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scored applications: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScoredApplication
	for rows.Next() {
		sa, err := scanScored(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scored application: %w", err)
		}
		result = append(result, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored applications: %w", err)
	}
	return result, nil
}

func scanScored(row pgx.Row) (*domain.ScoredApplication, error) {
	var (
		as   applicantScanner
		sa   domain.ScoredApplication
		tier int16
	)
	dest := append(as.dest(), &sa.ProbDefault, &sa.RiskScore, &tier, &sa.LGD, &sa.ExpectedLoss, &sa.Recommendation)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	sa.Applicant = as.applicant()
	sa.RiskTier = domain.RiskTier(tier)
	return &sa, nil
}
