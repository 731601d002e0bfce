package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

func createTestApplicant(id int64) *domain.Applicant {
	return &domain.Applicant{
		CustomerID:          id,
		Age:                 42,
		Income:              61234.5,
		EmploymentLength:    8,
		CreditHistoryLength: 14,
		NumCreditLines:      6,
		NumDelinquencies:    1,
		LoanAmount:          18500,
		InterestRate:        12.25,
		LoanTerm:            domain.LoanTerm60,
		LoanPurpose:         domain.PurposeHomeImprovement,
		HousingStatus:       domain.HousingMortgage,
		DebtToIncome:        0.36,
		CreditUtilization:   0.51,
		PaymentToIncome:     0.14,
		Default:             true,
	}
}

func TestApplicantStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewApplicantStore(pool)

	batch := []*domain.Applicant{createTestApplicant(3), createTestApplicant(1), createTestApplicant(2)}
	require.NoError(t, store.InsertBulk(ctx, "ds-1", batch))

	got, err := store.GetByID(ctx, "ds-1", 1)
	require.NoError(t, err)
	assert.Equal(t, createTestApplicant(1), got)

	all, err := store.GetAll(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].CustomerID)
	assert.Equal(t, int64(3), all[2].CustomerID)

	n, err := store.Count(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestApplicantStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewApplicantStore(pool).GetByID(context.Background(), "ds-1", 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApplicantStore_DuplicateFailsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewApplicantStore(pool)

	require.NoError(t, store.InsertBulk(ctx, "ds-1", []*domain.Applicant{createTestApplicant(1)}))

	err := store.InsertBulk(ctx, "ds-1", []*domain.Applicant{createTestApplicant(2), createTestApplicant(1)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err := store.Count(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "batch must be atomic")

	// Same customer in another dataset
	require.NoError(t, store.InsertBulk(ctx, "ds-2", []*domain.Applicant{createTestApplicant(1)}))
}
