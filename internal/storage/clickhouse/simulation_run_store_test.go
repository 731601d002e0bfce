package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

func createTestRun(id string, created time.Time) *domain.SimulationRun {
	return &domain.SimulationRun{
		RunID:          id,
		Trials:         10000,
		Workers:        4,
		BatchSize:      1000,
		Seed:           42,
		ApplicantCount: 3,
		ExpectedLoss:   750,
		MeanLoss:       749.2,
		StdDevLoss:     327.9,
		MinLoss:        0,
		MaxLoss:        1500,
		Tail: []domain.TailMetric{
			{Confidence: 0.95, VaR: 1000, ES: 1150},
			{Confidence: 0.99, VaR: 1500, ES: 1500},
		},
		Distribution: []domain.DistributionPoint{
			{Percentile: 0.5, Loss: 1000},
			{Percentile: 0.9, Loss: 1000},
		},
		CreatedAt: created,
	}
}

func TestSimulationRunStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSimulationRunStore(conn)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run := createTestRun("run-1", created)
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestSimulationRunStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSimulationRunStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, createTestRun("run-1", time.Now().UTC())))
	err := store.Insert(ctx, createTestRun("run-1", time.Now().UTC()))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSimulationRunStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSimulationRunStore(conn).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSimulationRunStore_GetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSimulationRunStore(conn)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, createTestRun("b", t0.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, createTestRun("a", t0)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].RunID)
	assert.Equal(t, "b", all[1].RunID)
}
