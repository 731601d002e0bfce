package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

func makeRun(id string, created time.Time) *domain.SimulationRun {
	return &domain.SimulationRun{
		RunID:        id,
		Trials:       1000,
		Seed:         42,
		ExpectedLoss: 750,
		MeanLoss:     748.5,
		Tail:         []domain.TailMetric{{Confidence: 0.95, VaR: 1000, ES: 1200}},
		Distribution: []domain.DistributionPoint{{Percentile: 0.5, Loss: 750}},
		CreatedAt:    created,
	}
}

func TestSimulationRunStore_InsertAndGet(t *testing.T) {
	store := NewSimulationRunStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	run := makeRun("run-a", now)
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's slices must not leak into the store
	run.Tail[0].VaR = -1

	got, err := store.GetByID(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Tail[0].VaR != 1000 {
		t.Errorf("store aliased tail slice: VaR = %f", got.Tail[0].VaR)
	}

	if err := store.Insert(ctx, makeRun("run-a", now)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SimulationRun{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSimulationRunStore_GetAllOrdering(t *testing.T) {
	store := NewSimulationRunStore()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, run := range []*domain.SimulationRun{
		makeRun("c", t0.Add(time.Hour)),
		makeRun("b", t0),
		makeRun("a", t0),
	} {
		if err := store.Insert(ctx, run); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if all[i].RunID != id {
			t.Errorf("GetAll[%d] = %s, want %s", i, all[i].RunID, id)
		}
	}
}
