package verification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/montecarlo"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/storage"
)

// RunVerifier replays stored simulation runs from their scored batch.
type RunVerifier struct {
	scoredStore storage.ScoredApplicationStore
	runStore    storage.SimulationRunStore
	workers     int
	logger      logrus.FieldLogger
}

// NewRunVerifier creates a verifier. workers only affects speed; 0 means GOMAXPROCS.
func NewRunVerifier(scoredStore storage.ScoredApplicationStore, runStore storage.SimulationRunStore, workers int, logger logrus.FieldLogger) *RunVerifier {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &RunVerifier{
		scoredStore: scoredStore,
		runStore:    runStore,
		workers:     workers,
		logger:      logger,
	}
}

// Verify loads run runID, re-simulates it over batch batchID with the stored
// trials, seed, batch size and confidence levels, and compares the summaries.
// The batch must be the one the run was computed from, in customer_id order.
func (v *RunVerifier) Verify(ctx context.Context, batchID, runID string) (*VerificationResult, error) {
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	scored, err := v.scoredStore.GetAll(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: batch %s has no scored applications", domain.ErrInvalidArgument, batchID)
	}

	levels := make([]float64, len(stored.Tail))
	for i, t := range stored.Tail {
		levels[i] = t.Confidence
	}

	engine, err := montecarlo.NewEngine(montecarlo.Config{
		Trials:           stored.Trials,
		ConfidenceLevels: levels,
		Seed:             stored.Seed,
		Workers:          v.workers,
		BatchSize:        stored.BatchSize,
	}, v.logger)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	replayed, err := engine.SimulateScored(ctx, scored)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	divergences := CompareRuns(stored, replayed)
	result := &VerificationResult{
		RunID:       runID,
		BatchID:     batchID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}

	v.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"batch_id":    batchID,
		"match":       result.Match,
		"divergences": len(divergences),
	}).Info("run verified")
	return result, nil
}
