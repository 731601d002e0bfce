package reporting

import (
	"context"
	"fmt"
	"time"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/portfolio"
	"credit-risk-lab/internal/scorecard"
	"credit-risk-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	scoredStore storage.ScoredApplicationStore
	runStore    storage.SimulationRunStore
	scorecard   *scorecard.Scorecard
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runStore may be nil when
// reports never include simulation results.
func NewGenerator(scoredStore storage.ScoredApplicationStore, runStore storage.SimulationRunStore) *Generator {
	return &Generator{
		scoredStore: scoredStore,
		runStore:    runStore,
		scorecard:   scorecard.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithScorecard sets the band table used for tier LGD and recommendations.
func (g *Generator) WithScorecard(sc *scorecard.Scorecard) *Generator {
	g.scorecard = sc
	return g
}

// Generate builds the report for a stored batch. An empty runID omits the simulation section.
func (g *Generator) Generate(ctx context.Context, batchID, runID string) (*Report, error) {
	scored, err := g.scoredStore.GetAll(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load scored batch %s: %w", batchID, err)
	}

	breakdown, err := portfolio.Aggregate(scored)
	if err != nil {
		return nil, fmt.Errorf("aggregate batch %s: %w", batchID, err)
	}

	var run *domain.SimulationRun
	if runID != "" && g.runStore != nil {
		run, err = g.runStore.GetByID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load simulation run %s: %w", runID, err)
		}
	}

	report, err := Build(breakdown, run, g.scorecard)
	if err != nil {
		return nil, err
	}

	report.GeneratedAt = g.now()
	report.Metadata.BatchID = batchID
	return report, nil
}
