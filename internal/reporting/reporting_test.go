package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/portfolio"
	"credit-risk-lab/internal/scorecard"
	"credit-risk-lab/internal/storage"
	"credit-risk-lab/internal/storage/memory"
)

func scoredFixture(t *testing.T) []*domain.ScoredApplication {
	t.Helper()

	sc := scorecard.Default()
	inputs := []struct {
		id      int64
		pd      float64
		amount  float64
		purpose domain.LoanPurpose
	}{
		{1, 0.10, 1000, domain.PurposeDebtConsolidation},
		{2, 0.15, 2000, domain.PurposeDebtConsolidation},
		{3, 0.50, 3000, domain.PurposeBusiness},
		{4, 0.90, 4000, domain.PurposeBusiness},
	}

	var out []*domain.ScoredApplication
	for _, in := range inputs {
		sa, err := sc.Score(&domain.Applicant{CustomerID: in.id, LoanAmount: in.amount, LoanPurpose: in.purpose}, in.pd)
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		out = append(out, sa)
	}
	return out
}

func runFixture() *domain.SimulationRun {
	return &domain.SimulationRun{
		RunID:        "run-1",
		Trials:       10000,
		Seed:         42,
		ExpectedLoss: 3390,
		MeanLoss:     3391.254,
		StdDevLoss:   1500.5,
		MaxLoss:      9700,
		Tail: []domain.TailMetric{
			{Confidence: 0.95, VaR: 6270, ES: 7000.004},
			{Confidence: 0.99, VaR: 7170, ES: 8100},
		},
		Distribution: []domain.DistributionPoint{{Percentile: 0.5, Loss: 3270}},
	}
}

func buildFixture(t *testing.T, run *domain.SimulationRun) *Report {
	t.Helper()
	b, err := portfolio.Aggregate(scoredFixture(t))
	require.NoError(t, err)
	r, err := Build(b, run, nil)
	require.NoError(t, err)
	return r
}

func TestBuild(t *testing.T) {
	r := buildFixture(t, runFixture())

	assert.Equal(t, 4, r.Summary.Applications)
	assert.Equal(t, 412.5, r.Summary.AverageScore)
	assert.Equal(t, 325.0, r.Summary.MedianScore)
	assert.True(t, decimal.NewFromInt(10000).Equal(r.Summary.TotalRequested))
	assert.True(t, decimal.NewFromInt(3390).Equal(r.Summary.TotalExpectedLoss))

	require.Len(t, r.Tiers, 3)
	assert.Equal(t, domain.TierLow, r.Tiers[0].Tier)
	assert.Equal(t, 0.5, r.Tiers[0].Share)
	assert.Equal(t, 0.30, r.Tiers[0].LGD)
	assert.Equal(t, "Auto-Approve", r.Tiers[0].Recommendation)
	assert.Equal(t, domain.TierMedium, r.Tiers[1].Tier)
	assert.Equal(t, domain.TierHigh, r.Tiers[2].Tier)

	require.Len(t, r.Purposes, 2)
	assert.Equal(t, domain.PurposeBusiness, r.Purposes[0].Purpose)
	assert.Equal(t, 0.5, r.Purposes[0].HighRiskFraction)

	require.NotNil(t, r.Simulation)
	assert.Equal(t, "3391.25", r.Simulation.MeanLoss.StringFixed(2))
	require.Len(t, r.Simulation.Tail, 2)
	assert.Equal(t, "7000.00", r.Simulation.Tail[0].ES.StringFixed(2))
}

func TestBuild_NilBreakdown(t *testing.T) {
	_, err := Build(nil, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestRenderMarkdown(t *testing.T) {
	r := buildFixture(t, runFixture())
	r.GeneratedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Metadata = Metadata{BatchID: "batch-a", Model: "surrogate", Seed: 42, Generated: 10, TrainCount: 7, TestCount: 3}

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Credit Risk Report",
		"Generated: 2026-03-01T12:00:00Z",
		"| Batch | batch-a |",
		"| Execution | - |",
		"| Train / Test | 7 / 3 |",
		"| Total Requested | $10,000.00 |",
		"| Loss Rate | 33.90% |",
		"| Low Risk | 2 | 50.00% | 125.0 | $3,000.00 | $120.00 | 0.30 | Auto-Approve |",
		"| business | 2 | 700.0 | 50.00% |",
		"| VaR 95% | $6,270.00 |",
		"| ES 99% | $8,100.00 |",
		"| 50% | $3,270.00 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_NoSimulation(t *testing.T) {
	md := RenderMarkdown(buildFixture(t, nil))
	if !strings.Contains(md, "No simulation run.") {
		t.Error("expected no-simulation note")
	}
}

func TestRenderTierCSV(t *testing.T) {
	got := RenderTierCSV(buildFixture(t, nil))
	want := "risk_tier,count,share,mean_risk_score,total_amount,total_expected_loss,lgd,recommendation\n" +
		"Low Risk,2,0.500000,125.0000,3000.00,120.00,0.30,Auto-Approve\n" +
		"Medium Risk,1,0.250000,500.0000,3000.00,750.00,0.50,Manual Review Required\n" +
		"High Risk,1,0.250000,900.0000,4000.00,2520.00,0.70,Decline / Secured Only\n"
	assert.Equal(t, want, got)
}

func TestRenderPurposeCSV(t *testing.T) {
	got := RenderPurposeCSV(buildFixture(t, nil))
	want := "loan_purpose,count,mean_risk_score,high_risk_fraction\n" +
		"business,2,700.0000,0.500000\n" +
		"debt_consolidation,2,125.0000,0.000000\n"
	assert.Equal(t, want, got)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "Auto-Approve", quote("Auto-Approve"))
	assert.Equal(t, `"Approve, Standard Terms"`, quote("Approve, Standard Terms"))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, buildFixture(t, runFixture())))

	out := buf.String()
	assert.Contains(t, out, "Total Applications:   4")
	assert.Contains(t, out, "Average Risk Score:   412.5")
	assert.Contains(t, out, "Total Expected Loss:  $3,390.00")
	assert.Contains(t, out, "Loss Rate:            33.90%")
	assert.Contains(t, out, "MONTE CARLO (10000 trials)")
	assert.Contains(t, out, "High Risk")
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1000, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-1234.5, "-$1,234.50"},
	}
	for _, tt := range tests {
		if got := formatMoney(money(tt.in)); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfidenceLabel(t *testing.T) {
	assert.Equal(t, "95%", confidenceLabel(0.95))
	assert.Equal(t, "99.9%", confidenceLabel(0.999))
	assert.Equal(t, "10%", confidenceLabel(0.10))
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	scoredStore := memory.NewScoredApplicationStore()
	runStore := memory.NewSimulationRunStore()

	if err := scoredStore.InsertBulk(ctx, "batch-a", scoredFixture(t)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := runStore.Insert(ctx, runFixture()); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	fixed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(scoredStore, runStore).WithClock(func() time.Time { return fixed })

	r, err := gen.Generate(ctx, "batch-a", "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !r.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixed)
	}
	if r.Metadata.BatchID != "batch-a" {
		t.Errorf("BatchID = %q", r.Metadata.BatchID)
	}
	if r.Simulation == nil || r.Simulation.RunID != "run-1" {
		t.Fatalf("expected simulation section for run-1")
	}

	// Deterministic output
	r2, err := gen.Generate(ctx, "batch-a", "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if RenderMarkdown(r) != RenderMarkdown(r2) {
		t.Error("repeated Generate produced different markdown")
	}

	r3, err := gen.Generate(ctx, "batch-a", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if r3.Simulation != nil {
		t.Error("expected no simulation section without run id")
	}
}

func TestGenerator_Errors(t *testing.T) {
	ctx := context.Background()
	scoredStore := memory.NewScoredApplicationStore()
	gen := NewGenerator(scoredStore, memory.NewSimulationRunStore())

	_, err := gen.Generate(ctx, "missing", "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty batch: got %v, want ErrInvalidArgument", err)
	}

	if err := scoredStore.InsertBulk(ctx, "batch-a", scoredFixture(t)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	_, err = gen.Generate(ctx, "batch-a", "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown run: got %v, want ErrNotFound", err)
	}
}
