// Package reporting renders portfolio and simulation results as Markdown, CSV and console text.
package reporting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/portfolio"
	"credit-risk-lab/internal/scorecard"
)

// Report is the summary report of one scored batch.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Metadata    Metadata

	Summary  SummarySection
	Tiers    []TierRow    // count DESC, then tier ASC
	Purposes []PurposeRow // mean score DESC, then purpose ASC

	// Nil when no simulation was run for the batch.
	Simulation *SimulationSection
}

// Metadata identifies the inputs a report was built from.
type Metadata struct {
	BatchID     string
	ExecutionID string
	DatasetHash string
	Model       string
	Seed        uint64
	Generated   int // synthetic applicants generated, 0 for file input
	TrainCount  int
	TestCount   int
}

// SummarySection holds portfolio-wide totals. Currency amounts are rounded to cents.
type SummarySection struct {
	Applications      int
	AverageScore      float64
	MedianScore       float64
	TotalRequested    decimal.Decimal
	TotalExpectedLoss decimal.Decimal
	LossRate          float64
	DefaultRate       float64 // observed labels, 0 when unlabeled
}

// TierRow is one line of the tier table.
type TierRow struct {
	Tier              domain.RiskTier
	Count             int
	Share             float64 // of all applications
	MeanScore         float64
	TotalAmount       decimal.Decimal
	TotalExpectedLoss decimal.Decimal
	LGD               float64
	Recommendation    string
}

// PurposeRow is one line of the purpose table.
type PurposeRow struct {
	Purpose          domain.LoanPurpose
	Count            int
	MeanScore        float64
	HighRiskFraction float64
}

// SimulationSection summarises a Monte Carlo run.
type SimulationSection struct {
	RunID        string
	Trials       int
	Seed         uint64
	ExpectedLoss decimal.Decimal // closed form
	MeanLoss     decimal.Decimal
	StdDevLoss   decimal.Decimal
	MinLoss      decimal.Decimal
	MaxLoss      decimal.Decimal
	Tail         []TailRow
	Distribution []DistributionRow
}

// TailRow holds VaR and ES at one confidence level.
type TailRow struct {
	Confidence float64
	VaR        decimal.Decimal
	ES         decimal.Decimal
}

// DistributionRow is one percentile of the loss distribution.
type DistributionRow struct {
	Percentile float64
	Loss       decimal.Decimal
}

// Build assembles a report from an aggregation and an optional simulation run.
// sc supplies LGD and recommendation per tier.
func Build(b *portfolio.Breakdown, run *domain.SimulationRun, sc *scorecard.Scorecard) (*Report, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil breakdown", domain.ErrInvalidArgument)
	}
	if sc == nil {
		sc = scorecard.Default()
	}

	r := &Report{
		Summary: SummarySection{
			Applications:      b.Summary.Count,
			AverageScore:      b.Summary.MeanRiskScore,
			MedianScore:       b.Summary.MedianRiskScore,
			TotalRequested:    money(b.Summary.TotalAmount),
			TotalExpectedLoss: money(b.Summary.TotalExpectedLoss),
			LossRate:          b.Summary.LossRate,
			DefaultRate:       b.Summary.DefaultRate,
		},
		Tiers:    make([]TierRow, 0, len(b.Tiers)),
		Purposes: make([]PurposeRow, 0, len(b.Purposes)),
	}

	for _, t := range b.Tiers {
		band, ok := sc.BandFor(t.Tier)
		if !ok {
			return nil, fmt.Errorf("%w: tier %s not in scorecard", domain.ErrInvalidArgument, t.Tier)
		}
		r.Tiers = append(r.Tiers, TierRow{
			Tier:              t.Tier,
			Count:             t.Count,
			Share:             float64(t.Count) / float64(b.Summary.Count),
			MeanScore:         t.MeanRiskScore,
			TotalAmount:       money(t.TotalAmount),
			TotalExpectedLoss: money(t.TotalExpectedLoss),
			LGD:               band.LGD,
			Recommendation:    band.Recommendation,
		})
	}

	for _, p := range b.Purposes {
		r.Purposes = append(r.Purposes, PurposeRow{
			Purpose:          p.Purpose,
			Count:            p.Count,
			MeanScore:        p.MeanRiskScore,
			HighRiskFraction: p.HighRiskFraction,
		})
	}

	if run != nil {
		r.Simulation = simulationSection(run)
	}
	return r, nil
}

func simulationSection(run *domain.SimulationRun) *SimulationSection {
	s := &SimulationSection{
		RunID:        run.RunID,
		Trials:       run.Trials,
		Seed:         run.Seed,
		ExpectedLoss: money(run.ExpectedLoss),
		MeanLoss:     money(run.MeanLoss),
		StdDevLoss:   money(run.StdDevLoss),
		MinLoss:      money(run.MinLoss),
		MaxLoss:      money(run.MaxLoss),
	}
	for _, t := range run.Tail {
		s.Tail = append(s.Tail, TailRow{Confidence: t.Confidence, VaR: money(t.VaR), ES: money(t.ES)})
	}
	for _, d := range run.Distribution {
		s.Distribution = append(s.Distribution, DistributionRow{Percentile: d.Percentile, Loss: money(d.Loss)})
	}
	return s
}
