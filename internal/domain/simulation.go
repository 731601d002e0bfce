package domain

import "time"

// SimulationRun summarises one Monte Carlo run of portfolio losses.
// The raw loss distribution is not retained; only these statistics are.
type SimulationRun struct {
	RunID          string // deterministic hash
	Trials         int
	Workers        int
	BatchSize      int
	Seed           uint64
	ApplicantCount int

	// Closed-form sum of PD * LGD * EAD over the portfolio.
	ExpectedLoss float64

	// Empirical distribution
	MeanLoss   float64
	StdDevLoss float64 // sample stddev (n-1)
	MinLoss    float64
	MaxLoss    float64

	Tail         []TailMetric        // one per requested confidence, ascending
	Distribution []DistributionPoint // fixed percentile grid

	CreatedAt time.Time
}

// TailMetric holds VaR and Expected Shortfall at one confidence level.
type TailMetric struct {
	Confidence float64 // e.g. 0.95
	VaR        float64
	ES         float64
}

// DistributionPoint is one percentile of the simulated loss distribution.
type DistributionPoint struct {
	Percentile float64 // 0..1
	Loss       float64
}

// TailAt returns the tail metric for the given confidence, if computed.
func (r *SimulationRun) TailAt(confidence float64) (TailMetric, bool) {
	for _, t := range r.Tail {
		if t.Confidence == confidence {
			return t, true
		}
	}
	return TailMetric{}, false
}
