// Package verification re-runs stored Monte Carlo simulations and checks
// that the stored summary is reproduced exactly.
package verification

import (
	"fmt"
	"math"

	"credit-risk-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID       string            // verified run ID
	BatchID     string            // scored batch the run was replayed from
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// CompareRuns compares a stored run with a replayed one and returns divergences.
// Worker count and creation time are not part of the reproducibility contract.
func CompareRuns(stored, replayed *domain.SimulationRun) []FieldDivergence {
	var d []FieldDivergence

	add := func(field string, expected, actual any) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.RunID != replayed.RunID {
		add("RunID", stored.RunID, replayed.RunID)
	}
	if stored.Trials != replayed.Trials {
		add("Trials", stored.Trials, replayed.Trials)
	}
	if stored.Seed != replayed.Seed {
		add("Seed", stored.Seed, replayed.Seed)
	}
	if stored.BatchSize != replayed.BatchSize {
		add("BatchSize", stored.BatchSize, replayed.BatchSize)
	}
	if stored.ApplicantCount != replayed.ApplicantCount {
		add("ApplicantCount", stored.ApplicantCount, replayed.ApplicantCount)
	}

	floats := []struct {
		field            string
		expected, actual float64
	}{
		{"ExpectedLoss", stored.ExpectedLoss, replayed.ExpectedLoss},
		{"MeanLoss", stored.MeanLoss, replayed.MeanLoss},
		{"StdDevLoss", stored.StdDevLoss, replayed.StdDevLoss},
		{"MinLoss", stored.MinLoss, replayed.MinLoss},
		{"MaxLoss", stored.MaxLoss, replayed.MaxLoss},
	}
	for _, f := range floats {
		if !floatEquals(f.expected, f.actual) {
			add(f.field, f.expected, f.actual)
		}
	}

	if len(stored.Tail) != len(replayed.Tail) {
		add("Tail", len(stored.Tail), len(replayed.Tail))
	} else {
		for i, s := range stored.Tail {
			r := replayed.Tail[i]
			if !floatEquals(s.Confidence, r.Confidence) {
				add(fmt.Sprintf("Tail[%d].Confidence", i), s.Confidence, r.Confidence)
			}
			if !floatEquals(s.VaR, r.VaR) {
				add(fmt.Sprintf("Tail[%d].VaR", i), s.VaR, r.VaR)
			}
			if !floatEquals(s.ES, r.ES) {
				add(fmt.Sprintf("Tail[%d].ES", i), s.ES, r.ES)
			}
		}
	}

	if len(stored.Distribution) != len(replayed.Distribution) {
		add("Distribution", len(stored.Distribution), len(replayed.Distribution))
	} else {
		for i, s := range stored.Distribution {
			r := replayed.Distribution[i]
			if !floatEquals(s.Percentile, r.Percentile) || !floatEquals(s.Loss, r.Loss) {
				add(fmt.Sprintf("Distribution[%d]", i), s, r)
			}
		}
	}

	return d
}

// floatEquals compares floats with an absolute tolerance scaled for large magnitudes.
func floatEquals(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= FloatTolerance*scale
}
