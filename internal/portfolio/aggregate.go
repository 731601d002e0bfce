// Package portfolio summarises a scored batch: totals, per-tier and per-purpose breakdowns.
package portfolio

import (
	"fmt"
	"sort"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/stats"
)

// Summary holds portfolio-wide statistics.
type Summary struct {
	Count             int
	MeanRiskScore     float64
	MedianRiskScore   float64
	TotalAmount       float64
	TotalExpectedLoss float64
	LossRate          float64 // TotalExpectedLoss / TotalAmount

	// Observed default rate of the labels carried by the batch.
	// Zero for unlabeled input.
	DefaultRate float64
}

// TierRow is one row of the per-tier breakdown.
type TierRow struct {
	Tier              domain.RiskTier
	Count             int
	MeanRiskScore     float64
	TotalAmount       float64
	TotalExpectedLoss float64
}

// PurposeRow is one row of the per-purpose breakdown.
type PurposeRow struct {
	Purpose          domain.LoanPurpose
	Count            int
	MeanRiskScore    float64
	HighRiskFraction float64 // share of the purpose's applicants in the top tier
}

// Breakdown is the full aggregation result.
type Breakdown struct {
	Summary  Summary
	Tiers    []TierRow    // count DESC, then tier ASC
	Purposes []PurposeRow // mean score DESC, then purpose ASC
}

// Tier returns the row for a tier, if any applicant landed in it.
func (b *Breakdown) Tier(tier domain.RiskTier) (TierRow, bool) {
	for _, r := range b.Tiers {
		if r.Tier == tier {
			return r, true
		}
	}
	return TierRow{}, false
}

type tierAcc struct {
	count   int
	score   float64
	amount  float64
	elTotal float64
}

type purposeAcc struct {
	count int
	score float64
	high  int
}

// Aggregate computes the breakdown of a scored batch.
// It does not modify its input and returns identical results for identical input.
func Aggregate(scored []*domain.ScoredApplication) (*Breakdown, error) {
	n := len(scored)
	if n == 0 {
		return nil, fmt.Errorf("%w: no scored applications to aggregate", domain.ErrInvalidArgument)
	}

	scores := make([]float64, n)
	tiers := make(map[domain.RiskTier]*tierAcc)
	purposes := make(map[domain.LoanPurpose]*purposeAcc)

	var sum Summary
	defaults := 0
	for i, s := range scored {
		if s == nil {
			return nil, fmt.Errorf("%w: nil scored application at index %d", domain.ErrInvalidArgument, i)
		}
		scores[i] = float64(s.RiskScore)
		sum.TotalAmount += s.LoanAmount
		sum.TotalExpectedLoss += s.ExpectedLoss
		if s.Default {
			defaults++
		}

		ta, ok := tiers[s.RiskTier]
		if !ok {
			ta = &tierAcc{}
			tiers[s.RiskTier] = ta
		}
		ta.count++
		ta.score += float64(s.RiskScore)
		ta.amount += s.LoanAmount
		ta.elTotal += s.ExpectedLoss

		pa, ok := purposes[s.LoanPurpose]
		if !ok {
			pa = &purposeAcc{}
			purposes[s.LoanPurpose] = pa
		}
		pa.count++
		pa.score += float64(s.RiskScore)
		if s.RiskTier == domain.TierHigh {
			pa.high++
		}
	}

	sum.Count = n
	sum.MeanRiskScore = stats.Mean(scores)
	sum.MedianRiskScore = stats.Median(scores)
	if sum.TotalAmount > 0 {
		sum.LossRate = sum.TotalExpectedLoss / sum.TotalAmount
	}
	sum.DefaultRate = float64(defaults) / float64(n)

	return &Breakdown{
		Summary:  sum,
		Tiers:    tierRows(tiers),
		Purposes: purposeRows(purposes),
	}, nil
}

func tierRows(acc map[domain.RiskTier]*tierAcc) []TierRow {
	rows := make([]TierRow, 0, len(acc))
	for tier, a := range acc {
		rows = append(rows, TierRow{
			Tier:              tier,
			Count:             a.count,
			MeanRiskScore:     a.score / float64(a.count),
			TotalAmount:       a.amount,
			TotalExpectedLoss: a.elTotal,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Tier < rows[j].Tier
	})
	return rows
}

func purposeRows(acc map[domain.LoanPurpose]*purposeAcc) []PurposeRow {
	rows := make([]PurposeRow, 0, len(acc))
	for purpose, a := range acc {
		rows = append(rows, PurposeRow{
			Purpose:          purpose,
			Count:            a.count,
			MeanRiskScore:    a.score / float64(a.count),
			HighRiskFraction: float64(a.high) / float64(a.count),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanRiskScore != rows[j].MeanRiskScore {
			return rows[i].MeanRiskScore > rows[j].MeanRiskScore
		}
		return rows[i].Purpose < rows[j].Purpose
	})
	return rows
}
