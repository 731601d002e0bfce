// Package synth generates synthetic credit applicants and their default labels.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/rng"
)

// FeatureSynthesizer draws applicant attributes from FeatureParams.
// Draws come from the features stream only, attribute by attribute over the
// whole batch, so identical (seed, n) always yields an identical dataset.
type FeatureSynthesizer struct {
	params FeatureParams
	seed   uint64
}

// NewFeatureSynthesizer creates a synthesizer for the given seed.
func NewFeatureSynthesizer(params FeatureParams, seed uint64) *FeatureSynthesizer {
	return &FeatureSynthesizer{params: params, seed: seed}
}

// Generate produces n applicants with customer ids 1..n.
// Returns ErrInvalidArgument when n <= 0.
func (g *FeatureSynthesizer) Generate(n int) ([]*domain.Applicant, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: applicant count must be positive, got %d", domain.ErrInvalidArgument, n)
	}
	if err := g.params.validate(); err != nil {
		return nil, err
	}

	src := rng.New(g.seed, rng.StreamFeatures)
	p := g.params

	age := drawNormal(src, p.Age, n)
	income := drawLogNormal(src, p.Income, n)
	employment := drawNormal(src, p.EmploymentLength, n)
	history := drawNormal(src, p.CreditHistoryLength, n)
	lines := drawPoisson(src, p.CreditLinesLambda, n)
	delinquencies := drawPoisson(src, p.DelinquenciesLambda, n)
	loanAmount := drawLogNormal(src, p.LoanAmount, n)
	rate := drawNormal(src, p.InterestRate, n)
	terms := drawCategorical(src, p.LoanTerms, n)
	dti := drawNormal(src, p.DebtToIncome, n)
	utilization := drawNormal(src, p.CreditUtilization, n)
	payment := drawNormal(src, p.PaymentToIncome, n)
	purposes := drawCategorical(src, p.LoanPurposes, n)
	housing := drawCategorical(src, p.HousingStatuses, n)

	applicants := make([]*domain.Applicant, n)
	for i := 0; i < n; i++ {
		applicants[i] = &domain.Applicant{
			CustomerID:          int64(i + 1),
			Age:                 clipInt(int(math.Round(age[i])), domain.MinAge, domain.MaxAge),
			Income:              clip(income[i], domain.MinIncome, domain.MaxIncome),
			EmploymentLength:    clipInt(int(math.Round(employment[i])), 0, domain.MaxEmploymentLength),
			CreditHistoryLength: max(0, int(math.Round(history[i]))),
			NumCreditLines:      int(lines[i]),
			NumDelinquencies:    int(delinquencies[i]),
			LoanAmount:          loanAmount[i],
			InterestRate:        clip(rate[i], domain.MinInterestRate, domain.MaxInterestRate),
			LoanTerm:            terms[i],
			LoanPurpose:         purposes[i],
			HousingStatus:       housing[i],
			DebtToIncome:        clip(dti[i], domain.MinDebtToIncome, domain.MaxDebtToIncome),
			CreditUtilization:   clip(utilization[i], domain.MinUtilization, domain.MaxUtilization),
			PaymentToIncome:     clip(payment[i], domain.MinPaymentToIncome, domain.MaxPaymentToIncome),
		}
	}
	return applicants, nil
}

func (p FeatureParams) validate() error {
	normals := map[string]NormalParam{
		"age":                   p.Age,
		"employment_length":     p.EmploymentLength,
		"credit_history_length": p.CreditHistoryLength,
		"interest_rate":         p.InterestRate,
		"debt_to_income":        p.DebtToIncome,
		"credit_utilization":    p.CreditUtilization,
		"payment_to_income":     p.PaymentToIncome,
	}
	for name, np := range normals {
		if np.StdDev <= 0 {
			return fmt.Errorf("%w: %s stddev must be positive", domain.ErrInvalidArgument, name)
		}
	}
	for name, lp := range map[string]LogNormalParam{"income": p.Income, "loan_amount": p.LoanAmount} {
		if lp.Sigma <= 0 || lp.Scale <= 0 {
			return fmt.Errorf("%w: %s sigma and scale must be positive", domain.ErrInvalidArgument, name)
		}
	}
	if p.CreditLinesLambda <= 0 || p.DelinquenciesLambda <= 0 {
		return fmt.Errorf("%w: poisson lambdas must be positive", domain.ErrInvalidArgument)
	}
	if len(p.LoanTerms) == 0 || len(p.LoanPurposes) == 0 || len(p.HousingStatuses) == 0 {
		return fmt.Errorf("%w: categorical weights must not be empty", domain.ErrInvalidArgument)
	}
	return nil
}

func drawNormal(src rand.Source, p NormalParam, n int) []float64 {
	dist := distuv.Normal{Mu: p.Mean, Sigma: p.StdDev, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

func drawLogNormal(src rand.Source, p LogNormalParam, n int) []float64 {
	dist := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand() * p.Scale
	}
	return out
}

func drawPoisson(src rand.Source, lambda float64, n int) []float64 {
	dist := distuv.Poisson{Lambda: lambda, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

func drawCategorical[T any](src rand.Source, choices []Weighted[T], n int) []T {
	weights := make([]float64, len(choices))
	for i, c := range choices {
		weights[i] = c.Weight
	}
	dist := distuv.NewCategorical(weights, src)
	out := make([]T, n)
	for i := range out {
		out[i] = choices[int(dist.Rand())].Value
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clipInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
