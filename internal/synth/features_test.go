package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/stats"
)

func TestGenerate_InvalidCount(t *testing.T) {
	g := NewFeatureSynthesizer(DefaultFeatureParams(), 42)

	for _, n := range []int{0, -1} {
		applicants, err := g.Generate(n)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Nil(t, applicants)
	}
}

func TestGenerate_BoundsHold(t *testing.T) {
	applicants, err := NewFeatureSynthesizer(DefaultFeatureParams(), 7).Generate(5000)
	require.NoError(t, err)
	require.Len(t, applicants, 5000)

	for i, a := range applicants {
		assert.Equal(t, int64(i+1), a.CustomerID)
		require.NoError(t, a.Validate())

		assert.GreaterOrEqual(t, a.Age, 18)
		assert.LessOrEqual(t, a.Age, 80)
		assert.GreaterOrEqual(t, a.Income, 15000.0)
		assert.LessOrEqual(t, a.Income, 250000.0)
		assert.GreaterOrEqual(t, a.EmploymentLength, 0)
		assert.LessOrEqual(t, a.EmploymentLength, 40)
		assert.GreaterOrEqual(t, a.InterestRate, 5.0)
		assert.LessOrEqual(t, a.InterestRate, 25.0)
		assert.GreaterOrEqual(t, a.DebtToIncome, 0.0)
		assert.LessOrEqual(t, a.DebtToIncome, 0.8)
		assert.GreaterOrEqual(t, a.CreditUtilization, 0.0)
		assert.LessOrEqual(t, a.CreditUtilization, 1.0)
		assert.GreaterOrEqual(t, a.PaymentToIncome, 0.05)
		assert.LessOrEqual(t, a.PaymentToIncome, 0.4)
		assert.Greater(t, a.LoanAmount, 0.0)
		assert.Contains(t, []int{36, 60}, a.LoanTerm)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := NewFeatureSynthesizer(DefaultFeatureParams(), 2024).Generate(500)
	require.NoError(t, err)
	second, err := NewFeatureSynthesizer(DefaultFeatureParams(), 2024).Generate(500)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_SeedChangesOutput(t *testing.T) {
	first, err := NewFeatureSynthesizer(DefaultFeatureParams(), 1).Generate(50)
	require.NoError(t, err)
	second, err := NewFeatureSynthesizer(DefaultFeatureParams(), 2).Generate(50)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGenerate_CategoricalMix(t *testing.T) {
	applicants, err := NewFeatureSynthesizer(DefaultFeatureParams(), 11).Generate(20000)
	require.NoError(t, err)

	purposes := make(map[domain.LoanPurpose]int)
	housing := make(map[domain.HousingStatus]int)
	term60 := 0
	for _, a := range applicants {
		purposes[a.LoanPurpose]++
		housing[a.HousingStatus]++
		if a.LoanTerm == domain.LoanTerm60 {
			term60++
		}
	}

	n := float64(len(applicants))
	assert.InDelta(t, 0.5, float64(purposes[domain.PurposeDebtConsolidation])/n, 0.02)
	assert.InDelta(t, 0.2, float64(purposes[domain.PurposeHomeImprovement])/n, 0.02)
	assert.InDelta(t, 0.35, float64(housing[domain.HousingRent])/n, 0.02)
	assert.InDelta(t, 0.3, float64(term60)/n, 0.02)
}

func TestGenerate_InvalidParams(t *testing.T) {
	params := DefaultFeatureParams()
	params.Age.StdDev = 0

	_, err := NewFeatureSynthesizer(params, 1).Generate(10)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGenerate_LogNormalScale(t *testing.T) {
	const n = 20000

	applicants, err := NewFeatureSynthesizer(DefaultFeatureParams(), 5).Generate(n)
	require.NoError(t, err)

	incomes := make([]float64, n)
	loans := make([]float64, n)
	for i, a := range applicants {
		incomes[i], loans[i] = a.Income, a.LoanAmount
	}
	// Medians sit inside the income clip, so they track exp(Mu) * Scale.
	assert.InEpsilon(t, math.Exp(10.5), stats.Median(incomes), 0.05)
	assert.InEpsilon(t, math.Exp(9.8), stats.Median(loans), 0.05)

	params := DefaultFeatureParams()
	params.LoanAmount.Scale = 2
	scaled, err := NewFeatureSynthesizer(params, 5).Generate(n)
	require.NoError(t, err)
	for i := range scaled {
		require.Equal(t, 2*applicants[i].LoanAmount, scaled[i].LoanAmount)
	}
}

func TestGenerate_ThousandScaleSaturatesIncome(t *testing.T) {
	params := DefaultFeatureParams()
	params.Income.Scale = 1000

	applicants, err := NewFeatureSynthesizer(params, 5).Generate(1000)
	require.NoError(t, err)
	for _, a := range applicants {
		require.Equal(t, domain.MaxIncome, a.Income)
	}
}
