package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/synth"
)

func testApplicant() *domain.Applicant {
	return &domain.Applicant{
		CustomerID:          1,
		Age:                 40,
		Income:              math.Exp(10.5),
		CreditHistoryLength: 12,
		InterestRate:        12,
		LoanAmount:          10000,
		LoanTerm:            36,
		LoanPurpose:         domain.PurposeBusiness,
		HousingStatus:       domain.HousingRent,
		DebtToIncome:        0.35,
		CreditUtilization:   0.45,
		PaymentToIncome:     0.15,
	}
}

func TestLogistic_PredictPD(t *testing.T) {
	m, err := NewLogistic(LogisticSpec{
		Intercept:     -1,
		Coefficients:  map[string]float64{FeatureDebtToIncome: 2, FeatureNumDelinquencies: 0.5},
		LoanPurpose:   map[string]float64{"business": 0.3},
		HousingStatus: map[string]float64{"own": -5},
	})
	require.NoError(t, err)

	pd, err := m.PredictPD(testApplicant())
	require.NoError(t, err)
	// z = -1 + 2*0.35 + 0 + 0.3 = 0
	assert.InDelta(t, 0.5, pd, 1e-12)
}

func TestNewLogistic_UnknownFeature(t *testing.T) {
	_, err := NewLogistic(LogisticSpec{Coefficients: map[string]float64{"shoe_size": 1}})
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)

	_, err = NewLogistic(LogisticSpec{LoanPurpose: map[string]float64{"vacation": 1}})
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestSurrogate_MatchesLabelerScore(t *testing.T) {
	weights := synth.DefaultLabelWeights()
	m := NewSurrogate(weights)

	a := testApplicant()
	a.NumDelinquencies = 2
	pd, err := m.PredictPD(a)
	require.NoError(t, err)
	assert.InDelta(t, synth.Logistic(1.6), pd, 1e-9)
}

func TestLoad_Surrogate(t *testing.T) {
	m, err := Load(SurrogateRef, synth.DefaultLabelWeights())
	require.NoError(t, err)
	assert.IsType(t, &Surrogate{}, m)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	content := `
name: logreg-v3
intercept: -2.0
coefficients:
  debt_to_income: 3.0
  log_income: -0.5
loan_purpose:
  business: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := Load(path, synth.DefaultLabelWeights())
	require.NoError(t, err)

	logistic, ok := m.(*Logistic)
	require.True(t, ok)
	assert.Equal(t, "logreg-v3", logistic.Name())
	assert.Equal(t, "logreg-v3", Describe(m, path))
	assert.Equal(t, SurrogateRef, Describe(NewSurrogate(synth.DefaultLabelWeights()), SurrogateRef))

	pd, err := m.PredictPD(testApplicant())
	require.NoError(t, err)
	z := -2.0 + 3*0.35 - 0.5*10.5 + 0.4
	assert.InDelta(t, synth.Logistic(z), pd, 1e-9)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(path, synth.DefaultLabelWeights())
	require.ErrorIs(t, err, domain.ErrMissingResource)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_EmptyRef(t *testing.T) {
	_, err := Load("", synth.DefaultLabelWeights())
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
