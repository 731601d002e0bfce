// Package model is the boundary to externally fitted probability-of-default models.
//
// The scorecard depends only on PDModel; how a probability was produced is
// irrelevant to it.
package model

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/synth"
)

// SurrogateRef is the model reference selecting the built-in surrogate model.
const SurrogateRef = "surrogate"

// PDModel produces a probability of default for one applicant.
type PDModel interface {
	PredictPD(a *domain.Applicant) (float64, error)
}

// Numeric feature names accepted in a coefficients file.
const (
	FeatureAge                 = "age"
	FeatureIncome              = "income"
	FeatureLogIncome           = "log_income"
	FeatureEmploymentLength    = "employment_length"
	FeatureCreditHistoryLength = "credit_history_length"
	FeatureNumCreditLines      = "num_credit_lines"
	FeatureNumDelinquencies    = "num_delinquencies"
	FeatureLoanAmount          = "loan_amount"
	FeatureInterestRate        = "interest_rate"
	FeatureLoanTerm            = "loan_term"
	FeatureDebtToIncome        = "debt_to_income"
	FeatureCreditUtilization   = "credit_utilization"
	FeaturePaymentToIncome     = "payment_to_income"
)

var numericFeatures = map[string]func(a *domain.Applicant) float64{
	FeatureAge:                 func(a *domain.Applicant) float64 { return float64(a.Age) },
	FeatureIncome:              func(a *domain.Applicant) float64 { return a.Income },
	FeatureLogIncome:           func(a *domain.Applicant) float64 { return math.Log(a.Income) },
	FeatureEmploymentLength:    func(a *domain.Applicant) float64 { return float64(a.EmploymentLength) },
	FeatureCreditHistoryLength: func(a *domain.Applicant) float64 { return float64(a.CreditHistoryLength) },
	FeatureNumCreditLines:      func(a *domain.Applicant) float64 { return float64(a.NumCreditLines) },
	FeatureNumDelinquencies:    func(a *domain.Applicant) float64 { return float64(a.NumDelinquencies) },
	FeatureLoanAmount:          func(a *domain.Applicant) float64 { return a.LoanAmount },
	FeatureInterestRate:        func(a *domain.Applicant) float64 { return a.InterestRate },
	FeatureLoanTerm:            func(a *domain.Applicant) float64 { return float64(a.LoanTerm) },
	FeatureDebtToIncome:        func(a *domain.Applicant) float64 { return a.DebtToIncome },
	FeatureCreditUtilization:   func(a *domain.Applicant) float64 { return a.CreditUtilization },
	FeaturePaymentToIncome:     func(a *domain.Applicant) float64 { return a.PaymentToIncome },
}

// LogisticSpec is the on-disk form of a fitted logistic regression.
type LogisticSpec struct {
	Name          string             `yaml:"name"`
	Intercept     float64            `yaml:"intercept"`
	Coefficients  map[string]float64 `yaml:"coefficients"`
	LoanPurpose   map[string]float64 `yaml:"loan_purpose"`
	HousingStatus map[string]float64 `yaml:"housing_status"`
}

// Logistic evaluates intercept + Σ coef·feature through the logistic link.
// Terms are summed in name order so predictions are bit-identical across runs.
type Logistic struct {
	spec  LogisticSpec
	terms []term
}

type term struct {
	coef    float64
	feature func(a *domain.Applicant) float64
}

// NewLogistic validates feature names and category values.
func NewLogistic(spec LogisticSpec) (*Logistic, error) {
	for name, coef := range spec.Coefficients {
		if _, ok := numericFeatures[name]; !ok {
			return nil, fmt.Errorf("%w: unknown feature %q", domain.ErrSchemaMismatch, name)
		}
		if math.IsNaN(coef) || math.IsInf(coef, 0) {
			return nil, fmt.Errorf("%w: coefficient %q is not finite", domain.ErrInvalidArgument, name)
		}
	}
	for value := range spec.LoanPurpose {
		if !domain.LoanPurpose(value).Valid() {
			return nil, fmt.Errorf("%w: unknown loan_purpose %q", domain.ErrSchemaMismatch, value)
		}
	}
	for value := range spec.HousingStatus {
		if !domain.HousingStatus(value).Valid() {
			return nil, fmt.Errorf("%w: unknown housing_status %q", domain.ErrSchemaMismatch, value)
		}
	}

	names := make([]string, 0, len(spec.Coefficients))
	for name := range spec.Coefficients {
		names = append(names, name)
	}
	sort.Strings(names)
	terms := make([]term, len(names))
	for i, name := range names {
		terms[i] = term{coef: spec.Coefficients[name], feature: numericFeatures[name]}
	}
	return &Logistic{spec: spec, terms: terms}, nil
}

// Name returns the model name from its file.
func (m *Logistic) Name() string {
	return m.spec.Name
}

// PredictPD implements PDModel.
func (m *Logistic) PredictPD(a *domain.Applicant) (float64, error) {
	z := m.spec.Intercept
	for _, t := range m.terms {
		z += t.coef * t.feature(a)
	}
	z += m.spec.LoanPurpose[string(a.LoanPurpose)]
	z += m.spec.HousingStatus[string(a.HousingStatus)]

	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("%w: customer %d: non-finite linear predictor", domain.ErrInvalidArgument, a.CustomerID)
	}
	return synth.Logistic(z), nil
}

// Surrogate scores applicants with the label generator's noise-free latent
// score. It stands in for a fitted model on synthetic data.
type Surrogate struct {
	labeler *synth.Labeler
}

// NewSurrogate creates a surrogate model from label weights.
func NewSurrogate(weights synth.LabelWeights) *Surrogate {
	return &Surrogate{labeler: synth.NewLabeler(weights, 0)}
}

// PredictPD implements PDModel.
func (m *Surrogate) PredictPD(a *domain.Applicant) (float64, error) {
	score := m.labeler.Score(a)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: customer %d: non-finite latent score", domain.ErrInvalidArgument, a.CustomerID)
	}
	return synth.Logistic(score), nil
}

// Load resolves a model reference: SurrogateRef selects the built-in surrogate
// with the given weights, anything else is a path to a LogisticSpec YAML file.
func Load(ref string, weights synth.LabelWeights) (PDModel, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: model reference is required", domain.ErrInvalidArgument)
	}
	if ref == SurrogateRef {
		return NewSurrogate(weights), nil
	}

	b, err := os.ReadFile(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: model file %s", domain.ErrMissingResource, ref)
		}
		return nil, fmt.Errorf("read model %s: %w", ref, err)
	}

	var spec LogisticSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("%w: parse model %s: %v", domain.ErrSchemaMismatch, ref, err)
	}
	if spec.Name == "" {
		spec.Name = ref
	}
	return NewLogistic(spec)
}

// Describe names a loaded model for report metadata: the name from its
// coefficients file when it has one, otherwise ref.
func Describe(m PDModel, ref string) string {
	if named, ok := m.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	return ref
}
