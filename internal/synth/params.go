package synth

import "credit-risk-lab/internal/domain"

// NormalParam parameterises a Normal(Mean, StdDev) draw.
type NormalParam struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// LogNormalParam parameterises exp(Normal(Mu, Sigma)) * Scale.
type LogNormalParam struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
	Scale float64 `yaml:"scale"`
}

// FeatureParams holds the parametric families used by the synthesizer.
// Clip bounds are fixed by domain constants and are not configurable.
type FeatureParams struct {
	Age                 NormalParam    `yaml:"age"`
	Income              LogNormalParam `yaml:"income"`
	EmploymentLength    NormalParam    `yaml:"employment_length"`
	CreditHistoryLength NormalParam    `yaml:"credit_history_length"`
	CreditLinesLambda   float64        `yaml:"credit_lines_lambda"`
	DelinquenciesLambda float64        `yaml:"delinquencies_lambda"`
	LoanAmount          LogNormalParam `yaml:"loan_amount"`
	InterestRate        NormalParam    `yaml:"interest_rate"`
	DebtToIncome        NormalParam    `yaml:"debt_to_income"`
	CreditUtilization   NormalParam    `yaml:"credit_utilization"`
	PaymentToIncome     NormalParam    `yaml:"payment_to_income"`

	LoanTerms       []Weighted[int]                  `yaml:"-"`
	LoanPurposes    []Weighted[domain.LoanPurpose]   `yaml:"-"`
	HousingStatuses []Weighted[domain.HousingStatus] `yaml:"-"`
}

// Weighted pairs a categorical value with its sampling weight.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// DefaultFeatureParams returns the documented generating distributions.
//
// Income and loan amount use Scale 1: exp(Normal(10.5, 0.8)) already has a
// median near 36k, which sits inside the [15000, 250000] income clip, and the
// label score centres ln(income) on 10.5. A Scale of 1000 would put every
// income on the upper clip.
func DefaultFeatureParams() FeatureParams {
	return FeatureParams{
		Age:                 NormalParam{Mean: 45, StdDev: 12},
		Income:              LogNormalParam{Mu: 10.5, Sigma: 0.8, Scale: 1},
		EmploymentLength:    NormalParam{Mean: 8, StdDev: 5},
		CreditHistoryLength: NormalParam{Mean: 12, StdDev: 6},
		CreditLinesLambda:   4,
		DelinquenciesLambda: 0.5,
		LoanAmount:          LogNormalParam{Mu: 9.8, Sigma: 0.7, Scale: 1},
		InterestRate:        NormalParam{Mean: 12, StdDev: 4},
		DebtToIncome:        NormalParam{Mean: 0.35, StdDev: 0.15},
		CreditUtilization:   NormalParam{Mean: 0.45, StdDev: 0.25},
		PaymentToIncome:     NormalParam{Mean: 0.15, StdDev: 0.08},
		LoanTerms: []Weighted[int]{
			{Value: domain.LoanTerm36, Weight: 0.7},
			{Value: domain.LoanTerm60, Weight: 0.3},
		},
		LoanPurposes: []Weighted[domain.LoanPurpose]{
			{Value: domain.PurposeDebtConsolidation, Weight: 0.5},
			{Value: domain.PurposeHomeImprovement, Weight: 0.2},
			{Value: domain.PurposeBusiness, Weight: 0.15},
			{Value: domain.PurposeOther, Weight: 0.15},
		},
		HousingStatuses: []Weighted[domain.HousingStatus]{
			{Value: domain.HousingMortgage, Weight: 0.5},
			{Value: domain.HousingRent, Weight: 0.35},
			{Value: domain.HousingOwn, Weight: 0.15},
		},
	}
}

// LabelWeights are the coefficients of the latent risk score.
// Each term is weight * (feature - center); the income term uses ln(income).
type LabelWeights struct {
	DebtToIncome      float64 `yaml:"debt_to_income"`
	CreditUtilization float64 `yaml:"credit_utilization"`
	Delinquencies     float64 `yaml:"delinquencies"`
	LogIncome         float64 `yaml:"log_income"`     // subtracted
	HistoryLength     float64 `yaml:"history_length"` // subtracted
	InterestRate      float64 `yaml:"interest_rate"`
	PaymentToIncome   float64 `yaml:"payment_to_income"`

	DebtToIncomeCenter      float64 `yaml:"debt_to_income_center"`
	CreditUtilizationCenter float64 `yaml:"credit_utilization_center"`
	LogIncomeCenter         float64 `yaml:"log_income_center"`
	HistoryLengthCenter     float64 `yaml:"history_length_center"`
	InterestRateCenter      float64 `yaml:"interest_rate_center"`
	PaymentToIncomeCenter   float64 `yaml:"payment_to_income_center"`

	NoiseStdDev float64 `yaml:"noise_stddev"`
}

// DefaultLabelWeights returns the documented demonstration weights.
func DefaultLabelWeights() LabelWeights {
	return LabelWeights{
		DebtToIncome:      3,
		CreditUtilization: 2,
		Delinquencies:     0.8,
		LogIncome:         0.5,
		HistoryLength:     0.05,
		InterestRate:      0.1,
		PaymentToIncome:   2,

		DebtToIncomeCenter:      0.35,
		CreditUtilizationCenter: 0.45,
		LogIncomeCenter:         10.5,
		HistoryLengthCenter:     12,
		InterestRateCenter:      12,
		PaymentToIncomeCenter:   0.15,

		NoiseStdDev: 0.5,
	}
}
