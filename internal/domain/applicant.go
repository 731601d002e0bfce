package domain

import (
	"fmt"
	"math"
)

// LoanPurpose is the declared use of the requested loan.
type LoanPurpose string

// Loan purpose constants
const (
	PurposeDebtConsolidation LoanPurpose = "debt_consolidation"
	PurposeHomeImprovement   LoanPurpose = "home_improvement"
	PurposeBusiness          LoanPurpose = "business"
	PurposeOther             LoanPurpose = "other"
)

// LoanPurposes lists every valid purpose in canonical order.
var LoanPurposes = []LoanPurpose{
	PurposeDebtConsolidation,
	PurposeHomeImprovement,
	PurposeBusiness,
	PurposeOther,
}

// HousingStatus is the applicant's residence ownership.
type HousingStatus string

// Housing status constants
const (
	HousingMortgage HousingStatus = "mortgage"
	HousingRent     HousingStatus = "rent"
	HousingOwn      HousingStatus = "own"
)

// HousingStatuses lists every valid housing status in canonical order.
var HousingStatuses = []HousingStatus{
	HousingMortgage,
	HousingRent,
	HousingOwn,
}

// Loan term constants (months)
const (
	LoanTerm36 = 36
	LoanTerm60 = 60
)

// Attribute bounds enforced after generation and on CSV input.
const (
	MinAge              = 18
	MaxAge              = 80
	MinIncome           = 15000.0
	MaxIncome           = 250000.0
	MaxEmploymentLength = 40
	MinInterestRate     = 5.0
	MaxInterestRate     = 25.0
	MinDebtToIncome     = 0.0
	MaxDebtToIncome     = 0.8
	MinUtilization      = 0.0
	MaxUtilization      = 1.0
	MinPaymentToIncome  = 0.05
	MaxPaymentToIncome  = 0.4
)

// Applicant is one credit application row.
// CustomerID is assigned at creation (1..N) and never changes.
type Applicant struct {
	CustomerID int64

	// Demographics
	Age              int
	Income           float64
	EmploymentLength int // years

	// Credit history
	CreditHistoryLength int // years
	NumCreditLines      int
	NumDelinquencies    int

	// Loan
	LoanAmount    float64 // EAD basis
	InterestRate  float64 // percent
	LoanTerm      int     // months, 36 | 60
	LoanPurpose   LoanPurpose
	HousingStatus HousingStatus

	// Ratios
	DebtToIncome      float64
	CreditUtilization float64
	PaymentToIncome   float64

	// Label
	Default bool
}

// Validate checks every documented bound and categorical domain.
func (a *Applicant) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil applicant", ErrInvalidArgument)
	}
	if a.CustomerID <= 0 {
		return fmt.Errorf("%w: customer_id must be positive, got %d", ErrInvalidArgument, a.CustomerID)
	}

	checks := []struct {
		field string
		ok    bool
		value any
	}{
		{"age", a.Age >= MinAge && a.Age <= MaxAge, a.Age},
		{"income", inRange(a.Income, MinIncome, MaxIncome), a.Income},
		{"employment_length", a.EmploymentLength >= 0 && a.EmploymentLength <= MaxEmploymentLength, a.EmploymentLength},
		{"credit_history_length", a.CreditHistoryLength >= 0, a.CreditHistoryLength},
		{"num_credit_lines", a.NumCreditLines >= 0, a.NumCreditLines},
		{"num_delinquencies", a.NumDelinquencies >= 0, a.NumDelinquencies},
		{"loan_amount", a.LoanAmount > 0 && !math.IsInf(a.LoanAmount, 0), a.LoanAmount},
		{"interest_rate", inRange(a.InterestRate, MinInterestRate, MaxInterestRate), a.InterestRate},
		{"loan_term", a.LoanTerm == LoanTerm36 || a.LoanTerm == LoanTerm60, a.LoanTerm},
		{"loan_purpose", a.LoanPurpose.Valid(), a.LoanPurpose},
		{"housing_status", a.HousingStatus.Valid(), a.HousingStatus},
		{"debt_to_income", inRange(a.DebtToIncome, MinDebtToIncome, MaxDebtToIncome), a.DebtToIncome},
		{"credit_utilization", inRange(a.CreditUtilization, MinUtilization, MaxUtilization), a.CreditUtilization},
		{"payment_to_income", inRange(a.PaymentToIncome, MinPaymentToIncome, MaxPaymentToIncome), a.PaymentToIncome},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: customer %d: %s out of range: %v", ErrInvalidArgument, a.CustomerID, c.field, c.value)
		}
	}
	return nil
}

// Valid reports whether p is one of the known purposes.
func (p LoanPurpose) Valid() bool {
	for _, known := range LoanPurposes {
		if p == known {
			return true
		}
	}
	return false
}

// Valid reports whether h is one of the known housing statuses.
func (h HousingStatus) Valid() bool {
	for _, known := range HousingStatuses {
		if h == known {
			return true
		}
	}
	return false
}

// LabelDraw is the label generator's per-applicant output.
type LabelDraw struct {
	CustomerID  int64
	LatentScore float64
	ProbDefault float64 // in (0,1)
	Default     bool
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
