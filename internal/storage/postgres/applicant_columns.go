package postgres

import (
	"github.com/jackc/pgx/v5"

	"credit-risk-lab/internal/domain"
)

// applicantColumns are the applicant attributes shared by applicants and scored_applications.
var applicantColumns = []string{
	"customer_id", "age", "income", "employment_length", "credit_history_length",
	"num_credit_lines", "num_delinquencies", "loan_amount", "interest_rate", "loan_term",
	"loan_purpose", "housing_status", "debt_to_income", "credit_utilization",
	"payment_to_income", "is_default",
}

const applicantSelect = `
	customer_id, age, income, employment_length, credit_history_length,
	num_credit_lines, num_delinquencies, loan_amount, interest_rate, loan_term,
	loan_purpose, housing_status, debt_to_income, credit_utilization,
	payment_to_income, is_default`

func applicantValues(a *domain.Applicant) []any {
	return []any{
		a.CustomerID, a.Age, a.Income, a.EmploymentLength, a.CreditHistoryLength,
		a.NumCreditLines, a.NumDelinquencies, a.LoanAmount, a.InterestRate, a.LoanTerm,
		string(a.LoanPurpose), string(a.HousingStatus), a.DebtToIncome, a.CreditUtilization,
		a.PaymentToIncome, a.Default,
	}
}

// applicantScanner collects scan destinations for the applicant columns.
type applicantScanner struct {
	a       domain.Applicant
	purpose string
	housing string
}

func (s *applicantScanner) dest() []any {
	a := &s.a
	return []any{
		&a.CustomerID, &a.Age, &a.Income, &a.EmploymentLength, &a.CreditHistoryLength,
		&a.NumCreditLines, &a.NumDelinquencies, &a.LoanAmount, &a.InterestRate, &a.LoanTerm,
		&s.purpose, &s.housing, &a.DebtToIncome, &a.CreditUtilization,
		&a.PaymentToIncome, &a.Default,
	}
}

func (s *applicantScanner) applicant() domain.Applicant {
	a := s.a
	a.LoanPurpose = domain.LoanPurpose(s.purpose)
	a.HousingStatus = domain.HousingStatus(s.housing)
	return a
}

func scanApplicant(row pgx.Row) (*domain.Applicant, error) {
	var s applicantScanner
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	a := s.applicant()
	return &a, nil
}
