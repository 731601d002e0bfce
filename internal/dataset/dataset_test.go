package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
)

func sampleApplicants() []*domain.Applicant {
	return []*domain.Applicant{
		{
			CustomerID: 1, Age: 35, Income: 52000.25, EmploymentLength: 6, CreditHistoryLength: 12,
			NumCreditLines: 5, NumDelinquencies: 0, LoanAmount: 15000, InterestRate: 9.75,
			LoanTerm: domain.LoanTerm36, LoanPurpose: domain.PurposeDebtConsolidation,
			HousingStatus: domain.HousingRent, DebtToIncome: 0.31, CreditUtilization: 0.42,
			PaymentToIncome: 0.11, Default: false,
		},
		{
			CustomerID: 2, Age: 61, Income: 98000, EmploymentLength: 30, CreditHistoryLength: 35,
			NumCreditLines: 9, NumDelinquencies: 2, LoanAmount: 40000.5, InterestRate: 14.1,
			LoanTerm: domain.LoanTerm60, LoanPurpose: domain.PurposeBusiness,
			HousingStatus: domain.HousingOwn, DebtToIncome: 0.55, CreditUtilization: 0.9,
			PaymentToIncome: 0.2, Default: true,
		},
	}
}

func TestApplicants_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "applicants.csv")
	want := sampleApplicants()

	require.NoError(t, WriteApplicants(path, want, true))

	got, err := ReadApplicants(path)
	require.NoError(t, err)
	assert.True(t, got.Labeled)
	assert.Equal(t, want, got.Applicants)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestDecodeApplicants_ColumnOrderFree(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, EncodeApplicants(&sb, sampleApplicants(), false))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	reordered := make([]string, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, ",")
		// rotate: last column first
		rot := append([]string{fields[len(fields)-1]}, fields[:len(fields)-1]...)
		reordered[i] = strings.Join(rot, ",")
	}

	got, err := DecodeApplicants(strings.NewReader(strings.Join(reordered, "\n")), "rotated")
	require.NoError(t, err)
	assert.False(t, got.Labeled)
	require.Len(t, got.Applicants, 2)
	assert.Equal(t, 0.2, got.Applicants[1].PaymentToIncome)
	assert.Equal(t, domain.PurposeBusiness, got.Applicants[1].LoanPurpose)
	assert.False(t, got.Applicants[1].Default)
}

func TestDecodeApplicants_MissingColumns(t *testing.T) {
	input := "customer_id,age,income\n1,30,50000\n"

	_, err := DecodeApplicants(strings.NewReader(input), "short.csv")
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	missing := schemaErr.MissingColumns()
	assert.Len(t, missing, len(ApplicantColumns)-3)
	assert.Contains(t, missing, ColLoanAmount)
	assert.Contains(t, missing, ColPaymentToIncome)
	assert.NotContains(t, missing, ColDefault)
	assert.Contains(t, err.Error(), "short.csv")
}

func TestDecodeApplicants_BadValues(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, EncodeApplicants(&sb, sampleApplicants(), true))
	input := strings.Replace(sb.String(), "52000.25", "lots", 1)
	input = strings.Replace(input, "business", "yacht", 1)

	_, err := DecodeApplicants(strings.NewReader(input), "bad.csv")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Issues, 2)

	assert.Equal(t, SchemaIssue{Row: 1, Column: ColIncome, Value: "lots", Reason: "not a number"}, schemaErr.Issues[0])
	assert.Equal(t, 2, schemaErr.Issues[1].Row)
	assert.Equal(t, ColLoanPurpose, schemaErr.Issues[1].Column)
}

func TestDecodeApplicants_DuplicateCustomer(t *testing.T) {
	batch := sampleApplicants()
	batch[1].CustomerID = 1

	var sb strings.Builder
	require.NoError(t, EncodeApplicants(&sb, batch, false))

	_, err := DecodeApplicants(strings.NewReader(sb.String()), "dup.csv")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "duplicate of row 1", schemaErr.Issues[0].Reason)
}

func TestDecodeApplicants_Empty(t *testing.T) {
	_, err := DecodeApplicants(strings.NewReader(""), "empty.csv")
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestReadApplicants_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")
	_, err := ReadApplicants(path)
	require.ErrorIs(t, err, domain.ErrMissingResource)
	assert.Contains(t, err.Error(), path)
}

func TestWriteApplicants_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteApplicants(filepath.Join(blocker, "applicants.csv"), sampleApplicants(), true)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestScored_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.csv")
	scored := []*domain.ScoredApplication{
		{
			Applicant:      domain.Applicant{CustomerID: 7, LoanAmount: 10000},
			ProbDefault:    0.25,
			RiskScore:      250,
			RiskTier:       domain.TierMediumLow,
			LGD:            0.4,
			ExpectedLoss:   1000,
			Recommendation: "Approve, Standard Terms",
		},
	}
	require.NoError(t, WriteScored(path, scored))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"customer_id,loan_amount,risk_score,risk_tier,prob_default,recommendation,expected_loss\n"+
			"7,10000,250,Medium-Low Risk,0.25,\"Approve, Standard Terms\",1000\n",
		string(raw))

	got, err := ReadScored(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TierMediumLow, got[0].RiskTier)
	assert.Equal(t, 0.25, got[0].ProbDefault)
	assert.Equal(t, "Approve, Standard Terms", got[0].Recommendation)
	assert.Equal(t, 0.0, got[0].LGD)
}

func TestDecodeScored_UnknownTier(t *testing.T) {
	input := "customer_id,loan_amount,risk_score,risk_tier,prob_default,recommendation,expected_loss\n" +
		"1,100,500,Scary,0.5,x,10\n"
	_, err := DecodeScored(strings.NewReader(input), "s.csv")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ColRiskTier, schemaErr.Issues[0].Column)
}
