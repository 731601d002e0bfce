// Package dataset reads and writes applicant and scored-application CSV files.
//
// Columns are matched by header name, so column order is free. Outputs are
// written atomically: a failed write never leaves a partial file behind.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"credit-risk-lab/internal/domain"
)

// Applicant CSV column names.
const (
	ColCustomerID          = "customer_id"
	ColAge                 = "age"
	ColIncome              = "income"
	ColEmploymentLength    = "employment_length"
	ColCreditHistoryLength = "credit_history_length"
	ColNumCreditLines      = "num_credit_lines"
	ColNumDelinquencies    = "num_delinquencies"
	ColLoanAmount          = "loan_amount"
	ColInterestRate        = "interest_rate"
	ColLoanTerm            = "loan_term"
	ColLoanPurpose         = "loan_purpose"
	ColHousingStatus       = "housing_status"
	ColDebtToIncome        = "debt_to_income"
	ColCreditUtilization   = "credit_utilization"
	ColPaymentToIncome     = "payment_to_income"
	ColDefault             = "default"
)

// ApplicantColumns is the canonical column order used when writing.
// ColDefault is optional on input.
var ApplicantColumns = []string{
	ColCustomerID,
	ColAge,
	ColIncome,
	ColEmploymentLength,
	ColCreditHistoryLength,
	ColNumCreditLines,
	ColNumDelinquencies,
	ColLoanAmount,
	ColInterestRate,
	ColLoanTerm,
	ColLoanPurpose,
	ColHousingStatus,
	ColDebtToIncome,
	ColCreditUtilization,
	ColPaymentToIncome,
}

// ApplicantFile is the decoded content of an applicant CSV.
type ApplicantFile struct {
	Applicants []*domain.Applicant
	Labeled    bool // true when the default column was present
}

// ReadApplicants loads an applicant CSV. A missing file wraps domain.ErrMissingResource;
// a malformed file returns a *SchemaError.
func ReadApplicants(path string) (*ApplicantFile, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeApplicants(f, path)
}

// DecodeApplicants reads applicant records from r. source names the input in errors.
func DecodeApplicants(r io.Reader, source string) (*ApplicantFile, error) {
	cr := newReader(r)
	issues := &issueList{}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			issues.add(0, "", "", "empty file, no header")
			return nil, issues.err(source)
		}
		return nil, fmt.Errorf("read header %s: %w", source, err)
	}
	header = append([]string(nil), header...)

	idx := headerIndex(header, ApplicantColumns, issues)
	if err := issues.err(source); err != nil {
		return nil, err
	}
	_, labeled := idx[ColDefault]

	out := &ApplicantFile{Labeled: labeled}
	seen := make(map[int64]int)
	for row := 1; !issues.full(); row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				issues.add(row, "", "", perr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("read %s row %d: %w", source, row, err)
		}

		rr := &rowReader{row: row, record: record, idx: idx, issues: issues}
		a := decodeApplicant(rr, labeled)

		if first, dup := seen[a.CustomerID]; dup {
			issues.add(row, ColCustomerID, rr.raw(ColCustomerID), fmt.Sprintf("duplicate of row %d", first))
		} else {
			seen[a.CustomerID] = row
		}
		out.Applicants = append(out.Applicants, a)
	}

	if err := issues.err(source); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeApplicant(r *rowReader, labeled bool) *domain.Applicant {
	a := &domain.Applicant{
		CustomerID:          r.int64(ColCustomerID),
		Age:                 r.int(ColAge),
		Income:              r.float(ColIncome),
		EmploymentLength:    r.int(ColEmploymentLength),
		CreditHistoryLength: r.int(ColCreditHistoryLength),
		NumCreditLines:      r.int(ColNumCreditLines),
		NumDelinquencies:    r.int(ColNumDelinquencies),
		LoanAmount:          r.float(ColLoanAmount),
		InterestRate:        r.float(ColInterestRate),
		LoanTerm:            r.int(ColLoanTerm),
		LoanPurpose:         domain.LoanPurpose(r.raw(ColLoanPurpose)),
		HousingStatus:       domain.HousingStatus(r.raw(ColHousingStatus)),
		DebtToIncome:        r.float(ColDebtToIncome),
		CreditUtilization:   r.float(ColCreditUtilization),
		PaymentToIncome:     r.float(ColPaymentToIncome),
	}
	if !a.LoanPurpose.Valid() {
		r.issues.add(r.row, ColLoanPurpose, string(a.LoanPurpose), "unknown loan purpose")
	}
	if !a.HousingStatus.Valid() {
		r.issues.add(r.row, ColHousingStatus, string(a.HousingStatus), "unknown housing status")
	}
	if labeled {
		a.Default = r.bool(ColDefault)
	}
	return a
}

// WriteApplicants writes applicants to path in canonical column order.
// withLabel adds the default column.
func WriteApplicants(path string, applicants []*domain.Applicant, withLabel bool) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeApplicants(w, applicants, withLabel)
	})
}

// EncodeApplicants writes applicants as CSV to w.
func EncodeApplicants(w io.Writer, applicants []*domain.Applicant, withLabel bool) error {
	cw := csv.NewWriter(w)

	header := ApplicantColumns
	if withLabel {
		header = append(append([]string(nil), ApplicantColumns...), ColDefault)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, a := range applicants {
		record = record[:0]
		record = append(record,
			fmt.Sprint(a.CustomerID),
			fmt.Sprint(a.Age),
			formatFloat(a.Income),
			fmt.Sprint(a.EmploymentLength),
			fmt.Sprint(a.CreditHistoryLength),
			fmt.Sprint(a.NumCreditLines),
			fmt.Sprint(a.NumDelinquencies),
			formatFloat(a.LoanAmount),
			formatFloat(a.InterestRate),
			fmt.Sprint(a.LoanTerm),
			string(a.LoanPurpose),
			string(a.HousingStatus),
			formatFloat(a.DebtToIncome),
			formatFloat(a.CreditUtilization),
			formatFloat(a.PaymentToIncome),
		)
		if withLabel {
			record = append(record, formatBool(a.Default))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write customer %d: %w", a.CustomerID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
