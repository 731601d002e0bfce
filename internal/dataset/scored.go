package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"credit-risk-lab/internal/domain"
)

// Scored CSV column names.
const (
	ColRiskScore      = "risk_score"
	ColRiskTier       = "risk_tier"
	ColProbDefault    = "prob_default"
	ColRecommendation = "recommendation"
	ColExpectedLoss   = "expected_loss"
)

// ScoredColumns is the scored CSV layout.
var ScoredColumns = []string{
	ColCustomerID,
	ColLoanAmount,
	ColRiskScore,
	ColRiskTier,
	ColProbDefault,
	ColRecommendation,
	ColExpectedLoss,
}

// WriteScored writes scored applications to path.
func WriteScored(path string, scored []*domain.ScoredApplication) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeScored(w, scored)
	})
}

// EncodeScored writes scored applications as CSV to w.
func EncodeScored(w io.Writer, scored []*domain.ScoredApplication) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScoredColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range scored {
		record := []string{
			fmt.Sprint(s.CustomerID),
			formatFloat(s.LoanAmount),
			fmt.Sprint(s.RiskScore),
			s.RiskTier.String(),
			formatFloat(s.ProbDefault),
			s.Recommendation,
			formatFloat(s.ExpectedLoss),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write customer %d: %w", s.CustomerID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadScored loads a scored CSV. Only the scored columns are populated;
// LGD is not part of the file and is left zero.
func ReadScored(path string) ([]*domain.ScoredApplication, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeScored(f, path)
}

// DecodeScored reads scored records from r.
func DecodeScored(r io.Reader, source string) ([]*domain.ScoredApplication, error) {
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

	idx := headerIndex(header, ScoredColumns, issues)
	if err := issues.err(source); err != nil {
		return nil, err
	}

	var out []*domain.ScoredApplication
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
		s := &domain.ScoredApplication{
			Applicant: domain.Applicant{
				CustomerID: rr.int64(ColCustomerID),
				LoanAmount: rr.float(ColLoanAmount),
			},
			RiskScore:      rr.int(ColRiskScore),
			ProbDefault:    rr.float(ColProbDefault),
			Recommendation: rr.raw(ColRecommendation),
			ExpectedLoss:   rr.float(ColExpectedLoss),
		}
		tier, ok := domain.ParseRiskTier(rr.raw(ColRiskTier))
		if !ok {
			issues.add(row, ColRiskTier, rr.raw(ColRiskTier), "unknown risk tier")
		}
		s.RiskTier = tier
		out = append(out, s)
	}

	if err := issues.err(source); err != nil {
		return nil, err
	}
	return out, nil
}
