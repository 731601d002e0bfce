package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"

	"credit-risk-lab/internal/domain"
)

// ComputeDatasetHash computes a deterministic fingerprint of an applicant batch.
// Formula: SHA256 over one line per applicant, in input order:
// customer_id|age|income|...|payment_to_income|default
// Floats use the shortest round-trip representation.
// Returns hex-encoded hash (64 characters).
func ComputeDatasetHash(applicants []*domain.Applicant) string {
	h := sha256.New()
	for _, a := range applicants {
		writeApplicant(h, a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeExposureHash fingerprints the (pd, lgd, ead) vector fed to a simulation.
// Formula: SHA256 over customer_id|pd|lgd|ead lines, in input order.
func ComputeExposureHash(customerIDs []int64, pd, lgd, ead []float64) string {
	h := sha256.New()
	for i := range customerIDs {
		fmt.Fprintf(h, "%d|%s|%s|%s\n",
			customerIDs[i],
			ftoa(pd[i]),
			ftoa(lgd[i]),
			ftoa(ead[i]),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeApplicant(h hash.Hash, a *domain.Applicant) {
	fmt.Fprintf(h, "%d|%d|%s|%d|%d|%d|%d|%s|%s|%d|%s|%s|%s|%s|%s|%t\n",
		a.CustomerID,
		a.Age,
		ftoa(a.Income),
		a.EmploymentLength,
		a.CreditHistoryLength,
		a.NumCreditLines,
		a.NumDelinquencies,
		ftoa(a.LoanAmount),
		ftoa(a.InterestRate),
		a.LoanTerm,
		string(a.LoanPurpose),
		string(a.HousingStatus),
		ftoa(a.DebtToIncome),
		ftoa(a.CreditUtilization),
		ftoa(a.PaymentToIncome),
		a.Default,
	)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
