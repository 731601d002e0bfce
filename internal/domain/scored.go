package domain

// RiskTier is an ordered scorecard tier. Higher values mean higher risk.
type RiskTier int

// Risk tiers in ascending risk order.
const (
	TierLow RiskTier = iota
	TierMediumLow
	TierMedium
	TierMediumHigh
	TierHigh
)

// RiskTiers lists all tiers in ascending risk order.
var RiskTiers = []RiskTier{TierLow, TierMediumLow, TierMedium, TierMediumHigh, TierHigh}

var tierNames = map[RiskTier]string{
	TierLow:        "Low Risk",
	TierMediumLow:  "Medium-Low Risk",
	TierMedium:     "Medium Risk",
	TierMediumHigh: "Medium-High Risk",
	TierHigh:       "High Risk",
}

// String returns the display name used in reports and CSV output.
func (t RiskTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether t is one of the five tiers.
func (t RiskTier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseRiskTier resolves a display name back to its tier.
func ParseRiskTier(name string) (RiskTier, bool) {
	for tier, n := range tierNames {
		if n == name {
			return tier, true
		}
	}
	return 0, false
}

// ScoredApplication is an applicant with its scorecard assignment.
// RiskTier, LGD and Recommendation are pure functions of RiskScore.
type ScoredApplication struct {
	Applicant

	ProbDefault    float64  // [0,1]
	RiskScore      int      // round(ProbDefault * 1000)
	RiskTier       RiskTier // from score band
	LGD            float64  // per-tier constant
	ExpectedLoss   float64  // ProbDefault * LGD * LoanAmount
	Recommendation string   // per-tier action
}
