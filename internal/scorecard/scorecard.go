// Package scorecard maps a probability of default onto the risk-tier scorecard.
package scorecard

import (
	"context"
	"fmt"
	"math"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/model"
)

// MaxScore is the top of the integer score scale.
const MaxScore = 1000

// Band is one row of the scorecard lookup table.
// Lower is inclusive; Upper is exclusive except for the final band.
type Band struct {
	Tier           domain.RiskTier
	Lower          int
	Upper          int
	Recommendation string
	LGD            float64
}

// DefaultBands is the standard five-tier table.
var DefaultBands = []Band{
	{Tier: domain.TierLow, Lower: 0, Upper: 200, Recommendation: "Auto-Approve", LGD: 0.30},
	{Tier: domain.TierMediumLow, Lower: 200, Upper: 400, Recommendation: "Approve, Standard Terms", LGD: 0.40},
	{Tier: domain.TierMedium, Lower: 400, Upper: 600, Recommendation: "Manual Review Required", LGD: 0.50},
	{Tier: domain.TierMediumHigh, Lower: 600, Upper: 800, Recommendation: "Approve, Enhanced Terms", LGD: 0.60},
	{Tier: domain.TierHigh, Lower: 800, Upper: 1000, Recommendation: "Decline / Secured Only", LGD: 0.70},
}

// Assignment is the scorecard output for one probability.
type Assignment struct {
	RiskScore      int
	Tier           domain.RiskTier
	Recommendation string
	LGD            float64
}

// Scorecard is an immutable, validated band table.
type Scorecard struct {
	bands  []Band
	maxLGD float64
}

// Default returns the standard scorecard.
func Default() *Scorecard {
	sc, err := New(DefaultBands)
	if err != nil {
		panic(err)
	}
	return sc
}

// New validates a band table: bands must be ordered, contiguous, cover
// [0, MaxScore], carry strictly increasing tiers, and have LGD in [0,1].
func New(bands []Band) (*Scorecard, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: scorecard needs at least one band", domain.ErrInvalidArgument)
	}
	if bands[0].Lower != 0 || bands[len(bands)-1].Upper != MaxScore {
		return nil, fmt.Errorf("%w: bands must cover [0,%d]", domain.ErrInvalidArgument, MaxScore)
	}

	maxLGD := 0.0
	for i, b := range bands {
		if b.Lower >= b.Upper {
			return nil, fmt.Errorf("%w: band %d is empty [%d,%d)", domain.ErrInvalidArgument, i, b.Lower, b.Upper)
		}
		if i > 0 && b.Lower != bands[i-1].Upper {
			return nil, fmt.Errorf("%w: band %d does not start where band %d ends", domain.ErrInvalidArgument, i, i-1)
		}
		if i > 0 && b.Tier <= bands[i-1].Tier {
			return nil, fmt.Errorf("%w: band %d tier is not above band %d", domain.ErrInvalidArgument, i, i-1)
		}
		if b.LGD < 0 || b.LGD > 1 {
			return nil, fmt.Errorf("%w: band %d lgd %v outside [0,1]", domain.ErrInvalidArgument, i, b.LGD)
		}
		maxLGD = math.Max(maxLGD, b.LGD)
	}

	copied := make([]Band, len(bands))
	copy(copied, bands)
	return &Scorecard{bands: copied, maxLGD: maxLGD}, nil
}

// MaxLGD returns the largest LGD of any band.
func (s *Scorecard) MaxLGD() float64 {
	return s.maxLGD
}

// Map converts a probability of default into score, tier, action and LGD.
// pd outside [0,1] (or NaN) is rejected; it is never clamped.
func (s *Scorecard) Map(pd float64) (Assignment, error) {
	if math.IsNaN(pd) || pd < 0 || pd > 1 {
		return Assignment{}, fmt.Errorf("%w: prob_default %v outside [0,1]", domain.ErrInvalidArgument, pd)
	}

	score := int(math.Round(pd * MaxScore))
	band, ok := s.lookup(score)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: no band for score %d", domain.ErrInvalidArgument, score)
	}

	return Assignment{
		RiskScore:      score,
		Tier:           band.Tier,
		Recommendation: band.Recommendation,
		LGD:            band.LGD,
	}, nil
}

// lookup evaluates bands in ascending order; first match wins.
func (s *Scorecard) lookup(score int) (Band, bool) {
	last := len(s.bands) - 1
	for i, b := range s.bands {
		if score >= b.Lower && (score < b.Upper || (i == last && score == b.Upper)) {
			return b, true
		}
	}
	return Band{}, false
}

// BandFor returns the band for a tier.
func (s *Scorecard) BandFor(tier domain.RiskTier) (Band, bool) {
	for _, b := range s.bands {
		if b.Tier == tier {
			return b, true
		}
	}
	return Band{}, false
}

// Reconcile restores LGD and recommendation on a scored record read back from
// a file, deriving the band from prob_default. A record whose risk_score or
// risk_tier disagrees with its prob_default is rejected.
func (s *Scorecard) Reconcile(sa *domain.ScoredApplication) error {
	if sa == nil {
		return fmt.Errorf("%w: nil scored application", domain.ErrInvalidArgument)
	}
	assignment, err := s.Map(sa.ProbDefault)
	if err != nil {
		return fmt.Errorf("customer %d: %w", sa.CustomerID, err)
	}
	if assignment.RiskScore != sa.RiskScore || assignment.Tier != sa.RiskTier {
		return fmt.Errorf("%w: customer %d: risk_score %d and risk_tier %q disagree with prob_default %v (want %d, %q)",
			domain.ErrInvalidArgument, sa.CustomerID, sa.RiskScore, sa.RiskTier, sa.ProbDefault,
			assignment.RiskScore, assignment.Tier)
	}

	sa.LGD = assignment.LGD
	sa.Recommendation = assignment.Recommendation
	return nil
}

// Score builds a scored application; EAD is the applicant's loan amount
// and must be positive so expected loss stays within [0, MaxLGD*EAD].
func (s *Scorecard) Score(a *domain.Applicant, pd float64) (*domain.ScoredApplication, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil applicant", domain.ErrInvalidArgument)
	}
	assignment, err := s.Map(pd)
	if err != nil {
		return nil, fmt.Errorf("customer %d: %w", a.CustomerID, err)
	}
	if !(a.LoanAmount > 0) || math.IsInf(a.LoanAmount, 0) {
		return nil, fmt.Errorf("%w: customer %d: loan_amount must be positive, got %v",
			domain.ErrInvalidArgument, a.CustomerID, a.LoanAmount)
	}

	return &domain.ScoredApplication{
		Applicant:      *a,
		ProbDefault:    pd,
		RiskScore:      assignment.RiskScore,
		RiskTier:       assignment.Tier,
		LGD:            assignment.LGD,
		ExpectedLoss:   pd * assignment.LGD * a.LoanAmount,
		Recommendation: assignment.Recommendation,
	}, nil
}

// ScoreAll validates every applicant, asks the model for its PD and scores the batch.
// All-or-nothing: the first failure aborts and no partial result is returned.
func (s *Scorecard) ScoreAll(ctx context.Context, applicants []*domain.Applicant, m model.PDModel) ([]*domain.ScoredApplication, error) {
	if len(applicants) == 0 {
		return nil, fmt.Errorf("%w: no applicants to score", domain.ErrInvalidArgument)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", domain.ErrInvalidArgument)
	}

	scored := make([]*domain.ScoredApplication, len(applicants))
	for i, a := range applicants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("%w: nil applicant at index %d", domain.ErrInvalidArgument, i)
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		pd, err := m.PredictPD(a)
		if err != nil {
			return nil, fmt.Errorf("predict customer %d: %w", a.CustomerID, err)
		}
		sa, err := s.Score(a, pd)
		if err != nil {
			return nil, err
		}
		scored[i] = sa
	}
	return scored, nil
}
