package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/rng"
)

// Probability bounds keep the logistic output strictly inside (0,1)
// even when exp under- or overflows.
var (
	minProb = math.SmallestNonzeroFloat64
	maxProb = math.Nextafter(1, 0)
)

// Labeler turns applicant features into a latent risk score, a default
// probability via the logistic link, and a Bernoulli default label.
// Noise and Bernoulli draws come from the labels stream, never the features stream.
type Labeler struct {
	weights LabelWeights
	seed    uint64
}

// NewLabeler creates a labeler for the given seed.
func NewLabeler(weights LabelWeights, seed uint64) *Labeler {
	return &Labeler{weights: weights, seed: seed}
}

// Score returns the noise-free latent score for one applicant.
func (l *Labeler) Score(a *domain.Applicant) float64 {
	w := l.weights
	return w.DebtToIncome*(a.DebtToIncome-w.DebtToIncomeCenter) +
		w.CreditUtilization*(a.CreditUtilization-w.CreditUtilizationCenter) +
		w.Delinquencies*float64(a.NumDelinquencies) -
		w.LogIncome*(math.Log(a.Income)-w.LogIncomeCenter) -
		w.HistoryLength*(float64(a.CreditHistoryLength)-w.HistoryLengthCenter) +
		w.InterestRate*(a.InterestRate-w.InterestRateCenter) +
		w.PaymentToIncome*(a.PaymentToIncome-w.PaymentToIncomeCenter)
}

// Label draws a default label for every applicant, setting Applicant.Default,
// and returns the per-applicant draws in input order.
func (l *Labeler) Label(applicants []*domain.Applicant) ([]domain.LabelDraw, error) {
	if len(applicants) == 0 {
		return nil, fmt.Errorf("%w: no applicants to label", domain.ErrInvalidArgument)
	}
	if l.weights.NoiseStdDev < 0 {
		return nil, fmt.Errorf("%w: noise stddev must be non-negative", domain.ErrInvalidArgument)
	}

	src := rng.New(l.seed, rng.StreamLabels)
	noise := l.noise(src, len(applicants))
	uniform := rand.New(src)

	draws := make([]domain.LabelDraw, len(applicants))
	for i, a := range applicants {
		if a == nil {
			return nil, fmt.Errorf("%w: nil applicant at index %d", domain.ErrInvalidArgument, i)
		}
		latent := l.Score(a) + noise[i]
		if math.IsNaN(latent) || math.IsInf(latent, 0) {
			return nil, fmt.Errorf("%w: customer %d: non-finite latent score", domain.ErrInvalidArgument, a.CustomerID)
		}
		pd := Logistic(latent)
		// Bernoulli(pd): one uniform per applicant.
		defaulted := uniform.Float64() < pd

		a.Default = defaulted
		draws[i] = domain.LabelDraw{
			CustomerID:  a.CustomerID,
			LatentScore: latent,
			ProbDefault: pd,
			Default:     defaulted,
		}
	}
	return draws, nil
}

func (l *Labeler) noise(src rand.Source, n int) []float64 {
	out := make([]float64, n)
	if l.weights.NoiseStdDev == 0 {
		return out
	}
	dist := distuv.Normal{Mu: 0, Sigma: l.weights.NoiseStdDev, Src: src}
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// Logistic maps x to 1/(1+e^-x), evaluated without overflow and kept in (0,1).
func Logistic(x float64) float64 {
	var p float64
	if x >= 0 {
		p = 1 / (1 + math.Exp(-x))
	} else {
		e := math.Exp(x)
		p = e / (1 + e)
	}
	return math.Min(math.Max(p, minProb), maxProb)
}
