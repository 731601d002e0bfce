package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
)

func scoredApp(id int64, score int, tier domain.RiskTier, purpose domain.LoanPurpose, amount, el float64, def bool) *domain.ScoredApplication {
	return &domain.ScoredApplication{
		Applicant: domain.Applicant{
			CustomerID:  id,
			LoanAmount:  amount,
			LoanPurpose: purpose,
			Default:     def,
		},
		ProbDefault:  float64(score) / 1000,
		RiskScore:    score,
		RiskTier:     tier,
		ExpectedLoss: el,
	}
}

func sampleBatch() []*domain.ScoredApplication {
	return []*domain.ScoredApplication{
		scoredApp(1, 100, domain.TierLow, domain.PurposeBusiness, 1000, 30, false),
		scoredApp(2, 150, domain.TierLow, domain.PurposeOther, 2000, 90, false),
		scoredApp(3, 300, domain.TierMediumLow, domain.PurposeBusiness, 3000, 360, true),
		scoredApp(4, 900, domain.TierHigh, domain.PurposeBusiness, 4000, 2520, true),
		scoredApp(5, 120, domain.TierLow, domain.PurposeOther, 5000, 180, false),
	}
}

func TestAggregate_Summary(t *testing.T) {
	b, err := Aggregate(sampleBatch())
	require.NoError(t, err)

	s := b.Summary
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 314.0, s.MeanRiskScore, 1e-9)
	assert.InDelta(t, 150.0, s.MedianRiskScore, 1e-9)
	assert.InDelta(t, 15000.0, s.TotalAmount, 1e-9)
	assert.InDelta(t, 3180.0, s.TotalExpectedLoss, 1e-9)
	assert.InDelta(t, 3180.0/15000.0, s.LossRate, 1e-12)
	assert.InDelta(t, 0.4, s.DefaultRate, 1e-12)
}

func TestAggregate_TierOrdering(t *testing.T) {
	b, err := Aggregate(sampleBatch())
	require.NoError(t, err)
	require.Len(t, b.Tiers, 3)

	// Low has 3; Medium-Low and High tie at 1 and fall back to tier order.
	assert.Equal(t, domain.TierLow, b.Tiers[0].Tier)
	assert.Equal(t, 3, b.Tiers[0].Count)
	assert.InDelta(t, 8000.0, b.Tiers[0].TotalAmount, 1e-9)
	assert.InDelta(t, 300.0, b.Tiers[0].TotalExpectedLoss, 1e-9)
	assert.InDelta(t, 370.0/3, b.Tiers[0].MeanRiskScore, 1e-9)

	assert.Equal(t, domain.TierMediumLow, b.Tiers[1].Tier)
	assert.Equal(t, domain.TierHigh, b.Tiers[2].Tier)

	_, ok := b.Tier(domain.TierMedium)
	assert.False(t, ok)
	row, ok := b.Tier(domain.TierHigh)
	require.True(t, ok)
	assert.Equal(t, 1, row.Count)
}

func TestAggregate_PurposeOrdering(t *testing.T) {
	b, err := Aggregate(sampleBatch())
	require.NoError(t, err)
	require.Len(t, b.Purposes, 2)

	assert.Equal(t, domain.PurposeBusiness, b.Purposes[0].Purpose)
	assert.InDelta(t, 1300.0/3, b.Purposes[0].MeanRiskScore, 1e-9)
	assert.InDelta(t, 1.0/3, b.Purposes[0].HighRiskFraction, 1e-12)

	assert.Equal(t, domain.PurposeOther, b.Purposes[1].Purpose)
	assert.Equal(t, 0.0, b.Purposes[1].HighRiskFraction)
}

func TestAggregate_PurposeTieBreaksByName(t *testing.T) {
	batch := []*domain.ScoredApplication{
		scoredApp(1, 500, domain.TierMedium, domain.PurposeOther, 1, 0, false),
		scoredApp(2, 500, domain.TierMedium, domain.PurposeBusiness, 1, 0, false),
	}
	b, err := Aggregate(batch)
	require.NoError(t, err)
	assert.Equal(t, domain.PurposeBusiness, b.Purposes[0].Purpose)
	assert.Equal(t, domain.PurposeOther, b.Purposes[1].Purpose)
}

func TestAggregate_Idempotent(t *testing.T) {
	batch := sampleBatch()
	first, err := Aggregate(batch)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Aggregate(batch)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, int64(1), batch[0].CustomerID)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Aggregate([]*domain.ScoredApplication{nil})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
