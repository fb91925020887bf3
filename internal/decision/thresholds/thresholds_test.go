package thresholds

import (
	"testing"

	"lease-risk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_OrderedBestToWorst(t *testing.T) {
	set := Default()

	ordered := set.Ordered()
	require.Len(t, ordered, 4)
	assert.Equal(t, models.TierExcellent, ordered[0].Tier)
	assert.Equal(t, models.TierPoor, ordered[3].Tier)

	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i-1].MinCreditScore, ordered[i].MinCreditScore)
	}
}

func TestDefault_FairFloorIs35(t *testing.T) {
	fair, ok := Default().For(models.TierFair)
	require.True(t, ok)
	assert.Equal(t, 35, fair.MinCreditScore)
}

func TestTerms_OnlyConcreteTiers(t *testing.T) {
	set := Default()

	assert.Nil(t, set.Terms(models.TierRejected))
	assert.Nil(t, set.Terms(models.TierManualReview))
	for _, tier := range models.ConcreteTiers {
		terms := set.Terms(tier)
		require.NotNil(t, terms, tier.String())
		assert.True(t, terms.MaxFinancedAmount.IsPositive())
	}
}

func TestDefault_AssetConstraintsWidenTowardsPoor(t *testing.T) {
	ordered := Default().Ordered()
	for i := 1; i < len(ordered); i++ {
		better, worse := ordered[i-1].Asset, ordered[i].Asset
		name := ordered[i].Tier.String()

		assert.True(t, worse.MaxVehicleValue.GreaterThan(better.MaxVehicleValue), name)
		assert.Greater(t, worse.MaxMileageKm, better.MaxMileageKm, name)
		assert.Greater(t, worse.MaxVehicleAgeMonths, better.MaxVehicleAgeMonths, name)
		assert.Greater(t, len(worse.AllowedVehicleTypes), len(better.AllowedVehicleTypes), name)
		assert.Subset(t, worse.AllowedVehicleTypes, better.AllowedVehicleTypes, name)
	}
}

func TestInsurance_OnlyOnPoor(t *testing.T) {
	set := Default()
	for _, r := range set.Ordered() {
		if r.Tier == models.TierPoor {
			assert.NotNil(t, r.Insurance)
		} else {
			assert.Nil(t, r.Insurance, r.Tier.String())
		}
	}
	assert.Equal(t, 25, set.Insurance().MinDriverAge)
}

func TestFunnel(t *testing.T) {
	set := Default()

	tier, ok := set.Funnel(func(r TierThresholds) bool { return 50 >= r.MinCreditScore })
	assert.True(t, ok)
	assert.Equal(t, models.TierFair, tier)

	tier, ok = set.Funnel(func(r TierThresholds) bool { return 5 >= r.MinCreditScore })
	assert.False(t, ok)
	assert.Equal(t, models.TierRejected, tier)
}

func TestNew_IgnoresNonConcreteRecords(t *testing.T) {
	set := New(
		TierThresholds{Tier: models.TierManualReview, MinCreditScore: 1},
		TierThresholds{Tier: models.TierGood, MinCreditScore: 50},
	)

	assert.Len(t, set.Ordered(), 1)
	_, ok := set.For(models.TierManualReview)
	assert.False(t, ok)
}
