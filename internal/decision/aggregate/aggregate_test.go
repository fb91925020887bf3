package aggregate

import (
	"testing"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(id string, tier models.Tier) models.RuleResult {
	return models.RuleResult{RuleID: id, Tier: tier, Passed: tier.IsConcrete()}
}

func TestAggregate(t *testing.T) {
	th := thresholds.Default()

	tests := []struct {
		name           string
		results        []models.RuleResult
		validateOutput func(t *testing.T, out Result)
	}{
		{
			name:    "empty list is EXCELLENT",
			results: nil,
			validateOutput: func(t *testing.T, out Result) {
				assert.Equal(t, models.TierExcellent, out.FinalTier)
				assert.Nil(t, out.Trigger)
				require.NotNil(t, out.FinancialTerms)
				assert.Equal(t, 60, out.FinancialTerms.MaxTermMonths)
			},
		},
		{
			name: "first REJECTED triggers over manual review",
			results: []models.RuleResult{
				r("pep-screening", models.TierManualReview),
				r("credit-rating", models.TierGood),
				r("belgium-residency", models.TierRejected),
				r("vehicle-type", models.TierRejected),
			},
			validateOutput: func(t *testing.T, out Result) {
				assert.Equal(t, models.TierRejected, out.FinalTier)
				require.NotNil(t, out.Trigger)
				assert.Equal(t, "belgium-residency", out.Trigger.RuleID)
				assert.Nil(t, out.FinancialTerms)
				assert.Empty(t, out.ManualReviewRules)
			},
		},
		{
			name: "REJECTED evaluated last still overrides earlier manual review",
			results: []models.RuleResult{
				r("pep-screening", models.TierManualReview),
				r("payment-difficulties", models.TierManualReview),
				r("credit-rating", models.TierGood),
				r("vehicle-type", models.TierRejected),
			},
			validateOutput: func(t *testing.T, out Result) {
				assert.Equal(t, models.TierRejected, out.FinalTier)
				require.NotNil(t, out.Trigger)
				assert.Equal(t, "vehicle-type", out.Trigger.RuleID)
				assert.Nil(t, out.FinancialTerms)
				assert.Empty(t, out.ManualReviewRules)
			},
		},
		{
			name: "manual review lists every rule",
			results: []models.RuleResult{
				r("credit-rating", models.TierManualReview),
				r("company-age", models.TierPoor),
				r("bankruptcy-history", models.TierManualReview),
			},
			validateOutput: func(t *testing.T, out Result) {
				assert.Equal(t, models.TierManualReview, out.FinalTier)
				assert.Equal(t, []string{"credit-rating", "bankruptcy-history"}, out.ManualReviewRules)
				assert.Nil(t, out.FinancialTerms)
			},
		},
		{
			name: "worst concrete tier wins",
			results: []models.RuleResult{
				r("credit-rating", models.TierGood),
				r("company-age", models.TierFair),
				r("vehicle-value", models.TierExcellent),
			},
			validateOutput: func(t *testing.T, out Result) {
				assert.Equal(t, models.TierFair, out.FinalTier)
				assert.Equal(t, "company-age", out.Trigger.RuleID)
				require.NotNil(t, out.FinancialTerms)
				assert.True(t, out.FinancialTerms.MinDownPaymentPct.Equal(decimal.NewFromInt(20)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, Aggregate(tt.results, th))
		})
	}
}
