// internal/decision/aggregate/aggregate.go
package aggregate

import (
	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

type Result struct {
	FinalTier         models.Tier
	Trigger           *models.RuleResult
	ManualReviewRules []string
	FinancialTerms    *models.FinancialTerms
}

// Aggregate folds rule results into one tier. REJECTED beats MANUAL_REVIEW,
// which beats the worst concrete tier. No results means EXCELLENT.
func Aggregate(results []models.RuleResult, th *thresholds.Set) Result {
	var out Result

	for i := range results {
		if results[i].Tier == models.TierRejected {
			trigger := results[i]
			out.FinalTier = models.TierRejected
			out.Trigger = &trigger
			return out
		}
	}

	for _, r := range results {
		if r.Tier == models.TierManualReview {
			out.ManualReviewRules = append(out.ManualReviewRules, r.RuleID)
		}
	}
	if len(out.ManualReviewRules) > 0 {
		out.FinalTier = models.TierManualReview
		return out
	}

	out.FinalTier = models.TierExcellent
	for i := range results {
		if results[i].Tier.WorseThan(out.FinalTier) {
			out.FinalTier = results[i].Tier
			trigger := results[i]
			out.Trigger = &trigger
		}
	}
	out.FinancialTerms = th.Terms(out.FinalTier)
	return out
}
