// internal/decision/rules/credit.go
package rules

import (
	"fmt"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

// creditRating grades the adjusted score when a calculation exists, the raw
// bureau score otherwise.
func creditRating(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	if report.CreditScore == nil {
		return manual("credit bureau reported no score", nil)
	}

	score := *report.CreditScore
	if ctx.Score != nil {
		score = ctx.Score.AdjustedScore
	}

	return funnel(th, score,
		func(t thresholds.TierThresholds) bool { return score >= t.MinCreditScore },
		func(t thresholds.TierThresholds) interface{} { return t.MinCreditScore },
		"credit score")
}

// scoreRestriction surfaces the final tier of the score calculation, which
// folds in sector and company-age restrictions.
func scoreRestriction(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	sc := ctx.Score
	if sc == nil {
		return manual("score calculation unavailable", nil)
	}

	res := models.RuleResult{
		Tier:          sc.FinalTier,
		Passed:        sc.FinalTier.IsConcrete(),
		ActualValue:   sc.AdjustedScore,
		ExpectedValue: sc.DeterminedTier.String(),
	}

	switch {
	case sc.DeterminedTier == models.TierRejected:
		res.Reason = "adjusted score is below every tier"
	case sc.HasReject:
		res.Reason = "restricted: " + restrictionText(sc, true)
	case sc.HasManualReview:
		res.Reason = "needs review: " + restrictionText(sc, false)
	default:
		res.Reason = fmt.Sprintf("adjusted score %d holds at %s", sc.AdjustedScore, sc.FinalTier)
	}
	return res
}

func restrictionText(sc *models.ScoreCalculationResult, wantReject bool) string {
	for _, r := range []*models.DeltaResult{sc.NACERestriction, sc.AgeRestriction} {
		if r == nil {
			continue
		}
		if (wantReject && r.Outcome.IsReject()) || (!wantReject && r.Outcome.IsManual()) {
			return r.Description
		}
	}
	return "score restriction"
}
