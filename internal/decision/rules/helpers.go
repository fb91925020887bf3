// internal/decision/rules/helpers.go
package rules

import (
	"sort"
	"strings"
	"time"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

func pass(tier models.Tier, reason string, actual, expected interface{}) models.RuleResult {
	return models.RuleResult{Tier: tier, Passed: true, Reason: reason, ActualValue: actual, ExpectedValue: expected}
}

func excellent(reason string, actual interface{}) models.RuleResult {
	return pass(models.TierExcellent, reason, actual, nil)
}

func reject(reason string, actual, expected interface{}) models.RuleResult {
	return models.RuleResult{Tier: models.TierRejected, Reason: reason, ActualValue: actual, ExpectedValue: expected}
}

func manual(reason string, actual interface{}) models.RuleResult {
	return models.RuleResult{Tier: models.TierManualReview, Reason: reason, ActualValue: actual}
}

// funnel grades actual against the best tier whose record accepts it.
// expected reports the requirement of the matched tier, or of the most
// lenient tier when nothing matches.
func funnel(th *thresholds.Set, actual interface{}, accepts func(thresholds.TierThresholds) bool,
	expected func(thresholds.TierThresholds) interface{}, what string) models.RuleResult {

	tier, ok := th.Funnel(accepts)
	if !ok {
		ordered := th.Ordered()
		var want interface{}
		if len(ordered) > 0 {
			want = expected(ordered[len(ordered)-1])
		}
		return reject(what+" does not meet any tier", actual, want)
	}
	rec, _ := th.For(tier)
	return pass(tier, what+" qualifies for "+tier.String(), actual, expected(rec))
}

func bureau(ctx *models.EnrichedContext) (*models.CompanyReport, bool) {
	if ctx.Enrichment.BureauFailed || ctx.Enrichment.Bureau == nil {
		return nil, false
	}
	return ctx.Enrichment.Bureau, true
}

func screening(ctx *models.EnrichedContext) (*models.ScreeningResult, string, bool) {
	e := ctx.Enrichment
	switch {
	case e.ScreeningFailed:
		return nil, "compliance screening failed", false
	case e.ScreeningSkipped:
		return nil, "compliance screening skipped, no company name", false
	case e.Screening == nil:
		return nil, "compliance screening unavailable", false
	}
	return e.Screening, "", true
}

func evaluatedAt(ctx *models.EnrichedContext) time.Time {
	if ctx.EvaluatedAt.IsZero() {
		return time.Now().UTC()
	}
	return ctx.EvaluatedAt
}


// sameName compares person names ignoring case, spacing and token order.
func sameName(a, b string) bool {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if ta[i] != tb[i] {
			return false
		}
	}
	return true
}

func nameTokens(s string) []string {
	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(s, ",", " ")))
	sort.Strings(fields)
	return fields
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
