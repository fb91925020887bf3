// internal/decision/rules/compliance.go
package rules

import (
	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

func sanctionsScreening(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	s, why, ok := screening(ctx)
	if !ok {
		return manual(why, nil)
	}
	if s.Sanctioned {
		return reject("company appears on a sanctions list", s.MatchedCategories, "no sanctions")
	}
	return excellent("no sanctions match", s.ConfirmedHits)
}

func enforcementScreening(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	s, why, ok := screening(ctx)
	if !ok {
		return manual(why, nil)
	}
	if s.Enforcement {
		return reject("company appears on an enforcement or warning list", s.MatchedCategories, "no enforcement")
	}
	return excellent("no enforcement match", s.ConfirmedHits)
}

func pepScreening(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	s, why, ok := screening(ctx)
	if !ok {
		return manual(why, nil)
	}
	if s.PEP {
		return manual("politically exposed person match", s.MatchedCategories)
	}
	return excellent("no politically exposed person match", s.ConfirmedHits)
}

func adverseMediaScreening(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	s, why, ok := screening(ctx)
	if !ok {
		return manual(why, nil)
	}
	if s.AdverseMedia {
		return manual("adverse media match", s.MatchedCategories)
	}
	return excellent("no adverse media match", s.ConfirmedHits)
}
