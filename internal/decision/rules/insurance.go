// internal/decision/rules/insurance.go
package rules

import (
	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

// insuranceCriteria returns the POOR-tier insurance record when the
// applicant has been funneled to POOR, either by the credit-derived tier or
// by any earlier rule. Otherwise the insurance rules do not apply.
func insuranceCriteria(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) (*thresholds.InsuranceCriteria, bool) {
	if !funneledToPoor(ctx, prior) {
		return nil, false
	}
	c := th.Insurance()
	return c, c != nil
}

func funneledToPoor(ctx *models.EnrichedContext, prior []models.RuleResult) bool {
	if ctx.Score != nil && ctx.Score.FinalTier == models.TierPoor {
		return true
	}
	for _, res := range prior {
		if res.Category != models.CategoryInsurance && res.Tier == models.TierPoor {
			return true
		}
	}
	return false
}

func notApplicable() models.RuleResult {
	return excellent("insurance criteria only apply once funneled to POOR", nil)
}

func insuranceDriverAge(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult {
	c, ok := insuranceCriteria(ctx, th, prior)
	if !ok {
		return notApplicable()
	}
	d := ctx.Questionnaire.Driver
	if d == nil {
		return manual("driver details missing", nil)
	}
	if d.Age < c.MinDriverAge {
		return reject("driver is below the insurable age", d.Age, c.MinDriverAge)
	}
	return pass(models.TierPoor, "driver age insurable", d.Age, c.MinDriverAge)
}

func insuranceLicenseTenure(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult {
	c, ok := insuranceCriteria(ctx, th, prior)
	if !ok {
		return notApplicable()
	}
	d := ctx.Questionnaire.Driver
	if d == nil {
		return manual("driver details missing", nil)
	}
	if d.LicenseYears < c.MinLicenseYears {
		return reject("driving licence held too briefly", d.LicenseYears, c.MinLicenseYears)
	}
	return pass(models.TierPoor, "licence tenure insurable", d.LicenseYears, c.MinLicenseYears)
}

func insuranceAccidents(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult {
	c, ok := insuranceCriteria(ctx, th, prior)
	if !ok {
		return notApplicable()
	}
	d := ctx.Questionnaire.Driver
	if d == nil {
		return manual("driver details missing", nil)
	}
	if d.AccidentsLast5Years > c.MaxAccidents {
		return reject("too many accidents in the last five years", d.AccidentsLast5Years, c.MaxAccidents)
	}
	return pass(models.TierPoor, "accident history insurable", d.AccidentsLast5Years, c.MaxAccidents)
}

func insuranceHorsepower(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult {
	c, ok := insuranceCriteria(ctx, th, prior)
	if !ok {
		return notApplicable()
	}
	hp := ctx.Questionnaire.Vehicle.Horsepower
	if hp == nil {
		return manual("vehicle horsepower not declared", nil)
	}
	if *hp > c.MaxHorsepower {
		return reject("vehicle horsepower above the insurable limit", *hp, c.MaxHorsepower)
	}
	return pass(models.TierPoor, "vehicle horsepower insurable", *hp, c.MaxHorsepower)
}
