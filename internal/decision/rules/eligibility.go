// internal/decision/rules/eligibility.go
package rules

import (
	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

const minApplicantAge = 18

func applicantAge(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	age := ctx.Questionnaire.ApplicantAge
	if age < minApplicantAge {
		return reject("applicant is under the minimum age", age, minApplicantAge)
	}
	return pass(models.TierExcellent, "applicant meets the minimum age", age, minApplicantAge)
}

func belgiumResidency(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	if !ctx.Questionnaire.BelgiumResident {
		return reject("applicant is not resident in Belgium", false, true)
	}
	return excellent("applicant is resident in Belgium", true)
}

func administratorStatus(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	if !ctx.Questionnaire.IsAdministrator {
		return reject("applicant is not an administrator of the company", false, true)
	}
	return excellent("applicant is an administrator of the company", true)
}

func vatValidity(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	e := ctx.Enrichment
	if e.VATFailed || e.VAT == nil {
		return manual("VAT registry unavailable", nil)
	}
	if !e.VAT.Valid {
		return reject("VAT number is not registered as valid", e.VAT.VATNumber, "valid")
	}
	return excellent("VAT number is valid", e.VAT.VATNumber)
}

// ============================================================================
// Self-declared manual review triggers
// ============================================================================

func legalAuthorityContact(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	return declaredTrigger(ctx.Questionnaire.LegalAuthorityContact, "applicant declared contact with legal authorities")
}

func paymentDifficulties(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	return declaredTrigger(ctx.Questionnaire.PaymentDifficulties, "applicant declared payment difficulties")
}

func blacklistedCounterparties(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	return declaredTrigger(ctx.Questionnaire.BlacklistedCounterparties, "applicant declared blacklisted counterparties")
}

func declaredTrigger(declared bool, reason string) models.RuleResult {
	if declared {
		return manual(reason, true)
	}
	return excellent("nothing declared", false)
}
