// internal/decision/rules/company.go
package rules

import (
	"strings"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

func companyActive(ctx *models.EnrichedContext, _ *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	if !report.Active {
		return reject("company is not active", report.Status, "active")
	}
	return excellent("company is active", report.Status)
}

func companyAge(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	if report.IncorporationDate == nil {
		return manual("incorporation date not reported", nil)
	}

	months := models.MonthsBetween(*report.IncorporationDate, evaluatedAt(ctx))
	return funnel(th, months,
		func(t thresholds.TierThresholds) bool { return months >= t.MinCompanyAgeMonths },
		func(t thresholds.TierThresholds) interface{} { return t.MinCompanyAgeMonths },
		"company age in months")
}

// bankruptcyHistory counts bankruptcies inside each tier's own lookback
// window, so a tier with a shorter window may accept an older event.
func bankruptcyHistory(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	now := evaluatedAt(ctx)

	within := func(years int) int {
		cutoff := now.AddDate(-years, 0, 0)
		n := 0
		for _, b := range report.Bankruptcies {
			if !b.Date.Before(cutoff) {
				n++
			}
		}
		return n
	}

	return funnel(th, len(report.Bankruptcies),
		func(t thresholds.TierThresholds) bool { return within(t.BankruptcyLookbackYears) <= t.MaxBankruptcies },
		func(t thresholds.TierThresholds) interface{} {
			return map[string]int{"maxBankruptcies": t.MaxBankruptcies, "lookbackYears": t.BankruptcyLookbackYears}
		},
		"bankruptcy history")
}

func administratorTenure(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}

	applicant := ctx.Questionnaire.ApplicantName()
	var director *models.Director
	for i := range report.Directors {
		if sameName(report.Directors[i].Name, applicant) {
			director = &report.Directors[i]
			break
		}
	}
	if director == nil {
		return manual("applicant is not listed as a director", applicant)
	}
	if director.AppointedAt == nil {
		return manual("director appointment date not reported", director.Name)
	}

	months := models.MonthsBetween(*director.AppointedAt, evaluatedAt(ctx))
	return funnel(th, months,
		func(t thresholds.TierThresholds) bool { return months >= t.MinAdministratorTenureMonths },
		func(t thresholds.TierThresholds) interface{} { return t.MinAdministratorTenureMonths },
		"administrator tenure in months")
}

// fraudScore treats an absent score as no penalty.
func fraudScore(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	if report.FraudScore == nil {
		return excellent("no fraud score reported", nil)
	}

	score := *report.FraudScore
	return funnel(th, score,
		func(t thresholds.TierThresholds) bool { return score <= t.MaxFraudScore },
		func(t thresholds.TierThresholds) interface{} { return t.MaxFraudScore },
		"fraud score")
}

func legalForm(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	form := CanonicalLegalForm(report.LegalForm)
	if form == "" {
		return manual("legal form not reported", nil)
	}

	return funnel(th, form,
		func(t thresholds.TierThresholds) bool { return containsFold(t.AllowedLegalForms, form) },
		func(t thresholds.TierThresholds) interface{} { return t.AllowedLegalForms },
		"legal form")
}

func financialDisclosure(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	report, ok := bureau(ctx)
	if !ok {
		return manual("credit bureau unavailable", nil)
	}
	disclosed := report.FinancialDisclosure

	return funnel(th, disclosed,
		func(t thresholds.TierThresholds) bool { return disclosed || !t.RequireFinancialDisclosure },
		func(t thresholds.TierThresholds) interface{} { return t.RequireFinancialDisclosure },
		"financial disclosure")
}

// French and legacy Dutch abbreviations map onto the forms used in the
// threshold table.
var legalFormAliases = map[string]string{
	"SA":    "NV",
	"SRL":   "BV",
	"BVBA":  "BV",
	"SPRL":  "BV",
	"SC":    "CV",
	"SCRL":  "CV",
	"CVBA":  "CV",
	"SNC":   "VOF",
	"SCOMM": "COMMV",
	"SCS":   "COMMV",
	"ASBL":  "VZW",
}

// CanonicalLegalForm uppercases, strips punctuation and resolves aliases.
func CanonicalLegalForm(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	form := b.String()
	if alias, ok := legalFormAliases[form]; ok {
		return alias
	}
	return form
}
