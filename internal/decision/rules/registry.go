// internal/decision/rules/registry.go
package rules

import (
	"errors"
	"fmt"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

var ErrDuplicateRule = errors.New("DUPLICATE_RULE")

// EvaluateFunc is a pure function of the enriched context and thresholds.
type EvaluateFunc func(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult

// PriorEvaluateFunc also sees the results of the rules registered before it.
// prior must not be modified.
type PriorEvaluateFunc func(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult

// Rule carries exactly one of Evaluate or EvaluateWithPrior.
type Rule struct {
	ID                string
	Category          models.RuleCategory
	Evaluate          EvaluateFunc
	EvaluateWithPrior PriorEvaluateFunc
}

func (r Rule) evaluate(ctx *models.EnrichedContext, th *thresholds.Set, prior []models.RuleResult) models.RuleResult {
	if r.EvaluateWithPrior != nil {
		return r.EvaluateWithPrior(ctx, th, prior[:len(prior):len(prior)])
	}
	return r.Evaluate(ctx, th)
}

// Registry holds rules in registration order. It is not safe for concurrent
// registration; build it once at start-up.
type Registry struct {
	rules []Rule
	ids   map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]bool)}
}

func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" || (rule.Evaluate == nil) == (rule.EvaluateWithPrior == nil) {
		return fmt.Errorf("rule needs an id and exactly one evaluate func")
	}
	if r.ids[rule.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}
	r.ids[rule.ID] = true
	r.rules = append(r.rules, rule)
	return nil
}

// MustRegister panics on registration errors. Only for static rule sets.
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *Registry) Len() int {
	return len(r.rules)
}

// EvaluateAll runs every rule in registration order and stamps each result
// with its rule's id and category.
func (r *Registry) EvaluateAll(ctx *models.EnrichedContext, th *thresholds.Set) []models.RuleResult {
	results := make([]models.RuleResult, 0, len(r.rules))
	for _, rule := range r.rules {
		res := rule.evaluate(ctx, th, results)
		res.RuleID = rule.ID
		res.Category = rule.Category
		results = append(results, res)
	}
	return results
}

// DefaultRegistry returns the production rule set in evaluation order.
func DefaultRegistry() *Registry {
	return NewRegistry().MustRegister(
		Rule{ID: "applicant-age", Category: models.CategoryEligibility, Evaluate: applicantAge},
		Rule{ID: "belgium-residency", Category: models.CategoryEligibility, Evaluate: belgiumResidency},
		Rule{ID: "administrator-status", Category: models.CategoryEligibility, Evaluate: administratorStatus},
		Rule{ID: "vat-validity", Category: models.CategoryEligibility, Evaluate: vatValidity},
		Rule{ID: "company-active", Category: models.CategoryCompany, Evaluate: companyActive},
		Rule{ID: "sanctions-screening", Category: models.CategoryCompliance, Evaluate: sanctionsScreening},
		Rule{ID: "enforcement-screening", Category: models.CategoryCompliance, Evaluate: enforcementScreening},
		Rule{ID: "pep-screening", Category: models.CategoryCompliance, Evaluate: pepScreening},
		Rule{ID: "adverse-media-screening", Category: models.CategoryCompliance, Evaluate: adverseMediaScreening},
		Rule{ID: "legal-authority-contact", Category: models.CategoryManualTrigger, Evaluate: legalAuthorityContact},
		Rule{ID: "payment-difficulties", Category: models.CategoryManualTrigger, Evaluate: paymentDifficulties},
		Rule{ID: "blacklisted-counterparties", Category: models.CategoryManualTrigger, Evaluate: blacklistedCounterparties},
		Rule{ID: "credit-rating", Category: models.CategoryCredit, Evaluate: creditRating},
		Rule{ID: "score-restriction", Category: models.CategoryCredit, Evaluate: scoreRestriction},
		Rule{ID: "company-age", Category: models.CategoryCompany, Evaluate: companyAge},
		Rule{ID: "bankruptcy-history", Category: models.CategoryCompany, Evaluate: bankruptcyHistory},
		Rule{ID: "administrator-tenure", Category: models.CategoryCompany, Evaluate: administratorTenure},
		Rule{ID: "fraud-score", Category: models.CategoryCompany, Evaluate: fraudScore},
		Rule{ID: "legal-form", Category: models.CategoryCompany, Evaluate: legalForm},
		Rule{ID: "financial-disclosure", Category: models.CategoryCompany, Evaluate: financialDisclosure},
		Rule{ID: "vehicle-type", Category: models.CategoryAsset, Evaluate: vehicleType},
		Rule{ID: "vehicle-value", Category: models.CategoryAsset, Evaluate: vehicleValue},
		Rule{ID: "vehicle-mileage", Category: models.CategoryAsset, Evaluate: vehicleMileage},
		Rule{ID: "vehicle-age", Category: models.CategoryAsset, Evaluate: vehicleAge},
		Rule{ID: "insurance-driver-age", Category: models.CategoryInsurance, EvaluateWithPrior: insuranceDriverAge},
		Rule{ID: "insurance-license-tenure", Category: models.CategoryInsurance, EvaluateWithPrior: insuranceLicenseTenure},
		Rule{ID: "insurance-accidents", Category: models.CategoryInsurance, EvaluateWithPrior: insuranceAccidents},
		Rule{ID: "insurance-horsepower", Category: models.CategoryInsurance, EvaluateWithPrior: insuranceHorsepower},
	)
}
