// internal/models/decision.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrichmentResult bundles the three external lookups. A nil payload with
// its Failed flag set means the source could not be used.
type EnrichmentResult struct {
	Bureau           *CompanyReport   `json:"creditsafe,omitempty"`
	BureauFailed     bool             `json:"creditsafeFailed"`
	VAT              *VATValidation   `json:"vies,omitempty"`
	VATFailed        bool             `json:"viesFailed"`
	Screening        *ScreeningResult `json:"complyAdvantage,omitempty"`
	ScreeningFailed  bool             `json:"complyAdvantageFailed"`
	ScreeningSkipped bool             `json:"complyAdvantageSkipped"`
	Errors           []string         `json:"errors"`
}

// EnrichedContext is everything a rule may read. It is built once per
// evaluation and never modified afterwards.
type EnrichedContext struct {
	Company       CompanyInput            `json:"company"`
	Questionnaire Questionnaire           `json:"questionnaire"`
	Enrichment    EnrichmentResult        `json:"enrichment"`
	Score         *ScoreCalculationResult `json:"scoreCalculation,omitempty"`
	EvaluatedAt   time.Time               `json:"evaluatedAt"`
}

type RuleCategory string

const (
	CategoryEligibility   RuleCategory = "eligibility"
	CategoryManualTrigger RuleCategory = "manual-trigger"
	CategoryCompliance    RuleCategory = "compliance"
	CategoryCredit        RuleCategory = "credit"
	CategoryCompany       RuleCategory = "company"
	CategoryAsset         RuleCategory = "asset"
	CategoryInsurance     RuleCategory = "insurance"
)

// RuleResult is the outcome of one rule. Tier carries the consequence even
// when Passed is false.
type RuleResult struct {
	RuleID        string       `json:"ruleId"`
	Category      RuleCategory `json:"category"`
	Tier          Tier         `json:"tier"`
	Passed        bool         `json:"passed"`
	Reason        string       `json:"reason"`
	ActualValue   interface{}  `json:"actualValue,omitempty"`
	ExpectedValue interface{}  `json:"expectedValue,omitempty"`
}

type FinancialTerms struct {
	MaxFinancedAmount decimal.Decimal `json:"maxFinancedAmount"`
	MinDownPaymentPct decimal.Decimal `json:"minDownPaymentPct"`
	InterestMarkupPct decimal.Decimal `json:"interestMarkupPct"`
	MaxTermMonths     int             `json:"maxTermMonths"`
}

type Decision struct {
	DecisionID           string           `json:"decisionId"`
	FinalTier            Tier             `json:"finalTier"`
	RequiresManualReview bool             `json:"requiresManualReview"`
	FinancialTerms       *FinancialTerms  `json:"financialTerms,omitempty"`
	TriggeringRule       *RuleResult      `json:"triggeringRule,omitempty"`
	ManualReviewRules    []string         `json:"manualReviewRules,omitempty"`
	RuleResults          []RuleResult     `json:"ruleResults"`
	EnrichedData         *EnrichedContext `json:"enrichedData"`
	Errors               []string         `json:"errors"`
	EvaluatedAt          time.Time        `json:"evaluatedAt"`
}
