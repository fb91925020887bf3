// internal/decision/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/common/observability"
	"lease-risk-workers/internal/decision/aggregate"
	"lease-risk-workers/internal/decision/enrichment"
	"lease-risk-workers/internal/decision/rules"
	"lease-risk-workers/internal/decision/scoring"
	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidInput = errors.New("INVALID_APPLICATION_INPUT")

// Enricher gathers external data for one company.
type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) models.EnrichmentResult
}

type Engine struct {
	enricher   Enricher
	calculator *scoring.Calculator
	registry   *rules.Registry
	thresholds *thresholds.Set
	obs        *observability.Observability
	logger     logger.Logger

	now   func() time.Time
	newID func() string
}

func New(enricher Enricher, calc *scoring.Calculator, registry *rules.Registry, th *thresholds.Set, log logger.Logger) *Engine {
	return &Engine{
		enricher:   enricher,
		calculator: calc,
		registry:   registry,
		thresholds: th,
		logger:     log.WithFields(map[string]interface{}{"component": "decision-engine"}),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

func (e *Engine) WithObservability(o *observability.Observability) *Engine {
	e.obs = o
	return e
}

var tracer = otel.Tracer("lease-risk-workers/engine")

// Evaluate produces a decision for one application. It only returns an
// error for malformed input; upstream failures become manual review.
func (e *Engine) Evaluate(ctx context.Context, company models.CompanyInput, q models.Questionnaire) (*models.Decision, error) {
	full, country, number, err := enrichment.ParseVAT(company.VATNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	company.VATNumber = full
	if company.Country == "" {
		company.Country = country
	}

	ctx, span := tracer.Start(ctx, "engine.Evaluate")
	span.SetAttributes(attribute.String("vat.number", full))
	defer span.End()

	enriched := e.enricher.Enrich(ctx, enrichment.Request{
		VATNumber:   full,
		CountryCode: country,
		Number:      number,
		Name:        company.Name,
	})

	ectx := &models.EnrichedContext{
		Company:       company,
		Questionnaire: q,
		Enrichment:    enriched,
		EvaluatedAt:   e.now(),
	}
	ectx.Score = e.score(ectx)

	results := e.registry.EvaluateAll(ectx, e.thresholds)
	agg := aggregate.Aggregate(results, e.thresholds)

	errs := enriched.Errors
	if errs == nil {
		errs = []string{}
	}

	decision := &models.Decision{
		DecisionID:           e.newID(),
		FinalTier:            agg.FinalTier,
		RequiresManualReview: agg.FinalTier == models.TierManualReview,
		FinancialTerms:       agg.FinancialTerms,
		TriggeringRule:       agg.Trigger,
		ManualReviewRules:    agg.ManualReviewRules,
		RuleResults:          results,
		EnrichedData:         ectx,
		Errors:               errs,
		EvaluatedAt:          ectx.EvaluatedAt,
	}

	e.record(ctx, decision)
	span.SetAttributes(attribute.String("decision.tier", decision.FinalTier.String()))
	return decision, nil
}

// score runs the delta calculator when the bureau supplied a credit score.
func (e *Engine) score(ectx *models.EnrichedContext) *models.ScoreCalculationResult {
	report := ectx.Enrichment.Bureau
	if ectx.Enrichment.BureauFailed || report == nil || report.CreditScore == nil {
		return nil
	}

	in := scoring.Input{
		BaseScore:     *report.CreditScore,
		ActivityCodes: report.ActivityCodes,
	}
	if pc := firstNonEmpty(report.PostalCode, ectx.Company.PostalCode); pc != "" {
		in.PostalCode = &pc
	}
	if report.IncorporationDate != nil {
		months := models.MonthsBetween(*report.IncorporationDate, ectx.EvaluatedAt)
		in.CompanyAgeMonths = &months
	}
	return e.calculator.Calculate(in)
}

func (e *Engine) record(ctx context.Context, d *models.Decision) {
	tier := d.FinalTier.String()
	metrics.LeaseDecisions.WithLabelValues(tier).Inc()
	for _, r := range d.RuleResults {
		metrics.RuleOutcomes.WithLabelValues(r.RuleID, r.Tier.String()).Inc()
	}
	if e.obs != nil {
		e.obs.RecordDecision(ctx, tier, d.RequiresManualReview)
	}

	fields := map[string]interface{}{
		"decisionId": d.DecisionID,
		"vatNumber":  d.EnrichedData.Company.VATNumber,
		"finalTier":  tier,
	}
	if d.TriggeringRule != nil {
		fields["triggeringRule"] = d.TriggeringRule.RuleID
	}
	if len(d.ManualReviewRules) > 0 {
		fields["manualReviewRules"] = d.ManualReviewRules
	}
	if len(d.Errors) > 0 {
		fields["enrichmentErrors"] = d.Errors
	}
	e.logger.Info("lease decision evaluated", fields)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
