// internal/decision/enrichment/orchestrator.go
package enrichment

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Source names, used as error prefixes and metric labels.
const (
	SourceBureau    = "creditsafe"
	SourceVAT       = "vies"
	SourceScreening = "complyadvantage"
)

type BureauClient interface {
	FetchCompany(ctx context.Context, vatNumber string) (*models.CompanyReport, error)
}

type VATClient interface {
	Validate(ctx context.Context, countryCode, number string) (*models.VATRegistryResponse, error)
}

type ScreeningClient interface {
	Search(ctx context.Context, name, country string) ([]models.ScreeningHit, error)
}

type Config struct {
	BureauTimeout     time.Duration
	VATAttemptTimeout time.Duration
	ScreeningTimeout  time.Duration
	VATMaxAttempts    int
	VATBackoffBase    time.Duration
	VATBackoffCap     time.Duration
	VATMaxJitter      time.Duration
}

func DefaultConfig() Config {
	return Config{
		BureauTimeout:     15 * time.Second,
		VATAttemptTimeout: 10 * time.Second,
		ScreeningTimeout:  10 * time.Second,
		VATMaxAttempts:    5,
		VATBackoffBase:    time.Second,
		VATBackoffCap:     16 * time.Second,
		VATMaxJitter:      500 * time.Millisecond,
	}
}

// Request identifies the company to enrich. CountryCode and Number are the
// parsed halves of VATNumber.
type Request struct {
	VATNumber   string
	CountryCode string
	Number      string
	Name        string
}

// Orchestrator gathers bureau, VAT registry and screening data. It never
// fails as a whole; each source reports its own outcome.
type Orchestrator struct {
	bureau    BureauClient
	vat       VATClient
	screening ScreeningClient
	cfg       Config
	logger    logger.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func NewOrchestrator(bureau BureauClient, vat VATClient, screening ScreeningClient, cfg Config, log logger.Logger) *Orchestrator {
	if cfg.VATMaxAttempts < 1 {
		cfg.VATMaxAttempts = 1
	}
	return &Orchestrator{
		bureau:    bureau,
		vat:       vat,
		screening: screening,
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "enrichment"}),
		sleep:     sleepContext,
		jitter:    randomJitter,
	}
}

var tracer = otel.Tracer("lease-risk-workers/enrichment")

func (o *Orchestrator) Enrich(ctx context.Context, req Request) models.EnrichmentResult {
	ctx, span := tracer.Start(ctx, "enrichment.Enrich")
	span.SetAttributes(attribute.String("vat.number", req.VATNumber))
	defer span.End()

	var (
		bureau    *models.CompanyReport
		bureauErr error
		vat       *models.VATValidation
		vatErr    error
	)

	var g errgroup.Group
	g.Go(func() error {
		bureauErr = o.observe(ctx, SourceBureau, func(ctx context.Context) error {
			var err error
			bureau, err = o.fetchBureau(ctx, req.VATNumber)
			return err
		})
		return nil
	})
	g.Go(func() error {
		vatErr = o.observe(ctx, SourceVAT, func(ctx context.Context) error {
			var err error
			vat, err = o.validateVAT(ctx, req.CountryCode, req.Number)
			return err
		})
		return nil
	})
	_ = g.Wait()

	result := models.EnrichmentResult{Errors: []string{}}
	if bureauErr != nil {
		result.BureauFailed = true
		result.Errors = append(result.Errors, sourceError(SourceBureau, bureauErr))
	} else {
		result.Bureau = bureau
	}
	if vatErr != nil {
		result.VATFailed = true
		result.Errors = append(result.Errors, sourceError(SourceVAT, vatErr))
	} else {
		result.VAT = vat
	}

	name := ResolveName(result.Bureau, result.VAT, req.Name)
	if name == "" {
		result.ScreeningSkipped = true
		o.logger.Info("screening skipped, no company name available", map[string]interface{}{
			"vatNumber": req.VATNumber,
		})
	} else {
		var screening *models.ScreeningResult
		screenErr := o.observe(ctx, SourceScreening, func(ctx context.Context) error {
			var err error
			screening, err = o.screen(ctx, name, req.CountryCode)
			return err
		})
		if screenErr != nil {
			result.ScreeningFailed = true
			result.Errors = append(result.Errors, sourceError(SourceScreening, screenErr))
		} else {
			result.Screening = screening
		}
	}

	if len(result.Errors) > 0 {
		span.SetAttributes(attribute.StringSlice("enrichment.errors", result.Errors))
	}
	return result
}

// ResolveName picks the name used for screening: bureau first, then the VAT
// registry, then whatever the request supplied.
func ResolveName(bureau *models.CompanyReport, vat *models.VATValidation, requested string) string {
	if bureau != nil && strings.TrimSpace(bureau.Name) != "" {
		return strings.TrimSpace(bureau.Name)
	}
	if vat != nil && strings.TrimSpace(vat.Name) != "" {
		return strings.TrimSpace(vat.Name)
	}
	return strings.TrimSpace(requested)
}

func (o *Orchestrator) fetchBureau(ctx context.Context, vatNumber string) (*models.CompanyReport, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.BureauTimeout)
	defer cancel()
	return o.bureau.FetchCompany(ctx, vatNumber)
}

func (o *Orchestrator) screen(ctx context.Context, name, country string) (*models.ScreeningResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ScreeningTimeout)
	defer cancel()

	hits, err := o.screening.Search(ctx, name, country)
	if err != nil {
		return nil, err
	}
	return SummarizeScreening(name, hits), nil
}

// observe wraps one source call with a span, latency and failure metrics.
func (o *Orchestrator) observe(ctx context.Context, source string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "enrichment."+source)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.EnrichmentDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues(source).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Warn("enrichment source failed", map[string]interface{}{
			"source": source,
			"error":  err,
		})
	}
	return err
}

func sourceError(source string, err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, source+": ") {
		return msg
	}
	return source + ": " + msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}
