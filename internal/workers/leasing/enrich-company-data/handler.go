// internal/workers/leasing/enrich-company-data/handler.go
package enrichcompanydata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "lease-risk-workers/internal/common/errors"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/decision/enrichment"
	"lease-risk-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "enrich-company-data"
)

var ErrInvalidVATNumber = errors.New("INVALID_VAT_NUMBER")

type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) models.EnrichmentResult
}

type Handler struct {
	config     *Config
	enricher   Enricher
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, enricher Enricher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		enricher:   enricher,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	done := metrics.ObserveJob(TaskType)

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		done(string(apperrors.ErrCodeInvalidApplicationInput))
		h.errHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewInvalidApplicationInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := apperrors.NewInvalidApplicationInputError(err.Error())
		if errors.Is(err, ErrInvalidVATNumber) {
			stdErr = apperrors.NewInvalidVATNumberError(input.Company.VATNumber)
		}
		done(string(stdErr.Code))
		h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	done("")
	h.completeJob(client, job, output)
}

// execute never fails on upstream errors; they are reported in the
// enrichment result.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	full, country, number, err := enrichment.ParseVAT(input.Company.VATNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVATNumber, err)
	}

	result := h.enricher.Enrich(ctx, enrichment.Request{
		VATNumber:   full,
		CountryCode: country,
		Number:      number,
		Name:        input.Company.Name,
	})
	if result.Errors == nil {
		result.Errors = []string{}
	}

	available := 0
	for _, ok := range []bool{result.Bureau != nil, result.VAT != nil, result.Screening != nil} {
		if ok {
			available++
		}
	}

	name := enrichment.ResolveName(result.Bureau, result.VAT, input.Company.Name)
	h.logger.Info("company enriched", map[string]interface{}{
		"vatNumber":        full,
		"sourcesAvailable": available,
		"errors":           len(result.Errors),
	})

	return &Output{
		VATNumber:    full,
		CompanyName:  name,
		Enrichment:   result,
		SourcesAvailable: available,
		EnrichedAt:   h.now().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
