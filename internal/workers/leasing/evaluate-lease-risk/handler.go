// internal/workers/leasing/evaluate-lease-risk/handler.go
package evaluateleaserisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "lease-risk-workers/internal/common/errors"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/common/validation"
	"lease-risk-workers/internal/decision/engine"
	"lease-risk-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-lease-risk"
)

var (
	ErrInvalidInput     = errors.New("INVALID_APPLICATION_INPUT")
	ErrInvalidVATNumber = errors.New("INVALID_VAT_NUMBER")
)

// Evaluator produces a lease decision for one application.
type Evaluator interface {
	Evaluate(ctx context.Context, company models.CompanyInput, q models.Questionnaire) (*models.Decision, error)
}

type Handler struct {
	config     *Config
	evaluator  Evaluator
	validator  *validation.Validator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, evaluator Evaluator, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		evaluator:  evaluator,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	done := metrics.ObserveJob(TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parse(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			done("")
			h.completeJob(client, job, output)
			return
		}
	}

	stdErr := toStandardError(err)
	done(string(stdErr.Code))
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

// parse checks the raw variables against the application schema before
// decoding them.
func (h *Handler) parse(variables string) (*Input, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return nil, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err)
	}
	if h.validator != nil {
		if res := h.validator.Validate(doc); !res.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: decode input: %v", ErrInvalidInput, err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	decision, err := h.evaluator.Evaluate(ctx, input.Company, input.Questionnaire)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVATNumber, err)
		}
		return nil, err
	}

	h.logger.Info("lease risk evaluated", map[string]interface{}{
		"decisionId":           decision.DecisionID,
		"finalTier":            decision.FinalTier.String(),
		"requiresManualReview": decision.RequiresManualReview,
	})
	return &Output{Decision: *decision}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidVATNumber):
		return apperrors.NewInvalidVATNumberError(err.Error())
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidApplicationInputError(err.Error())
	default:
		return apperrors.NewEvaluationFailedError(err)
	}
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
