// internal/workers/leasing/record-lease-decision/handler.go
package recordleasedecision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "lease-risk-workers/internal/common/errors"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "record-lease-decision"

	uniqueViolation = pq.ErrorCode("23505")
)

var (
	ErrInvalidInput          = errors.New("INVALID_APPLICATION_INPUT")
	ErrDecisionPersistFailed = errors.New("DECISION_PERSIST_FAILED")
	ErrDuplicateDecision     = errors.New("DUPLICATE_DECISION")
)

type Handler struct {
	config     *Config
	db         *sql.DB
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
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
		stdErr := toStandardError(err, input.DecisionID)
		done(string(stdErr.Code))
		h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	done("")
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if _, err := uuid.Parse(input.DecisionID); err != nil {
		return nil, fmt.Errorf("%w: decisionId %q is not a UUID", ErrInvalidInput, input.DecisionID)
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM lease_decisions
			WHERE decision_id = $1
		)`, input.DecisionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDecisionPersistFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: decision %s already recorded", ErrDuplicateDecision, input.DecisionID)
	}

	ruleResultsJSON, err := json.Marshal(input.RuleResults)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal rule results: %v", ErrDecisionPersistFailed, err)
	}

	// NULL unless the tier is concrete
	var termsJSON interface{}
	if input.FinancialTerms != nil {
		b, err := json.Marshal(input.FinancialTerms)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal financial terms: %v", ErrDecisionPersistFailed, err)
		}
		termsJSON = b
	}

	var triggeringRule sql.NullString
	if input.TriggeringRule != nil {
		triggeringRule = sql.NullString{String: input.TriggeringRule.RuleID, Valid: true}
	}

	vatNumber, companyName := "", ""
	if input.EnrichedData != nil {
		vatNumber = input.EnrichedData.Company.VATNumber
		companyName = input.EnrichedData.Company.Name
		if b := input.EnrichedData.Enrichment.Bureau; b != nil && b.Name != "" {
			companyName = b.Name
		}
	}

	evaluatedAt := input.EvaluatedAt
	recordedAt := h.now()
	if evaluatedAt.IsZero() {
		evaluatedAt = recordedAt
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO lease_decisions (
			decision_id, vat_number, company_name, final_tier,
			requires_manual_review, triggering_rule, rule_results,
			financial_terms, evaluated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		input.DecisionID,
		vatNumber,
		companyName,
		input.FinalTier.String(),
		input.RequiresManualReview,
		triggeringRule,
		ruleResultsJSON,
		termsJSON,
		evaluatedAt,
		recordedAt,
	)
	if err != nil {
		// a concurrent recorder can win between the EXISTS check and the insert
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: decision %s already recorded", ErrDuplicateDecision, input.DecisionID)
		}
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDecisionPersistFailed, err)
	}

	// audit_log is best effort
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"vatNumber":         vatNumber,
		"finalTier":         input.FinalTier.String(),
		"manualReviewRules": input.ManualReviewRules,
		"enrichmentErrors":  input.Errors,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		auditDetailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"lease_decision_recorded",
		"lease_decision",
		input.DecisionID,
		auditDetailsJSON,
		recordedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":      err,
			"decisionId": input.DecisionID,
		})
	}

	h.logger.Info("lease decision recorded", map[string]interface{}{
		"decisionId": input.DecisionID,
		"vatNumber":  vatNumber,
		"finalTier":  input.FinalTier.String(),
	})

	return &Output{
		DecisionID:   input.DecisionID,
		RecordStatus: StatusRecorded,
		RecordedAt:   recordedAt.Format(time.RFC3339),
	}, nil
}

func toStandardError(err error, decisionID string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrDuplicateDecision):
		return apperrors.NewDuplicateDecisionError(decisionID)
	case errors.Is(err, ErrDecisionPersistFailed):
		return apperrors.NewDecisionPersistFailedError(err)
	default:
		return apperrors.NewInvalidApplicationInputError(err.Error())
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
