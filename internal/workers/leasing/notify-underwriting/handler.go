// internal/workers/leasing/notify-underwriting/handler.go
package notifyunderwriting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "lease-risk-workers/internal/common/errors"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-underwriting"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

type Mailer interface {
	SendText(ctx context.Context, to []string, subject, body string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, subject, message string, attrs map[string]string) (string, error)
}

type Handler struct {
	config     *Config
	mailer     Mailer
	publisher  Publisher
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler accepts nil for a channel that is not configured.
func NewHandler(config *Config, mailer Mailer, publisher Publisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		mailer:     mailer,
		publisher:  publisher,
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
		stdErr := apperrors.NewNotificationSendFailedError(strings.Join(output.Channels, ","), err)
		done(string(stdErr.Code))
		h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	done("")
	h.completeJob(client, job, output)
}

// execute notifies underwriting about decisions a human must act on. It
// returns an error only when every attempted channel failed; the output is
// always non-nil.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusSkipped,
		Channels:       []string{},
		SentAt:         h.now().Format(time.RFC3339),
	}

	if input.FinalTier != models.TierManualReview && input.FinalTier != models.TierRejected {
		h.logger.Debug("no notification needed", map[string]interface{}{
			"decisionId": input.DecisionID,
			"finalTier":  input.FinalTier.String(),
		})
		return out, nil
	}

	data := templateData(input)
	subject := renderTemplate(subjectTemplate, data)
	body := renderTemplate(bodyTemplate, data)

	var attempted, failed []string

	if h.config.EmailEnabled && h.mailer != nil && len(h.config.ToEmail) > 0 {
		attempted = append(attempted, ChannelEmail)
		if _, err := h.mailer.SendText(ctx, h.config.ToEmail, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":      err,
				"decisionId": input.DecisionID,
			})
			failed = append(failed, ChannelEmail)
		} else {
			out.Channels = append(out.Channels, ChannelEmail)
		}
	}

	if h.config.SNSEnabled && h.publisher != nil && priorityOf(input) == PriorityHigh {
		attempted = append(attempted, ChannelSNS)
		attrs := map[string]string{
			"finalTier": input.FinalTier.String(),
			"priority":  PriorityHigh,
		}
		if _, err := h.publisher.Publish(ctx, subject, body, attrs); err != nil {
			h.logger.Error("SNS publish failed", map[string]interface{}{
				"error":      err,
				"decisionId": input.DecisionID,
			})
			failed = append(failed, ChannelSNS)
		} else {
			out.Channels = append(out.Channels, ChannelSNS)
		}
	}

	switch {
	case len(attempted) == 0:
		out.Status = StatusSkipped
	case len(failed) == len(attempted):
		out.Status = StatusFailed
		out.Channels = failed
		return out, fmt.Errorf("%w: %s", ErrNotificationSendFailed, strings.Join(failed, ","))
	case len(failed) > 0:
		out.Status = StatusFailed
	default:
		out.Status = StatusSent
	}

	h.logger.Info("underwriting notified", map[string]interface{}{
		"decisionId": input.DecisionID,
		"status":     out.Status,
		"channels":   out.Channels,
	})
	return out, nil
}

// priorityOf falls back to high for rejections when the process sets none.
func priorityOf(input *Input) string {
	if p := strings.ToLower(strings.TrimSpace(input.Priority)); p != "" {
		return p
	}
	if input.FinalTier == models.TierRejected {
		return PriorityHigh
	}
	return PriorityNormal
}

const subjectTemplate = "[{{finalTier}}] Lease application {{vatNumber}} {{companyName}}"

const bodyTemplate = `Decision {{decisionId}} for {{companyName}} ({{vatNumber}}) ended in {{finalTier}}.

Triggering rule: {{triggeringRule}}
Rules requiring review: {{manualReviewRules}}
Enrichment errors: {{errors}}
Evaluated at: {{evaluatedAt}}`

func templateData(input *Input) map[string]interface{} {
	data := map[string]interface{}{
		"decisionId":        input.DecisionID,
		"finalTier":         input.FinalTier.String(),
		"manualReviewRules": strings.Join(input.ManualReviewRules, ", "),
		"errors":            strings.Join(input.Errors, "; "),
		"evaluatedAt":       input.EvaluatedAt.Format(time.RFC3339),
	}
	if input.TriggeringRule != nil {
		data["triggeringRule"] = fmt.Sprintf("%s (%s)", input.TriggeringRule.RuleID, input.TriggeringRule.Reason)
	}
	if input.EnrichedData != nil {
		data["vatNumber"] = input.EnrichedData.Company.VATNumber
		name := input.EnrichedData.Company.Name
		if b := input.EnrichedData.Enrichment.Bureau; b != nil && b.Name != "" {
			name = b.Name
		}
		data["companyName"] = name
	}
	return data
}

// renderTemplate substitutes {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return strings.TrimSpace(result)
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
