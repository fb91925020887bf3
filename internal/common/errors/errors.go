package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidApplicationInput ErrorCode = "INVALID_APPLICATION_INPUT"
	ErrCodeInvalidVATNumber        ErrorCode = "INVALID_VAT_NUMBER"

	ErrCodeBureauFetchFailed   ErrorCode = "BUREAU_FETCH_FAILED"
	ErrCodeBureauAuthFailed    ErrorCode = "BUREAU_AUTH_FAILED"
	ErrCodeVATValidationFailed ErrorCode = "VAT_VALIDATION_FAILED"
	ErrCodeScreeningFailed     ErrorCode = "SCREENING_FAILED"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"

	ErrCodeDecisionPersistFailed ErrorCode = "DECISION_PERSIST_FAILED"
	ErrCodeDuplicateDecision     ErrorCode = "DUPLICATE_DECISION"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidApplicationInputError(details string) *StandardError {
	return newError(ErrCodeInvalidApplicationInput, "Application input failed validation", details, false)
}

func NewInvalidVATNumberError(vatNumber string) *StandardError {
	return newError(ErrCodeInvalidVATNumber, "VAT number is malformed", fmt.Sprintf("vatNumber: %q", vatNumber), false)
}

func NewBureauFetchFailedError(err error) *StandardError {
	return newError(ErrCodeBureauFetchFailed, "Credit bureau lookup failed", err.Error(), true)
}

func NewBureauAuthFailedError(err error) *StandardError {
	return newError(ErrCodeBureauAuthFailed, "Credit bureau authentication failed", err.Error(), true)
}

func NewVATValidationFailedError(err error) *StandardError {
	return newError(ErrCodeVATValidationFailed, "VAT registry validation failed", err.Error(), true)
}

func NewScreeningFailedError(err error) *StandardError {
	return newError(ErrCodeScreeningFailed, "Compliance screening failed", err.Error(), true)
}

func NewDecisionPersistFailedError(err error) *StandardError {
	return newError(ErrCodeDecisionPersistFailed, "Lease decision could not be stored", err.Error(), true)
}

func NewDuplicateDecisionError(decisionID string) *StandardError {
	return newError(ErrCodeDuplicateDecision, "Lease decision already recorded", fmt.Sprintf("decisionId: %s", decisionID), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewEvaluationFailedError(err error) *StandardError {
	return newError(ErrCodeEvaluationFailed, "Lease risk evaluation failed", err.Error(), false)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeUpstreamTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidApplicationInput: "INVALID_APPLICATION_INPUT",
	ErrCodeInvalidVATNumber:        "INVALID_VAT_NUMBER",
	ErrCodeBureauFetchFailed:       "BUREAU_FETCH_FAILED",
	ErrCodeBureauAuthFailed:        "BUREAU_FETCH_FAILED",
	ErrCodeVATValidationFailed:     "VAT_VALIDATION_FAILED",
	ErrCodeScreeningFailed:         "SCREENING_FAILED",
	ErrCodeUpstreamTimeout:         "UPSTREAM_TIMEOUT",
	ErrCodeDecisionPersistFailed:   "DECISION_PERSIST_FAILED",
	ErrCodeDuplicateDecision:       "DUPLICATE_DECISION",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
	ErrCodeEvaluationFailed:        "EVALUATION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDecisionPersistFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBureauFetchFailed,
		ErrCodeScreeningFailed:
		return 3

	case ErrCodeUpstreamTimeout,
		ErrCodeVATValidationFailed,
		ErrCodeBureauAuthFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BUREAU"), strings.Contains(codeStr, "VAT"),
		strings.Contains(codeStr, "SCREENING"), strings.Contains(codeStr, "UPSTREAM"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "DECISION"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
