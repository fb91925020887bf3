// internal/workers/leasing/record-lease-decision/models.go
package recordleasedecision

import "lease-risk-workers/internal/models"

// Input is the decision as written to process variables by
// evaluate-lease-risk.
type Input struct {
	models.Decision
}

type Output struct {
	DecisionID   string `json:"decisionId"`
	RecordStatus string `json:"recordStatus"`
	RecordedAt   string `json:"recordedAt"` // ISO 8601
}

const StatusRecorded = "RECORDED"
