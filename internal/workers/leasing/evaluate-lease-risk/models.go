// internal/workers/leasing/evaluate-lease-risk/models.go
package evaluateleaserisk

import "lease-risk-workers/internal/models"

type Input struct {
	Company       models.CompanyInput  `json:"company"`
	Questionnaire models.Questionnaire `json:"questionnaire"`
}

// Output flattens the decision into process variables.
type Output struct {
	models.Decision
}
