package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() map[string]interface{} {
	return map[string]interface{}{
		"company": map[string]interface{}{"vatNumber": "BE0123456789", "country": "BE"},
		"questionnaire": map[string]interface{}{
			"applicantAge":    40,
			"belgiumResident": true,
			"isAdministrator": true,
			"vehicle": map[string]interface{}{
				"type":      "passenger_car",
				"value":     "45000.00",
				"mileageKm": 1000,
			},
		},
	}
}

func TestLeaseApplicationValidator(t *testing.T) {
	v, err := NewLeaseApplicationValidator()
	require.NoError(t, err)

	tests := []struct {
		name           string
		mutate         func(doc map[string]interface{})
		validateOutput func(t *testing.T, r *ValidationResult)
	}{
		{
			name:   "valid application",
			mutate: func(doc map[string]interface{}) {},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.True(t, r.Valid)
				assert.Empty(t, r.Summary())
			},
		},
		{
			name: "numeric vehicle value accepted",
			mutate: func(doc map[string]interface{}) {
				doc["questionnaire"].(map[string]interface{})["vehicle"].(map[string]interface{})["value"] = 45000
			},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				assert.True(t, r.Valid)
			},
		},
		{
			name:   "missing company",
			mutate: func(doc map[string]interface{}) { delete(doc, "company") },
			validateOutput: func(t *testing.T, r *ValidationResult) {
				require.False(t, r.Valid)
				assert.Equal(t, "required", r.Errors[0].Code)
			},
		},
		{
			name: "wrong types",
			mutate: func(doc map[string]interface{}) {
				q := doc["questionnaire"].(map[string]interface{})
				q["applicantAge"] = "forty"
				q["belgiumResident"] = "yes"
			},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				require.False(t, r.Valid)
				require.Len(t, r.Errors, 2)
				assert.Equal(t, "questionnaire.applicantAge", r.Errors[0].Field)
				assert.Equal(t, "questionnaire.belgiumResident", r.Errors[1].Field)
				assert.Contains(t, r.Summary(), "questionnaire.applicantAge")
			},
		},
		{
			name: "negative mileage",
			mutate: func(doc map[string]interface{}) {
				doc["questionnaire"].(map[string]interface{})["vehicle"].(map[string]interface{})["mileageKm"] = -1
			},
			validateOutput: func(t *testing.T, r *ValidationResult) {
				require.False(t, r.Valid)
				assert.Equal(t, "questionnaire.vehicle.mileageKm", r.Errors[0].Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validApplication()
			tt.mutate(doc)
			tt.validateOutput(t, v.Validate(doc))
		})
	}
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}
