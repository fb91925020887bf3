// internal/workers/leasing/enrich-company-data/handler_test.go
package enrichcompanydata

import (
	"context"
	"errors"
	"testing"
	"time"

	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/decision/enrichment"
	"lease-risk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, req enrichment.Request) models.EnrichmentResult {
	return m.Called(ctx, req).Get(0).(models.EnrichmentResult)
}

func newTestHandler(t *testing.T, e Enricher) *Handler {
	h := NewHandler(LoadConfig(), e, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute(t *testing.T) {
	wantReq := enrichment.Request{
		VATNumber:   "BE0123456789",
		CountryCode: "BE",
		Number:      "0123456789",
		Name:        "Acme",
	}

	tests := []struct {
		name           string
		result         models.EnrichmentResult
		validateOutput func(t *testing.T, out *Output)
	}{
		{
			name: "all sources available",
			result: models.EnrichmentResult{
				Bureau:    &models.CompanyReport{Name: "Acme Logistics NV"},
				VAT:       &models.VATValidation{Valid: true, Name: "ACME LOGISTICS"},
				Screening: &models.ScreeningResult{SearchedName: "Acme Logistics NV"},
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, 3, out.SourcesAvailable)
				assert.Equal(t, "Acme Logistics NV", out.CompanyName)
				assert.Equal(t, []string{}, out.Enrichment.Errors)
				assert.Equal(t, "2024-06-01T09:00:00Z", out.EnrichedAt)
			},
		},
		{
			name: "failures are reported as data",
			result: models.EnrichmentResult{
				BureauFailed:     true,
				VAT:              &models.VATValidation{Valid: true, Name: "ACME BV"},
				ScreeningSkipped: false,
				ScreeningFailed:  true,
				Errors:           []string{"creditsafe: status 503", "complyadvantage: request timed out"},
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, 1, out.SourcesAvailable)
				assert.Equal(t, "ACME BV", out.CompanyName)
				assert.True(t, out.Enrichment.BureauFailed)
				assert.Len(t, out.Enrichment.Errors, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEnricher{}
			e.On("Enrich", mock.Anything, wantReq).Return(tt.result)

			out, err := newTestHandler(t, e).Execute(context.Background(), &Input{
				Company: models.CompanyInput{VATNumber: "BE 0123.456.789", Name: "Acme"},
			})
			require.NoError(t, err)
			assert.Equal(t, "BE0123456789", out.VATNumber)
			tt.validateOutput(t, out)
			e.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_InvalidVAT(t *testing.T) {
	e := &mockEnricher{}
	out, err := newTestHandler(t, e).Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrInvalidVATNumber))
	e.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
}
