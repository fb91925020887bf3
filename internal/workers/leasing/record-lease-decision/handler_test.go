// internal/workers/leasing/record-lease-decision/handler_test.go
package recordleasedecision

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "lease-risk-workers/internal/common/errors"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testDecisionID = "6f1c2b9e-3a8d-4d6e-9b1f-2c7a5e0d4f11"

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func createTestInput() *Input {
	rule := models.RuleResult{RuleID: "credit-rating", Category: models.CategoryCredit, Tier: models.TierFair, Passed: true}
	return &Input{Decision: models.Decision{
		DecisionID: testDecisionID,
		FinalTier:  models.TierFair,
		FinancialTerms: &models.FinancialTerms{
			MaxFinancedAmount: decimal.NewFromInt(50000),
			MinDownPaymentPct: decimal.NewFromInt(20),
			InterestMarkupPct: decimal.NewFromFloat(1.5),
			MaxTermMonths:     48,
		},
		TriggeringRule: &rule,
		RuleResults:    []models.RuleResult{rule},
		EnrichedData: &models.EnrichedContext{
			Company: models.CompanyInput{VATNumber: "BE0123456789", Name: "Acme"},
			Enrichment: models.EnrichmentResult{
				Bureau: &models.CompanyReport{Name: "Acme Logistics NV"},
			},
		},
		Errors:      []string{},
		EvaluatedAt: fixedNow.Add(-time.Minute),
	}}
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

func expectDecisionInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO lease_decisions`).
		WithArgs(
			testDecisionID,
			"BE0123456789",
			"Acme Logistics NV",
			"FAIR",
			false,
			"credit-rating",
			sqlmock.AnyArg(), // rule results JSON
			sqlmock.AnyArg(), // financial terms JSON
			fixedNow.Add(-time.Minute),
			fixedNow,
		)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(testDecisionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	expectDecisionInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("lease_decision_recorded", "lease_decision", testDecisionID, sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, testDecisionID, output.DecisionID)
	assert.Equal(t, StatusRecorded, output.RecordStatus)
	assert.Equal(t, "2024-06-01T09:30:00Z", output.RecordedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AuditFailureIsNotFatal(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(testDecisionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	expectDecisionInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit table locked"))

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, output.RecordStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name           string
		input          func() *Input
		setupMock      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, err error)
	}{
		{
			name: "decision id is not a UUID",
			input: func() *Input {
				in := createTestInput()
				in.DecisionID = "decision-1"
				return in
			},
			setupMock: func(mock sqlmock.Sqlmock) {},
			validateOutput: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrInvalidInput))
				assert.Equal(t, apperrors.ErrCodeInvalidApplicationInput, toStandardError(err, "").Code)
			},
		},
		{
			name:  "duplicate decision",
			input: createTestInput,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(testDecisionID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			validateOutput: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrDuplicateDecision))
				assert.Contains(t, err.Error(), "already recorded")
				std := toStandardError(err, testDecisionID)
				assert.Equal(t, apperrors.ErrCodeDuplicateDecision, std.Code)
				assert.False(t, std.Retryable)
			},
		},
		{
			name:  "duplicate check error",
			input: createTestInput,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(testDecisionID).
					WillReturnError(errors.New("database connection failed"))
			},
			validateOutput: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrDecisionPersistFailed))
				assert.Contains(t, err.Error(), "duplicate check failed")
			},
		},
		{
			name:  "unique violation on insert after a clean check",
			input: createTestInput,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(testDecisionID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				expectDecisionInsert(mock).WillReturnError(&pq.Error{
					Code:       "23505",
					Message:    `duplicate key value violates unique constraint "lease_decisions_pkey"`,
					Constraint: "lease_decisions_pkey",
				})
			},
			validateOutput: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrDuplicateDecision))
				assert.False(t, errors.Is(err, ErrDecisionPersistFailed))
				std := toStandardError(err, testDecisionID)
				assert.Equal(t, apperrors.ErrCodeDuplicateDecision, std.Code)
				assert.False(t, std.Retryable)
			},
		},
		{
			name:  "insert error",
			input: createTestInput,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(testDecisionID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				expectDecisionInsert(mock).WillReturnError(errors.New("disk full"))
			},
			validateOutput: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrDecisionPersistFailed))
				std := toStandardError(err, testDecisionID)
				assert.Equal(t, apperrors.ErrCodeDecisionPersistFailed, std.Code)
				assert.True(t, std.Retryable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newTestHandler(t)
			tt.setupMock(mock)

			output, err := h.Execute(context.Background(), tt.input())

			require.Error(t, err)
			assert.Nil(t, output)
			tt.validateOutput(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_ManualReviewWithoutTerms(t *testing.T) {
	h, mock := newTestHandler(t)

	in := createTestInput()
	in.FinalTier = models.TierManualReview
	in.RequiresManualReview = true
	in.FinancialTerms = nil
	in.TriggeringRule = nil
	in.ManualReviewRules = []string{"pep-screening"}

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(testDecisionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO lease_decisions`).
		WithArgs(
			testDecisionID, "BE0123456789", "Acme Logistics NV", "MANUAL_REVIEW", true,
			nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
