package vies

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonerrors "lease-risk-workers/internal/common/errors"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		validateOutput func(t *testing.T, resp *models.VATRegistryResponse, err error)
	}{
		{
			name:   "valid number",
			status: http.StatusOK,
			body:   `{"isValid": true, "name": "ACME LOGISTICS NV", "address": "Kaai 1, 2000 Antwerpen", "userError": "VALID"}`,
			validateOutput: func(t *testing.T, resp *models.VATRegistryResponse, err error) {
				require.NoError(t, err)
				assert.True(t, resp.Valid)
				assert.Equal(t, "ACME LOGISTICS NV", resp.Name)
				assert.Equal(t, "VALID", resp.ErrorCode)
			},
		},
		{
			name:   "withheld name",
			status: http.StatusOK,
			body:   `{"isValid": true, "name": "---", "address": "---"}`,
			validateOutput: func(t *testing.T, resp *models.VATRegistryResponse, err error) {
				require.NoError(t, err)
				assert.Empty(t, resp.Name)
				assert.Empty(t, resp.Address)
			},
		},
		{
			name:   "transient code in success body",
			status: http.StatusOK,
			body:   `{"isValid": false, "userError": "MS_MAX_CONCURRENT_REQ"}`,
			validateOutput: func(t *testing.T, resp *models.VATRegistryResponse, err error) {
				require.NoError(t, err)
				assert.False(t, resp.Valid)
				assert.Equal(t, "MS_MAX_CONCURRENT_REQ", resp.ErrorCode)
			},
		},
		{
			name:   "error body",
			status: http.StatusInternalServerError,
			body:   `{"actionSucceed": false, "errorWrappers": [{"error": "MS_UNAVAILABLE", "message": "member state down"}]}`,
			validateOutput: func(t *testing.T, resp *models.VATRegistryResponse, err error) {
				require.Error(t, err)
				up, ok := commonerrors.AsUpstream(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusInternalServerError, up.StatusCode)
				assert.Equal(t, "MS_UNAVAILABLE", up.Code)
				assert.True(t, up.IsServerError())
			},
		},
		{
			name:   "bad request without body",
			status: http.StatusBadRequest,
			validateOutput: func(t *testing.T, resp *models.VATRegistryResponse, err error) {
				up, ok := commonerrors.AsUpstream(err)
				require.True(t, ok)
				assert.True(t, up.IsClientError())
				assert.Empty(t, up.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/ms/BE/vat/0123456789", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", httpclient.NewClient(5*time.Second))
			resp, err := c.Validate(context.Background(), "BE", "0123456789")
			tt.validateOutput(t, resp, err)
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, httpclient.NewClient(5*time.Second)).Validate(ctx, "BE", "0123456789")
	up, ok := commonerrors.AsUpstream(err)
	require.True(t, ok)
	assert.True(t, up.Timeout)
}
