package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"lease-risk-workers/internal/common/config"
	apperrors "lease-risk-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}
}

// ============================================================================
// ExecuteWithRetry
// ============================================================================

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name           string
		errs           []error
		validateOutput func(t *testing.T, result interface{}, err error, calls int)
	}{
		{
			name: "succeeds first time",
			errs: nil,
			validateOutput: func(t *testing.T, result interface{}, err error, calls int) {
				require.NoError(t, err)
				assert.Equal(t, "ok", result)
				assert.Equal(t, 1, calls)
			},
		},
		{
			name: "retries transient then succeeds",
			errs: []error{errors.New("rpc error: code = Unavailable"), errors.New("connection refused")},
			validateOutput: func(t *testing.T, result interface{}, err error, calls int) {
				require.NoError(t, err)
				assert.Equal(t, 3, calls)
			},
		},
		{
			name: "permanent error not retried",
			errs: []error{errors.New("permission denied")},
			validateOutput: func(t *testing.T, result interface{}, err error, calls int) {
				require.Error(t, err)
				assert.Equal(t, 1, calls)
				up, ok := apperrors.AsUpstream(err)
				require.True(t, ok)
				assert.Equal(t, "zeebe", up.Service)
				assert.Equal(t, 401, up.StatusCode)
			},
		},
		{
			name: "gives up after max retries",
			errs: []error{
				errors.New("deadline exceeded"),
				errors.New("deadline exceeded"),
				errors.New("deadline exceeded"),
			},
			validateOutput: func(t *testing.T, result interface{}, err error, calls int) {
				require.Error(t, err)
				assert.Equal(t, 3, calls)
				up, ok := apperrors.AsUpstream(err)
				require.True(t, ok)
				assert.True(t, up.Timeout)
				assert.Contains(t, err.Error(), "after 3 attempts")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := testClient().ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
				calls++
				if calls <= len(tt.errs) {
					return nil, tt.errs[calls-1]
				}
				return "ok", nil
			}, "test")
			tt.validateOutput(t, result, err, calls)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := testClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("unavailable")
	}, "topology")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("Connection Reset by peer")))
	assert.True(t, isRetryableZeebeError(errors.New("broken pipe")))
	assert.False(t, isRetryableZeebeError(errors.New("NOT_FOUND: process")))
}

func TestConfigFrom(t *testing.T) {
	cc := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Plaintext: true, RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.True(t, cc.UsePlaintextConnection)
	assert.Equal(t, 5*time.Second, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}
