package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	o := New(Config{ServiceName: "lease-risk-test", Registerer: reg})
	defer o.Shutdown()

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "evaluate-lease-risk", "completed")
	o.RecordJobDuration(ctx, "evaluate-lease-risk", 120*time.Millisecond, "completed")
	o.RecordDecision(ctx, "FAIR", false)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs_processed")
	assert.Contains(t, joined, "lease_decisions")
}

func TestObservability_StartSpan(t *testing.T) {
	o := New(Config{ServiceName: "lease-risk-test", Registerer: promclient.NewRegistry()})
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "evaluate")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NotNil(t, ctx)

	var zero Observability
	_, span = zero.StartSpan(context.Background(), "fallback")
	span.End()
	zero.RecordDecision(context.Background(), "GOOD", false)
}
