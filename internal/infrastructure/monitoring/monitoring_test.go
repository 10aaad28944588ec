package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordEdgeDecision("redirect_dashboard", "role_mismatch")
	c.RecordEdgeDecision("redirect_dashboard", "role_mismatch")
	c.RecordEdgeDecision("allow", "public")
	c.RecordSessionRejection("expired")
	c.RecordSignIn("invalid_credentials")
	c.RecordAccessDenied("update_agent")
	c.RecordAgentMutation("create_agent")
	c.RecordBackingFailure("identity")
	c.ObserveHTTPRequest("GET", "", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.edgeDecisions.WithLabelValues("redirect_dashboard", "role_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.edgeDecisions.WithLabelValues("allow", "public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionRejections.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.accessDenied.WithLabelValues("update_agent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentMutations.WithLabelValues("create_agent")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpRequestDuration))

	n, err := testutil.GatherAndCount(reg, "agentmart_signin_attempts_total", "agentmart_backing_service_failures_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPrometheusCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusCollector(prometheus.NewRegistry())
		NewPrometheusCollector(prometheus.NewRegistry())
	})
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(ctx context.Context) error { return f.err }

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker()
	h.AddStorageCheck("redis", fakePinger{}, time.Second)
	assert.True(t, h.IsReady(context.Background()))

	h.AddStorageCheck("postgres", fakePinger{err: errors.New("connection refused")}, time.Second)
	status := h.CheckAll(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["storage:redis"])
	assert.Equal(t, "connection refused", status.Checks["storage:postgres"])
	assert.False(t, h.IsReady(context.Background()))
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 10*time.Millisecond)

	status := h.CheckAll(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"])
}
