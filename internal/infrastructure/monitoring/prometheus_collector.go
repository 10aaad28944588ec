package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agentmart"

type PrometheusCollector struct {
	edgeDecisions     *prometheus.CounterVec
	sessionRejections *prometheus.CounterVec
	signInAttempts    *prometheus.CounterVec
	accessDenied      *prometheus.CounterVec
	agentMutations    *prometheus.CounterVec

	httpRequestDuration *prometheus.HistogramVec
	backingFailures     *prometheus.CounterVec
}

// NewPrometheusCollector registers every metric on reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		edgeDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_decisions_total",
			Help:      "Edge gate decisions by action and reason",
		}, []string{"action", "reason"}),

		sessionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_rejections_total",
			Help:      "Session cookies rejected at the edge, by kind (malformed, expired)",
		}, []string{"kind"}),

		signInAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_attempts_total",
			Help:      "Sign-in attempts by outcome",
		}, []string{"outcome"}),

		accessDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Operations rejected by the role-scoped access gate",
		}, []string{"operation"}),

		agentMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_mutations_total",
			Help:      "Successful agent writes by operation",
		}, []string{"operation"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),

		backingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backing_service_failures_total",
			Help:      "Identity or storage calls that failed and were treated as logged out",
		}, []string{"component"}),
	}
}

func (c *PrometheusCollector) RecordEdgeDecision(action, reason string) {
	c.edgeDecisions.WithLabelValues(action, reason).Inc()
}

func (c *PrometheusCollector) RecordSessionRejection(kind string) {
	c.sessionRejections.WithLabelValues(kind).Inc()
}

func (c *PrometheusCollector) RecordSignIn(outcome string) {
	c.signInAttempts.WithLabelValues(outcome).Inc()
}

func (c *PrometheusCollector) RecordAccessDenied(operation string) {
	c.accessDenied.WithLabelValues(operation).Inc()
}

func (c *PrometheusCollector) RecordAgentMutation(operation string) {
	c.agentMutations.WithLabelValues(operation).Inc()
}

func (c *PrometheusCollector) RecordBackingFailure(component string) {
	c.backingFailures.WithLabelValues(component).Inc()
}

// ObserveHTTPRequest records latency. route is the gin route template, so
// label cardinality stays bounded.
func (c *PrometheusCollector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Counter accessors, mainly for tests.

func (c *PrometheusCollector) EdgeDecisions(action, reason string) prometheus.Counter {
	return c.edgeDecisions.WithLabelValues(action, reason)
}

func (c *PrometheusCollector) SessionRejections(kind string) prometheus.Counter {
	return c.sessionRejections.WithLabelValues(kind)
}

func (c *PrometheusCollector) BackingFailures(component string) prometheus.Counter {
	return c.backingFailures.WithLabelValues(component)
}
