// Package metrics exposes engine counters and histograms to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rpcCallsTotal       *prometheus.CounterVec
	rpcCallDuration     *prometheus.HistogramVec
	guardrailViolations *prometheus.CounterVec
}

// NewRecorder registers every metric under prefix (e.g. "hera").
func NewRecorder(prefix string) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		rpcCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_rpc_calls_total",
			Help: "Total number of gateway calls by operation, action and result code",
		}, []string{"operation", "action", "code"}),
		rpcCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_rpc_call_duration_seconds",
			Help:    "Duration of gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "action"}),
		guardrailViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_guardrail_violations_total",
			Help: "Total number of guardrail violations by rule and code",
		}, []string{"rule", "code"}),
	}
}

// ObserveHTTP implements middleware.HTTPObserver.
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	s := strconv.Itoa(status)
	r.httpRequestsTotal.WithLabelValues(method, route, s).Inc()
	r.httpRequestDuration.WithLabelValues(method, route, s).Observe(elapsed.Seconds())
}

// ObserveRPC implements gateway.Observer.
func (r *Recorder) ObserveRPC(operation, action, code string, elapsed time.Duration) {
	r.rpcCallsTotal.WithLabelValues(operation, action, code).Inc()
	r.rpcCallDuration.WithLabelValues(operation, action).Observe(elapsed.Seconds())
}

// ObserveViolation matches guardrails.Observer.
func (r *Recorder) ObserveViolation(v apperrors.Violation) {
	r.guardrailViolations.WithLabelValues(v.Rule, v.Code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }
