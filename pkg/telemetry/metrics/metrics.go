// Package metrics exposes Prometheus metrics for the routing layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcome labels used by RouterMetrics.RecordRequest.
const (
	OutcomeSuccess       = "success"
	OutcomeRateLimited   = "rate_limited"
	OutcomeNoProviders   = "no_providers"
	OutcomeUpstreamError = "upstream_error"
)

// RouterMetrics tracks admission-control and routing behavior.
//
// Metrics:
//   - <ns>_router_requests_total: requests by key, model and outcome
//   - <ns>_router_admission_denials_total: local denials by key and period
//   - <ns>_router_failovers_total: failover attempts by model
//   - <ns>_router_key_utilization: quota utilization gauge per key and model
//   - <ns>_router_upstream_latency_seconds: upstream call latency
type RouterMetrics struct {
	requests         *prometheus.CounterVec
	admissionDenials *prometheus.CounterVec
	failovers        *prometheus.CounterVec
	utilization      *prometheus.GaugeVec
	upstreamLatency  *prometheus.HistogramVec
}

// NewRouterMetrics creates and registers router metrics with the registry.
func NewRouterMetrics(namespace string, registry *prometheus.Registry) *RouterMetrics {
	rm := &RouterMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "requests_total",
				Help:      "Total routed requests by key, model and outcome",
			},
			[]string{"key", "model", "outcome"},
		),

		admissionDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "admission_denials_total",
				Help:      "Local admission denials by key and exhausted quota period",
			},
			[]string{"key", "period"},
		),

		failovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "failovers_total",
				Help:      "Failover attempts triggered by rate-limit rejections",
			},
			[]string{"model"},
		),

		utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "key_utilization",
				Help:      "Quota utilization in [0,1] per key and model",
			},
			[]string{"key", "model"},
		),

		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "upstream_latency_seconds",
				Help:      "Upstream completion call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"key", "model"},
		),
	}

	registry.MustRegister(
		rm.requests,
		rm.admissionDenials,
		rm.failovers,
		rm.utilization,
		rm.upstreamLatency,
	)

	return rm
}

// RecordRequest counts one routed request with its outcome.
func (rm *RouterMetrics) RecordRequest(key, model, outcome string) {
	rm.requests.WithLabelValues(key, model, outcome).Inc()
}

// RecordDenial counts a local admission denial for a key and period.
func (rm *RouterMetrics) RecordDenial(key, period string) {
	rm.admissionDenials.WithLabelValues(key, period).Inc()
}

// RecordFailover counts a failover attempt for a model.
func (rm *RouterMetrics) RecordFailover(model string) {
	rm.failovers.WithLabelValues(model).Inc()
}

// SetUtilization updates the utilization gauge for a key and model.
func (rm *RouterMetrics) SetUtilization(key, model string, value float64) {
	rm.utilization.WithLabelValues(key, model).Set(value)
}

// ObserveUpstreamLatency records one upstream call duration.
func (rm *RouterMetrics) ObserveUpstreamLatency(key, model string, seconds float64) {
	rm.upstreamLatency.WithLabelValues(key, model).Observe(seconds)
}
