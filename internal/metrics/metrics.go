// Package metrics defines the Prometheus instruments for the screening API.
//
// Metrics are exposed via the /metrics endpoint. All operations are safe for
// concurrent use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devscreen"

// Metrics holds the counters and histograms recorded by the service layer.
type Metrics struct {
	// ScreeningsTotal counts completed screenings.
	// Labels: source (ai, fallback), risk_level (low, monitor, high, refer)
	ScreeningsTotal *prometheus.CounterVec

	// FallbacksTotal counts deterministic fallbacks by reason.
	// Labels: reason (disabled, throttled, gateway_error, invalid_output)
	FallbacksTotal *prometheus.CounterVec

	// GatewayDurationSeconds measures LLM gateway call latency.
	// Labels: outcome (success, error)
	GatewayDurationSeconds *prometheus.HistogramVec

	// ReplaysTotal counts screenings answered from the idempotency cache.
	ReplaysTotal prometheus.Counter

	// RateLimitedTotal counts requests rejected by the inbound limiter.
	RateLimitedTotal prometheus.Counter
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScreeningsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenings_total",
			Help:      "Completed screenings by report source and risk level",
		}, []string{"source", "risk_level"}),

		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Screenings answered by the deterministic classifier, by reason",
		}, []string{"reason"}),

		GatewayDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_duration_seconds",
			Help:      "LLM gateway call latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"outcome"}),

		ReplaysTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Screenings returned from the idempotency cache",
		}),

		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the inbound rate limiter",
		}),
	}
}

// ObserveGateway records one gateway attempt.
func (m *Metrics) ObserveGateway(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GatewayDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}
