package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records push delivery instrumentation.
type DispatchMetrics struct {
	attempts        *prometheus.CounterVec
	tickets         *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_dispatch_attempts",
		Help: "Push dispatch attempts by notification type and outcome.",
	}, []string{"type", "outcome"})
	tickets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_delivery_tickets",
		Help: "Provider tickets by status.",
	}, []string{"status"})
	providerLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "push_provider_latency_seconds",
		Help:    "Latency of push provider calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(attempts, tickets, providerLatency)
	return &DispatchMetrics{
		attempts:        attempts,
		tickets:         tickets,
		providerLatency: providerLatency,
	}
}

// IncAttempt increments the dispatch attempt counter for the given type and outcome.
func (d *DispatchMetrics) IncAttempt(notificationType, outcome string) {
	if d == nil || d.attempts == nil {
		return
	}
	d.attempts.WithLabelValues(normalizeLabel(notificationType), normalizeLabel(outcome)).Inc()
}

// IncTicket increments the provider ticket counter for the given status.
func (d *DispatchMetrics) IncTicket(status string) {
	if d == nil || d.tickets == nil {
		return
	}
	d.tickets.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveProviderLatency records the duration of a push provider call.
func (d *DispatchMetrics) ObserveProviderLatency(provider string, duration time.Duration) {
	if d == nil || d.providerLatency == nil {
		return
	}
	d.providerLatency.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
