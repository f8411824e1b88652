// Package metrics exposes Prometheus collectors for the alert engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AlertMetrics records alert refresh activity. A nil *AlertMetrics, or one
// built without a registerer, records nothing.
type AlertMetrics struct {
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
}

// NewAlertMetrics registers the alert metrics on the provided registerer.
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	if reg == nil {
		return &AlertMetrics{}
	}
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Name:      "alert_refresh_total",
		Help:      "Alert refreshes by trigger and result.",
	}, []string{"trigger", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pricewatch",
		Name:      "alert_refresh_duration_seconds",
		Help:      "Duration of a per-user alert refresh in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"trigger"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Name:      "alert_product_outcomes_total",
		Help:      "Per-product outcomes of alert refreshes.",
	}, []string{"outcome"})
	reg.MustRegister(refreshes, duration, outcomes)
	return &AlertMetrics{
		refreshes: refreshes,
		duration:  duration,
		outcomes:  outcomes,
	}
}

// ObserveRefresh records one refresh for the given trigger ("request" or "schedule").
func (m *AlertMetrics) ObserveRefresh(trigger string, d time.Duration, err error) {
	if m == nil || m.refreshes == nil {
		return
	}
	trigger = normalizeLabel(trigger)
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.refreshes.WithLabelValues(trigger, result).Inc()
	m.duration.WithLabelValues(trigger).Observe(d.Seconds())
}

// AddOutcome counts n products that ended a refresh with the given outcome
// (created, updated, unchanged, retracted, skipped, below_threshold, failed).
func (m *AlertMetrics) AddOutcome(outcome string, n int) {
	if m == nil || m.outcomes == nil || n <= 0 {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
