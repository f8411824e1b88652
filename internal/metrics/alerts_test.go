package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAlertMetrics_Records(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewAlertMetrics(reg)

	m.ObserveRefresh("request", 10*time.Millisecond, nil)
	m.ObserveRefresh("request", 5*time.Millisecond, errors.New("boom"))
	m.ObserveRefresh("", time.Millisecond, nil)
	m.AddOutcome("created", 2)
	m.AddOutcome("created", 1)
	m.AddOutcome("skipped", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("request", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("request", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("unknown", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.outcomes.WithLabelValues("created")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestAlertMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *AlertMetrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("request", time.Second, nil)
		m.AddOutcome("created", 1)
	})

	empty := NewAlertMetrics(nil)
	assert.NotPanics(t, func() {
		empty.ObserveRefresh("schedule", time.Second, nil)
		empty.AddOutcome("updated", 1)
	})
}
