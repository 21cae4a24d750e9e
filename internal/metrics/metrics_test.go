package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestObserveMutation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveMutation("event", "create", nil)
	m.ObserveMutation("event", "create", fmt.Errorf("op: %w", &pipeline.Error{
		Stage: pipeline.Duplicates,
		Err:   &domain.DuplicateError{Entity: "event", Message: "dup"},
	}))
	m.ObserveMutation("event", "cancel", &domain.IllegalStateError{Message: "no"})

	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_mutations_total",
		map[string]string{"entity": "event", "operation": "create", "outcome": "ok", "stage": ""}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_mutations_total",
		map[string]string{"operation": "create", "outcome": "duplicate", "stage": "duplicates"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_mutations_total",
		map[string]string{"operation": "cancel", "outcome": "illegal_state"}))
}

func TestObserveHTTPAndDerived(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTP("GET", "/events/:id", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "/events/:id", 200, 20*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.ObserveDerivedStatus(domain.EventUpcoming)
	m.ObserveRateLimited()

	assert.Equal(t, 2.0, counterValue(t, reg, "tixcore_http_requests_total",
		map[string]string{"route": "/events/:id", "code": "200"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_http_requests_total",
		map[string]string{"route": "unmatched", "code": "404"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_event_status_derived_total",
		map[string]string{"status": "UPCOMING"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tixcore_rate_limited_total", nil))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.ObserveMutation("event", "create", nil)
		m.ObserveDerivedStatus(domain.EventActive)
		m.ObserveRateLimited()
	})
}
