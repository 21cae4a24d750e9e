package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	derivedStatus *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tixcore_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tixcore_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		mutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tixcore_mutations_total",
				Help: "Entity mutations by outcome and the stage that rejected them",
			},
			[]string{"entity", "operation", "outcome", "stage"},
		),
		derivedStatus: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tixcore_event_status_derived_total",
				Help: "Event statuses produced by date-driven derivation",
			},
			[]string{"status"},
		),
		rateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Name: "tixcore_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}

	if route == "" {
		route = "unmatched"
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveMutation counts one mutating operation. outcome is "ok" or the
// failure kind of err; stage names the validation stage that failed, if any.
func (m *Metrics) ObserveMutation(entity, operation string, err error) {
	if m == nil {
		return
	}

	outcome, stage := "ok", ""
	if err != nil {
		outcome = domain.Kind(err)

		var pe *pipeline.Error
		if errors.As(err, &pe) {
			stage = pe.Stage.String()
		}
	}

	m.mutations.WithLabelValues(entity, operation, outcome, stage).Inc()
}

func (m *Metrics) ObserveDerivedStatus(s domain.EventStatus) {
	if m == nil {
		return
	}
	m.derivedStatus.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
