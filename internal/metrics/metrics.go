package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for pimis.
// All methods are safe on a nil receiver, which records nothing.
type Metrics struct {
	// Session flow metrics
	SessionFlows *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec
	CheckErrors  *prometheus.CounterVec

	// Backend call metrics
	BackendRequests *prometheus.CounterVec

	// Navigation metrics
	MenuRenders *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		SessionFlows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pimis_session_flows_total",
				Help: "Session flows by flow name and outcome",
			},
			[]string{"flow", "outcome"},
		),
		FlowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pimis_session_flow_duration_seconds",
				Help:    "Duration of session flows including backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"flow"},
		),
		CheckErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pimis_check_error_total",
				Help: "HTTP statuses passed through the session error hook",
			},
			[]string{"status"},
		),
		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pimis_backend_requests_total",
				Help: "Backend HTTP calls by endpoint and status class",
			},
			[]string{"endpoint", "status"},
		),
		MenuRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pimis_menu_renders_total",
				Help: "Authorized menu computations by application variant",
			},
			[]string{"variant"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pimis_errors_total",
				Help: "Errors by structured error code",
			},
			[]string{"code"},
		),
	}
}

// RecordFlow counts one session flow and observes its duration.
func (m *Metrics) RecordFlow(flow, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionFlows.WithLabelValues(flow, outcome).Inc()
	m.FlowDuration.WithLabelValues(flow).Observe(d.Seconds())
}

// RecordCheckError counts a status seen by the error hook.
func (m *Metrics) RecordCheckError(status int) {
	if m == nil {
		return
	}
	m.CheckErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RecordBackend counts a backend call. status 0 means the request never got a response.
func (m *Metrics) RecordBackend(endpoint string, status int) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
}

// RecordMenuRender counts one authorized menu computation.
func (m *Metrics) RecordMenuRender(variant string) {
	if m == nil {
		return
	}
	m.MenuRenders.WithLabelValues(variant).Inc()
}

// RecordError counts a coded error.
func (m *Metrics) RecordError(code string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code).Inc()
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
