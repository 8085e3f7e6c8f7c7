package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "json_server"

// UnmatchedRoute is the route label used for requests that matched nothing,
// keeping label cardinality bounded.
const UnmatchedRoute = "<unmatched>"

// Transport operations reported by TransportError.
const (
	OpAccept = "accept"
	OpRead   = "read"
	OpWrite  = "write"
)

// latencyBuckets mirror the 1ms..10s bands the monitor has always reported.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// Monitor records server metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	sessions        prometheus.Counter
	activeSessions  prometheus.Gauge
	transportErrors *prometheus.CounterVec
	requests        *prometheus.CounterVec
	handlerErrors   *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// NewMonitor creates a monitor and registers its collectors with reg.
func NewMonitor(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Connections accepted.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Connections currently open.",
		}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Accept, read and write faults.",
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Dispatched requests by route and status code.",
		}, []string{"route", "code"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Handler faults converted to 500 responses.",
		}, []string{"route"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent inside route handlers.",
			Buckets:   latencyBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(m.sessions, m.activeSessions, m.transportErrors, m.requests, m.handlerErrors, m.latency)
	return m
}

// SessionOpened records an accepted connection.
func (m *Monitor) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
	m.activeSessions.Inc()
}

// SessionClosed records a released connection.
func (m *Monitor) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// TransportError records an I/O fault for op.
func (m *Monitor) TransportError(op string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(op).Inc()
}

// RecordRequest records one dispatch outcome.
func (m *Monitor) RecordRequest(route string, code int, duration time.Duration, isError bool) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	if route == UnmatchedRoute {
		return
	}
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
	if isError {
		m.handlerErrors.WithLabelValues(route).Inc()
	}
}
