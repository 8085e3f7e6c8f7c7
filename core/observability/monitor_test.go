package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorSessions(t *testing.T) {
	m := NewMonitor(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.activeSessions))
}

func TestMonitorRecordRequest(t *testing.T) {
	m := NewMonitor(prometheus.NewRegistry())

	m.RecordRequest("/api/echo", 200, time.Millisecond, false)
	m.RecordRequest("/api/echo", 500, 2*time.Millisecond, true)
	m.RecordRequest(UnmatchedRoute, 404, 0, false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("/api/echo", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("/api/echo", "500")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(UnmatchedRoute, "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.handlerErrors.WithLabelValues("/api/echo")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency), "unmatched requests are not timed")
}

func TestMonitorTransportErrors(t *testing.T) {
	m := NewMonitor(prometheus.NewRegistry())

	m.TransportError(OpRead)
	m.TransportError(OpRead)
	m.TransportError(OpAccept)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transportErrors.WithLabelValues(OpRead)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transportErrors.WithLabelValues(OpAccept)))
}

func TestNilMonitorIsNoop(t *testing.T) {
	var m *Monitor
	m.SessionOpened()
	m.SessionClosed()
	m.TransportError(OpWrite)
	m.RecordRequest("/x", 200, time.Second, false)
}

func TestMonitorDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMonitor(reg)
	require.Panics(t, func() { NewMonitor(reg) })
}
