package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/alerts", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/v1/alerts", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/v1/alerts", "POST", "VALIDATION_FAILED")
	m.TicketEscalated("CRITICAL")
	m.SLAUpdated("BREACHED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/alerts", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpErrorsTotal.WithLabelValues("POST", "/api/v1/alerts", "VALIDATION_FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketsEscalated.WithLabelValues("CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slaSweepUpdates.WithLabelValues("BREACHED")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.TicketEscalated("HIGH")
		m.SLAUpdated("AT_RISK")
		m.NotificationRecorded("EMAIL", "SENT")
		m.RealtimeConnected(1)
	})
	assert.NotNil(t, m.Handler())
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
