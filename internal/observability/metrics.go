package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpErrorsTotal     *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	ticketsEscalated    *prometheus.CounterVec
	slaSweepUpdates     *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	realtimeConnections prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests that ended in an error envelope",
		}, []string{"method", "path", "code"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ticketsEscalated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alertdesk_tickets_escalated_total",
			Help: "Tickets created automatically from alerts",
		}, []string{"priority"}),
		slaSweepUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alertdesk_sla_sweep_updates_total",
			Help: "SLA standings changed by the periodic sweep",
		}, []string{"sla_status"}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alertdesk_notifications_total",
			Help: "Notifications recorded, by channel and delivery status",
		}, []string{"channel", "status"}),
		realtimeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "alertdesk_realtime_connections",
			Help: "Open websocket connections",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// TicketEscalated counts an automatic alert escalation.
func (m *Metrics) TicketEscalated(priority string) {
	if m == nil {
		return
	}
	m.ticketsEscalated.WithLabelValues(priority).Inc()
}

// SLAUpdated counts a standing change written by the sweep.
func (m *Metrics) SLAUpdated(status string) {
	if m == nil {
		return
	}
	m.slaSweepUpdates.WithLabelValues(status).Inc()
}

// NotificationRecorded counts a notification outcome.
func (m *Metrics) NotificationRecorded(channel, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(channel, status).Inc()
}

// RealtimeConnected tracks websocket connection churn.
func (m *Metrics) RealtimeConnected(delta int) {
	if m == nil {
		return
	}
	m.realtimeConnections.Add(float64(delta))
}
