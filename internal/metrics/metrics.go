// Package metrics holds the Prometheus collectors for the MonoPay server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors bound to one registry, so tests can
// build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	authResults   *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
	notifications *prometheus.CounterVec
	cleanupPurged *prometheus.CounterVec
	cleanupErrors *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monopay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		authResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_auth_operations_total",
				Help: "Auth operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		gateDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_gate_decisions_total",
				Help: "Request gate decisions",
			},
			[]string{"decision", "api"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_notifications_total",
				Help: "Notification delivery attempts by provider",
			},
			[]string{"provider", "result"},
		),
		cleanupPurged: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_cleanup_deleted_total",
				Help: "Expired records removed by the cleanup worker",
			},
			[]string{"task"},
		),
		cleanupErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monopay_cleanup_errors_total",
				Help: "Cleanup task failures",
			},
			[]string{"task"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAuth counts one auth operation.
func (m *Metrics) RecordAuth(operation, outcome string) {
	m.authResults.WithLabelValues(operation, outcome).Inc()
}

// RecordGate counts one gate decision.
func (m *Metrics) RecordGate(decision string, api bool) {
	m.gateDecisions.WithLabelValues(decision, strconv.FormatBool(api)).Inc()
}

// RecordNotification counts one delivery attempt.
func (m *Metrics) RecordNotification(provider string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(provider, result).Inc()
}

// RecordCleanup counts one cleanup task run.
func (m *Metrics) RecordCleanup(task string, deleted int64, err error) {
	if err != nil {
		m.cleanupErrors.WithLabelValues(task).Inc()
		return
	}
	m.cleanupPurged.WithLabelValues(task).Add(float64(deleted))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency, labelled by the chi
// route pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
