// Package metrics exposes dispatch and HTTP metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"tgchannel/internal/channel"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tgchannel"

// Metrics owns a private registry so several instances can coexist (tests).
type Metrics struct {
	reg *prometheus.Registry

	dispatches     *prometheus.CounterVec
	dispatchTime   *prometheus.HistogramVec
	failuresStored prometheus.Counter

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Telegram dispatches by method and outcome.",
		}, []string{"method", "outcome"}),
		dispatchTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of telegram dispatches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		failuresStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_stored_total",
			Help:      "Failure reports persisted to storage.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),
	}
}

// ObserveDispatch implements channel.Observer.
func (m *Metrics) ObserveDispatch(method string, outcome channel.Outcome, took time.Duration) {
	if method == "" {
		method = "unknown"
	}
	m.dispatches.WithLabelValues(method, string(outcome)).Inc()
	m.dispatchTime.WithLabelValues(method, string(outcome)).Observe(took.Seconds())
}

// FailureStored counts a persisted failure record.
func (m *Metrics) FailureStored() { m.failuresStored.Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records RED metrics keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		m.httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(path, r.Method, status).Inc()
	})
}
