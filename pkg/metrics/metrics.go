package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check-in outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
)

type Metrics struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	checkinsTotal       *prometheus.CounterVec
	archivesTotal       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		checkinsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_checkins_total",
				Help: "Attendance check-in attempts by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
		archivesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_archives_total",
				Help: "Report archive uploads by result.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration, m.checkinsTotal, m.archivesTotal)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// CheckinRecorded counts one check-in attempt.
func (m *Metrics) CheckinRecorded(channel, outcome string) {
	m.checkinsTotal.WithLabelValues(channel, outcome).Inc()
}

// ArchiveUploaded counts one archive attempt; err == nil is a success.
func (m *Metrics) ArchiveUploaded(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.archivesTotal.WithLabelValues(result).Inc()
}

// Instrument records in-flight requests, request counts and latency. Requests
// are labelled with the chi route pattern so ids don't explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
