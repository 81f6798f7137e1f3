package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of analysis requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	analysisSeverity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_severity_total",
			Help: "Completed analyses by severity bucket",
		},
		[]string{"severity"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of file extractions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	draftsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drafts_saved_total",
			Help: "Total number of drafts persisted",
		},
	)

	tasksCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_tasks_cancelled_total",
			Help: "In-flight workflow tasks cancelled before completion",
		},
		[]string{"kind"},
	)

	sessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Total number of sessions opened",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := routeTemplate(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// routeTemplate labels by the matched mux route to keep cardinality bounded
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// --- Business metric helpers ---

// RecordAnalysis records a finished analysis attempt
func RecordAnalysis(provider, outcome string, duration time.Duration) {
	analysesTotal.WithLabelValues(provider, outcome).Inc()
	analysisDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSeverity records the severity of a completed analysis
func RecordSeverity(severity string) {
	analysisSeverity.WithLabelValues(severity).Inc()
}

// RecordExtraction records a file extraction attempt
func RecordExtraction(kind, outcome string) {
	extractionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDraftSaved records a persisted draft
func RecordDraftSaved() {
	draftsSaved.Inc()
}

// RecordTaskCancelled records a workflow task cancelled mid-flight
func RecordTaskCancelled(kind string) {
	tasksCancelled.WithLabelValues(kind).Inc()
}

// RecordSessionStarted records a new session
func RecordSessionStarted() {
	sessionsStarted.Inc()
}
