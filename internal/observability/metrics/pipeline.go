package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics observes the recommendation pipeline and its HTTP
// surface on a dedicated registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	moderationTotal     *prometheus.CounterVec
	candidateCount      *prometheus.HistogramVec
	selectionTotal      *prometheus.CounterVec
	toolCallsTotal      *prometheus.CounterVec
	groundingViolations *prometheus.CounterVec
	pipelineDuration    *prometheus.HistogramVec
	mediaJobsTotal      *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "librarian",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	moderationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "moderation_total",
			Help:      "Moderation gate outcomes (allowed, rejected, unavailable).",
		},
		[]string{"service", "outcome"},
	)
	candidateCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "retrieved_candidates",
			Help:      "Distribution of candidates returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
		},
		[]string{"service"},
	)
	selectionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "selections_total",
			Help:      "Selection outcomes per request.",
		},
		[]string{"service", "outcome"},
	)
	toolCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "summary_lookups_total",
			Help:      "Requests in which the selector used the summary lookup tool.",
		},
		[]string{"service"},
	)
	groundingViolations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "grounding_violations_total",
			Help:      "Selector answers rejected for naming a title outside the candidate set.",
		},
		[]string{"service"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	mediaJobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "media",
			Name:      "jobs_total",
			Help:      "Media jobs by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		moderationTotal,
		candidateCount,
		selectionTotal,
		toolCallsTotal,
		groundingViolations,
		pipelineDuration,
		mediaJobsTotal,
	)

	return &PipelineMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		moderationTotal:     moderationTotal,
		candidateCount:      candidateCount,
		selectionTotal:      selectionTotal,
		toolCallsTotal:      toolCallsTotal,
		groundingViolations: groundingViolations,
		pipelineDuration:    pipelineDuration,
		mediaJobsTotal:      mediaJobsTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *PipelineMetrics) RecordModeration(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.moderationTotal.WithLabelValues(service, outcome).Inc()
}

func (m *PipelineMetrics) RecordPipeline(service, selectionOutcome string, candidates int, usedTool bool, duration time.Duration) {
	m.candidateCount.WithLabelValues(service).Observe(float64(candidates))
	m.pipelineDuration.WithLabelValues(service).Observe(duration.Seconds())
	if selectionOutcome == "" {
		selectionOutcome = "unknown"
	}
	m.selectionTotal.WithLabelValues(service, selectionOutcome).Inc()
	if usedTool {
		m.toolCallsTotal.WithLabelValues(service).Inc()
	}
}

func (m *PipelineMetrics) RecordGroundingViolation(service string) {
	m.groundingViolations.WithLabelValues(service).Inc()
}

func (m *PipelineMetrics) RecordMediaJob(service, kind, status string) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.mediaJobsTotal.WithLabelValues(service, kind, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
