// Package telemetry holds the process-wide prometheus collectors.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mktintel_source_loads_total",
			Help: "Source loads by outcome.",
		},
		[]string{"result"},
	)

	rowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mktintel_rows_loaded_total",
			Help: "Rows read from sources by kind.",
		},
		[]string{"kind"},
	)

	rowsAdjusted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mktintel_rows_adjusted_total",
			Help: "Rows changed or flagged by the validation policy.",
		},
		[]string{"reason"},
	)

	pipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mktintel_pipeline_runs_total",
			Help: "Aggregation passes by outcome.",
		},
		[]string{"result"},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mktintel_pipeline_duration_seconds",
			Help:    "Duration of one full aggregation pass.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5},
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mktintel_http_requests_total",
			Help: "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mktintel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func RecordSourceLoad(ok bool) {
	if ok {
		sourceLoads.WithLabelValues("ok").Inc()
		return
	}
	sourceLoads.WithLabelValues("error").Inc()
}

func RecordRows(kind string, n int) { rowsLoaded.WithLabelValues(kind).Add(float64(n)) }

func RecordAdjusted(reason string, n int) {
	if n > 0 {
		rowsAdjusted.WithLabelValues(reason).Add(float64(n))
	}
}

// ObservePipeline records one pass; empty marks a filter that matched nothing.
func ObservePipeline(d time.Duration, empty bool, err error) {
	switch {
	case err != nil:
		pipelineRuns.WithLabelValues("error").Inc()
	case empty:
		pipelineRuns.WithLabelValues("empty").Inc()
	default:
		pipelineRuns.WithLabelValues("ok").Inc()
	}
	pipelineDuration.Observe(d.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
