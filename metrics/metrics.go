// Package metrics exposes meetway's Prometheus instrumentation: search
// invocation counters, termination-reason breakdowns, and HTTP request
// metrics for the httpapi layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetway",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetway",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	// SearchesTotal counts FindMeeting/FindHeatmap invocations by
	// operation and termination reason.
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetway",
		Subsystem: "search",
		Name:      "invocations_total",
		Help:      "Total meeting/heatmap search invocations",
	}, []string{"operation", "reason"})

	// SearchIterations records the iteration count of each completed
	// search, regardless of how it terminated.
	SearchIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetway",
		Subsystem: "search",
		Name:      "iterations",
		Help:      "Iterations of the interleaved-pop driver per search",
		Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
	}, []string{"operation"})

	// SearchDuration records wall-clock time spent inside a search call.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetway",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Wall-clock time of a meeting/heatmap search",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"operation"})

	// IndexBuildDuration is a histogram for schedule.Index.Build wall-clock
	// time; it is registered, but nothing in this module observes it.
	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meetway",
		Subsystem: "schedule",
		Name:      "index_build_duration_seconds",
		Help:      "Time spent building a schedule index from a stored feed",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// ObserveSearch records one completed search's outcome. operation is
// "meet" or "heatmap"; reason is a meet.TerminationReason's String().
func ObserveSearch(operation, reason string, iterations int, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(operation, reason).Inc()
	SearchIterations.WithLabelValues(operation).Observe(float64(iterations))
	SearchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Middleware records per-request HTTP metrics. pattern should be the
// route's chi pattern (low cardinality), not the raw request path.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
