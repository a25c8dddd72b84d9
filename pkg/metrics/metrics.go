// Package metrics provides Prometheus metrics for the finder server.
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
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Search metrics
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_searches_total",
			Help: "Total searches by the partition that satisfied them",
		},
		[]string{"source", "variant"},
	)

	partitionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_partition_errors_total",
			Help: "Partition queries that failed or timed out and were treated as empty",
		},
		[]string{"partition"},
	)

	partitionQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finder_partition_query_duration_seconds",
			Help:    "Partition query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"partition"},
	)

	// Stream metrics
	chunkFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_chunk_fetches_total",
			Help: "Total remote chunk fetches",
		},
		[]string{"status"},
	)

	chunkFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finder_chunk_fetch_duration_seconds",
			Help:    "Remote chunk fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	bytesStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finder_bytes_streamed_total",
			Help: "Total bytes written to download responses",
		},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_downloads_total",
			Help: "Total number of download responses",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSearch records which partition and query variant answered a search.
// source is "none" when every attempt came back empty.
func RecordSearch(source, variant string) {
	searchesTotal.WithLabelValues(source, variant).Inc()
}

func RecordPartitionQuery(partition string, duration time.Duration, err error) {
	partitionQueryDuration.WithLabelValues(partition).Observe(duration.Seconds())
	if err != nil {
		partitionErrorsTotal.WithLabelValues(partition).Inc()
	}
}

// RecordChunkFetch records a remote chunk fetch.
func RecordChunkFetch(duration time.Duration, err error) {
	chunkFetchDuration.Observe(duration.Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	chunkFetchesTotal.WithLabelValues(status).Inc()
}

// RecordDownload records a finished download response.
func RecordDownload(status int, bytes int64) {
	bytesStreamed.Add(float64(bytes))
	downloadsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics. Requests
// are labelled by their mux pattern so path parameters do not create series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
