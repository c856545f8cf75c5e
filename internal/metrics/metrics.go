// Package metrics exposes Prometheus metrics for HTTP traffic and the media pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus metrics.
type Collector struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	uploads            *prometheus.CounterVec
	conversionLatency  *prometheus.HistogramVec
	conversionFailures *prometheus.CounterVec
	cleanupFailures    prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babybook_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "babybook_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babybook_uploads_total",
			Help: "Stored uploads by media type and protocol.",
		}, []string{"media_type", "protocol"}),
		conversionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "babybook_conversion_duration_seconds",
			Help:    "Media conversion step latency.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"step"}),
		conversionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "babybook_conversion_failures_total",
			Help: "Failed media conversion steps.",
		}, []string{"step"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "babybook_storage_cleanup_failures_total",
			Help: "Object deletes that failed after the database row was removed.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.uploads,
		c.conversionLatency,
		c.conversionFailures,
		c.cleanupFailures,
	)

	return c
}

func (c *Collector) RecordRequest(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordUpload(mediaType, protocol string) {
	c.uploads.WithLabelValues(mediaType, protocol).Inc()
}

// ObserveConversion satisfies media.Observer.
func (c *Collector) ObserveConversion(step string, d time.Duration, err error) {
	c.conversionLatency.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		c.conversionFailures.WithLabelValues(step).Inc()
	}
}

func (c *Collector) RecordCleanupFailure() {
	c.cleanupFailures.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics, for the separate metrics listener.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
