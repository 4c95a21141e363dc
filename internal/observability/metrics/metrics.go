package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "evcm_"

	resultSuccess = "success"
	resultError   = "error"

	feedResultLive     = "live"
	feedResultFallback = "fallback"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	storeReads  *prometheus.CounterVec
	storeWrites *prometheus.CounterVec

	projectionTotal   *prometheus.CounterVec
	projectionLatency *prometheus.HistogramVec
	projectionCached  prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	fuelFeedFetches *prometheus.CounterVec
)

// Init registers all service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		storeReads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_reads_total",
				Help: "Total table reads by table and result",
			},
			[]string{"table", "result"},
		)
		storeWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_writes_total",
				Help: "Total table replacements by table and result",
			},
			[]string{"table", "result"},
		)

		projectionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "projection_total",
				Help: "Total cost/savings projections by result",
			},
			[]string{"result"},
		)
		projectionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "projection_latency_seconds",
				Help:    "Projection latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		projectionCached = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "projection_cache_hits_total",
				Help: "Projections served from the memoized result",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		fuelFeedFetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fuel_feed_fetches_total",
				Help: "Reference fuel price lookups by source",
			},
			[]string{"source"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			storeReads,
			storeWrites,
			projectionTotal,
			projectionLatency,
			projectionCached,
			exportTotal,
			exportLatency,
			fuelFeedFetches,
		)
	})
}

// ObserveHTTP records one request.
func ObserveHTTP(method, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// IncStoreRead counts a table read.
func IncStoreRead(table, result string) {
	if result == "" {
		result = resultSuccess
	}
	if storeReads != nil {
		storeReads.WithLabelValues(table, result).Inc()
	}
}

// IncStoreWrite counts a table replacement.
func IncStoreWrite(table, result string) {
	if result == "" {
		result = resultSuccess
	}
	if storeWrites != nil {
		storeWrites.WithLabelValues(table, result).Inc()
	}
}

// ObserveProjection records projection latency and result.
func ObserveProjection(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if projectionTotal != nil {
		projectionTotal.WithLabelValues(result).Inc()
	}
	if projectionLatency != nil {
		projectionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncProjectionCacheHit counts a memoized projection.
func IncProjectionCacheHit() {
	if projectionCached != nil {
		projectionCached.Inc()
	}
}

// ObserveExport records report export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncFuelFeedFetch counts a reference fuel price lookup by source.
func IncFuelFeedFetch(live bool) {
	if fuelFeedFetches == nil {
		return
	}
	source := feedResultFallback
	if live {
		source = feedResultLive
	}
	fuelFeedFetches.WithLabelValues(source).Inc()
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
