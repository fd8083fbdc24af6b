package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ETL pipeline and the summary API

var (
	// ETL metrics
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtvision_etl_events_total",
			Help: "Total number of events processed by outcome",
		},
		[]string{"outcome"},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtvision_etl_batches_total",
			Help: "Total number of event batches by status",
		},
		[]string{"status"},
	)

	BatchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtvision_etl_batch_retries_total",
			Help: "Total number of batch transaction retries",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courtvision_etl_batch_duration_seconds",
			Help:    "Duration of batch upsert transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ParseWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtvision_etl_parse_warnings_total",
			Help: "Total number of data-quality warnings emitted while parsing",
		},
	)

	ParseErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtvision_etl_parse_errors_total",
			Help: "Total number of records rejected by validation",
		},
	)

	// API metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtvision_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtvision_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtvision_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtvision_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	SummaryBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courtvision_summary_build_duration_seconds",
			Help:    "Duration of player summary aggregation in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courtvision_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courtvision_db_pool_connections",
			Help: "Database connection pool usage by state",
		},
		[]string{"state"},
	)
)

// RecordBatch records the outcome of one batch transaction
func RecordBatch(status string, duration float64) {
	BatchesTotal.WithLabelValues(status).Inc()
	BatchDuration.Observe(duration)
}

// RecordEvents records event outcomes from a committed batch
func RecordEvents(inserted, updated, skipped int) {
	EventsProcessedTotal.WithLabelValues("inserted").Add(float64(inserted))
	EventsProcessedTotal.WithLabelValues("updated").Add(float64(updated))
	EventsProcessedTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordPoolStats publishes a connection pool snapshot
func RecordPoolStats(total, acquired, idle int32) {
	DBPoolConnections.WithLabelValues("total").Set(float64(total))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
	DBPoolConnections.WithLabelValues("idle").Set(float64(idle))
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(path, method, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(path, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(path).Observe(duration)
}
