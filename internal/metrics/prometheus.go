package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the feature pipeline

// Run statuses used as the status label
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// Pipeline run metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchform_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchform_pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RowsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchform_rows_dropped_total",
			Help: "Total number of input or intermediate rows dropped, by reason",
		},
		[]string{"reason"},
	)

	TrainingRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_training_rows",
			Help: "Number of rows in the last published training table",
		},
	)

	Teams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_teams",
			Help: "Number of teams in the last published team table",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_last_successful_run_timestamp",
			Help: "Timestamp of last successful pipeline run",
		},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchform_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchform_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchform_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchform_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchform_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchform_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchform_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordRun records a finished pipeline run
func RecordRun(status string, duration float64) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(duration)

	if status == StatusSuccess {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordDrops adds dropped row counts by reason
func RecordDrops(dropped map[string]int) {
	for reason, n := range dropped {
		RowsDroppedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// UpdateOutputStats sets the sizes of the last published tables
func UpdateOutputStats(trainingRows, teams int) {
	TrainingRows.Set(float64(trainingRows))
	Teams.Set(float64(teams))
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
