package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks pipeline runs by final status (success, failed)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodflow_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// ExtractionAttempts tracks upstream fetch attempts per run outcome
	ExtractionAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apodflow_extraction_attempts_total",
			Help: "Total number of upstream fetch attempts",
		},
	)

	// RecordsByProvenance tracks extracted records by provenance tag
	RecordsByProvenance = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodflow_records_total",
			Help: "Total records produced by extraction, by provenance",
		},
		[]string{"provenance"},
	)

	// CommitsTotal tracks reconcile outcomes (committed, noop, degraded)
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodflow_commits_total",
			Help: "Total reconcile outcomes",
		},
		[]string{"outcome"},
	)

	// PublishTotal tracks publish attempts by result reason
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apodflow_publish_total",
			Help: "Total publish attempts by outcome reason",
		},
		[]string{"reason"},
	)

	// RunDuration tracks end-to-end pipeline run duration
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apodflow_run_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBConnectionPoolUsage tracks connection pool utilization percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apodflow_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
