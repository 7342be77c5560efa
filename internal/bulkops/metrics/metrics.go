// Package metrics defines Prometheus metrics for the bulk operation engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bulkops_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_operations_total",
			Help: "Executed and reversed batches by operation type and outcome",
		},
		[]string{"operation_type", "status"},
	)

	TargetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_targets_total",
			Help: "Per-target results by operation type and outcome",
		},
		[]string{"operation_type", "status"},
	)

	RiskLevelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_preview_risk_level_total",
			Help: "Previews by computed risk level",
		},
		[]string{"risk_level"},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bulkops_batch_duration_seconds",
			Help:    "Wall time of execute and undo transactions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkops_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)
)

// Error types reported on ErrorsTotal.
const (
	ErrTypeAudit       = "audit"
	ErrTypeNotify      = "notify"
	ErrTypeTransaction = "transaction"
	ErrTypeStore       = "store"
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		OperationsTotal, TargetsTotal, RiskLevelsTotal,
		BatchDuration, ErrorsTotal,
	)
}
