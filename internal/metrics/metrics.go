// Package metrics holds Prometheus instruments that are used across the
// module.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendStatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_statements_total",
			Help: "Cumulative number of SQL statements issued by the record backend.",
		}, []string{"op", "outcome"})

	BackendStatementSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_statement_seconds",
			Help:    "Round-trip latency of record backend statements.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"})

	RecordOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_operations_total",
			Help: "Cumulative number of Record operations by table, op, and outcome.",
		}, []string{"table", "op", "outcome"})

	CronRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cron_runs_total",
			Help: "Cumulative number of scheduled hook firings by hook and outcome.",
		}, []string{"hook", "outcome"})

	WidgetsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "widgets_total",
			Help: "Number of widget rows at the last cron run.",
		})
)

func init() {
	prometheus.MustRegister(
		BackendStatementsTotal,
		BackendStatementSeconds,
		RecordOperationsTotal,
		CronRunsTotal,
		WidgetsTotal,
	)
}
