// Package metrics exposes Prometheus metrics for premise validation runs.
//
// # Overview
//
// The metrics package provides:
//   - Counters for premise outcomes per node and premise
//   - A histogram of warehouse query latency per source
//   - Counters for output deliveries per exporter
//   - A histogram of outbound HTTP latency per host
//
// # Basic Usage
//
//	timer := metrics.NewTimer()
//	tbl, err := conn.Run(ctx, sql)
//	metrics.ObserveQuery("BigQuery", timer.Stop(), err)
//
//	metrics.RecordValidation("orders", "id_not_null", metrics.StatusPassed)
//
// All collectors are registered on the default Prometheus registry through
// promauto, so any HTTP handler serving promhttp exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusSuccess = "success"
)

var (
	// PremiseValidations counts premise executions.
	// Labels: node, premise, status (passed/failed/error)
	PremiseValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguin_premise_validations_total",
			Help: "Total number of premise validations by outcome",
		},
		[]string{"node", "premise", "status"},
	)

	// FailedValues tracks the number of violating rows reported by the last run of a premise.
	FailedValues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "penguin_premise_failed_values",
			Help: "Failed value count from the most recent validation of a premise",
		},
		[]string{"node", "premise"},
	)

	// QueryDuration tracks warehouse round-trip latency in seconds.
	// Labels: source (BigQuery, PostgreSQL, ...), status (success/error)
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "penguin_query_duration_seconds",
			Help: "Warehouse query latency in seconds",
			Buckets: []float64{
				0.01, // 10ms - local databases
				0.1,  // 100ms
				0.5,
				1, // 1s - small warehouse scans
				5,
				15,
				60, // 1m - large scans
			},
		},
		[]string{"source", "status"},
	)

	// Exports counts deliveries of formatted outputs.
	// Labels: exporter, status (success/error)
	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguin_exports_total",
			Help: "Total number of premise output deliveries by exporter",
		},
		[]string{"exporter", "status"},
	)

	// HTTPRequestDuration tracks outbound HTTP latency of the exporters' client.
	// Labels: host, status (success/error)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "penguin_http_request_duration_seconds",
			Help:    "Outbound HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "status"},
	)
)

// RecordValidation counts one premise outcome.
func RecordValidation(node, premise, status string) {
	PremiseValidations.WithLabelValues(node, premise, status).Inc()
}

// RecordFailedValues sets the failed value gauge for a premise.
func RecordFailedValues(node, premise string, count int) {
	FailedValues.WithLabelValues(node, premise).Set(float64(count))
}

// ObserveQuery records the latency of one warehouse query.
func ObserveQuery(source string, d time.Duration, err error) {
	QueryDuration.WithLabelValues(source, status(err)).Observe(d.Seconds())
}

// RecordExport counts one delivery attempt.
func RecordExport(exporter string, err error) {
	Exports.WithLabelValues(exporter, status(err)).Inc()
}

// ObserveHTTPRequest records the latency of one outbound HTTP request.
func ObserveHTTPRequest(host string, d time.Duration, err error) {
	HTTPRequestDuration.WithLabelValues(host, status(err)).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Timer measures the time elapsed since it was created.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It may be called more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
