// Package telemetry exposes Prometheus metrics for the pipeline
// runtime, adapted from the teacher's internal/app/metrics package:
// a dedicated prometheus.Registry, package-level collectors registered
// once in init, and small Record* functions called from the engine and
// retention packages rather than collectors reaching into business
// logic directly.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds every pipeline-specific Prometheus collector.
	Registry = prometheus.NewRegistry()

	rowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "run",
			Name:      "rows_processed_total",
			Help:      "Total number of source rows that finished processing.",
		},
		[]string{"run_id", "outcome"},
	)

	nodeStateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "node",
			Name:      "state_transitions_total",
			Help:      "Total number of node state completions, by node and status.",
		},
		[]string{"node_id", "status"},
	)

	nodeStateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pipeline",
			Subsystem: "node",
			Name:      "state_duration_seconds",
			Help:      "Wall-clock duration of a single node state, begin to complete.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"node_id"},
	)

	coalesceHolds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pipeline",
			Subsystem: "coalesce",
			Name:      "holding_arrivals",
			Help:      "Current number of join keys holding partial arrivals at a coalesce node.",
		},
		[]string{"node_id"},
	)

	coalesceOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "coalesce",
			Name:      "outcomes_total",
			Help:      "Total number of coalesce join keys resolved, by outcome.",
		},
		[]string{"node_id", "outcome"}, // outcome: emitted, timed_out
	)

	purgeBytesFreed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "retention",
			Name:      "purge_bytes_freed_total",
			Help:      "Total payload bytes freed by retention purges.",
		},
		[]string{"run_id"},
	)

	purgeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "retention",
			Name:      "purge_runs_total",
			Help:      "Total number of retention purge passes executed.",
		},
		[]string{"result"}, // result: ok, error
	)
)

func init() {
	Registry.MustRegister(
		rowsProcessed,
		nodeStateTransitions,
		nodeStateDuration,
		coalesceHolds,
		coalesceOutcomes,
		purgeBytesFreed,
		purgeRuns,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRowProcessed records that a source row reached a terminal
// outcome (completed, quarantined, or failed).
func RecordRowProcessed(runID, outcome string) {
	rowsProcessed.WithLabelValues(runID, outcome).Inc()
}

// RecordNodeState records one node state's completion status and, if
// positive, the duration from begin to completion.
func RecordNodeState(nodeID, status string, duration time.Duration) {
	nodeStateTransitions.WithLabelValues(nodeID, status).Inc()
	if duration > 0 {
		nodeStateDuration.WithLabelValues(nodeID).Observe(duration.Seconds())
	}
}

// SetCoalesceHolding reports the current number of join keys with
// partial arrivals at a coalesce node.
func SetCoalesceHolding(nodeID string, count int) {
	coalesceHolds.WithLabelValues(nodeID).Set(float64(count))
}

// RecordCoalesceOutcome records that a coalesce join key resolved,
// either by emitting or by timing out.
func RecordCoalesceOutcome(nodeID, outcome string) {
	coalesceOutcomes.WithLabelValues(nodeID, outcome).Inc()
}

// RecordPurge records the result of one retention purge pass.
func RecordPurge(runID string, bytesFreed int64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	purgeRuns.WithLabelValues(result).Inc()
	if bytesFreed > 0 {
		purgeBytesFreed.WithLabelValues(runID).Add(float64(bytesFreed))
	}
}
