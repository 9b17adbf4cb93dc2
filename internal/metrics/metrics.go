// Package metrics defines Prometheus metrics for wdtree runs and the artifact viewer.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Query kinds used as the "kind" label.
const (
	KindTraversal = "traversal"
	KindLabels    = "labels"
	KindCatalog   = "catalog"
	KindEntities  = "entities"
)

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wdtree_queries_total",
			Help: "Total remote queries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wdtree_query_duration_seconds",
			Help:    "Remote query duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	LabelBatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wdtree_label_batches_total",
			Help: "Total label lookup batches issued",
		},
	)

	RowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wdtree_rows_total",
			Help: "Total flat rows decoded from traversal queries",
		},
	)

	TreeNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wdtree_tree_nodes",
			Help: "Node count of the last tree built per root",
		},
		[]string{"root"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wdtree_runs_total",
			Help: "Total exploration runs by outcome",
		},
		[]string{"outcome"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wdtree_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wdtree_http_request_duration_seconds",
			Help:    "Viewer HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wdtree_http_requests_total",
			Help: "Total viewer HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		QueriesTotal, QueryDuration, LabelBatches,
		RowsTotal, TreeNodes, RunsTotal, ErrorsTotal,
		RequestDuration, RequestsTotal,
	)
}

// Outcome returns the outcome label for err.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
