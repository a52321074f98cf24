package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBuildMetrics() {
	r.GraphBuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_builds_total",
			Help: "Total number of graph builds by graph kind and outcome",
		},
		[]string{"graph_kind", "status"},
	)

	r.GraphBuildDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policygraph_build_duration_seconds",
			Help:    "Graph build duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"graph_kind"},
	)

	r.GraphNodes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policygraph_graph_nodes",
			Help:    "Number of nodes per built graph",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
		[]string{"graph_kind"},
	)

	r.CyclesDetectedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "policygraph_cycles_detected_total",
			Help: "Total number of depends-on cycles detected",
		},
	)

	r.InteractionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_interactions_total",
			Help: "Total number of policy interactions found by type",
		},
		[]string{"type"},
	)

	r.DiagnosticsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_diagnostics_total",
			Help: "Total number of diagnostics emitted by code",
		},
		[]string{"code"},
	)
}
