package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the engine's metrics on a private Prometheus registry. A
// nil *Registry is valid and records nothing, so option records can leave
// it unset.
type Registry struct {
	// Build metrics
	GraphBuildsTotal    *prometheus.CounterVec
	GraphBuildDuration  *prometheus.HistogramVec
	GraphNodes          *prometheus.HistogramVec
	CyclesDetectedTotal prometheus.Counter
	InteractionsTotal   *prometheus.CounterVec
	DiagnosticsTotal    *prometheus.CounterVec

	// Export metrics
	ExportsTotal *prometheus.CounterVec
	ExportBytes  *prometheus.HistogramVec

	// Ingest and output metrics
	ManifestDocumentsTotal *prometheus.CounterVec
	SinkWritesTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initBuildMetrics()
	r.initExportMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
