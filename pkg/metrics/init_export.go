package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExportMetrics() {
	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_exports_total",
			Help: "Total number of exports by format and outcome",
		},
		[]string{"format", "status"},
	)

	r.ExportBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policygraph_export_bytes",
			Help:    "Size of exported documents in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"format"},
	)

	r.ManifestDocumentsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_manifest_documents_total",
			Help: "Total number of manifest documents decoded by kind",
		},
		[]string{"kind"},
	)

	r.SinkWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "policygraph_sink_writes_total",
			Help: "Total number of output writes by destination scheme and outcome",
		},
		[]string{"scheme", "status"},
	)
}
