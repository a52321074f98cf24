package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RecordBuild records one builder call.
func (r *Registry) RecordBuild(graphKind, status string, duration time.Duration, nodes int) {
	if r == nil {
		return
	}
	r.GraphBuildsTotal.WithLabelValues(graphKind, status).Inc()
	r.GraphBuildDuration.WithLabelValues(graphKind).Observe(duration.Seconds())
	if status == StatusOK {
		r.GraphNodes.WithLabelValues(graphKind).Observe(float64(nodes))
	}
}

// RecordCycles adds detected cycles.
func (r *Registry) RecordCycles(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.CyclesDetectedTotal.Add(float64(n))
}

// RecordInteractions adds interaction counts keyed by type.
func (r *Registry) RecordInteractions(byType map[string]int) {
	if r == nil {
		return
	}
	for t, n := range byType {
		r.InteractionsTotal.WithLabelValues(t).Add(float64(n))
	}
}

// RecordDiagnostic counts one diagnostic.
func (r *Registry) RecordDiagnostic(code string) {
	if r == nil {
		return
	}
	r.DiagnosticsTotal.WithLabelValues(code).Inc()
}

// RecordExport records one export call and its output size.
func (r *Registry) RecordExport(format, status string, size int) {
	if r == nil {
		return
	}
	r.ExportsTotal.WithLabelValues(format, status).Inc()
	if status == StatusOK {
		r.ExportBytes.WithLabelValues(format).Observe(float64(size))
	}
}

// RecordManifestDocument counts one decoded manifest document.
func (r *Registry) RecordManifestDocument(kind string) {
	if r == nil {
		return
	}
	r.ManifestDocumentsTotal.WithLabelValues(kind).Inc()
}

// RecordSinkWrite counts one output write.
func (r *Registry) RecordSinkWrite(scheme, status string) {
	if r == nil {
		return
	}
	r.SinkWritesTotal.WithLabelValues(scheme, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
