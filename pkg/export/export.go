// Package export serializes any graph result into json, d3, svg
// descriptor, yaml or dot output with a resolved theme attached.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/layout"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/theme"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatD3   Format = "d3"
	FormatSVG  Format = "svg"
	FormatYAML Format = "yaml"
	FormatDOT  Format = "dot"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatD3, FormatSVG, FormatYAML, FormatDOT}

var (
	// ErrUnsupportedFormat is returned for a format outside Formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrInvalidConfig wraps ExportConfig validation failures.
	ErrInvalidConfig = errors.New("invalid export config")
)

// ParseFormat maps a name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

// Extension returns the conventional file extension of f.
func (f Format) Extension() string {
	switch f {
	case FormatD3, FormatSVG:
		return "." + string(f) + ".json"
	default:
		return "." + string(f)
	}
}

// Result is one export.
type Result struct {
	Format  Format
	GraphID string
	Theme   theme.Theme
	Data    []byte
	// Diagnostics are anomalies met while exporting, such as an unknown
	// theme name. They are not part of Data.
	Diagnostics []graph.Diagnostic
}

// Export encodes g in format. Calling it twice with an equal graph and
// config yields byte-identical Data. An unknown theme falls back to the
// default theme and adds an UnknownTheme diagnostic to the result.
func Export(g graph.Exportable, format Format, cfg ExportConfig) (*Result, error) {
	if g == nil {
		return nil, graph.ErrNilGraph
	}
	if !slices.Contains(Formats, format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger.With(logging.Component("export"), logging.Format(string(format)))
	timer := logging.StartTimer(log, "export")

	snap := g.Snapshot()
	res := &Result{Format: format}

	res.Theme = theme.ResolveTheme(cfg.Theme, cfg.ThemeOverrides, log)
	if res.Theme.FellBack() {
		res.Diagnostics = append(res.Diagnostics, graph.Warn(graph.CodeUnknownTheme, nil,
			"theme %q is not defined; using %q", cfg.Theme, res.Theme.Name))
		cfg.Metrics.RecordDiagnostic(string(graph.CodeUnknownTheme))
	}

	id, err := GraphID(snap)
	if err != nil {
		cfg.Metrics.RecordExport(string(format), metrics.StatusError, 0)
		return nil, fmt.Errorf("graph id: %w", err)
	}
	res.GraphID = id

	var positions map[string]layout.Position
	if cfg.Layout != layout.None {
		l, err := layout.New(cfg.Layout, layout.Config{
			Width:  float64(cfg.Width),
			Height: float64(cfg.Height),
			Seed:   cfg.LayoutSeed,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		positions = l.Compute(snap)
	}

	e := encoder{snap: snap, cfg: cfg, theme: res.Theme, graphID: id, positions: positions}
	switch format {
	case FormatJSON:
		res.Data, err = e.json()
	case FormatYAML:
		res.Data, err = e.yaml()
	case FormatD3:
		res.Data, err = e.d3()
	case FormatSVG:
		res.Data, err = e.svg()
	case FormatDOT:
		res.Data = e.dot()
	}
	if err != nil {
		cfg.Metrics.RecordExport(string(format), metrics.StatusError, 0)
		timer.EndError(err)
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	cfg.Metrics.RecordExport(string(format), metrics.StatusOK, len(res.Data))
	timer.End(logging.Int("bytes", len(res.Data)), logging.String("graph_id", id))
	return res, nil
}

type encoder struct {
	snap      graph.Snapshot
	cfg       ExportConfig
	theme     theme.Theme
	graphID   string
	positions map[string]layout.Position
}

func (e encoder) document() Document {
	doc := Document{
		Metadata: Metadata{
			GraphID:    e.graphID,
			Kind:       string(e.snap.Kind),
			NodeCount:  len(e.snap.Nodes),
			EdgeCount:  len(e.snap.Edges),
			CycleCount: len(e.snap.Cycles),
			Theme:      e.theme.Name,
			Layout:     e.cfg.Layout,
		},
		Nodes:           nonNil(e.snap.Nodes),
		Edges:           nonNil(e.snap.Edges),
		Cycles:          e.snap.Cycles,
		HighlightCycles: e.snap.HighlightCycles,
		Groups:          e.snap.Groups,
		Positions:       e.positions,
		Statistics:      e.snap.Statistics,
		Theme:           e.theme,
	}
	if e.cfg.IncludeDiagnostics {
		doc.Diagnostics = e.snap.Diagnostics
	}
	return doc
}

func (e encoder) json() ([]byte, error) {
	return e.marshalJSON(e.document())
}

func (e encoder) marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.cfg.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e encoder) yaml() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(e.document()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e encoder) d3() ([]byte, error) {
	doc := D3Document{
		Nodes: make([]D3Node, len(e.snap.Nodes)),
		Links: make([]D3Link, len(e.snap.Edges)),
	}
	for i, n := range e.snap.Nodes {
		doc.Nodes[i] = D3Node{ID: n.ID, Group: group(e.snap.Kind, n)}
		if p, ok := e.positions[n.ID]; ok {
			doc.Nodes[i].X, doc.Nodes[i].Y = &p.X, &p.Y
		}
	}
	for i, l := range e.snap.Edges {
		doc.Links[i] = D3Link{Source: l.Source, Target: l.Target, Type: string(l.Type), Weight: l.Weight}
	}
	return e.marshalJSON(doc)
}

// group buckets a node for coloring: by namespace in policy graphs, by
// kind in topology graphs.
func group(kind graph.Kind, n graph.Node) string {
	if kind == graph.KindTopology {
		return string(n.Kind)
	}
	return n.Attributes.Namespace
}

func (e encoder) svg() ([]byte, error) {
	desc := SVGDescriptor{
		Format:     string(FormatSVG),
		GraphID:    e.graphID,
		Kind:       string(e.snap.Kind),
		Width:      e.cfg.Width,
		Height:     e.cfg.Height,
		Theme:      e.theme,
		ShowLegend: e.cfg.ShowLegend,
		ShowStats:  e.cfg.ShowStats,
		Positions:  e.positions,
	}
	if e.cfg.ShowLegend {
		desc.Legend = e.legend()
	}
	if e.cfg.ShowStats {
		stats := e.snap.Statistics
		desc.Statistics = &stats
	}
	return e.marshalJSON(desc)
}

// legend lists the node kinds and edge types present in the graph, in
// sorted order.
func (e encoder) legend() []LegendEntry {
	var labels []string
	for _, n := range e.snap.Nodes {
		labels = append(labels, string(n.Kind))
	}
	for _, l := range e.snap.Edges {
		labels = append(labels, string(l.Type))
	}
	if e.snap.HighlightCycles && len(e.snap.Cycles) > 0 {
		labels = append(labels, "cycle")
	}
	slices.Sort(labels)
	labels = slices.Compact(labels)

	legend := make([]LegendEntry, len(labels))
	for i, label := range labels {
		legend[i] = LegendEntry{Label: label, Color: e.theme.Color(label)}
	}
	return legend
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
