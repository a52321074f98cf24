package export

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/layout"
	"github.com/dd0wney/cluso-policygraph/pkg/theme"
)

// graphNamespace seeds graph ids so equal graphs get equal ids.
var graphNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("policygraph"))

// Metadata describes an exported graph.
type Metadata struct {
	GraphID    string `json:"graphId" yaml:"graphId"`
	Kind       string `json:"kind" yaml:"kind"`
	NodeCount  int    `json:"nodeCount" yaml:"nodeCount"`
	EdgeCount  int    `json:"edgeCount" yaml:"edgeCount"`
	CycleCount int    `json:"cycleCount" yaml:"cycleCount"`
	Theme      string `json:"theme" yaml:"theme"`
	Layout     string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Document is the json and yaml export: the full graph plus metadata.
// Field order is fixed by this struct and map keys are sorted by the
// encoders.
type Document struct {
	Metadata        Metadata                   `json:"metadata" yaml:"metadata"`
	Nodes           []graph.Node               `json:"nodes" yaml:"nodes"`
	Edges           []graph.Edge               `json:"edges" yaml:"edges"`
	Cycles          [][]string                 `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	HighlightCycles bool                       `json:"highlightCycles" yaml:"highlightCycles"`
	Groups          map[string][]string        `json:"groups,omitempty" yaml:"groups,omitempty"`
	Positions       map[string]layout.Position `json:"positions,omitempty" yaml:"positions,omitempty"`
	Statistics      graph.Statistics           `json:"statistics" yaml:"statistics"`
	Diagnostics     []graph.Diagnostic         `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Theme           theme.Theme                `json:"theme" yaml:"theme"`
}

// D3Node is a node as a force-directed renderer consumes it.
type D3Node struct {
	ID    string   `json:"id"`
	Group string   `json:"group"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// D3Link is an edge as a force-directed renderer consumes it.
type D3Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

// D3Document is the flattened d3 export.
type D3Document struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// LegendEntry pairs a label with its theme color.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// SVGDescriptor tells an external renderer how to draw the graph. It holds
// no markup.
type SVGDescriptor struct {
	Format     string                     `json:"format"`
	GraphID    string                     `json:"graphId"`
	Kind       string                     `json:"kind"`
	Width      int                        `json:"width"`
	Height     int                        `json:"height"`
	Theme      theme.Theme                `json:"theme"`
	ShowLegend bool                       `json:"showLegend"`
	ShowStats  bool                       `json:"showStats"`
	Legend     []LegendEntry              `json:"legend,omitempty"`
	Statistics *graph.Statistics          `json:"statistics,omitempty"`
	Positions  map[string]layout.Position `json:"positions,omitempty"`
}

// GraphID derives a stable id from the graph's kind, nodes and edges.
func GraphID(snap graph.Snapshot) (string, error) {
	canonical, err := json.Marshal(struct {
		Kind  graph.Kind   `json:"kind"`
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{snap.Kind, snap.Nodes, snap.Edges})
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(graphNamespace, canonical).String(), nil
}
