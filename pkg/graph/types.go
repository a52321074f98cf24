// Package graph holds the node, edge and diagnostic primitives shared by the
// dependency, topology and interaction builders, plus the snapshot view the
// exporter consumes.
package graph

// NodeKind tags what a node stands for.
type NodeKind string

const (
	KindPolicy  NodeKind = "policy"
	KindPod     NodeKind = "pod"
	KindService NodeKind = "service"
)

// EdgeType tags the relationship an edge encodes.
type EdgeType string

const (
	EdgeDependsOn       EdgeType = "depends-on"
	EdgeSelectorOverlap EdgeType = "selector-overlap"
	EdgeServicePod      EdgeType = "service-pod"
	EdgeIngress         EdgeType = "ingress"
	EdgeEgress          EdgeType = "egress"

	// Interaction relations, used when an interaction graph is flattened
	// into plain edges for export.
	EdgeConflict    EdgeType = "conflict"
	EdgeOverlap     EdgeType = "overlap"
	EdgeEnhancement EdgeType = "enhancement"
	EdgeSequential  EdgeType = "sequential"
)

// Defaults applied when a record leaves an attribute unset.
const (
	DefaultSeverity     = "none"
	DefaultStatus       = "Unknown"
	DefaultPolicyStatus = "active"
	DefaultNamespace    = "default"
)

// Attributes are the optional, defaulted properties of a node.
type Attributes struct {
	Severity  string            `json:"severity,omitempty" yaml:"severity,omitempty"`
	RuleCount int               `json:"ruleCount" yaml:"ruleCount"`
	Status    string            `json:"status,omitempty" yaml:"status,omitempty"`
	Namespace string            `json:"namespace" yaml:"namespace"`
	Resources map[string]string `json:"resources,omitempty" yaml:"resources,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Node is a vertex in any of the engine's graphs. IDs are unique per graph.
type Node struct {
	ID         string     `json:"id" yaml:"id"`
	Kind       NodeKind   `json:"kind" yaml:"kind"`
	Name       string     `json:"name" yaml:"name"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
	Size       int        `json:"size" yaml:"size"`
}

// Edge is a directed, weighted relationship between two node ids.
type Edge struct {
	Source   string   `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	Type     EdgeType `json:"type" yaml:"type"`
	Weight   int      `json:"weight" yaml:"weight"`
	Severity string   `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// IsSelfLoop reports whether the edge starts and ends on the same node.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

// Kind names a graph flavour in exports.
type Kind string

const (
	KindDependency  Kind = "dependency"
	KindTopology    Kind = "topology"
	KindInteraction Kind = "interaction"
)

// Snapshot is the flattened, export-ready view of any graph result.
type Snapshot struct {
	Kind            Kind
	Nodes           []Node
	Edges           []Edge
	Cycles          [][]string
	Statistics      Statistics
	Diagnostics     []Diagnostic
	HighlightCycles bool
	// Groups maps a namespace to the ids of the nodes it contains, when the
	// producing builder grouped its output.
	Groups map[string][]string
}

// Exportable is implemented by every graph result the exporter accepts.
type Exportable interface {
	Snapshot() Snapshot
}
