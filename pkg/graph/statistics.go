package graph

// Statistics are derived counts over a graph. They are always recomputed
// from nodes, edges and diagnostics and never stored independently.
type Statistics struct {
	NodeCount            int              `json:"nodeCount" yaml:"nodeCount"`
	EdgeCount            int              `json:"edgeCount" yaml:"edgeCount"`
	CycleCount           int              `json:"cycleCount" yaml:"cycleCount"`
	SelfLoops            int              `json:"selfLoops" yaml:"selfLoops"`
	DanglingReferences   int              `json:"danglingReferences" yaml:"danglingReferences"`
	UnconnectedSelectors int              `json:"unconnectedSelectors" yaml:"unconnectedSelectors"`
	NodesByKind          map[NodeKind]int `json:"nodesByKind" yaml:"nodesByKind"`
	EdgesByType          map[EdgeType]int `json:"edgesByType" yaml:"edgesByType"`
	BySeverity           map[string]int   `json:"bySeverity" yaml:"bySeverity"`
	ByStatus             map[string]int   `json:"byStatus" yaml:"byStatus"`
	ByNamespace          map[string]int   `json:"byNamespace" yaml:"byNamespace"`
}

// ComputeStatistics folds nodes, edges, cycles and diagnostics into counts.
func ComputeStatistics(nodes []Node, edges []Edge, cycles [][]string, diags []Diagnostic) Statistics {
	s := Statistics{
		NodeCount:            len(nodes),
		EdgeCount:            len(edges),
		CycleCount:           len(cycles),
		DanglingReferences:   CountCode(diags, CodeDanglingReference),
		UnconnectedSelectors: CountCode(diags, CodeUnconnectedSelector),
		NodesByKind:          make(map[NodeKind]int),
		EdgesByType:          make(map[EdgeType]int),
		BySeverity:           make(map[string]int),
		ByStatus:             make(map[string]int),
		ByNamespace:          make(map[string]int),
	}

	for _, n := range nodes {
		s.NodesByKind[n.Kind]++
		if n.Attributes.Severity != "" {
			s.BySeverity[n.Attributes.Severity]++
		}
		if n.Attributes.Status != "" {
			s.ByStatus[n.Attributes.Status]++
		}
		s.ByNamespace[n.Attributes.Namespace]++
	}

	for _, e := range edges {
		s.EdgesByType[e.Type]++
		if e.IsSelfLoop() {
			s.SelfLoops++
		}
	}

	return s
}
