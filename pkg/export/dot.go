package export

import (
	"bytes"
	"fmt"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// dot renders a Graphviz digraph. Node fill follows the node kind, edge
// color follows the edge type, and edges on a cycle use the theme's cycle
// color when the graph asks for cycles to be highlighted.
func (e encoder) dot() []byte {
	var buf bytes.Buffer
	th := e.theme

	fmt.Fprintf(&buf, "digraph %q {\n", string(e.snap.Kind))
	fmt.Fprintf(&buf, "  graph [bgcolor=%q, fontname=%q, label=%q, labelloc=\"t\"];\n",
		th.Color("background"), th.Styles["fontFamily"], e.graphID)
	fmt.Fprintf(&buf, "  node [style=filled, fontname=%q, fontcolor=%q];\n",
		th.Styles["fontFamily"], th.Color("text"))
	fmt.Fprintf(&buf, "  edge [penwidth=%s];\n", th.Styles["linkWidth"])

	for _, n := range e.snap.Nodes {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q", n.ID, label, th.Color(string(n.Kind)))
		if p, ok := e.positions[n.ID]; ok {
			// Graphviz positions are in points with y growing upwards.
			fmt.Fprintf(&buf, ", pos=\"%.2f,%.2f!\"", p.X, float64(e.cfg.Height)-p.Y)
		}
		buf.WriteString("];\n")
	}

	onCycle := cycleEdges(e.snap)
	for _, l := range e.snap.Edges {
		color := th.Color(string(l.Type))
		attrs := ""
		if e.snap.HighlightCycles && onCycle[[2]string{l.Source, l.Target}] && l.Type == graph.EdgeDependsOn {
			color = th.Color("cycle")
			attrs = fmt.Sprintf(", penwidth=%s", th.Styles["cycleStrokeWidth"])
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, color=%q, weight=%d%s];\n",
			l.Source, l.Target, string(l.Type), color, max(l.Weight, 1), attrs)
	}

	if e.cfg.ShowStats {
		s := e.snap.Statistics
		fmt.Fprintf(&buf, "  stats [shape=note, fillcolor=%q, label=%q];\n", th.Color("background"),
			fmt.Sprintf("nodes: %d, edges: %d, cycles: %d", s.NodeCount, s.EdgeCount, s.CycleCount))
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}

// cycleEdges returns the consecutive pairs of every cycle, including the
// closing pair from the last id back to the first.
func cycleEdges(snap graph.Snapshot) map[[2]string]bool {
	out := make(map[[2]string]bool)
	for _, c := range snap.Cycles {
		for i, id := range c {
			out[[2]string{id, c[(i+1)%len(c)]}] = true
		}
	}
	return out
}
