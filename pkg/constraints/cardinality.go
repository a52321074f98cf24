package constraints

import (
	"fmt"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Direction specifies edge direction for cardinality constraints
type Direction int

const (
	Outgoing Direction = iota // Edges from this node
	Incoming                  // Edges to this node
	Any                       // Edges in either direction
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "Outgoing"
	case Incoming:
		return "Incoming"
	case Any:
		return "Any"
	default:
		return "Unknown"
	}
}

// CardinalityConstraint validates the number of edges a node has
type CardinalityConstraint struct {
	Kind      graph.NodeKind // Node kind to apply the constraint to (empty = all)
	EdgeType  graph.EdgeType // Type of edge (empty = any type)
	Direction Direction      // Direction of edges to count
	Min       int            // Minimum number of edges (0 = optional)
	Max       int            // Maximum number of edges (0 = unlimited)
	Severity  Severity
}

// Name returns the constraint name
func (cc *CardinalityConstraint) Name() string {
	kind, edgeType := string(cc.Kind), string(cc.EdgeType)
	if kind == "" {
		kind = "*"
	}
	if edgeType == "" {
		edgeType = "*"
	}
	return fmt.Sprintf("CardinalityConstraint(%s,%s,%s,[%d,%d])",
		kind, edgeType, cc.Direction, cc.Min, cc.Max)
}

// Validate checks the edge count of every node of the target kind.
func (cc *CardinalityConstraint) Validate(snap graph.Snapshot) []Violation {
	counts := make(map[string]int, len(snap.Nodes))
	for _, e := range snap.Edges {
		if cc.EdgeType != "" && e.Type != cc.EdgeType {
			continue
		}
		if cc.Direction == Outgoing || cc.Direction == Any {
			counts[e.Source]++
		}
		if cc.Direction == Incoming || (cc.Direction == Any && !e.IsSelfLoop()) {
			counts[e.Target]++
		}
	}

	var violations []Violation
	for _, n := range nodesOfKind(snap, cc.Kind) {
		count := counts[n.ID]
		var bound string
		switch {
		case cc.Min > 0 && count < cc.Min:
			bound = fmt.Sprintf("minimum is %d", cc.Min)
		case cc.Max > 0 && count > cc.Max:
			bound = fmt.Sprintf("maximum is %d", cc.Max)
		default:
			continue
		}
		violations = append(violations, Violation{
			Type:       CardinalityViolation,
			Severity:   cc.Severity,
			Nodes:      []string{n.ID},
			Constraint: cc.Name(),
			Message: fmt.Sprintf("%s has %d %s edge(s) of type %q, %s",
				n.ID, count, cc.Direction, cc.EdgeType, bound),
			Details: map[string]any{
				"kind":      string(n.Kind),
				"edgeType":  string(cc.EdgeType),
				"direction": cc.Direction.String(),
				"count":     count,
			},
		})
	}
	return violations
}
