// Package constraints checks user-declared structural rules against a
// policy graph, such as "every pod is selected by an ingress policy" or
// "every policy carries a severity label".
package constraints

import (
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Level maps s onto a diagnostic level.
func (s Severity) Level() graph.Level {
	switch s {
	case Info:
		return graph.LevelInfo
	case Error:
		return graph.LevelError
	default:
		return graph.LevelWarning
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	MissingProperty ViolationType = iota
	DisallowedValue
	CardinalityViolation
	UniquenessViolation
)

func (vt ViolationType) String() string {
	switch vt {
	case MissingProperty:
		return "MissingProperty"
	case DisallowedValue:
		return "DisallowedValue"
	case CardinalityViolation:
		return "CardinalityViolation"
	case UniquenessViolation:
		return "UniquenessViolation"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType  `json:"type"`
	Severity   Severity       `json:"severity"`
	Nodes      []string       `json:"nodes"`
	Constraint string         `json:"constraint"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// Diagnostic converts v for a report.
func (v Violation) Diagnostic() graph.Diagnostic {
	return graph.Diagnostic{
		Code:    graph.CodeConstraintViolation,
		Level:   v.Severity.Level(),
		Message: v.Constraint + ": " + v.Message,
		Nodes:   v.Nodes,
	}
}

// Constraint is one rule checked against a graph snapshot.
type Constraint interface {
	// Validate returns the violations in snap, empty if it holds.
	Validate(snap graph.Snapshot) []Violation

	// Name returns a human-readable name for the constraint
	Name() string
}

// nodesOfKind returns the nodes of snap with the given kind; an empty kind
// matches every node.
func nodesOfKind(snap graph.Snapshot, kind graph.NodeKind) []graph.Node {
	out := make([]graph.Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if kind == "" || n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
