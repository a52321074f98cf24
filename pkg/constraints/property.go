package constraints

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Property returns a node attribute by name: name, namespace, severity,
// status, labels.<key> or resources.<key>. The boolean is false when the
// attribute is unset.
func Property(n graph.Node, name string) (string, bool) {
	var v string
	switch {
	case name == "name":
		v = n.Name
	case name == "namespace":
		v = n.Attributes.Namespace
	case name == "severity":
		v = n.Attributes.Severity
	case name == "status":
		v = n.Attributes.Status
	case strings.HasPrefix(name, "labels."):
		var ok bool
		v, ok = n.Attributes.Labels[strings.TrimPrefix(name, "labels.")]
		return v, ok
	case strings.HasPrefix(name, "resources."):
		var ok bool
		v, ok = n.Attributes.Resources[strings.TrimPrefix(name, "resources.")]
		return v, ok
	}
	return v, v != ""
}

// PropertyConstraint validates node attributes
type PropertyConstraint struct {
	Kind     graph.NodeKind // Node kind to apply the constraint to (empty = all)
	Property string         // Attribute name, see Property
	Required bool           // Whether the attribute must be set
	Allowed  []string       // Permitted values (empty = any value)
	Severity Severity
}

// Name returns the constraint name
func (pc *PropertyConstraint) Name() string {
	kind := string(pc.Kind)
	if kind == "" {
		kind = "*"
	}
	return fmt.Sprintf("PropertyConstraint(%s.%s)", kind, pc.Property)
}

// Validate checks the attribute on every node of the target kind.
func (pc *PropertyConstraint) Validate(snap graph.Snapshot) []Violation {
	var violations []Violation
	for _, n := range nodesOfKind(snap, pc.Kind) {
		value, ok := Property(n, pc.Property)
		if !ok {
			if pc.Required {
				violations = append(violations, Violation{
					Type:       MissingProperty,
					Severity:   pc.Severity,
					Nodes:      []string{n.ID},
					Constraint: pc.Name(),
					Message:    fmt.Sprintf("%s is missing required property %q", n.ID, pc.Property),
				})
			}
			continue
		}
		if len(pc.Allowed) > 0 && !slices.Contains(pc.Allowed, value) {
			violations = append(violations, Violation{
				Type:       DisallowedValue,
				Severity:   pc.Severity,
				Nodes:      []string{n.ID},
				Constraint: pc.Name(),
				Message:    fmt.Sprintf("%s has %s=%q, allowed values are %v", n.ID, pc.Property, value, pc.Allowed),
				Details:    map[string]any{"value": value},
			})
		}
	}
	return violations
}
