package constraints

import (
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// UniquePropertyConstraint ensures an attribute value is not shared between
// nodes, such as an owner-id label.
type UniquePropertyConstraint struct {
	Kind     graph.NodeKind // Node kind to apply the constraint to (empty = all)
	Property string         // Attribute name, see Property
	// PerNamespace only compares nodes in the same namespace.
	PerNamespace bool
	Severity     Severity
}

// Name returns the constraint name
func (uc *UniquePropertyConstraint) Name() string {
	kind := string(uc.Kind)
	if kind == "" {
		kind = "*"
	}
	scope := "global"
	if uc.PerNamespace {
		scope = "namespace"
	}
	return fmt.Sprintf("UniquePropertyConstraint(%s.%s,%s)", kind, uc.Property, scope)
}

// Validate reports one violation per shared value, naming every node that
// shares it. Nodes without the attribute are ignored.
func (uc *UniquePropertyConstraint) Validate(snap graph.Snapshot) []Violation {
	type key struct{ namespace, value string }
	holders := make(map[key][]string)
	var order []key
	for _, n := range nodesOfKind(snap, uc.Kind) {
		value, ok := Property(n, uc.Property)
		if !ok {
			continue
		}
		k := key{value: value}
		if uc.PerNamespace {
			k.namespace = n.Attributes.Namespace
		}
		if _, seen := holders[k]; !seen {
			order = append(order, k)
		}
		holders[k] = append(holders[k], n.ID)
	}

	var violations []Violation
	for _, k := range order {
		ids := holders[k]
		if len(ids) < 2 {
			continue
		}
		slices.Sort(ids)
		violations = append(violations, Violation{
			Type:       UniquenessViolation,
			Severity:   uc.Severity,
			Nodes:      ids,
			Constraint: uc.Name(),
			Message:    fmt.Sprintf("%d nodes share %s=%q", len(ids), uc.Property, k.value),
			Details:    map[string]any{"value": k.value},
		})
	}
	return violations
}
