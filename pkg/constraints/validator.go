package constraints

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// ValidationResult contains the results of validating a graph against constraints
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Diagnostics converts every violation.
func (vr *ValidationResult) Diagnostics() []graph.Diagnostic {
	out := make([]graph.Diagnostic, len(vr.Violations))
	for i, v := range vr.Violations {
		out[i] = v.Diagnostic()
	}
	return out
}

// Validator manages a set of constraints and validates graphs against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a validator holding constraints.
func NewValidator(constraints ...Constraint) *Validator {
	return &Validator{constraints: constraints}
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// Len returns the number of constraints.
func (v *Validator) Len() int { return len(v.constraints) }

// Validate runs every constraint against snap. Violations are ordered by
// constraint name, then by first node id.
func (v *Validator) Validate(snap graph.Snapshot) *ValidationResult {
	result := &ValidationResult{Valid: true, Violations: make([]Violation, 0)}
	for _, c := range v.constraints {
		result.Violations = append(result.Violations, c.Validate(snap)...)
	}
	slices.SortStableFunc(result.Violations, func(a, b Violation) int {
		if c := cmp.Compare(a.Constraint, b.Constraint); c != 0 {
			return c
		}
		return cmp.Compare(strings.Join(a.Nodes, ","), strings.Join(b.Nodes, ","))
	})
	result.Valid = len(result.Violations) == 0
	return result
}
