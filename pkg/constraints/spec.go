package constraints

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// Spec types.
const (
	TypeCardinality = "cardinality"
	TypeProperty    = "property"
	TypeUnique      = "unique"
)

// Spec declares a constraint in configuration.
type Spec struct {
	Type string `yaml:"type" json:"type"`
	// Graph is the graph the constraint is checked against: dependency
	// (the default) or topology.
	Graph     string   `yaml:"graph" json:"graph"`
	Kind      string   `yaml:"kind" json:"kind"`
	EdgeType  string   `yaml:"edgeType" json:"edgeType"`
	Direction string   `yaml:"direction" json:"direction"`
	Min       int      `yaml:"min" json:"min"`
	Max       int      `yaml:"max" json:"max"`
	Property  string   `yaml:"property" json:"property"`
	Required  bool     `yaml:"required" json:"required"`
	Allowed   []string `yaml:"allowed" json:"allowed"`
	// PerNamespace scopes a unique constraint to each namespace.
	PerNamespace bool   `yaml:"perNamespace" json:"perNamespace"`
	Severity     string `yaml:"severity" json:"severity"`
}

var (
	graphs     = []string{"", string(graph.KindDependency), string(graph.KindTopology)}
	kinds      = []string{"", string(graph.KindPolicy), string(graph.KindPod), string(graph.KindService)}
	directions = []string{"", "outgoing", "incoming", "any"}
	severities = []string{"", "info", "warning", "error"}
)

// TargetGraph returns the graph kind the spec applies to.
func (s Spec) TargetGraph() graph.Kind {
	if s.Graph == "" {
		return graph.KindDependency
	}
	return graph.Kind(s.Graph)
}

// Validate checks the spec is complete for its type.
func (s Spec) Validate() error {
	return validation.NewConfigValidator("constraint").
		OneOf("type", s.Type, []string{TypeCardinality, TypeProperty, TypeUnique}).
		OneOf("graph", s.Graph, graphs).
		OneOf("kind", s.Kind, kinds).
		OneOf("direction", strings.ToLower(s.Direction), directions).
		OneOf("severity", strings.ToLower(s.Severity), severities).
		NonNegative("min", s.Min).
		NonNegative("max", s.Max).
		When(s.Max > 0, func(cv *validation.ConfigValidator) {
			cv.RangeInt("min", s.Min, 0, s.Max)
		}).
		When(s.Type == TypeProperty || s.Type == TypeUnique, func(cv *validation.ConfigValidator) {
			cv.Required("property", s.Property)
		}).
		Validate()
}

func (s Spec) severity() Severity {
	switch strings.ToLower(s.Severity) {
	case "info":
		return Info
	case "error":
		return Error
	default:
		return Warning
	}
}

func (s Spec) direction() Direction {
	switch strings.ToLower(s.Direction) {
	case "outgoing":
		return Outgoing
	case "any":
		return Any
	default:
		return Incoming
	}
}

// Build validates s and returns its constraint.
func (s Spec) Build() (Constraint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	kind := graph.NodeKind(s.Kind)
	switch s.Type {
	case TypeCardinality:
		return &CardinalityConstraint{
			Kind:      kind,
			EdgeType:  graph.EdgeType(s.EdgeType),
			Direction: s.direction(),
			Min:       s.Min,
			Max:       s.Max,
			Severity:  s.severity(),
		}, nil
	case TypeProperty:
		return &PropertyConstraint{Kind: kind, Property: s.Property, Required: s.Required, Allowed: s.Allowed, Severity: s.severity()}, nil
	default:
		return &UniquePropertyConstraint{Kind: kind, Property: s.Property, PerNamespace: s.PerNamespace, Severity: s.severity()}, nil
	}
}

// Validators builds one validator per target graph. A graph with no
// constraints has no entry.
func Validators(specs []Spec) (map[graph.Kind]*Validator, error) {
	out := make(map[graph.Kind]*Validator)
	for i, s := range specs {
		c, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		k := s.TargetGraph()
		if out[k] == nil {
			out[k] = NewValidator()
		}
		out[k].AddConstraint(c)
	}
	return out, nil
}

// ValidateSpecs checks every spec without building validators.
func ValidateSpecs(specs []Spec) error {
	_, err := Validators(specs)
	return err
}
