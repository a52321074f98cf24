// Package layout assigns deterministic 2D positions to graph nodes for
// exports that carry coordinates.
package layout

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Layout names.
const (
	None         = ""
	Circular     = "circular"
	Hierarchical = "hierarchical"
	Force        = "force"
)

// Names lists the layouts New accepts, excluding None.
var Names = []string{Circular, Hierarchical, Force}

// ErrUnknownLayout is returned by New for a name outside Names.
var ErrUnknownLayout = errors.New("unknown layout")

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Config configures layout parameters
type Config struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for the force layout's initial placement
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = 1200
	}
	if c.Height <= 0 {
		c.Height = 800
	}
	if c.Iterations <= 0 {
		c.Iterations = 50
	}
	if c.Padding <= 0 {
		c.Padding = 50
	}
	return c
}

// Layout computes node positions keyed by node id. Implementations are
// deterministic: the same snapshot and config always give the same result.
type Layout interface {
	Compute(snap graph.Snapshot) map[string]Position
}

// New returns the layout registered under name.
func New(name string, cfg Config) (Layout, error) {
	cfg = cfg.withDefaults()
	switch name {
	case Circular:
		return &CircularLayout{config: cfg}, nil
	case Hierarchical:
		return &HierarchicalLayout{config: cfg}, nil
	case Force:
		return &ForceDirectedLayout{config: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
}
