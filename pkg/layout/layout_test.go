package layout

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

func chain(ids ...string) graph.Snapshot {
	var snap graph.Snapshot
	for _, id := range ids {
		snap.Nodes = append(snap.Nodes, graph.Node{ID: id, Kind: graph.KindPolicy})
	}
	for i := 0; i+1 < len(ids); i++ {
		snap.Edges = append(snap.Edges, graph.Edge{Source: ids[i], Target: ids[i+1], Type: graph.EdgeDependsOn})
	}
	return snap
}

func distance(p1, p2 Position) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func mustNew(t *testing.T, name string, cfg Config) Layout {
	t.Helper()
	l, err := New(name, cfg)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	return l
}

func TestForceDirectedLayout(t *testing.T) {
	snap := chain("a", "b", "c")
	layout := mustNew(t, Force, Config{Width: 800, Height: 600, Iterations: 50, Seed: 7})

	positions := layout.Compute(snap)
	if len(positions) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(positions))
	}
	for id, pos := range positions {
		if pos.X < 0 || pos.X > 800 {
			t.Errorf("Node %s X position %f out of bounds", id, pos.X)
		}
		if pos.Y < 0 || pos.Y > 600 {
			t.Errorf("Node %s Y position %f out of bounds", id, pos.Y)
		}
	}

	again := layout.Compute(snap)
	if fmt.Sprint(positions) != fmt.Sprint(again) {
		t.Errorf("same seed gave different layouts:\n%v\n%v", positions, again)
	}

	other := mustNew(t, Force, Config{Width: 800, Height: 600, Iterations: 50, Seed: 8}).Compute(snap)
	if fmt.Sprint(positions) == fmt.Sprint(other) {
		t.Error("different seeds should give different layouts")
	}
}

func TestCircularLayout(t *testing.T) {
	snap := chain("d", "c", "b", "a")
	positions := mustNew(t, Circular, Config{Width: 800, Height: 600}).Compute(snap)

	if len(positions) != 4 {
		t.Fatalf("Expected 4 positions, got %d", len(positions))
	}
	// Radius is min(400, 300) - 50.
	for id, pos := range positions {
		if d := distance(pos, Position{X: 400, Y: 300}); math.Abs(d-250) > 0.02 {
			t.Errorf("node %s is %f from center, expected 250", id, d)
		}
	}
	if a := positions["a"]; a.X != 650 || a.Y != 300 {
		t.Errorf("first id should start at angle zero, got %+v", a)
	}
}

func TestHierarchicalLayout(t *testing.T) {
	snap := chain("root", "mid", "leaf")
	snap.Nodes = append(snap.Nodes, graph.Node{ID: "lone"})
	positions := mustNew(t, Hierarchical, Config{Width: 800, Height: 600}).Compute(snap)

	if len(positions) != 4 {
		t.Fatalf("Expected 4 positions, got %d", len(positions))
	}
	if positions["root"].Y != positions["lone"].Y {
		t.Errorf("roots should share the first row: %+v", positions)
	}
	if !(positions["root"].Y < positions["mid"].Y && positions["mid"].Y < positions["leaf"].Y) {
		t.Errorf("rows should descend along edges: %+v", positions)
	}
}

func TestHierarchicalLayout_AllCyclic(t *testing.T) {
	snap := chain("a", "b", "c")
	snap.Edges = append(snap.Edges, graph.Edge{Source: "c", Target: "a", Type: graph.EdgeDependsOn})
	positions := mustNew(t, Hierarchical, Config{}).Compute(snap)
	if len(positions) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(positions))
	}
}

func TestLayoutNormalization(t *testing.T) {
	in := []Position{{X: -100, Y: -100}, {X: 100, Y: 100}, {X: 0, Y: 0}}
	out := normalizePositions(in, 800, 600, 50)

	if out[0] != (Position{X: 50, Y: 50}) || out[1] != (Position{X: 750, Y: 550}) {
		t.Errorf("unexpected corners: %+v", out)
	}
	if out[2] != (Position{X: 400, Y: 300}) {
		t.Errorf("unexpected center: %+v", out[2])
	}
}

func TestEmptyGraph(t *testing.T) {
	for _, name := range Names {
		if got := mustNew(t, name, Config{}).Compute(graph.Snapshot{}); len(got) != 0 {
			t.Errorf("%s: expected no positions, got %v", name, got)
		}
	}
}

func TestSingleNodeLayout(t *testing.T) {
	got := mustNew(t, Force, Config{Width: 800, Height: 600}).Compute(chain("only"))
	if got["only"] != (Position{X: 400, Y: 300}) {
		t.Errorf("single node should be centered, got %+v", got["only"])
	}
}

func TestEdgesToUnknownNodesIgnored(t *testing.T) {
	snap := chain("a", "b")
	snap.Edges = append(snap.Edges, graph.Edge{Source: "a", Target: "ghost"})
	for _, name := range Names {
		if got := mustNew(t, name, Config{}).Compute(snap); len(got) != 2 {
			t.Errorf("%s: expected 2 positions, got %v", name, got)
		}
	}
}

func TestNewUnknownLayout(t *testing.T) {
	if _, err := New("spiral", Config{}); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
}
