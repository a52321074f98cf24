package algorithms

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildDigraph creates a graph from "from->to" pairs; every endpoint
// becomes a node.
func buildDigraph(t *testing.T, edges ...[2]string) *Digraph {
	t.Helper()
	var ids []string
	for _, e := range edges {
		ids = append(ids, e[0], e[1])
	}
	g := NewDigraph(ids)
	for _, e := range edges {
		if !g.AddEdge(e[0], e[1]) {
			t.Fatalf("AddEdge(%s, %s) failed", e[0], e[1])
		}
	}
	return g
}

func TestDetectCycles_NoCycles(t *testing.T) {
	g := buildDigraph(t, [2]string{"a", "b"}, [2]string{"b", "c"})

	if cycles := DetectCycles(g, CycleDetectionOptions{}); len(cycles) != 0 {
		t.Errorf("Expected no cycles, got %v", cycles)
	}
	if HasCycle(g) {
		t.Error("HasCycle() = true on a chain")
	}
}

func TestDetectCycles_SimpleCycle(t *testing.T) {
	g := buildDigraph(t, [2]string{"b", "a"}, [2]string{"a", "b"})

	cycles := DetectCycles(g, CycleDetectionOptions{})
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if !slices.Equal(cycles[0], Cycle{"a", "b"}) {
		t.Errorf("cycle = %v, want [a b]", cycles[0])
	}
}

func TestDetectCycles_SelfLoop(t *testing.T) {
	g := buildDigraph(t, [2]string{"a", "a"}, [2]string{"a", "b"})

	if cycles := DetectCycles(g, CycleDetectionOptions{}); len(cycles) != 1 || len(cycles[0]) != 1 {
		t.Errorf("Expected one self-loop cycle, got %v", cycles)
	}
	if cycles := DetectCycles(g, CycleDetectionOptions{MinCycleLength: 2}); len(cycles) != 0 {
		t.Errorf("MinCycleLength 2 should drop self-loops, got %v", cycles)
	}
	if loops := SelfLoops(g); !slices.Equal(loops, []string{"a"}) {
		t.Errorf("SelfLoops() = %v", loops)
	}
	if !HasCycle(g) {
		t.Error("HasCycle() should count a self-loop")
	}
}

func TestDetectCycles_TriangleCycle(t *testing.T) {
	g := buildDigraph(t, [2]string{"c", "a"}, [2]string{"a", "b"}, [2]string{"b", "c"})

	cycles := DetectCycles(g, CycleDetectionOptions{})
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if !slices.Equal(cycles[0], Cycle{"a", "b", "c"}) {
		t.Errorf("cycle = %v, want [a b c]", cycles[0])
	}
}

func TestDetectCycles_MultipleCycles(t *testing.T) {
	g := buildDigraph(t,
		[2]string{"a", "b"}, [2]string{"b", "a"},
		[2]string{"c", "d"}, [2]string{"d", "e"}, [2]string{"e", "c"},
	)

	cycles := DetectCycles(g, CycleDetectionOptions{})
	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, got %v", cycles)
	}
	// Shorter cycles sort first.
	if len(cycles[0]) != 2 || len(cycles[1]) != 3 {
		t.Errorf("unexpected order %v", cycles)
	}

	stats := AnalyzeCycles(cycles)
	if stats.TotalCycles != 2 || stats.ShortestCycle != 2 || stats.LongestCycle != 3 || stats.AverageLength != 2.5 {
		t.Errorf("AnalyzeCycles() = %+v", stats)
	}
}

func TestDetectCycles_ComplexGraph(t *testing.T) {
	//     1 -> 2 -> 3
	//     ^    |    |
	//     |    v    v
	//     5 <- 4 <- 6
	g := buildDigraph(t,
		[2]string{"1", "2"}, [2]string{"2", "3"}, [2]string{"2", "4"},
		[2]string{"3", "6"}, [2]string{"6", "4"}, [2]string{"4", "5"}, [2]string{"5", "1"},
	)

	cycles := DetectCycles(g, CycleDetectionOptions{})
	if len(cycles) == 0 {
		t.Fatal("Expected at least one cycle")
	}
	assertValidCycles(t, g, cycles)
}

func TestDetectCycles_Options(t *testing.T) {
	g := buildDigraph(t,
		[2]string{"a", "b"}, [2]string{"b", "a"},
		[2]string{"x", "y"}, [2]string{"y", "z"}, [2]string{"z", "x"},
	)

	if cycles := DetectCycles(g, CycleDetectionOptions{MaxCycleLength: 2}); len(cycles) != 1 {
		t.Errorf("MaxCycleLength 2: got %v", cycles)
	}
	onlyXYZ := func(id string) bool { return id >= "x" }
	if cycles := DetectCycles(g, CycleDetectionOptions{NodePredicate: onlyXYZ}); len(cycles) != 1 || cycles[0][0] != "x" {
		t.Errorf("NodePredicate: got %v", cycles)
	}
}

func TestDetectCycles_BidirectionalTriangle(t *testing.T) {
	// a->b->c->a and a->c->b->a traverse the same nodes in opposite
	// directions.
	g := buildDigraph(t,
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"},
		[2]string{"a", "c"}, [2]string{"c", "b"}, [2]string{"b", "a"},
	)
	for _, c := range DetectCycles(g, CycleDetectionOptions{MinCycleLength: 3}) {
		if len(c) == 3 {
			return
		}
	}
	t.Error("expected the triangle to be reported")
}

func assertValidCycles(t *testing.T, g *Digraph, cycles []Cycle) {
	t.Helper()
	seen := make(map[string]bool)
	for _, c := range cycles {
		key := canonicalKey(c)
		if seen[key] {
			t.Errorf("cycle %v reported twice", c)
		}
		seen[key] = true
		for i, id := range c {
			next := c[(i+1)%len(c)]
			if !slices.Contains(g.Successors(id), next) {
				t.Errorf("cycle %v: missing edge %s->%s", c, id, next)
			}
		}
	}
}

func TestDetectCyclesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	triangle := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}

	properties.Property("a 3-cycle is reported once whatever the input order", prop.ForAll(
		func(seed int64) bool {
			edges := slices.Clone(triangle)
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
			ids := []string{"c", "b", "a"}
			rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

			g := NewDigraph(ids)
			for _, e := range edges {
				g.AddEdge(e[0], e[1])
			}
			cycles := DetectCycles(g, CycleDetectionOptions{})
			return len(cycles) == 1 && slices.Equal(cycles[0], Cycle{"a", "b", "c"})
		},
		gen.Int64(),
	))

	properties.Property("reported cycles are closed walks without duplicates", prop.ForAll(
		func(pairs []int) bool {
			ids := []string{"n0", "n1", "n2", "n3", "n4", "n5"}
			g := NewDigraph(ids)
			for i := 0; i+1 < len(pairs); i += 2 {
				g.AddEdge(ids[pairs[i]], ids[pairs[i+1]])
			}
			seen := make(map[string]bool)
			for _, c := range DetectCycles(g, CycleDetectionOptions{}) {
				key := canonicalKey(c)
				if seen[key] {
					return false
				}
				seen[key] = true
				for i, id := range c {
					if !slices.Contains(g.Successors(id), c[(i+1)%len(c)]) {
						return false
					}
				}
			}
			return HasCycle(g) == (len(seen) > 0)
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t)
}
