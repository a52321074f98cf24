package algorithms

import (
	"slices"
	"strings"
)

// Cycle is an elementary cycle as an ordered list of node ids. The edge
// from the last id back to the first closes it.
type Cycle []string

const (
	white = iota // unvisited
	gray         // on the current DFS path
	black        // finished
)

// CycleDetectionOptions configures cycle detection behavior
type CycleDetectionOptions struct {
	MinCycleLength int                  // Minimum cycle length to report (0 = all, 2 excludes self-loops)
	MaxCycleLength int                  // Maximum cycle length to report (0 = unlimited)
	NodePredicate  func(id string) bool // Only report cycles whose nodes all match
}

// DetectCycles finds cycles with a depth-first search using three-color
// marking. A gray successor closes a back edge, and the cycle is the DFS
// path from that successor to the current node.
//
// Each cycle is reported once: cycles are keyed by their smallest rotation
// across both directions, so neither the rotation found first nor the input
// order changes the result. Cycles are returned rotated to start at their
// smallest id, sorted.
func DetectCycles(g *Digraph, opts CycleDetectionOptions) []Cycle {
	n := g.Len()
	color := make([]uint8, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	seen := make(map[string]struct{})
	cycles := make([]Cycle, 0)

	record := func(c Cycle) {
		if !opts.accepts(c) {
			return
		}
		key := canonicalKey(c)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		cycles = append(cycles, rotateToMin(c))
	}

	var visit func(u int)
	visit = func(u int) {
		color[u] = gray
		for _, v := range g.out[u] {
			switch color[v] {
			case white:
				parent[v] = u
				visit(v)
			case gray:
				record(g.extractCycle(v, u, parent))
			}
		}
		color[u] = black
	}

	for u := 0; u < n; u++ {
		if color[u] == white {
			visit(u)
		}
	}

	slices.SortFunc(cycles, compareCycles)
	return cycles
}

// extractCycle walks parent pointers from end back to start and returns the
// path in forward order, start first.
func (g *Digraph) extractCycle(start, end int, parent []int) Cycle {
	path := []string{g.ids[end]}
	for cur := end; cur != start; {
		cur = parent[cur]
		if cur < 0 {
			break
		}
		path = append(path, g.ids[cur])
	}
	slices.Reverse(path)
	return Cycle(path)
}

func (o CycleDetectionOptions) accepts(c Cycle) bool {
	if o.MinCycleLength > 0 && len(c) < o.MinCycleLength {
		return false
	}
	if o.MaxCycleLength > 0 && len(c) > o.MaxCycleLength {
		return false
	}
	if o.NodePredicate != nil {
		for _, id := range c {
			if !o.NodePredicate(id) {
				return false
			}
		}
	}
	return true
}

func rotateToMin(c Cycle) Cycle {
	if len(c) == 0 {
		return c
	}
	start := 0
	for i, id := range c {
		if id < c[start] {
			start = i
		}
	}
	out := make(Cycle, 0, len(c))
	out = append(out, c[start:]...)
	return append(out, c[:start]...)
}

func canonicalKey(c Cycle) string {
	fwd := rotateToMin(c)
	rev := slices.Clone(c)
	slices.Reverse(rev)
	rev = rotateToMin(rev)
	if slices.Compare(rev, fwd) < 0 {
		fwd = rev
	}
	return strings.Join(fwd, "\x00")
}

func compareCycles(a, b Cycle) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return slices.Compare(a, b)
}

// SelfLoops returns the ids with an edge to themselves, sorted.
func SelfLoops(g *Digraph) []string {
	var ids []string
	for u, succ := range g.out {
		if _, found := slices.BinarySearch(succ, u); found {
			ids = append(ids, g.ids[u])
		}
	}
	return ids
}

// CycleStats provides statistics about detected cycles
type CycleStats struct {
	TotalCycles   int
	ShortestCycle int
	LongestCycle  int
	AverageLength float64
	SelfLoops     int // cycles of length 1
}

// AnalyzeCycles computes statistics about detected cycles
func AnalyzeCycles(cycles []Cycle) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}

	stats := CycleStats{
		TotalCycles:   len(cycles),
		ShortestCycle: len(cycles[0]),
		LongestCycle:  len(cycles[0]),
	}

	totalLength := 0
	for _, cycle := range cycles {
		length := len(cycle)
		totalLength += length

		if length == 1 {
			stats.SelfLoops++
		}
		stats.ShortestCycle = min(stats.ShortestCycle, length)
		stats.LongestCycle = max(stats.LongestCycle, length)
	}

	stats.AverageLength = float64(totalLength) / float64(len(cycles))
	return stats
}

// HasCycle reports whether the graph has any cycle, self-loops included.
// It stops at the first back edge.
func HasCycle(g *Digraph) bool {
	color := make([]uint8, g.Len())

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		for _, v := range g.out[u] {
			if color[v] == gray {
				return true
			}
			if color[v] == white && visit(v) {
				return true
			}
		}
		color[u] = black
		return false
	}

	for u := range color {
		if color[u] == white && visit(u) {
			return true
		}
	}
	return false
}
