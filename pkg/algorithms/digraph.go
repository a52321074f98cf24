package algorithms

import (
	"slices"
)

// Digraph is a directed graph over an arena of node indexes. Node ids are
// kept sorted so every traversal visits nodes and successors in id order,
// whatever order the caller added them in.
type Digraph struct {
	ids   []string
	index map[string]int
	out   [][]int
}

// NewDigraph creates a graph with the given node ids. Duplicate ids are
// collapsed.
func NewDigraph(ids []string) *Digraph {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	g := &Digraph{
		ids:   sorted,
		index: make(map[string]int, len(sorted)),
		out:   make([][]int, len(sorted)),
	}
	for i, id := range sorted {
		g.index[id] = i
	}
	return g
}

// AddEdge adds from->to. It returns false when either endpoint is unknown.
// Parallel edges are collapsed.
func (g *Digraph) AddEdge(from, to string) bool {
	u, ok := g.index[from]
	if !ok {
		return false
	}
	v, ok := g.index[to]
	if !ok {
		return false
	}
	pos, found := slices.BinarySearch(g.out[u], v)
	if !found {
		g.out[u] = slices.Insert(g.out[u], pos, v)
	}
	return true
}

// Len returns the number of nodes.
func (g *Digraph) Len() int { return len(g.ids) }

// ID returns the id of node index i.
func (g *Digraph) ID(i int) string { return g.ids[i] }

// IDs returns the sorted node ids.
func (g *Digraph) IDs() []string { return slices.Clone(g.ids) }

// Successors returns the ids reachable over one edge from id, sorted.
func (g *Digraph) Successors(id string) []string {
	u, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, len(g.out[u]))
	for i, v := range g.out[u] {
		out[i] = g.ids[v]
	}
	return out
}

// HasSelfLoop reports whether id has an edge to itself.
func (g *Digraph) HasSelfLoop(id string) bool {
	u, ok := g.index[id]
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(g.out[u], u)
	return found
}

// Reverse returns a copy with every edge flipped.
func (g *Digraph) Reverse() *Digraph {
	r := NewDigraph(g.ids)
	for u, succ := range g.out {
		for _, v := range succ {
			r.out[v] = append(r.out[v], u)
		}
	}
	for v := range r.out {
		slices.Sort(r.out[v])
	}
	return r
}
