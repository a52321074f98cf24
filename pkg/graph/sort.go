package graph

import (
	"cmp"
	"slices"
)

// SortNodes orders nodes by id.
func SortNodes(nodes []Node) {
	slices.SortFunc(nodes, func(a, b Node) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortEdges orders edges by source, target, then type.
func SortEdges(edges []Edge) {
	slices.SortFunc(edges, CompareEdges)
}

// CompareEdges is the canonical edge ordering.
func CompareEdges(a, b Edge) int {
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

// IndexNodes maps node ids to their position in nodes.
func IndexNodes(nodes []Node) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}
	return idx
}
