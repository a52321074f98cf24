package algorithms

import (
	"container/heap"
	"errors"
)

// ErrNotDAG is returned when an ordering is requested for a cyclic graph.
var ErrNotDAG = errors.New("graph contains cycles, cannot perform topological sort")

// IsDAG checks if the graph is a Directed Acyclic Graph
func IsDAG(g *Digraph) bool {
	return !HasCycle(g)
}

// TopologicalSort returns node ids in topological order using Kahn's
// algorithm: for every edge u->v, u comes before v. Among nodes that are
// ready at the same time the smallest id goes first.
func TopologicalSort(g *Digraph) ([]string, error) {
	n := g.Len()
	inDegree := make([]int, n)
	for _, succ := range g.out {
		for _, v := range succ {
			inDegree[v]++
		}
	}

	ready := &intHeap{}
	for u := 0; u < n; u++ {
		if inDegree[u] == 0 {
			heap.Push(ready, u)
		}
	}

	sorted := make([]string, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		sorted = append(sorted, g.ids[u])
		for _, v := range g.out[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	if len(sorted) != n {
		return nil, ErrNotDAG
	}
	return sorted, nil
}

// DependencyOrder returns ids so that for every edge u->v, v comes before
// u. With u->v meaning "u depends on v" this is the order to apply them in.
func DependencyOrder(g *Digraph) ([]string, error) {
	return TopologicalSort(g.Reverse())
}

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
