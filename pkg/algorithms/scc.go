package algorithms

import (
	"slices"
)

// Component is a strongly connected component: sorted node ids.
type Component []string

// tarjanState holds per-node state during Tarjan's DFS.
type tarjanState struct {
	index   int
	lowlink int
	onStack bool
	visited bool
}

// StronglyConnectedComponents finds all SCCs using Tarjan's algorithm in
// O(V+E) time. Components are returned sorted by their first id.
func StronglyConnectedComponents(g *Digraph) []Component {
	n := g.Len()
	state := make([]tarjanState, n)
	stack := make([]int, 0, n)
	indexCounter := 0
	var components []Component

	var strongconnect func(u int)
	strongconnect = func(u int) {
		state[u] = tarjanState{index: indexCounter, lowlink: indexCounter, onStack: true, visited: true}
		indexCounter++
		stack = append(stack, u)

		for _, v := range g.out[u] {
			if !state[v].visited {
				strongconnect(v)
				state[u].lowlink = min(state[u].lowlink, state[v].lowlink)
			} else if state[v].onStack {
				state[u].lowlink = min(state[u].lowlink, state[v].index)
			}
		}

		if state[u].lowlink == state[u].index {
			var members Component
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, g.ids[w])
				if w == u {
					break
				}
			}
			slices.Sort(members)
			components = append(components, members)
		}
	}

	for u := 0; u < n; u++ {
		if !state[u].visited {
			strongconnect(u)
		}
	}

	slices.SortFunc(components, func(a, b Component) int {
		return slices.Compare(a, b)
	})
	return components
}

// CyclicComponents returns the SCCs that contain a cycle: those with more
// than one node, or a single node with a self-loop.
func CyclicComponents(g *Digraph) []Component {
	var out []Component
	for _, c := range StronglyConnectedComponents(g) {
		if len(c) > 1 || g.HasSelfLoop(c[0]) {
			out = append(out, c)
		}
	}
	return out
}
