package layout

import (
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// HierarchicalLayout places nodes in rows by breadth-first depth from the
// nodes with no incoming edges. Rows run top to bottom.
type HierarchicalLayout struct {
	config Config
}

// Compute arranges nodes hierarchically
func (hl *HierarchicalLayout) Compute(snap graph.Snapshot) map[string]Position {
	ix := index(snap)
	if len(ix.ids) == 0 {
		return map[string]Position{}
	}

	var roots []int
	for i := range ix.ids {
		if ix.inDegree[i] == 0 {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		// Every node sits on a cycle.
		roots = []int{0}
	}

	var levels [][]int
	visited := make([]bool, len(ix.ids))
	for _, r := range roots {
		visited[r] = true
	}
	current := roots
	for len(current) > 0 {
		levels = append(levels, current)
		var next []int
		for _, n := range current {
			for _, m := range ix.out[n] {
				if !visited[m] {
					visited[m] = true
					next = append(next, m)
				}
			}
		}
		current = next
	}

	// Nodes only reachable through a cycle go on the last row.
	for i := range ix.ids {
		if !visited[i] {
			levels[len(levels)-1] = append(levels[len(levels)-1], i)
		}
	}

	positions := make([]Position, len(ix.ids))
	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding
	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)
		for nodeIdx, n := range level {
			positions[n] = Position{X: hl.config.Padding + spacing*float64(nodeIdx+1), Y: y}
		}
	}
	return toMap(ix.ids, positions)
}
