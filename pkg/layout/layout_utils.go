package layout

import (
	"math"
	"slices"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// indexed is a snapshot reduced to node indexes and undirected, sorted
// adjacency lists. Edges to unknown nodes are dropped.
type indexed struct {
	ids       []string
	index     map[string]int
	neighbors [][]int
	out       [][]int
	inDegree  []int
}

func index(snap graph.Snapshot) indexed {
	ix := indexed{
		ids:       make([]string, len(snap.Nodes)),
		index:     make(map[string]int, len(snap.Nodes)),
		neighbors: make([][]int, len(snap.Nodes)),
		out:       make([][]int, len(snap.Nodes)),
		inDegree:  make([]int, len(snap.Nodes)),
	}
	for i, n := range snap.Nodes {
		ix.ids[i] = n.ID
	}
	slices.Sort(ix.ids)
	for i, id := range ix.ids {
		ix.index[id] = i
	}
	for _, e := range snap.Edges {
		s, ok1 := ix.index[e.Source]
		t, ok2 := ix.index[e.Target]
		if !ok1 || !ok2 || s == t {
			continue
		}
		ix.out[s] = append(ix.out[s], t)
		ix.inDegree[t]++
		ix.neighbors[s] = append(ix.neighbors[s], t)
		ix.neighbors[t] = append(ix.neighbors[t], s)
	}
	for i := range ix.ids {
		slices.Sort(ix.out[i])
		ix.out[i] = slices.Compact(ix.out[i])
		slices.Sort(ix.neighbors[i])
		ix.neighbors[i] = slices.Compact(ix.neighbors[i])
	}
	return ix
}

// round keeps two decimals so encoded coordinates stay short.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions []Position, width, height, padding float64) []Position {
	if len(positions) == 0 {
		return positions
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make([]Position, len(positions))
	for i, pos := range positions {
		normalized[i] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}
	return normalized
}

func toMap(ids []string, positions []Position) map[string]Position {
	m := make(map[string]Position, len(ids))
	for i, id := range ids {
		m[id] = Position{X: round(positions[i].X), Y: round(positions[i].Y)}
	}
	return m
}
