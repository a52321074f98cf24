package algorithms

import (
	"cmp"
	"container/heap"
	"math"
	"slices"
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Convergence threshold
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRankResult contains PageRank scores for all nodes
type PageRankResult struct {
	Scores     map[string]float64 `json:"scores"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
}

// RankedNode is a node id with its score.
type RankedNode struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// PageRank scores every node of g. Rank flows along edges, so in a
// depends-on graph the policies others depend on score highest. Nodes
// without successors spread their rank evenly so scores always sum to 1.
func PageRank(g *Digraph, opts PageRankOptions) PageRankResult {
	n := g.Len()
	if n == 0 {
		return PageRankResult{Scores: map[string]float64{}, Converged: true}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / float64(n)
	}

	converged := false
	iterations := 0
	for iterations < opts.MaxIterations {
		iterations++

		dangling := 0.0
		for u, succ := range g.out {
			if len(succ) == 0 {
				dangling += scores[u]
			}
		}
		base := (1-opts.DampingFactor)/float64(n) + opts.DampingFactor*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for u, succ := range g.out {
			if len(succ) == 0 {
				continue
			}
			share := opts.DampingFactor * scores[u] / float64(len(succ))
			for _, v := range succ {
				next[v] += share
			}
		}

		maxDiff := 0.0
		for i := range scores {
			maxDiff = max(maxDiff, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores
		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	out := make(map[string]float64, n)
	for i, s := range scores {
		out[g.ids[i]] = s
	}
	return PageRankResult{Scores: out, Iterations: iterations, Converged: converged}
}

// rankedNodeHeap is a min-heap by score; among equal scores the larger id
// is smaller so the smaller id survives.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].ID > h[j].ID
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the n best-scored nodes, highest first, ties broken by
// id. It runs in O(len(scores) log n).
func TopNodes(scores map[string]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}
	h := make(rankedNodeHeap, 0, n)
	for id, score := range scores {
		rn := RankedNode{ID: id, Score: score}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if rankedBefore(rn, h[0]) {
			h[0] = rn
			heap.Fix(&h, 0)
		}
	}
	out := []RankedNode(h)
	slices.SortFunc(out, func(a, b RankedNode) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// rankedBefore reports whether a ranks ahead of b.
func rankedBefore(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}
