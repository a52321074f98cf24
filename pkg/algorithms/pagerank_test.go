package algorithms

import (
	"math"
	"testing"
)

func sum(scores map[string]float64) float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total
}

func TestPageRank_EmptyGraph(t *testing.T) {
	r := PageRank(NewDigraph(nil), DefaultPageRankOptions())
	if !r.Converged || len(r.Scores) != 0 {
		t.Errorf("PageRank(empty) = %+v, want converged with no scores", r)
	}
}

func TestPageRank_SharedDependency(t *testing.T) {
	// a, b and c all depend on base.
	g := buildDigraph(t,
		[2]string{"a", "base"}, [2]string{"b", "base"}, [2]string{"c", "base"},
	)
	r := PageRank(g, DefaultPageRankOptions())
	if !r.Converged {
		t.Fatalf("did not converge in %d iterations", r.Iterations)
	}
	if got := sum(r.Scores); math.Abs(got-1) > 1e-6 {
		t.Errorf("scores sum to %v, want 1", got)
	}
	for _, id := range []string{"a", "b", "c"} {
		if r.Scores["base"] <= r.Scores[id] {
			t.Errorf("score(base) = %v, want more than score(%s) = %v", r.Scores["base"], id, r.Scores[id])
		}
	}
	if r.Scores["a"] != r.Scores["b"] || r.Scores["b"] != r.Scores["c"] {
		t.Errorf("symmetric dependents scored differently: %v", r.Scores)
	}
}

func TestPageRank_Cycle(t *testing.T) {
	g := buildDigraph(t, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"})
	r := PageRank(g, DefaultPageRankOptions())
	for id, s := range r.Scores {
		if math.Abs(s-1.0/3) > 1e-6 {
			t.Errorf("score(%s) = %v, want 1/3", id, s)
		}
	}
}

func TestTopNodes(t *testing.T) {
	scores := map[string]float64{"a": 0.1, "b": 0.4, "c": 0.4, "d": 0.05, "e": 0.05}

	tests := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{1, []string{"b"}},
		{3, []string{"b", "c", "a"}},
		{4, []string{"b", "c", "a", "d"}},
		{10, []string{"b", "c", "a", "d", "e"}},
	}
	for _, tt := range tests {
		got := TopNodes(scores, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("TopNodes(n=%d) = %v, want ids %v", tt.n, got, tt.want)
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("TopNodes(n=%d)[%d] = %s, want %s", tt.n, i, got[i].ID, id)
			}
		}
	}
}
