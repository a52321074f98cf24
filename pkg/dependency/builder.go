// Package dependency builds the policy dependency graph: one node per
// policy record, depends-on edges from annotations, selector-overlap edges
// between policies whose selectors share labels, and the depends-on cycles.
package dependency

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"

	"github.com/dd0wney/cluso-policygraph/pkg/algorithms"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

// Graph is the result of BuildDependencyGraph. Nodes are sorted by id and
// edges by (source, target, type).
type Graph struct {
	Nodes       []graph.Node       `json:"nodes"`
	Edges       []graph.Edge       `json:"edges"`
	Cycles      []algorithms.Cycle `json:"cycles"`
	SelfLoops   []string           `json:"selfLoops,omitempty"`
	Diagnostics []graph.Diagnostic `json:"diagnostics"`
	Statistics  graph.Statistics   `json:"statistics"`
	// ApplyOrder lists policies dependencies-first. It is empty when the
	// depends-on edges form a cycle.
	ApplyOrder []string `json:"applyOrder,omitempty"`
	// CyclicComponents are the strongly connected groups of policies that
	// depend on each other.
	CyclicComponents []algorithms.Component `json:"cyclicComponents,omitempty"`
	HighlightCycles  bool                   `json:"highlightCycles"`
	// Influence ranks the most depended-upon policies by PageRank over the
	// depends-on edges, highest first. Empty without depends-on edges.
	Influence []algorithms.RankedNode `json:"influence,omitempty"`
}

// InfluenceTop is how many policies Influence keeps.
const InfluenceTop = 10

// ExtractNodes validates the records and returns one policy node per
// record, sorted by id. The interaction analyzer shares it.
func ExtractNodes(policies []policy.Record, cfg LayoutConfig) ([]graph.Node, error) {
	if err := policy.ValidateRecords(policies); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	nodes := make([]graph.Node, len(policies))
	for i, p := range policies {
		nodes[i] = policyNode(p, cfg)
	}
	graph.SortNodes(nodes)
	return nodes, nil
}

func policyNode(p policy.Record, cfg LayoutConfig) graph.Node {
	ruleCount := len(p.Rules)
	return graph.Node{
		ID:   p.ID(),
		Kind: graph.KindPolicy,
		Name: p.Name,
		Attributes: graph.Attributes{
			Severity:  p.Label(cfg.SeverityLabel, graph.DefaultSeverity),
			RuleCount: ruleCount,
			Status:    p.Label(cfg.StatusLabel, graph.DefaultPolicyStatus),
			Namespace: p.NamespaceOrDefault(),
			Labels:    maps.Clone(p.Labels),
		},
		Size: cfg.BaseSize + ruleCount*cfg.SizeFactor,
	}
}

// BuildDependencyGraph builds the dependency graph for policies. A record
// with an empty name or a duplicate id fails the whole call with a
// *graph.MalformedRecordError. A depends-on target that names no policy
// becomes a DanglingReference diagnostic and the rest of the graph is still
// built.
func BuildDependencyGraph(policies []policy.Record, cfg LayoutConfig) (*Graph, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger.With(logging.Component("dependency"))

	nodes, err := ExtractNodes(policies, cfg)
	if err != nil {
		log.Error("rejected policy set", logging.Error(err))
		cfg.Metrics.RecordBuild(string(graph.KindDependency), metrics.StatusError, time.Since(start), 0)
		return nil, err
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	deps := algorithms.NewDigraph(ids)

	var edges []graph.Edge
	var diags []graph.Diagnostic

	for _, p := range policies {
		src := p.ID()
		for _, target := range p.DependsOn(cfg.DependsOnAnnotation) {
			if !deps.AddEdge(src, target) {
				diags = append(diags, graph.Warn(graph.CodeDanglingReference, []string{src, target},
					"policy %s depends on %s, which is not in the policy set", src, target))
				continue
			}
			if src == target {
				diags = append(diags, graph.Warn(graph.CodeSelfLoop, []string{src},
					"policy %s depends on itself", src))
			}
		}
	}

	// Collapse repeated annotations onto one edge per pair.
	for _, src := range deps.IDs() {
		for _, dst := range deps.Successors(src) {
			edges = append(edges, graph.Edge{Source: src, Target: dst, Type: graph.EdgeDependsOn, Weight: 1})
		}
	}

	edges = append(edges, overlapEdges(policies, cfg)...)
	graph.SortEdges(edges)

	cycles := algorithms.DetectCycles(deps, algorithms.CycleDetectionOptions{MinCycleLength: 2})
	cycleIDs := make([][]string, len(cycles))
	for i, c := range cycles {
		cycleIDs[i] = c
	}

	g := &Graph{
		Nodes:            nodes,
		Edges:            edges,
		Cycles:           cycles,
		SelfLoops:        algorithms.SelfLoops(deps),
		CyclicComponents: algorithms.CyclicComponents(deps),
		HighlightCycles:  cfg.HighlightCycles,
	}
	if order, err := algorithms.DependencyOrder(deps); err == nil {
		g.ApplyOrder = order
	}

	graph.SortDiagnostics(diags)
	g.Diagnostics = diags
	g.Statistics = graph.ComputeStatistics(nodes, edges, cycleIDs, diags)
	if g.Statistics.EdgesByType[graph.EdgeDependsOn] > 0 {
		g.Influence = algorithms.TopNodes(algorithms.PageRank(deps, algorithms.DefaultPageRankOptions()).Scores, InfluenceTop)
	}

	for _, d := range diags {
		log.Warn(d.Message, logging.Code(string(d.Code)), logging.Nodes(d.Nodes))
		cfg.Metrics.RecordDiagnostic(string(d.Code))
	}
	cfg.Metrics.RecordCycles(len(cycles))
	cfg.Metrics.RecordBuild(string(graph.KindDependency), metrics.StatusOK, time.Since(start), len(nodes))
	log.Debug("built dependency graph",
		logging.Count(len(nodes)), logging.Int("edges", len(edges)), logging.Int("cycles", len(cycles)))

	return g, nil
}

// overlapEdges adds one selector-overlap edge per unordered pair of
// policies whose selectors share at least one label pair. The edge runs
// from the smaller id to the larger and weighs the number of shared pairs.
func overlapEdges(policies []policy.Record, cfg LayoutConfig) []graph.Edge {
	var edges []graph.Edge
	for i := 0; i < len(policies); i++ {
		for j := i + 1; j < len(policies); j++ {
			a, b := policies[i], policies[j]
			if cfg.SameNamespaceOverlap && a.NamespaceOrDefault() != b.NamespaceOrDefault() {
				continue
			}
			shared := len(a.Selector.Common(b.Selector))
			if shared == 0 {
				continue
			}
			src, dst := a.ID(), b.ID()
			if dst < src {
				src, dst = dst, src
			}
			edges = append(edges, graph.Edge{Source: src, Target: dst, Type: graph.EdgeSelectorOverlap, Weight: shared})
		}
	}
	return edges
}

// Snapshot implements graph.Exportable.
func (g *Graph) Snapshot() graph.Snapshot {
	cycles := make([][]string, len(g.Cycles))
	for i, c := range g.Cycles {
		cycles[i] = c
	}
	return graph.Snapshot{
		Kind:            graph.KindDependency,
		Nodes:           g.Nodes,
		Edges:           g.Edges,
		Cycles:          cycles,
		Statistics:      g.Statistics,
		Diagnostics:     g.Diagnostics,
		HighlightCycles: g.HighlightCycles,
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (graph.Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return graph.Node{}, false
}

// EdgesOfType returns the edges of one type, in canonical order.
func (g *Graph) EdgesOfType(t graph.EdgeType) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
