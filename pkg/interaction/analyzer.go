// Package interaction classifies how pairs of policies relate: conflict,
// overlap, enhancement or sequential.
package interaction

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dd0wney/cluso-policygraph/pkg/dependency"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

// Type is an interaction classification.
type Type string

const (
	Conflict    Type = "conflict"
	Overlap     Type = "overlap"
	Enhancement Type = "enhancement"
	Sequential  Type = "sequential"
)

// Types lists every classification in report order.
var Types = []Type{Conflict, Overlap, Enhancement, Sequential}

// Interaction relates two policies. Conflict and overlap run from the
// smaller id to the larger; enhancement runs from the dependent policy to
// its dependency; sequential runs from the lower order to the higher.
type Interaction struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Type         Type    `json:"type"`
	Severity     string  `json:"severity"`
	Ratio        float64 `json:"ratio,omitempty"`
	SharedLabels string  `json:"sharedLabels,omitempty"`
}

// Cell is one entry of the conflict matrix.
type Cell struct {
	Conflict bool   `json:"conflict"`
	Overlap  bool   `json:"overlap"`
	Severity string `json:"severity"`
}

// Statistics tallies an analysis.
type Statistics struct {
	Policies       int          `json:"policies"`
	PairsCompared  int          `json:"pairsCompared"`
	PairsSkipped   int          `json:"pairsSkipped"`
	Total          int          `json:"total"`
	ByType         map[Type]int `json:"byType"`
	ConflictingIDs []string     `json:"conflictingIds,omitempty"`
}

// Graph is the result of AnalyzeInteractions.
//
// ConflictMatrix holds conflict and overlap in both directions, so
// ConflictMatrix[a][b] == ConflictMatrix[b][a].
type Graph struct {
	Nodes          []graph.Node               `json:"nodes"`
	Interactions   []Interaction              `json:"interactions"`
	ConflictMatrix map[string]map[string]Cell `json:"conflictMatrix"`
	ByType         map[Type][]Interaction     `json:"byType"`
	Statistics     Statistics                 `json:"statistics"`
}

// AnalyzeInteractions compares every unordered pair of policies in the same
// namespace (any namespace with CrossNamespace) and classifies the pair.
// Record validation matches BuildDependencyGraph.
//
//   - overlap: the selectors share a label pair and neither policy carries
//     the ordering annotation.
//   - conflict: the selectors select overlapping pods with an overlap ratio
//     at or above ConflictThreshold, and the directives contradict: one is
//     deny-all shaped while the other permits traffic, or their intent
//     labels are deny and allow.
//   - enhancement: one depends on the other and neither of the above holds.
//   - sequential: the selectors share a label pair and both carry distinct
//     integer orders.
func AnalyzeInteractions(policies []policy.Record, cfg InteractionConfig) (*Graph, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger.With(logging.Component("interaction"))

	nodes, err := dependency.ExtractNodes(policies, dependency.LayoutConfig{
		SeverityLabel:       cfg.SeverityLabel,
		DependsOnAnnotation: cfg.DependsOnAnnotation,
	})
	if err != nil {
		log.Error("rejected policy set", logging.Error(err))
		cfg.Metrics.RecordBuild(string(graph.KindInteraction), metrics.StatusError, time.Since(start), 0)
		return nil, err
	}

	severity := make(map[string]string, len(nodes))
	for _, n := range nodes {
		severity[n.ID] = n.Attributes.Severity
	}

	sorted := slices.Clone(policies)
	slices.SortFunc(sorted, func(a, b policy.Record) int { return cmp.Compare(a.ID(), b.ID()) })

	g := &Graph{
		Nodes:          nodes,
		ConflictMatrix: make(map[string]map[string]Cell),
		ByType:         make(map[Type][]Interaction, len(Types)),
		Statistics:     Statistics{Policies: len(nodes), ByType: make(map[Type]int, len(Types))},
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if !cfg.CrossNamespace && a.NamespaceOrDefault() != b.NamespaceOrDefault() {
				g.Statistics.PairsSkipped++
				continue
			}
			g.Statistics.PairsCompared++
			for _, in := range classify(a, b, severity, cfg) {
				g.add(in)
			}
		}
	}

	slices.SortFunc(g.Interactions, compareInteractions)
	conflicting := make(map[string]struct{})
	for _, t := range Types {
		g.ByType[t] = []Interaction{}
		g.Statistics.ByType[t] = 0
	}
	for _, in := range g.Interactions {
		g.ByType[in.Type] = append(g.ByType[in.Type], in)
		g.Statistics.ByType[in.Type]++
		if in.Type == Conflict {
			conflicting[in.Source] = struct{}{}
			conflicting[in.Target] = struct{}{}
		}
	}
	g.Statistics.Total = len(g.Interactions)
	for id := range conflicting {
		g.Statistics.ConflictingIDs = append(g.Statistics.ConflictingIDs, id)
	}
	slices.Sort(g.Statistics.ConflictingIDs)

	counts := make(map[string]int, len(Types))
	for t, n := range g.Statistics.ByType {
		counts[string(t)] = n
	}
	cfg.Metrics.RecordInteractions(counts)
	cfg.Metrics.RecordBuild(string(graph.KindInteraction), metrics.StatusOK, time.Since(start), len(nodes))
	for _, c := range g.ByType[Conflict] {
		log.Info("conflicting policies",
			logging.String("source", c.Source), logging.String("target", c.Target), logging.String("severity", c.Severity))
	}
	log.Debug("analyzed interactions",
		logging.Count(g.Statistics.Total), logging.Int("pairs", g.Statistics.PairsCompared))

	return g, nil
}

// classify returns the interactions of one pair; a has the smaller id.
func classify(a, b policy.Record, severity map[string]string, cfg InteractionConfig) []Interaction {
	aID, bID := a.ID(), b.ID()
	base := graph.MaxSeverity(severity[aID], severity[bID])
	sameNamespace := a.NamespaceOrDefault() == b.NamespaceOrDefault()

	common := policy.Selector(a.Selector.Common(b.Selector))
	ratio := overlapRatio(a.Selector, b.Selector, len(common), sameNamespace)
	selectsSamePods := len(common) > 0 || (sameNamespace && (a.Selector.IsEmpty() || b.Selector.IsEmpty()))

	var out []Interaction

	conflict := selectsSamePods && ratio >= cfg.ConflictThreshold && contradicts(a, b, cfg.IntentLabel)
	if conflict {
		sev := graph.MaxSeverity(base, "medium")
		if ratio >= 1 {
			sev = graph.BumpSeverity(sev)
		}
		out = append(out, Interaction{Source: aID, Target: bID, Type: Conflict, Severity: sev, Ratio: ratio, SharedLabels: common.String()})
	}

	overlap := len(common) > 0 && !a.HasOrder(cfg.OrderAnnotation) && !b.HasOrder(cfg.OrderAnnotation)
	if overlap {
		out = append(out, Interaction{Source: aID, Target: bID, Type: Overlap, Severity: graph.MaxSeverity(base, "low"), Ratio: ratio, SharedLabels: common.String()})
	}

	if !conflict && !overlap {
		switch {
		case slices.Contains(a.DependsOn(cfg.DependsOnAnnotation), bID):
			out = append(out, Interaction{Source: aID, Target: bID, Type: Enhancement, Severity: base})
		case slices.Contains(b.DependsOn(cfg.DependsOnAnnotation), aID):
			out = append(out, Interaction{Source: bID, Target: aID, Type: Enhancement, Severity: base})
		}
	}

	if len(common) > 0 {
		ao, aok := a.Order(cfg.OrderAnnotation)
		bo, bok := b.Order(cfg.OrderAnnotation)
		if aok && bok && ao != bo {
			src, dst := aID, bID
			if bo < ao {
				src, dst = bID, aID
			}
			out = append(out, Interaction{Source: src, Target: dst, Type: Sequential, Severity: base, SharedLabels: common.String()})
		}
	}

	return out
}

// overlapRatio is the share of one selector's keys matched by the other,
// taking the larger of the two shares. An empty selector selects every pod
// in its namespace and counts as a full overlap with a same-namespace peer.
func overlapRatio(a, b policy.Selector, shared int, sameNamespace bool) float64 {
	if sameNamespace && (a.IsEmpty() || b.IsEmpty()) {
		return 1
	}
	var ratio float64
	if a.Len() > 0 {
		ratio = float64(shared) / float64(a.Len())
	}
	if b.Len() > 0 {
		ratio = max(ratio, float64(shared)/float64(b.Len()))
	}
	return ratio
}

// contradicts reports whether two policies give opposing directives.
func contradicts(a, b policy.Record, intentLabel string) bool {
	if a.IsDenyAll() && b.Permits() || b.IsDenyAll() && a.Permits() {
		return true
	}
	ai, bi := a.Labels[intentLabel], b.Labels[intentLabel]
	return ai == policy.IntentDeny && bi == policy.IntentAllow || ai == policy.IntentAllow && bi == policy.IntentDeny
}

func (g *Graph) add(in Interaction) {
	g.Interactions = append(g.Interactions, in)
	if in.Type != Conflict && in.Type != Overlap {
		return
	}
	g.setCell(in.Source, in.Target, in)
	g.setCell(in.Target, in.Source, in)
}

func (g *Graph) setCell(from, to string, in Interaction) {
	row, ok := g.ConflictMatrix[from]
	if !ok {
		row = make(map[string]Cell)
		g.ConflictMatrix[from] = row
	}
	cell := row[to]
	switch in.Type {
	case Conflict:
		cell.Conflict = true
	case Overlap:
		cell.Overlap = true
	}
	cell.Severity = graph.MaxSeverity(cell.Severity, in.Severity)
	row[to] = cell
}

func compareInteractions(a, b Interaction) int {
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return cmp.Compare(slices.Index(Types, a.Type), slices.Index(Types, b.Type))
}

// Related reports whether the matrix or interaction list holds a relation
// of type t from a to b.
func (g *Graph) Related(a, b string, t Type) bool {
	switch t {
	case Conflict:
		return g.ConflictMatrix[a][b].Conflict
	case Overlap:
		return g.ConflictMatrix[a][b].Overlap
	}
	for _, in := range g.ByType[t] {
		if in.Source == a && in.Target == b {
			return true
		}
	}
	return false
}

// Snapshot implements graph.Exportable. Interactions become edges typed
// after their classification.
func (g *Graph) Snapshot() graph.Snapshot {
	edges := make([]graph.Edge, len(g.Interactions))
	for i, in := range g.Interactions {
		edges[i] = graph.Edge{
			Source:   in.Source,
			Target:   in.Target,
			Type:     graph.EdgeType(in.Type),
			Weight:   1,
			Severity: in.Severity,
		}
	}
	graph.SortEdges(edges)
	return graph.Snapshot{
		Kind:       graph.KindInteraction,
		Nodes:      g.Nodes,
		Edges:      edges,
		Statistics: graph.ComputeStatistics(g.Nodes, edges, nil, nil),
	}
}
