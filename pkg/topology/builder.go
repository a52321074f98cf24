// Package topology builds the cluster topology graph: pods, services and
// network policies, connected by service-pod, ingress and egress edges.
package topology

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/exp/maps"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

// NamespaceGroup is the part of a topology wholly inside one namespace.
type NamespaceGroup struct {
	Nodes []string     `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Graph is the result of BuildTopology.
type Graph struct {
	Nodes       []graph.Node              `json:"nodes"`
	Edges       []graph.Edge              `json:"edges"`
	ByNamespace map[string]NamespaceGroup `json:"byNamespace,omitempty"`
	Diagnostics []graph.Diagnostic        `json:"diagnostics"`
	Statistics  graph.Statistics          `json:"statistics"`
}

// NodeID builds a topology node id: kind:namespace/name.
func NodeID(kind graph.NodeKind, namespace, name string) string {
	return fmt.Sprintf("%s:%s", kind, policy.QualifiedID(namespaceOrDefault(namespace), name))
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return graph.DefaultNamespace
	}
	return ns
}

type podRef struct {
	id        string
	namespace string
	labels    map[string]string
}

// BuildTopology builds the topology graph for a cluster snapshot. A service
// with an empty selector matches no pods; a network policy with an empty
// podSelector matches every pod in its namespace. Selectors that match
// nothing are counted as UnconnectedSelector diagnostics.
func BuildTopology(snap policy.ClusterSnapshot, cfg TopologyConfig) (*Graph, error) {
	start := time.Now()
	log := logging.OrNop(cfg.Logger).With(logging.Component("topology"))

	fail := func(err error) (*Graph, error) {
		log.Error("rejected cluster snapshot", logging.Error(err))
		cfg.Metrics.RecordBuild(string(graph.KindTopology), metrics.StatusError, time.Since(start), 0)
		return nil, err
	}

	if err := policy.ValidateSnapshot(snap); err != nil {
		return fail(err)
	}

	var nodes []graph.Node
	seen := make(map[string]struct{})
	addNode := func(n graph.Node, list string, index int) error {
		if _, dup := seen[n.ID]; dup {
			return graph.Malformed(index, list+".name", fmt.Sprintf("duplicate id %q", n.ID))
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, n)
		return nil
	}

	pods := make([]podRef, 0, len(snap.Pods))
	for i, p := range snap.Pods {
		ns := namespaceOrDefault(p.Namespace)
		n := graph.Node{
			ID:   NodeID(graph.KindPod, ns, p.Name),
			Kind: graph.KindPod,
			Name: p.Name,
			Attributes: graph.Attributes{
				Status:    defaultStatus(p.Status),
				Namespace: ns,
				Resources: maps.Clone(p.Resources),
				Labels:    maps.Clone(p.Labels),
			},
		}
		if err := addNode(n, "pods", i); err != nil {
			return fail(err)
		}
		pods = append(pods, podRef{id: n.ID, namespace: ns, labels: p.Labels})
	}

	var edges []graph.Edge
	var diags []graph.Diagnostic
	unconnected := func(id, kind string, sel policy.Selector) {
		diags = append(diags, graph.Warn(graph.CodeUnconnectedSelector, []string{id},
			"%s %s selector {%s} matches no pods", kind, id, sel))
	}

	// Service -> pod edges. Weight is filled in once every service has been
	// matched.
	servicesPerPod := make(map[string]int)
	var servicePod []graph.Edge
	for i, s := range snap.Services {
		ns := namespaceOrDefault(s.Namespace)
		id := NodeID(graph.KindService, ns, s.Name)
		n := graph.Node{
			ID:   id,
			Kind: graph.KindService,
			Name: s.Name,
			Attributes: graph.Attributes{
				Status:    defaultStatus(s.Status),
				Namespace: ns,
				Labels:    maps.Clone(s.Labels),
			},
		}
		if err := addNode(n, "services", i); err != nil {
			return fail(err)
		}

		matched := 0
		if !s.Selector.IsEmpty() {
			for _, p := range pods {
				if p.namespace == ns && s.Selector.Matches(p.labels) {
					servicePod = append(servicePod, graph.Edge{Source: id, Target: p.id, Type: graph.EdgeServicePod})
					servicesPerPod[p.id]++
					matched++
				}
			}
		}
		if matched == 0 {
			unconnected(id, "service", s.Selector)
		}
	}
	for _, e := range servicePod {
		e.Weight = servicesPerPod[e.Target]
		edges = append(edges, e)
	}

	if !cfg.ExcludePolicies {
		for i, np := range snap.NetworkPolicies {
			ns := namespaceOrDefault(np.Namespace)
			id := NodeID(graph.KindPolicy, ns, np.Name)
			r := np.Record()
			n := graph.Node{
				ID:   id,
				Kind: graph.KindPolicy,
				Name: np.Name,
				Attributes: graph.Attributes{
					Severity:  r.Label(policy.LabelSeverity, graph.DefaultSeverity),
					RuleCount: len(r.Rules),
					Status:    r.Label(policy.LabelStatus, graph.DefaultPolicyStatus),
					Namespace: ns,
					Labels:    maps.Clone(np.Labels),
				},
			}
			if err := addNode(n, "networkPolicies", i); err != nil {
				return fail(err)
			}

			matched := 0
			for _, p := range pods {
				if p.namespace != ns || !np.PodSelector.Matches(p.labels) {
					continue
				}
				matched++
				if r.EnforcesIngress() {
					edges = append(edges, graph.Edge{Source: id, Target: p.id, Type: graph.EdgeIngress, Weight: max(1, np.IngressRules)})
				}
				if r.EnforcesEgress() {
					edges = append(edges, graph.Edge{Source: id, Target: p.id, Type: graph.EdgeEgress, Weight: max(1, np.EgressRules)})
				}
			}
			if matched == 0 {
				unconnected(id, "network policy", np.PodSelector)
			}
		}
	}

	// Node size grows with the number of edges touching the node.
	degree := make(map[string]int)
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	for i := range nodes {
		nodes[i].Size = 1 + degree[nodes[i].ID]
	}

	graph.SortNodes(nodes)
	graph.SortEdges(edges)
	graph.SortDiagnostics(diags)

	g := &Graph{
		Nodes:       nodes,
		Edges:       edges,
		Diagnostics: diags,
		Statistics:  graph.ComputeStatistics(nodes, edges, nil, diags),
	}
	if cfg.GroupByNamespace {
		g.ByNamespace = groupByNamespace(nodes, edges)
	}

	for _, d := range diags {
		log.Warn(d.Message, logging.Code(string(d.Code)), logging.Nodes(d.Nodes))
		cfg.Metrics.RecordDiagnostic(string(d.Code))
	}
	cfg.Metrics.RecordBuild(string(graph.KindTopology), metrics.StatusOK, time.Since(start), len(nodes))
	log.Debug("built topology graph", logging.Count(len(nodes)), logging.Int("edges", len(edges)))

	return g, nil
}

// groupByNamespace buckets nodes by namespace. An edge lands in a bucket
// only when both endpoints are in that namespace.
func groupByNamespace(nodes []graph.Node, edges []graph.Edge) map[string]NamespaceGroup {
	nsOf := make(map[string]string, len(nodes))
	groups := make(map[string]NamespaceGroup)
	for _, n := range nodes {
		ns := n.Attributes.Namespace
		nsOf[n.ID] = ns
		grp := groups[ns]
		grp.Nodes = append(grp.Nodes, n.ID)
		groups[ns] = grp
	}
	for _, e := range edges {
		ns := nsOf[e.Source]
		if ns != nsOf[e.Target] {
			continue
		}
		grp := groups[ns]
		grp.Edges = append(grp.Edges, e)
		groups[ns] = grp
	}
	return groups
}

func defaultStatus(s string) string {
	if s == "" {
		return graph.DefaultStatus
	}
	return s
}

// Namespaces returns the namespaces present in the graph, sorted.
func (g *Graph) Namespaces() []string {
	set := make(map[string]struct{})
	for _, n := range g.Nodes {
		set[n.Attributes.Namespace] = struct{}{}
	}
	namespaces := maps.Keys(set)
	slices.Sort(namespaces)
	return namespaces
}

// Snapshot implements graph.Exportable.
func (g *Graph) Snapshot() graph.Snapshot {
	var groups map[string][]string
	if g.ByNamespace != nil {
		groups = make(map[string][]string, len(g.ByNamespace))
		for ns, grp := range g.ByNamespace {
			groups[ns] = grp.Nodes
		}
	}
	return graph.Snapshot{
		Kind:        graph.KindTopology,
		Nodes:       g.Nodes,
		Edges:       g.Edges,
		Statistics:  g.Statistics,
		Diagnostics: g.Diagnostics,
		Groups:      groups,
	}
}
