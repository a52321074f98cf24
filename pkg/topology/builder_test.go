package topology

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

func sel(kv ...string) policy.Selector {
	m := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return policy.NewSelector(m)
}

func edgesOfType(g *Graph, t graph.EdgeType) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestBuildTopology_ServiceMatchesOnlyMatchingPod(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{
			{Name: "front", Labels: map[string]string{"app": "web", "tier": "front"}},
			{Name: "other", Labels: map[string]string{"app": "other"}},
		},
		Services: []policy.Service{{Name: "web", Selector: sel("app", "web")}},
	}

	g, err := BuildTopology(snap, TopologyConfig{})
	if err != nil {
		t.Fatalf("BuildTopology failed: %v", err)
	}

	sp := edgesOfType(g, graph.EdgeServicePod)
	if len(sp) != 1 {
		t.Fatalf("expected exactly one service-pod edge, got %v", sp)
	}
	if sp[0].Source != "service:default/web" || sp[0].Target != "pod:default/front" || sp[0].Weight != 1 {
		t.Errorf("unexpected edge %+v", sp[0])
	}
}

func TestBuildTopology_NodeDefaults(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{
			{Name: "a", Namespace: "prod", Status: "Running", Resources: map[string]string{"cpu": "500m"}},
			{Name: "b", Namespace: "prod"},
		},
	}

	g, err := BuildTopology(snap, TopologyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes[0].Attributes.Status != "Running" || g.Nodes[0].Attributes.Resources["cpu"] != "500m" {
		t.Errorf("attributes not copied: %+v", g.Nodes[0].Attributes)
	}
	if g.Nodes[1].Attributes.Status != graph.DefaultStatus {
		t.Errorf("status = %q, want Unknown", g.Nodes[1].Attributes.Status)
	}
}

func TestBuildTopology_WeightCountsServicesPerPod(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{
			{Name: "api-1", Labels: map[string]string{"app": "api", "tier": "back"}},
			{Name: "api-2", Labels: map[string]string{"app": "api"}},
		},
		Services: []policy.Service{
			{Name: "api", Selector: sel("app", "api")},
			{Name: "back", Selector: sel("tier", "back")},
		},
	}

	g, err := BuildTopology(snap, TopologyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	weights := make(map[string]int)
	for _, e := range edgesOfType(g, graph.EdgeServicePod) {
		weights[e.Source+">"+e.Target] = e.Weight
	}
	want := map[string]int{
		"service:default/api>pod:default/api-1":  2,
		"service:default/api>pod:default/api-2":  1,
		"service:default/back>pod:default/api-1": 2,
	}
	if len(weights) != len(want) {
		t.Fatalf("edges = %v", weights)
	}
	for k, w := range want {
		if weights[k] != w {
			t.Errorf("weight[%s] = %d, want %d", k, weights[k], w)
		}
	}
}

func TestBuildTopology_PolicyDirections(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{{Name: "db", Labels: map[string]string{"app": "db"}}},
		NetworkPolicies: []policy.NetworkPolicy{
			{Name: "in", PodSelector: sel("app", "db"), IngressRules: 2},
			{Name: "both", PodSelector: sel("app", "db"), PolicyTypes: []string{"Ingress", "Egress"}},
			{Name: "implicit-egress", PodSelector: sel("app", "db"), EgressRules: 1},
			{Name: "all-pods"},
		},
	}

	g, err := BuildTopology(snap, TopologyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	ingress := edgesOfType(g, graph.EdgeIngress)
	egress := edgesOfType(g, graph.EdgeEgress)
	if len(ingress) != 4 {
		t.Errorf("ingress edges = %v", ingress)
	}
	if len(egress) != 2 {
		t.Errorf("egress edges = %v", egress)
	}
	for _, e := range ingress {
		if e.Source == "policy:default/in" && e.Weight != 2 {
			t.Errorf("ingress weight = %d, want 2", e.Weight)
		}
	}
}

func TestBuildTopology_ExcludePolicies(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods:            []policy.Workload{{Name: "db", Labels: map[string]string{"app": "db"}}},
		NetworkPolicies: []policy.NetworkPolicy{{Name: "in", PodSelector: sel("app", "db")}},
	}
	g, err := BuildTopology(snap, TopologyConfig{ExcludePolicies: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 1 || len(g.Edges) != 0 {
		t.Errorf("expected only the pod, got %v / %v", g.Nodes, g.Edges)
	}
}

func TestBuildTopology_UnconnectedSelectors(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{{Name: "web", Labels: map[string]string{"app": "web"}}},
		Services: []policy.Service{
			{Name: "ghost", Selector: sel("app", "ghost")},
			{Name: "headless"},
			{Name: "other-ns", Namespace: "dev", Selector: sel("app", "web")},
		},
		NetworkPolicies: []policy.NetworkPolicy{{Name: "nothing", PodSelector: sel("app", "none")}},
	}

	g, err := BuildTopology(snap, TopologyConfig{})
	if err != nil {
		t.Fatalf("unconnected selectors must not fail the build: %v", err)
	}
	if g.Statistics.UnconnectedSelectors != 4 {
		t.Errorf("UnconnectedSelectors = %d, want 4", g.Statistics.UnconnectedSelectors)
	}
	if len(g.Edges) != 0 {
		t.Errorf("expected no edges, got %v", g.Edges)
	}
}

func TestBuildTopology_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		snap  policy.ClusterSnapshot
		index int
		field string
	}{
		{
			name:  "empty pod name",
			snap:  policy.ClusterSnapshot{Pods: []policy.Workload{{Name: "a"}, {Name: ""}}},
			index: 1,
			field: "pods.name",
		},
		{
			name:  "duplicate service",
			snap:  policy.ClusterSnapshot{Services: []policy.Service{{Name: "a"}, {Name: "a", Namespace: "default"}}},
			index: 1,
			field: "services.name",
		},
		{
			name:  "negative rule count",
			snap:  policy.ClusterSnapshot{NetworkPolicies: []policy.NetworkPolicy{{Name: "np", IngressRules: -2}}},
			index: 0,
			field: "networkPolicies.ingressRules",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildTopology(tt.snap, TopologyConfig{})
			var mre *graph.MalformedRecordError
			if g != nil || !errors.As(err, &mre) {
				t.Fatalf("expected MalformedRecordError, got %v", err)
			}
			if mre.Index != tt.index || mre.Field != tt.field {
				t.Errorf("got index=%d field=%q", mre.Index, mre.Field)
			}
		})
	}
}

func TestBuildTopology_GroupByNamespace(t *testing.T) {
	snap := policy.ClusterSnapshot{
		Pods: []policy.Workload{
			{Name: "web", Namespace: "prod", Labels: map[string]string{"app": "web"}},
			{Name: "web", Namespace: "dev", Labels: map[string]string{"app": "web"}},
		},
		Services: []policy.Service{{Name: "web", Namespace: "prod", Selector: sel("app", "web")}},
	}

	g, err := BuildTopology(snap, TopologyConfig{GroupByNamespace: true})
	if err != nil {
		t.Fatal(err)
	}
	prod := g.ByNamespace["prod"]
	if len(prod.Nodes) != 2 || len(prod.Edges) != 1 {
		t.Errorf("prod group = %+v", prod)
	}
	if dev := g.ByNamespace["dev"]; len(dev.Nodes) != 1 || len(dev.Edges) != 0 {
		t.Errorf("dev group = %+v", dev)
	}
	if ns := g.Namespaces(); len(ns) != 2 || ns[0] != "dev" {
		t.Errorf("Namespaces() = %v", ns)
	}

	g2, _ := BuildTopology(snap, TopologyConfig{})
	if g2.ByNamespace != nil {
		t.Error("ByNamespace should be nil without GroupByNamespace")
	}
}

func TestGroupByNamespace_CrossNamespaceEdge(t *testing.T) {
	nodes := []graph.Node{
		{ID: "service:a/s", Attributes: graph.Attributes{Namespace: "a"}},
		{ID: "pod:b/p", Attributes: graph.Attributes{Namespace: "b"}},
	}
	edges := []graph.Edge{{Source: "service:a/s", Target: "pod:b/p", Type: graph.EdgeServicePod, Weight: 1}}

	groups := groupByNamespace(nodes, edges)
	if len(groups["a"].Edges) != 0 || len(groups["b"].Edges) != 0 {
		t.Errorf("cross-namespace edge leaked into a bucket: %+v", groups)
	}
}
