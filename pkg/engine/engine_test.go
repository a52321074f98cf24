package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-policygraph/pkg/constraints"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/manifest"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

func policies() []policy.Record {
	return []policy.Record{
		{Name: "deny-all", Namespace: "shop", Selector: policy.NewSelector(map[string]string{"app": "api"})},
		{Name: "allow-internal", Namespace: "shop", Selector: policy.NewSelector(map[string]string{"app": "api"}),
			Rules: make([]policy.Rule, 1), Annotations: map[string]string{"depends-on": "deny-all"}},
		{Name: "audit", Namespace: "ops", Annotations: map[string]string{"depends-on": "shop/deny-all,ghost"}},
	}
}

func TestAnalyze(t *testing.T) {
	reg := metrics.NewRegistry()
	r, err := Analyze(context.Background(), policies(), nil, Options{Metrics: reg})
	require.NoError(t, err)

	assert.Len(t, r.Dependency.Nodes, 3)
	assert.Len(t, r.Dependency.EdgesOfType(graph.EdgeDependsOn), 2)
	assert.Len(t, r.Interactions.ByType[interaction.Conflict], 1)
	assert.Nil(t, r.Topology)
	assert.Equal(t, 1, graph.CountCode(r.Diagnostics, graph.CodeDanglingReference))
}

func TestAnalyze_Constraints(t *testing.T) {
	snap := &policy.ClusterSnapshot{
		Pods: []policy.Workload{{Name: "api", Namespace: "shop", Labels: map[string]string{"app": "api"}}},
	}
	opts := Options{Constraints: []constraints.Spec{
		{Type: constraints.TypeProperty, Kind: "policy", Property: "labels.severity", Required: true, Severity: "error"},
		{Type: constraints.TypeCardinality, Graph: "topology", Kind: "pod", EdgeType: "ingress", Min: 1},
	}}
	r, err := Analyze(context.Background(), policies(), snap, opts)
	require.NoError(t, err)

	levels := make(map[graph.Level]int)
	for _, d := range r.Diagnostics {
		if d.Code == graph.CodeConstraintViolation {
			levels[d.Level]++
		}
	}
	assert.Equal(t, map[graph.Level]int{graph.LevelError: 3, graph.LevelWarning: 1}, levels)

	// topology constraints need a snapshot
	r, err = Analyze(context.Background(), policies(), nil, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, graph.CountCode(r.Diagnostics, graph.CodeConstraintViolation))

	_, err = Analyze(context.Background(), policies(), nil, Options{Constraints: []constraints.Spec{{Type: "bogus"}}})
	assert.Error(t, err)
}

func TestAnalyze_WithSnapshot(t *testing.T) {
	snap := &policy.ClusterSnapshot{
		Pods: []policy.Workload{{Name: "api", Namespace: "shop", Labels: map[string]string{"app": "api"}}},
		NetworkPolicies: []policy.NetworkPolicy{
			{Name: "deny-all", Namespace: "shop", PodSelector: policy.NewSelector(map[string]string{"app": "api"})},
			{Name: "ghost", Namespace: "shop", PodSelector: policy.NewSelector(map[string]string{"app": "none"})},
		},
	}
	r, err := Analyze(context.Background(), policies(), snap, Options{})
	require.NoError(t, err)
	require.NotNil(t, r.Topology)
	assert.Equal(t, 1, graph.CountCode(r.Diagnostics, graph.CodeUnconnectedSelector))
	assert.Equal(t, 1, graph.CountCode(r.Diagnostics, graph.CodeDanglingReference))
}

func TestAnalyze_Malformed(t *testing.T) {
	_, err := Analyze(context.Background(), []policy.Record{{Namespace: "x"}}, nil, Options{})
	var mre *graph.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 0, mre.Index)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := Analyze(ctx, policies(), nil, Options{Logger: logging.NewJSONLogger(&buf, logging.DebugLevel)})
	assert.ErrorIs(t, err, context.Canceled)

	var entry logging.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "analyze", entry.Message)
	assert.Equal(t, context.Canceled.Error(), entry.Fields["error"])
}

func TestAnalyzeBundle(t *testing.T) {
	b, err := manifest.Decode(strings.NewReader(`
kind: NetworkPolicy
metadata: {name: deny-all, namespace: shop}
spec: {podSelector: {matchLabels: {app: api}}, policyTypes: [Ingress]}
---
kind: Deployment
metadata: {name: api, namespace: shop}
spec: {template: {metadata: {labels: {app: api}}}}
`), manifest.Options{})
	require.NoError(t, err)

	r, err := AnalyzeBundle(context.Background(), b, Options{})
	require.NoError(t, err)
	require.NotNil(t, r.Topology)
	assert.Len(t, r.Topology.Nodes, 2)
	assert.Len(t, r.Topology.Edges, 1)
	// The NetworkPolicy precedes the Deployment.
	assert.Equal(t, 1, graph.CountCode(r.Diagnostics, graph.CodeApplyOrder))
}

func TestAnalyzeByNamespace(t *testing.T) {
	reports, err := AnalyzeByNamespace(context.Background(), policies(), Options{}, 4)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "ops", reports[0].Namespace)
	assert.Equal(t, "shop", reports[1].Namespace)
	assert.Len(t, reports[1].Report.Dependency.Nodes, 2)
	// Cross-namespace targets are dangling inside a partition.
	assert.Equal(t, 2, graph.CountCode(reports[0].Report.Diagnostics, graph.CodeDanglingReference))
}

func TestAnalyzeByNamespace_Errors(t *testing.T) {
	bad := append(policies(), policy.Record{Name: "deny-all", Namespace: "shop"})
	_, err := AnalyzeByNamespace(context.Background(), bad, Options{}, 2)
	assert.True(t, errors.Is(err, graph.ErrMalformedRecord), "got %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AnalyzeByNamespace(ctx, policies(), Options{}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
