package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

const bundleYAML = `
apiVersion: v1
kind: Namespace
metadata:
  name: shop
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: api
  namespace: shop
spec:
  template:
    metadata:
      labels:
        app: api
    spec:
      containers:
        - name: api
          resources:
            requests:
              cpu: 100m
              memory: 128Mi
---
apiVersion: v1
kind: Service
metadata:
  name: api
  namespace: shop
spec:
  selector:
    app: api
---
apiVersion: networking.k8s.io/v1
kind: NetworkPolicy
metadata:
  name: deny-all
  namespace: shop
  labels:
    severity: high
spec:
  podSelector:
    matchLabels:
      app: api
  policyTypes: [Ingress]
---
apiVersion: networking.k8s.io/v1
kind: NetworkPolicy
metadata:
  name: allow-internal
  namespace: shop
  annotations:
    depends-on: deny-all
spec:
  podSelector:
    matchLabels:
      app: api
  ingress:
    - from:
        - podSelector:
            matchLabels:
              app: web
`

func decode(t *testing.T, src string) *Bundle {
	t.Helper()
	b, err := Decode(strings.NewReader(src), Options{})
	require.NoError(t, err)
	return b
}

func TestDecode_Bundle(t *testing.T) {
	b := decode(t, bundleYAML)

	require.Len(t, b.Documents, 5)
	assert.Equal(t, []string{"shop"}, b.Namespaces)
	assert.Empty(t, b.Diagnostics)

	require.Len(t, b.Policies, 2)
	deny, allow := b.Policies[0], b.Policies[1]
	assert.Equal(t, "shop/deny-all", deny.ID())
	assert.True(t, deny.IsDenyAll())
	assert.Equal(t, "high", deny.Labels["severity"])
	assert.Equal(t, []string{"shop/deny-all"}, allow.DependsOn(policy.AnnotationDependsOn))
	assert.Equal(t, 1, allow.IngressRules)
	assert.Len(t, allow.Rules, 1)
	assert.Equal(t, "app=api", allow.Selector.String())

	require.Len(t, b.Snapshot.Pods, 1)
	pod := b.Snapshot.Pods[0]
	assert.Equal(t, "api", pod.Name)
	assert.Equal(t, KindDeployment, pod.Kind)
	assert.Equal(t, map[string]string{"app": "api"}, pod.Labels)
	assert.Equal(t, "100m", pod.Resources["requests.cpu"])

	require.Len(t, b.Snapshot.Services, 1)
	assert.Equal(t, "app=api", b.Snapshot.Services[0].Selector.String())
	assert.Len(t, b.Snapshot.NetworkPolicies, 2)
}

func TestDecode_NetworkPolicyChecks(t *testing.T) {
	b := decode(t, `
kind: NetworkPolicy
metadata:
  name: loose
spec: {}
`)
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeMissingPodSelector))
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeMissingPolicyTypes))
	require.Len(t, b.Policies, 1, "the policy is still analyzed")
	assert.True(t, b.Policies[0].Selector.IsEmpty())
}

func TestDecode_Kyverno(t *testing.T) {
	b := decode(t, `
apiVersion: kyverno.io/v1
kind: ClusterPolicy
metadata:
  name: require-labels
  annotations:
    policies.kyverno.io/severity: Medium
    policygraph.io/selector: "app=api, tier=backend"
spec:
  rules:
    - name: check-team
    - name: check-owner
---
apiVersion: kyverno.io/v1
kind: Policy
metadata:
  name: empty
  namespace: shop
spec:
  selector:
    matchLabels:
      app: web
  rules: []
`)
	require.Len(t, b.Policies, 2)
	rl := b.Policies[0]
	assert.Equal(t, "default/require-labels", rl.ID())
	assert.Len(t, rl.Rules, 2)
	assert.Equal(t, "medium", rl.Labels["severity"])
	assert.Equal(t, "app=api,tier=backend", rl.Selector.String())

	assert.Equal(t, "app=web", b.Policies[1].Selector.String())
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeMissingRules))
}

func TestDecode_BadSelectorAnnotation(t *testing.T) {
	b := decode(t, `
kind: ClusterPolicy
metadata:
  name: odd
  annotations:
    policygraph.io/selector: "app"
spec:
  rules: [{name: r}]
`)
	assert.Empty(t, b.Policies)
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeInvalidResource))
}

func TestDecode_RBAC(t *testing.T) {
	b := decode(t, `
kind: Role
metadata: {name: reader, namespace: default}
---
kind: RoleBinding
metadata: {name: bind, namespace: default}
roleRef: {kind: Role, name: reader}
`)
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeMissingRules))
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeInvalidResource))
}

func TestDecode_UndefinedNamespace(t *testing.T) {
	b := decode(t, `
kind: Namespace
metadata: {name: shop}
---
kind: Service
metadata: {name: web, namespace: web}
---
kind: Service
metadata: {name: api, namespace: default}
`)
	require.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeUndefinedNamespace))
	assert.Contains(t, b.Diagnostics[0].Message, `"web"`)

	// Without Namespace documents the bundle targets existing namespaces.
	b = decode(t, "kind: Service\nmetadata: {name: web, namespace: web}\n")
	assert.Zero(t, graph.CountCode(b.Diagnostics, graph.CodeUndefinedNamespace))
}

func TestDecode_ApplyOrderWarning(t *testing.T) {
	b := decode(t, `
kind: NetworkPolicy
metadata: {name: p}
spec: {podSelector: {}, policyTypes: [Ingress]}
---
kind: Namespace
metadata: {name: shop}
`)
	require.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeApplyOrder))
	assert.False(t, IsOrdered(b.Documents))

	ordered := ApplyOrder(b.Documents)
	assert.Equal(t, KindNamespace, ordered[0].Kind)
	assert.Equal(t, KindNetworkPolicy, ordered[1].Kind)
	assert.True(t, IsOrdered(ordered))
	assert.Equal(t, KindNetworkPolicy, b.Documents[0].Kind, "input is not reordered")
}

func TestDecode_UnknownAndInvalid(t *testing.T) {
	b := decode(t, `
kind: Widget
metadata: {name: w}
---
kind: Service
metadata: {}
---
kind: ConfigMap
metadata: {name: settings}
`)
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeUnknownKind))
	assert.Equal(t, 1, graph.CountCode(b.Diagnostics, graph.CodeInvalidResource))
	assert.Len(t, b.Documents, 2)
}

func TestDecode_SyntaxError(t *testing.T) {
	_, err := Decode(strings.NewReader("kind: Service\nmetadata: [unclosed\n"), Options{})
	assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
}

func TestDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "ns.yaml")
	second := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(first, []byte("kind: Namespace\nmetadata: {name: shop}\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(bundleYAML), 0o644))

	reg := metrics.NewRegistry()
	b, err := DecodeFiles([]string{first, second}, Options{Metrics: reg})
	require.NoError(t, err)
	assert.Len(t, b.Documents, 6)
	assert.Equal(t, second, b.Documents[5].Source)
	assert.Greater(t, b.Documents[5].Index, b.Documents[0].Index)

	_, err = DecodeFiles([]string{filepath.Join(dir, "missing.yaml")}, Options{})
	assert.Error(t, err)
}

func TestPriority(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{KindNamespace, 1},
		{KindRoleBinding, 2},
		{KindSecret, 3},
		{KindCronJob, 4},
		{KindService, 5},
		{KindIngress, 6},
		{KindClusterPolicy, 7},
		{"Widget", UnknownPriority},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.kind))
		})
	}
}
