// Package manifest decodes multi-document Kubernetes YAML into policy
// records and a cluster snapshot, and checks the bundle for the problems
// kubectl apply would trip over.
package manifest

import (
	"strings"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Kinds the decoder understands.
const (
	KindNamespace          = "Namespace"
	KindNetworkPolicy      = "NetworkPolicy"
	KindClusterPolicy      = "ClusterPolicy"
	KindPolicy             = "Policy"
	KindPod                = "Pod"
	KindService            = "Service"
	KindDeployment         = "Deployment"
	KindStatefulSet        = "StatefulSet"
	KindDaemonSet          = "DaemonSet"
	KindReplicaSet         = "ReplicaSet"
	KindJob                = "Job"
	KindCronJob            = "CronJob"
	KindRole               = "Role"
	KindClusterRole        = "ClusterRole"
	KindRoleBinding        = "RoleBinding"
	KindClusterRoleBinding = "ClusterRoleBinding"
	KindServiceAccount     = "ServiceAccount"
	KindConfigMap          = "ConfigMap"
	KindSecret             = "Secret"
	KindIngress            = "Ingress"
)

// Annotations read from policy documents.
const (
	// AnnotationSelector supplies a "k=v,k=v" selector for Kyverno policies
	// that do not declare spec.selector.
	AnnotationSelector = "policygraph.io/selector"
	// AnnotationKyvernoSeverity is used as the severity label when the
	// policy has none.
	AnnotationKyvernoSeverity = "policies.kyverno.io/severity"
)

// UnknownPriority is the apply priority of kinds outside the table.
const UnknownPriority = 99

// priorities orders kinds for kubectl apply: namespaces, then RBAC,
// configuration, workloads, services, ingress and finally policies.
var priorities = map[string]int{
	KindNamespace:          1,
	KindClusterRole:        2,
	KindClusterRoleBinding: 2,
	KindRole:               2,
	KindRoleBinding:        2,
	KindServiceAccount:     2,
	KindConfigMap:          3,
	KindSecret:             3,
	KindPod:                4,
	KindDeployment:         4,
	KindStatefulSet:        4,
	KindDaemonSet:          4,
	KindReplicaSet:         4,
	KindJob:                4,
	KindCronJob:            4,
	KindService:            5,
	KindIngress:            6,
	KindNetworkPolicy:      7,
	KindClusterPolicy:      7,
	KindPolicy:             7,
}

// Priority returns the apply priority of kind; lower applies first.
func Priority(kind string) int {
	if p, ok := priorities[kind]; ok {
		return p
	}
	return UnknownPriority
}

// Known reports whether kind has an apply priority.
func Known(kind string) bool {
	_, ok := priorities[kind]
	return ok
}

// Metadata is the object metadata the engine reads.
type Metadata struct {
	Name        string            `yaml:"name"`
	Namespace   string            `yaml:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// LabelSelector is a Kubernetes label selector. Only matchLabels is used.
type LabelSelector struct {
	MatchLabels map[string]string `yaml:"matchLabels,omitempty"`
}

// Document is one decoded YAML document.
type Document struct {
	// Index counts documents across every input, empty ones included.
	Index      int      `yaml:"-"`
	Source     string   `yaml:"-"`
	Line       int      `yaml:"-"`
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
}

// Ref names the document's object the way topology node ids do.
func (d Document) Ref() string {
	ns := d.Metadata.Namespace
	if ns == "" {
		ns = graph.DefaultNamespace
	}
	return strings.ToLower(d.Kind) + ":" + ns + "/" + d.Metadata.Name
}

// Namespaced reports whether objects of the document's kind live in a
// namespace.
func (d Document) Namespaced() bool {
	switch d.Kind {
	case KindNamespace, KindClusterRole, KindClusterRoleBinding, KindClusterPolicy:
		return false
	}
	return true
}

// IsPolicy reports whether the document becomes a policy record.
func (d Document) IsPolicy() bool {
	switch d.Kind {
	case KindNetworkPolicy, KindClusterPolicy, KindPolicy:
		return true
	}
	return false
}
