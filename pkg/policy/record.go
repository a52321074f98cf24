// Package policy defines the immutable input records the engine consumes:
// policy documents and cluster snapshots.
package policy

import (
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// Well-known label and annotation keys.
const (
	LabelSeverity       = "severity"
	LabelStatus         = "status"
	LabelIntent         = "intent"
	AnnotationDependsOn = "depends-on"
	AnnotationOrder     = "order"
	PolicyTypeIngress   = "Ingress"
	PolicyTypeEgress    = "Egress"
	IntentDeny          = "deny"
	IntentAllow         = "allow"
	namespaceSeparator  = "/"
	dependsOnSeparator  = ","
)

// Rule is an opaque policy rule. The engine only counts rules.
type Rule map[string]any

// Record is one policy document.
type Record struct {
	Name        string            `json:"name" validate:"required,excludesall=/"`
	Namespace   string            `json:"namespace,omitempty" validate:"omitempty,excludesall=/"`
	Kind        string            `json:"kind,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Selector    Selector          `json:"selector,omitempty"`
	Rules       []Rule            `json:"rules,omitempty"`
	// Ingress and egress rule counts, when the source distinguishes them.
	IngressRules int      `json:"ingressRules,omitempty" validate:"min=0"`
	EgressRules  int      `json:"egressRules,omitempty" validate:"min=0"`
	PolicyTypes  []string `json:"policyTypes,omitempty"`
}

// NamespaceOrDefault returns the record's namespace, or "default".
func (r Record) NamespaceOrDefault() string {
	if r.Namespace == "" {
		return graph.DefaultNamespace
	}
	return r.Namespace
}

// ID is the graph node id for the record: namespace/name.
func (r Record) ID() string {
	return QualifiedID(r.NamespaceOrDefault(), r.Name)
}

// QualifiedID joins a namespace and a name into a node id.
func QualifiedID(namespace, name string) string {
	return namespace + namespaceSeparator + name
}

// Label returns labels[key], or def when absent or empty.
func (r Record) Label(key, def string) string {
	if v := r.Labels[key]; v != "" {
		return v
	}
	return def
}

// EnforcesIngress reports whether the policy governs inbound traffic. A
// policy that lists no types enforces ingress.
func (r Record) EnforcesIngress() bool {
	if len(r.PolicyTypes) == 0 {
		return true
	}
	for _, t := range r.PolicyTypes {
		if strings.EqualFold(t, PolicyTypeIngress) {
			return true
		}
	}
	return false
}

// EnforcesEgress reports whether the policy governs outbound traffic. A
// policy that lists no types enforces egress only if it has egress rules.
func (r Record) EnforcesEgress() bool {
	if len(r.PolicyTypes) == 0 {
		return r.EgressRules > 0
	}
	for _, t := range r.PolicyTypes {
		if strings.EqualFold(t, PolicyTypeEgress) {
			return true
		}
	}
	return false
}

// IsDenyAll reports whether the record is deny-all shaped: no rules while
// enforcing ingress.
func (r Record) IsDenyAll() bool {
	return len(r.Rules) == 0 && r.EnforcesIngress()
}

// Permits reports whether the record allows some traffic.
func (r Record) Permits() bool {
	return len(r.Rules) > 0
}

// DependsOn returns the node ids named by the annotation under key. The
// value is a comma separated list of "name" or "namespace/name" entries;
// bare names resolve in the record's own namespace.
func (r Record) DependsOn(key string) []string {
	raw := strings.TrimSpace(r.Annotations[key])
	if raw == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, dependsOnSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, namespaceSeparator) {
			ids = append(ids, part)
			continue
		}
		ids = append(ids, QualifiedID(r.NamespaceOrDefault(), part))
	}
	return ids
}

// Order returns the integer ordering annotation under key, if declared.
func (r Record) Order(key string) (int, bool) {
	raw, ok := r.Annotations[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasOrder reports whether the record carries the ordering annotation at
// all, parseable or not.
func (r Record) HasOrder(key string) bool {
	_, ok := r.Annotations[key]
	return ok
}
