package manifest

import (
	"slices"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

func (d *decoder) checkNetworkPolicy(doc Document, obj networkPolicyObject) {
	ref := []string{doc.Ref()}
	if obj.Spec.PodSelector == nil {
		d.diag(graph.Warn(graph.CodeMissingPodSelector, ref, "%s: spec.podSelector is required", doc.Ref()))
	}
	if len(obj.Spec.PolicyTypes) == 0 && obj.Spec.Ingress == nil && obj.Spec.Egress == nil {
		d.diag(graph.Warn(graph.CodeMissingPolicyTypes, ref,
			"%s: define spec.policyTypes or ingress/egress rules", doc.Ref()))
	}
}

func (d *decoder) checkRBAC(doc Document, obj rbacObject) {
	ref := []string{doc.Ref()}
	switch doc.Kind {
	case KindRole, KindClusterRole:
		if obj.Rules == nil {
			d.diag(graph.Warn(graph.CodeMissingRules, ref, "%s: rules is required", doc.Ref()))
		}
	case KindRoleBinding, KindClusterRoleBinding:
		if obj.RoleRef == nil {
			d.diag(graph.Warn(graph.CodeInvalidResource, ref, "%s: roleRef is required", doc.Ref()))
		}
		if obj.Subjects == nil {
			d.diag(graph.Warn(graph.CodeInvalidResource, ref, "%s: subjects is required", doc.Ref()))
		}
	}
}

// checkNamespaces flags namespaced objects whose namespace is not declared
// in the bundle. Bundles without any Namespace document are assumed to
// target existing namespaces and are not checked.
func (d *decoder) checkNamespaces() {
	b := d.bundle
	if len(b.Namespaces) == 0 {
		return
	}
	for _, doc := range b.Documents {
		ns := doc.Metadata.Namespace
		if !doc.Namespaced() || ns == "" || ns == graph.DefaultNamespace || slices.Contains(b.Namespaces, ns) {
			continue
		}
		d.diag(graph.Warn(graph.CodeUndefinedNamespace, []string{doc.Ref()},
			"%s references namespace %q which is not defined", doc.Ref(), ns))
	}
}

// checkApplyOrder flags each document whose priority is lower than the
// document before it.
func (d *decoder) checkApplyOrder() {
	prev := 0
	for _, doc := range d.bundle.Documents {
		p := Priority(doc.Kind)
		if p < prev {
			d.diag(graph.Warn(graph.CodeApplyOrder, []string{doc.Ref()},
				"document %d: %s (priority %d) comes after priority %d", doc.Index, doc.Kind, p, prev))
		}
		prev = p
	}
}
