package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
)

// ErrDecode wraps YAML syntax errors. It is the only error Decode returns
// for bad input; structural problems become diagnostics.
var ErrDecode = errors.New("manifest decode failed")

// Options controls decoding. The zero value is valid.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Bundle is everything decoded from one or more manifest streams.
type Bundle struct {
	Documents   []Document
	Policies    []policy.Record
	Snapshot    policy.ClusterSnapshot
	Namespaces  []string
	Diagnostics []graph.Diagnostic
}

// Decode reads every YAML document from r.
func Decode(r io.Reader, opts Options) (*Bundle, error) {
	d := newDecoder(opts)
	if err := d.decodeStream(r, ""); err != nil {
		return nil, err
	}
	return d.finish(), nil
}

// DecodeFiles decodes each file in turn as one bundle. Document indexes
// continue across files.
func DecodeFiles(paths []string, opts Options) (*Bundle, error) {
	d := newDecoder(opts)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		err = d.decodeStream(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return d.finish(), nil
}

type decoder struct {
	log     logging.Logger
	metrics *metrics.Registry
	bundle  *Bundle
	index   int
}

func newDecoder(opts Options) *decoder {
	return &decoder{
		log:     logging.OrNop(opts.Logger).With(logging.Component("manifest")),
		metrics: opts.Metrics,
		bundle:  &Bundle{},
	}
}

func (d *decoder) decodeStream(r io.Reader, source string) error {
	dec := yaml.NewDecoder(r)
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			d.log.Error("invalid yaml", logging.String("source", source), logging.Int("document", d.index), logging.Error(err))
			return fmt.Errorf("%w: %s document %d: %v", ErrDecode, sourceName(source), d.index, err)
		}
		d.document(&node, source)
		d.index++
	}
}

func sourceName(source string) string {
	if source == "" {
		return "input"
	}
	return source
}

func isEmpty(node *yaml.Node) bool {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		node = node.Content[0]
	}
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

func (d *decoder) document(node *yaml.Node, source string) {
	if isEmpty(node) {
		d.diag(graph.Info(graph.CodeEmptyDocument, nil, "document %d in %s is empty", d.index, sourceName(source)))
		return
	}

	var doc Document
	if err := node.Decode(&doc); err != nil {
		d.diag(graph.Warn(graph.CodeInvalidResource, nil, "document %d in %s: %v", d.index, sourceName(source), err))
		return
	}
	doc.Index, doc.Source, doc.Line = d.index, source, node.Line
	d.metrics.RecordManifestDocument(doc.Kind)

	if doc.Kind == "" || doc.Metadata.Name == "" {
		d.diag(graph.Warn(graph.CodeInvalidResource, nil,
			"document %d in %s: kind and metadata.name are required", d.index, sourceName(source)))
		return
	}
	d.bundle.Documents = append(d.bundle.Documents, doc)

	if err := d.convert(doc, node); err != nil {
		d.diag(graph.Warn(graph.CodeInvalidResource, []string{doc.Ref()}, "%s: %v", doc.Ref(), err))
	}
}

func (d *decoder) convert(doc Document, node *yaml.Node) error {
	b := d.bundle
	switch doc.Kind {
	case KindNamespace:
		b.Namespaces = append(b.Namespaces, doc.Metadata.Name)

	case KindNetworkPolicy:
		var obj networkPolicyObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		d.checkNetworkPolicy(doc, obj)
		var selector map[string]string
		if obj.Spec.PodSelector != nil {
			selector = obj.Spec.PodSelector.MatchLabels
		}
		rec := policy.Record{
			Name:         doc.Metadata.Name,
			Namespace:    doc.Metadata.Namespace,
			Kind:         doc.Kind,
			Labels:       doc.Metadata.Labels,
			Annotations:  doc.Metadata.Annotations,
			Selector:     policy.NewSelector(selector),
			IngressRules: len(obj.Spec.Ingress),
			EgressRules:  len(obj.Spec.Egress),
			PolicyTypes:  obj.Spec.PolicyTypes,
		}
		for _, r := range obj.Spec.Ingress {
			rec.Rules = append(rec.Rules, r)
		}
		for _, r := range obj.Spec.Egress {
			rec.Rules = append(rec.Rules, r)
		}
		b.Policies = append(b.Policies, rec)
		b.Snapshot.NetworkPolicies = append(b.Snapshot.NetworkPolicies, policy.NetworkPolicy{
			Name:         rec.Name,
			Namespace:    rec.Namespace,
			Labels:       rec.Labels,
			PodSelector:  rec.Selector,
			PolicyTypes:  rec.PolicyTypes,
			IngressRules: rec.IngressRules,
			EgressRules:  rec.EgressRules,
		})

	case KindClusterPolicy, KindPolicy:
		var obj kyvernoObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		if len(obj.Spec.Rules) == 0 {
			d.diag(graph.Warn(graph.CodeMissingRules, []string{doc.Ref()}, "%s: spec.rules must not be empty", doc.Ref()))
		}
		selector, err := kyvernoSelector(doc, obj)
		if err != nil {
			return err
		}
		rec := policy.Record{
			Name:        doc.Metadata.Name,
			Namespace:   doc.Metadata.Namespace,
			Kind:        doc.Kind,
			Labels:      doc.Metadata.Labels,
			Annotations: doc.Metadata.Annotations,
			Selector:    selector,
		}
		if sev := doc.Metadata.Annotations[AnnotationKyvernoSeverity]; sev != "" && rec.Labels[policy.LabelSeverity] == "" {
			rec.Labels = maps.Clone(rec.Labels)
			if rec.Labels == nil {
				rec.Labels = map[string]string{}
			}
			rec.Labels[policy.LabelSeverity] = strings.ToLower(sev)
		}
		for _, r := range obj.Spec.Rules {
			rec.Rules = append(rec.Rules, r)
		}
		b.Policies = append(b.Policies, rec)

	case KindPod:
		var obj podObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		b.Snapshot.Pods = append(b.Snapshot.Pods, policy.Workload{
			Name:      doc.Metadata.Name,
			Namespace: doc.Metadata.Namespace,
			Kind:      doc.Kind,
			Labels:    doc.Metadata.Labels,
			Status:    obj.Status.Phase,
			Resources: containerResources(obj.Spec),
		})

	case KindDeployment, KindStatefulSet, KindDaemonSet, KindReplicaSet, KindJob, KindCronJob:
		var obj workloadObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		tmpl := obj.Spec.Template
		if doc.Kind == KindCronJob {
			tmpl = obj.Spec.JobTemplate.Spec.Template
		}
		b.Snapshot.Pods = append(b.Snapshot.Pods, policy.Workload{
			Name:      doc.Metadata.Name,
			Namespace: doc.Metadata.Namespace,
			Kind:      doc.Kind,
			Labels:    tmpl.Metadata.Labels,
			Resources: containerResources(tmpl.Spec),
		})

	case KindService:
		var obj serviceObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		b.Snapshot.Services = append(b.Snapshot.Services, policy.Service{
			Name:      doc.Metadata.Name,
			Namespace: doc.Metadata.Namespace,
			Labels:    doc.Metadata.Labels,
			Selector:  policy.NewSelector(obj.Spec.Selector),
		})

	case KindRole, KindClusterRole, KindRoleBinding, KindClusterRoleBinding:
		var obj rbacObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		d.checkRBAC(doc, obj)

	default:
		if !Known(doc.Kind) {
			d.diag(graph.Info(graph.CodeUnknownKind, []string{doc.Ref()}, "%s: kind %q is not analyzed", doc.Ref(), doc.Kind))
		}
	}
	return nil
}

// kyvernoSelector prefers spec.selector and falls back to the selector
// annotation.
func kyvernoSelector(doc Document, obj kyvernoObject) (policy.Selector, error) {
	if obj.Spec.Selector != nil {
		return policy.NewSelector(obj.Spec.Selector.MatchLabels), nil
	}
	raw := strings.TrimSpace(doc.Metadata.Annotations[AnnotationSelector])
	if raw == "" {
		return nil, nil
	}
	labels := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("annotation %s: malformed entry %q", AnnotationSelector, part)
		}
		labels[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return policy.NewSelector(labels), nil
}

// containerResources flattens the first declaration of each request and
// limit across containers into "requests.cpu" style keys.
func containerResources(spec podSpec) map[string]string {
	var out map[string]string
	set := func(prefix string, values map[string]string) {
		for k, v := range values {
			key := prefix + "." + k
			if out == nil {
				out = map[string]string{}
			}
			if _, ok := out[key]; !ok {
				out[key] = v
			}
		}
	}
	for _, c := range spec.Containers {
		set("requests", c.Resources.Requests)
		set("limits", c.Resources.Limits)
	}
	return out
}

func (d *decoder) diag(diag graph.Diagnostic) {
	d.bundle.Diagnostics = append(d.bundle.Diagnostics, diag)
	d.metrics.RecordDiagnostic(string(diag.Code))
	if diag.Level == graph.LevelWarning {
		d.log.Warn(diag.Message, logging.Code(string(diag.Code)))
	} else {
		d.log.Debug(diag.Message, logging.Code(string(diag.Code)))
	}
}

func (d *decoder) finish() *Bundle {
	d.checkNamespaces()
	d.checkApplyOrder()
	graph.SortDiagnostics(d.bundle.Diagnostics)
	d.log.Debug("decoded manifests",
		logging.Count(len(d.bundle.Documents)),
		logging.Int("policies", len(d.bundle.Policies)),
		logging.Int("diagnostics", len(d.bundle.Diagnostics)))
	return d.bundle
}
