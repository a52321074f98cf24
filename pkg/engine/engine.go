// Package engine runs the builders and the analyzer as one pipeline over a
// policy set, and optionally a cluster snapshot.
package engine

import (
	"context"
	"slices"

	"github.com/dd0wney/cluso-policygraph/pkg/constraints"
	"github.com/dd0wney/cluso-policygraph/pkg/dependency"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/manifest"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/parallel"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
	"github.com/dd0wney/cluso-policygraph/pkg/topology"
)

// Options groups the per-stage configs. Logger and Metrics fill any stage
// that leaves its own unset.
type Options struct {
	Layout      dependency.LayoutConfig
	Topology    topology.TopologyConfig
	Interaction interaction.InteractionConfig
	// Constraints are checked against the graph each one targets. A
	// topology constraint is skipped when no snapshot is supplied.
	Constraints []constraints.Spec
	Logger      logging.Logger
	Metrics     *metrics.Registry
}

func (o Options) resolved() Options {
	o.Logger = logging.OrNop(o.Logger)
	if o.Layout.Logger == nil {
		o.Layout.Logger = o.Logger
	}
	if o.Layout.Metrics == nil {
		o.Layout.Metrics = o.Metrics
	}
	if o.Topology.Logger == nil {
		o.Topology.Logger = o.Logger
	}
	if o.Topology.Metrics == nil {
		o.Topology.Metrics = o.Metrics
	}
	if o.Interaction.Logger == nil {
		o.Interaction.Logger = o.Logger
	}
	if o.Interaction.Metrics == nil {
		o.Interaction.Metrics = o.Metrics
	}
	return o
}

// Report is the output of one pipeline run.
type Report struct {
	Dependency   *dependency.Graph  `json:"dependency"`
	Interactions *interaction.Graph `json:"interactions"`
	// Topology is nil when no cluster snapshot was supplied.
	Topology *topology.Graph `json:"topology,omitempty"`
	// Diagnostics merges every stage's diagnostics, sorted.
	Diagnostics []graph.Diagnostic `json:"diagnostics"`
}

// Analyze builds the dependency graph and the interaction analysis for
// policies and, when snap is non-nil, the cluster topology. The first
// MalformedRecord error aborts the run.
func Analyze(ctx context.Context, policies []policy.Record, snap *policy.ClusterSnapshot, opts Options) (*Report, error) {
	opts = opts.resolved()
	log := opts.Logger.With(logging.Component("engine"))
	timer := logging.StartTimer(log, "analyze", logging.Count(len(policies)))
	fail := func(err error) (*Report, error) {
		timer.EndError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	validators, err := constraints.Validators(opts.Constraints)
	if err != nil {
		return fail(err)
	}
	dep, err := dependency.BuildDependencyGraph(policies, opts.Layout)
	if err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	inter, err := interaction.AnalyzeInteractions(policies, opts.Interaction)
	if err != nil {
		return fail(err)
	}

	r := &Report{Dependency: dep, Interactions: inter}
	r.Diagnostics = append(r.Diagnostics, dep.Diagnostics...)

	if snap != nil {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		topo, err := topology.BuildTopology(*snap, opts.Topology)
		if err != nil {
			return fail(err)
		}
		r.Topology = topo
		r.Diagnostics = append(r.Diagnostics, topo.Diagnostics...)
	}

	r.Diagnostics = append(r.Diagnostics, r.checkConstraints(validators, opts, log)...)

	graph.SortDiagnostics(r.Diagnostics)
	timer.End(logging.Int("diagnostics", len(r.Diagnostics)))
	return r, nil
}

func (r *Report) checkConstraints(validators map[graph.Kind]*constraints.Validator, opts Options, log logging.Logger) []graph.Diagnostic {
	var out []graph.Diagnostic
	check := func(kind graph.Kind, snap graph.Snapshot) {
		v := validators[kind]
		if v == nil {
			return
		}
		result := v.Validate(snap)
		log.Debug("constraints checked",
			logging.String("graph", string(kind)),
			logging.Int("constraints", v.Len()),
			logging.Int("violations", len(result.Violations)))
		for _, d := range result.Diagnostics() {
			opts.Metrics.RecordDiagnostic(string(d.Code))
			out = append(out, d)
		}
	}
	check(graph.KindDependency, r.Dependency.Snapshot())
	if r.Topology != nil {
		check(graph.KindTopology, r.Topology.Snapshot())
	}
	return out
}

// AnalyzeBundle runs Analyze over decoded manifests. The bundle's own
// diagnostics are merged into the report. A topology is built whenever the
// bundle contains pods, services or network policies.
func AnalyzeBundle(ctx context.Context, b *manifest.Bundle, opts Options) (*Report, error) {
	var snap *policy.ClusterSnapshot
	if len(b.Snapshot.Pods)+len(b.Snapshot.Services)+len(b.Snapshot.NetworkPolicies) > 0 {
		snap = &b.Snapshot
	}
	r, err := Analyze(ctx, b.Policies, snap, opts)
	if err != nil {
		return nil, err
	}
	r.Diagnostics = append(r.Diagnostics, b.Diagnostics...)
	graph.SortDiagnostics(r.Diagnostics)
	return r, nil
}

// NamespaceReport is one namespace's slice of AnalyzeByNamespace.
type NamespaceReport struct {
	Namespace string  `json:"namespace"`
	Report    *Report `json:"report"`
}

// AnalyzeByNamespace partitions policies by namespace and analyzes each
// partition on its own worker. Results are sorted by namespace. A
// depends-on entry naming another namespace is dangling within its
// partition. Cancelling ctx stops partitions that have not started.
func AnalyzeByNamespace(ctx context.Context, policies []policy.Record, opts Options, workers int) ([]NamespaceReport, error) {
	base := logging.OrNop(opts.Logger)

	byNS := make(map[string][]policy.Record)
	for _, p := range policies {
		ns := p.NamespaceOrDefault()
		byNS[ns] = append(byNS[ns], p)
	}
	namespaces := make([]string, 0, len(byNS))
	for ns := range byNS {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	base.Debug("analyzing namespaces",
		logging.Component("engine"), logging.Count(len(namespaces)), logging.Int("workers", workers))

	return parallel.Map(ctx, workers, namespaces, func(ctx context.Context, ns string) (NamespaceReport, error) {
		nsOpts := opts
		nsOpts.Logger = base.With(logging.Namespace(ns))
		r, err := Analyze(ctx, byNS[ns], nil, nsOpts)
		if err != nil {
			return NamespaceReport{}, err
		}
		return NamespaceReport{Namespace: ns, Report: r}, nil
	}, base)
}
