package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
)

type resolver struct {
	report *engine.Report
}

// stringArg returns the named argument, or "" when it is absent.
func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func (r *resolver) policies(p graphql.ResolveParams) (any, error) {
	ns, severity := stringArg(p, "namespace"), stringArg(p, "severity")
	out := make([]graph.Node, 0, len(r.report.Dependency.Nodes))
	for _, n := range r.report.Dependency.Nodes {
		if ns != "" && n.Attributes.Namespace != ns {
			continue
		}
		if severity != "" && n.Attributes.Severity != severity {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *resolver) policy(p graphql.ResolveParams) (any, error) {
	id := stringArg(p, "id")
	for _, n := range r.report.Dependency.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (r *resolver) edges(p graphql.ResolveParams) (any, error) {
	return filterEdges(r.report.Dependency.Edges, stringArg(p, "type")), nil
}

func (r *resolver) cycles(p graphql.ResolveParams) (any, error) {
	out := make([][]string, len(r.report.Dependency.Cycles))
	for i, c := range r.report.Dependency.Cycles {
		out[i] = c
	}
	return out, nil
}

func (r *resolver) influence(p graphql.ResolveParams) (any, error) {
	ranked := r.report.Dependency.Influence
	if limit, ok := p.Args["limit"].(int); ok && limit >= 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r *resolver) interactions(p graphql.ResolveParams) (any, error) {
	typ, id := stringArg(p, "type"), stringArg(p, "policy")
	out := make([]interaction.Interaction, 0, len(r.report.Interactions.Interactions))
	for _, in := range r.report.Interactions.Interactions {
		if typ != "" && string(in.Type) != typ {
			continue
		}
		if id != "" && in.Source != id && in.Target != id {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (r *resolver) diagnostics(p graphql.ResolveParams) (any, error) {
	code, level := stringArg(p, "code"), stringArg(p, "level")
	out := make([]graph.Diagnostic, 0, len(r.report.Diagnostics))
	for _, d := range r.report.Diagnostics {
		if code != "" && string(d.Code) != code {
			continue
		}
		if level != "" && string(d.Level) != level {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *resolver) topologyNodes(p graphql.ResolveParams) (any, error) {
	if r.report.Topology == nil {
		return []graph.Node{}, nil
	}
	kind := stringArg(p, "kind")
	out := make([]graph.Node, 0, len(r.report.Topology.Nodes))
	for _, n := range r.report.Topology.Nodes {
		if kind == "" || string(n.Kind) == kind {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *resolver) topologyEdges(p graphql.ResolveParams) (any, error) {
	if r.report.Topology == nil {
		return []graph.Edge{}, nil
	}
	return filterEdges(r.report.Topology.Edges, stringArg(p, "type")), nil
}

func filterEdges(edges []graph.Edge, typ string) []graph.Edge {
	out := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if typ == "" || string(e.Type) == typ {
			out = append(out, e)
		}
	}
	return out
}
