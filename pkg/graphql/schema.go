// Package graphql exposes an analysis report through a read-only GraphQL
// schema.
package graphql

import (
	"fmt"
	"slices"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-policygraph/pkg/algorithms"
	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
)

var nodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Node",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: nodeField(func(n graph.Node) any { return n.ID })},
		"kind": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n graph.Node) any { return string(n.Kind) })},
		"name": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n graph.Node) any { return n.Name })},
		"namespace": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n graph.Node) any {
			return n.Attributes.Namespace
		})},
		"severity": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n graph.Node) any {
			return n.Attributes.Severity
		})},
		"status": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n graph.Node) any {
			return n.Attributes.Status
		})},
		"ruleCount": &graphql.Field{Type: graphql.Int, Resolve: nodeField(func(n graph.Node) any {
			return n.Attributes.RuleCount
		})},
		"size": &graphql.Field{Type: graphql.Int, Resolve: nodeField(func(n graph.Node) any { return n.Size })},
		"labels": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: nodeField(func(n graph.Node) any {
			return pairs(n.Attributes.Labels)
		})},
	},
})

var edgeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Edge",
	Fields: graphql.Fields{
		"source":   &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e graph.Edge) any { return e.Source })},
		"target":   &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e graph.Edge) any { return e.Target })},
		"type":     &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e graph.Edge) any { return string(e.Type) })},
		"weight":   &graphql.Field{Type: graphql.Int, Resolve: edgeField(func(e graph.Edge) any { return e.Weight })},
		"severity": &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e graph.Edge) any { return e.Severity })},
	},
})

var interactionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Interaction",
	Fields: graphql.Fields{
		"source":       &graphql.Field{Type: graphql.String, Resolve: interactionField(func(in interaction.Interaction) any { return in.Source })},
		"target":       &graphql.Field{Type: graphql.String, Resolve: interactionField(func(in interaction.Interaction) any { return in.Target })},
		"type":         &graphql.Field{Type: graphql.String, Resolve: interactionField(func(in interaction.Interaction) any { return string(in.Type) })},
		"severity":     &graphql.Field{Type: graphql.String, Resolve: interactionField(func(in interaction.Interaction) any { return in.Severity })},
		"ratio":        &graphql.Field{Type: graphql.Float, Resolve: interactionField(func(in interaction.Interaction) any { return in.Ratio })},
		"sharedLabels": &graphql.Field{Type: graphql.String, Resolve: interactionField(func(in interaction.Interaction) any { return in.SharedLabels })},
	},
})

var diagnosticType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Diagnostic",
	Fields: graphql.Fields{
		"code":    &graphql.Field{Type: graphql.String, Resolve: diagnosticField(func(d graph.Diagnostic) any { return string(d.Code) })},
		"level":   &graphql.Field{Type: graphql.String, Resolve: diagnosticField(func(d graph.Diagnostic) any { return string(d.Level) })},
		"message": &graphql.Field{Type: graphql.String, Resolve: diagnosticField(func(d graph.Diagnostic) any { return d.Message })},
		"nodes":   &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: diagnosticField(func(d graph.Diagnostic) any { return d.Nodes })},
	},
})

var rankedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RankedPolicy",
	Fields: graphql.Fields{
		"id": &graphql.Field{Type: graphql.ID, Resolve: func(p graphql.ResolveParams) (any, error) {
			if rn, ok := p.Source.(algorithms.RankedNode); ok {
				return rn.ID, nil
			}
			return nil, nil
		}},
		"score": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (any, error) {
			if rn, ok := p.Source.(algorithms.RankedNode); ok {
				return rn.Score, nil
			}
			return nil, nil
		}},
	},
})

var statisticsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Statistics",
	Fields: graphql.Fields{
		"nodeCount":            &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.NodeCount })},
		"edgeCount":            &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.EdgeCount })},
		"cycleCount":           &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.CycleCount })},
		"selfLoops":            &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.SelfLoops })},
		"danglingReferences":   &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.DanglingReferences })},
		"unconnectedSelectors": &graphql.Field{Type: graphql.Int, Resolve: statsField(func(s graph.Statistics) any { return s.UnconnectedSelectors })},
	},
})

var interactionStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "InteractionStatistics",
	Fields: graphql.Fields{
		"policies":      &graphql.Field{Type: graphql.Int, Resolve: interactionStatsField(func(s interaction.Statistics) any { return s.Policies })},
		"pairsCompared": &graphql.Field{Type: graphql.Int, Resolve: interactionStatsField(func(s interaction.Statistics) any { return s.PairsCompared })},
		"pairsSkipped":  &graphql.Field{Type: graphql.Int, Resolve: interactionStatsField(func(s interaction.Statistics) any { return s.PairsSkipped })},
		"total":         &graphql.Field{Type: graphql.Int, Resolve: interactionStatsField(func(s interaction.Statistics) any { return s.Total })},
		"conflicts": &graphql.Field{Type: graphql.Int, Resolve: interactionStatsField(func(s interaction.Statistics) any {
			return s.ByType[interaction.Conflict]
		})},
		"conflictingIds": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: interactionStatsField(func(s interaction.Statistics) any {
			return s.ConflictingIDs
		})},
	},
})

// GenerateSchema builds the query schema over report. The report is read,
// never modified.
func GenerateSchema(report *engine.Report) (graphql.Schema, error) {
	if report == nil || report.Dependency == nil || report.Interactions == nil {
		return graphql.Schema{}, fmt.Errorf("generate schema: %w", graph.ErrNilGraph)
	}
	r := &resolver{report: report}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"policies": &graphql.Field{
				Type: graphql.NewList(nodeType),
				Args: graphql.FieldConfigArgument{
					"namespace": &graphql.ArgumentConfig{Type: graphql.String},
					"severity":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.policies,
			},
			"policy": &graphql.Field{
				Type: nodeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.policy,
			},
			"edges": &graphql.Field{
				Type:    graphql.NewList(edgeType),
				Args:    graphql.FieldConfigArgument{"type": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: r.edges,
			},
			"cycles": &graphql.Field{
				Type:    graphql.NewList(graphql.NewList(graphql.String)),
				Resolve: r.cycles,
			},
			"applyOrder": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.report.Dependency.ApplyOrder, nil
				},
			},
			"influence": &graphql.Field{
				Type:    graphql.NewList(rankedType),
				Args:    graphql.FieldConfigArgument{"limit": &graphql.ArgumentConfig{Type: graphql.Int}},
				Resolve: r.influence,
			},
			"interactions": &graphql.Field{
				Type: graphql.NewList(interactionType),
				Args: graphql.FieldConfigArgument{
					"type":   &graphql.ArgumentConfig{Type: graphql.String},
					"policy": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: r.interactions,
			},
			"diagnostics": &graphql.Field{
				Type: graphql.NewList(diagnosticType),
				Args: graphql.FieldConfigArgument{
					"code":  &graphql.ArgumentConfig{Type: graphql.String},
					"level": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.diagnostics,
			},
			"statistics": &graphql.Field{
				Type: statisticsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.report.Dependency.Statistics, nil
				},
			},
			"interactionStatistics": &graphql.Field{
				Type: interactionStatsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.report.Interactions.Statistics, nil
				},
			},
			"topologyNodes": &graphql.Field{
				Type:    graphql.NewList(nodeType),
				Args:    graphql.FieldConfigArgument{"kind": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: r.topologyNodes,
			},
			"topologyEdges": &graphql.Field{
				Type:    graphql.NewList(edgeType),
				Args:    graphql.FieldConfigArgument{"type": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: r.topologyEdges,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func pairs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

func nodeField(get func(graph.Node) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if n, ok := p.Source.(graph.Node); ok {
			return get(n), nil
		}
		return nil, nil
	}
}

func edgeField(get func(graph.Edge) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if e, ok := p.Source.(graph.Edge); ok {
			return get(e), nil
		}
		return nil, nil
	}
}

func interactionField(get func(interaction.Interaction) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if in, ok := p.Source.(interaction.Interaction); ok {
			return get(in), nil
		}
		return nil, nil
	}
}

func diagnosticField(get func(graph.Diagnostic) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if d, ok := p.Source.(graph.Diagnostic); ok {
			return get(d), nil
		}
		return nil, nil
	}
}

func statsField(get func(graph.Statistics) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if s, ok := p.Source.(graph.Statistics); ok {
			return get(s), nil
		}
		return nil, nil
	}
}

func interactionStatsField(get func(interaction.Statistics) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if s, ok := p.Source.(interaction.Statistics); ok {
			return get(s), nil
		}
		return nil, nil
	}
}
