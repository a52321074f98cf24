package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// DefaultMaxDepth bounds query nesting when the caller passes zero.
const DefaultMaxDepth = 4

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(query string, schema graphql.Schema) *graphql.Result {
	return ExecuteWithDepthLimit(schema, query, DefaultMaxDepth, nil)
}

// ExecuteQueryWithVariables executes a GraphQL query with variables
func ExecuteQueryWithVariables(query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	return ExecuteWithDepthLimit(schema, query, DefaultMaxDepth, variables)
}

// ExecuteWithDepthLimit rejects queries nested deeper than maxDepth before
// executing them. A non-positive maxDepth means DefaultMaxDepth.
func ExecuteWithDepthLimit(schema graphql.Schema, query string, maxDepth int, variables map[string]any) *graphql.Result {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := ValidateQueryDepth(query, maxDepth); err != nil {
		return &graphql.Result{
			Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
		}
	}
	params := graphql.Params{
		Schema:        schema,
		RequestString: query,
	}
	if len(variables) > 0 {
		params.VariableValues = variables
	}
	return graphql.Do(params)
}
