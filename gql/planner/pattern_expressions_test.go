package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// existsPattern is (a)-[anon:KNOWS]->(anon node).
func existsPattern() ir.PatternExpression {
	return ir.PatternExpression{
		Nodes: []ir.NodePattern{
			{Variable: "a"},
			{Variable: "anon-node", Anonymous: true},
		},
		Relationships: []ir.RelationshipPattern{
			{
				Variable: "anon-rel", Start: "a", End: "anon-node",
				Direction: ir.DirectionOutgoing, Types: []string{"KNOWS"},
				Anonymous: true,
			},
		},
	}
}

func TestPlanPatternExpressionArguments(t *testing.T) {
	solver := NewCostBasedSolver(nil)
	ctx := testContext(testProvider())

	lhs := plan.NewNodeByLabelScan("a", "Person",
		ir.NewQueryGraph().WithNodes(person("a")), nil)

	inner, renamed, mapping, err := planPatternExpression(solver, lhs, existsPattern(), ctx)
	require.NoError(t, err)

	// Only a is free and bound outside; the anonymous elements got
	// synthetic names.
	assert.Len(t, mapping, 2)
	for original, synthetic := range mapping {
		assert.True(t, strings.HasPrefix(string(synthetic), "  "),
			"synthetic name for %s must be unspellable", original)
	}
	assert.Equal(t, mapping["anon-node"], renamed.Nodes[1].Variable)
	assert.Equal(t, mapping["anon-rel"], renamed.Relationships[0].Variable)

	// The sub-plan binds a (as argument) plus the synthetic names.
	assert.True(t, inner.HasAvailable("a"))
	assert.True(t, inner.HasAvailable(mapping["anon-node"]))
}

func TestPlanPatternExpressionIgnoresUnboundFreeVars(t *testing.T) {
	solver := NewCostBasedSolver(nil)
	ctx := testContext(testProvider())

	// lhs binds only b; the expression's free variable a is not an
	// argument, so the sub-graph declares it itself.
	lhs := plan.NewAllNodesScan("b", ir.NewQueryGraph().WithNodes(anyNode("b")))

	inner, _, _, err := planPatternExpression(solver, lhs, existsPattern(), ctx)
	require.NoError(t, err)
	assert.True(t, inner.HasAvailable("a"))

	ops := inner.Operators()
	for _, op := range ops {
		assert.NotEqual(t, plan.OpArgument, op.Op, "nothing bound outside, no argument row")
	}
}

func TestPatternPredicateBecomesSemiApply(t *testing.T) {
	provider := testProvider()
	solver := NewCostBasedSolver(nil)

	qg := ir.NewQueryGraph().
		WithNodes(person("a")).
		WithSelections(ir.PatternPredicate{Pattern: existsPattern()})

	p, err := solver.ProducePlan(qg, testContext(provider))
	require.NoError(t, err)

	require.Equal(t, plan.OpSemiApply, p.Op)
	assert.Equal(t, []ir.Variable{"a"}, p.Available(),
		"sub-pattern symbols never escape the semi-join")
}

func TestNegatedPatternPredicateBecomesAntiSemiApply(t *testing.T) {
	provider := testProvider()
	solver := NewCostBasedSolver(nil)

	qg := ir.NewQueryGraph().
		WithNodes(person("a")).
		WithSelections(ir.PatternPredicate{Pattern: existsPattern(), Negated: true})

	p, err := solver.ProducePlan(qg, testContext(provider))
	require.NoError(t, err)

	require.Equal(t, plan.OpAntiSemiApply, p.Op)
	assert.Equal(t, []ir.Variable{"a"}, p.Available())
}

func TestPatternPredicateSolvedExactlyOnce(t *testing.T) {
	provider := testProvider()
	solver := NewCostBasedSolver(nil)

	qg := ir.NewQueryGraph().
		WithNodes(person("a"), anyNode("b")).
		WithRelationships(knows("r", "a", "b")).
		WithSelections(ir.PatternPredicate{Pattern: existsPattern()})

	p, err := solver.ProducePlan(qg, testContext(provider))
	require.NoError(t, err)

	var semiApplies int
	for _, op := range p.Operators() {
		if op.Op == plan.OpSemiApply {
			semiApplies++
		}
	}
	assert.Equal(t, 1, semiApplies)
}

func TestPlanPatternComprehension(t *testing.T) {
	solver := NewCostBasedSolver(nil)
	ctx := testContext(testProvider())

	lhs := plan.NewNodeByLabelScan("a", "Person",
		ir.NewQueryGraph().WithNodes(person("a")), nil)

	comp := ir.PatternComprehension{
		Pattern:    existsPattern(),
		Projection: "anon-node",
		Collection: "friends",
	}

	rolled, rewritten, err := PlanPatternComprehension(solver, lhs, comp, ctx)
	require.NoError(t, err)

	require.Equal(t, plan.OpRollUpApply, rolled.Op)
	assert.ElementsMatch(t, []ir.Variable{"a", "friends"}, rolled.Available(),
		"only the collection escapes the rollup")

	// The projection follows the anonymous node's synthetic name.
	assert.NotEqual(t, ir.Variable("anon-node"), rewritten.Projection)
	assert.Equal(t, rewritten.Projection, rolled.Projected)
	assert.Equal(t, ir.Variable("friends"), rewritten.Collection)
}

func TestPlanPatternComprehensionNamedProjection(t *testing.T) {
	solver := NewCostBasedSolver(nil)
	ctx := testContext(testProvider())

	lhs := plan.NewNodeByLabelScan("a", "Person",
		ir.NewQueryGraph().WithNodes(person("a")), nil)

	pattern := ir.PatternExpression{
		Nodes: []ir.NodePattern{{Variable: "a"}, {Variable: "b"}},
		Relationships: []ir.RelationshipPattern{
			{Variable: "r", Start: "a", End: "b", Direction: ir.DirectionOutgoing, Types: []string{"KNOWS"}},
		},
	}
	comp := ir.PatternComprehension{Pattern: pattern, Projection: "b", Collection: "friends"}

	_, rewritten, err := PlanPatternComprehension(solver, lhs, comp, ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.Variable("b"), rewritten.Projection, "named projections pass through")
}

func TestFreshNamesAreUniqueAndTracked(t *testing.T) {
	ctx := testContext(testProvider())

	a := ctx.FreshName("node")
	b := ctx.FreshName("node")

	assert.NotEqual(t, a, b)
	assert.True(t, ctx.Synthesized(a))
	assert.True(t, ctx.Synthesized(b))
	assert.False(t, ctx.Synthesized("a"))
}
