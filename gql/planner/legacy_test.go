package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

func TestLegacyPlansVarLength(t *testing.T) {
	solver := NewRuleBasedSolver()

	rel := knows("r", "a", "b")
	rel.Length = &ir.VarLength{Min: 1, Max: 3}
	qg := ir.NewQueryGraph().
		WithNodes(person("a"), anyNode("b")).
		WithRelationships(rel)

	p, err := solver.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)

	var found bool
	for _, op := range p.Operators() {
		if op.Op == plan.OpVarLengthExpand {
			found = true
		}
	}
	assert.True(t, found)
	assert.ElementsMatch(t, []ir.Variable{"a", "b", "r"}, p.Available())
}

func TestLegacyPlansShortestPath(t *testing.T) {
	solver := NewRuleBasedSolver()

	rel := knows("r", "a", "b")
	rel.ShortestPath = true
	qg := ir.NewQueryGraph().
		WithNodes(person("a"), person("b")).
		WithRelationships(rel)

	p, err := solver.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)

	var found bool
	for _, op := range p.Operators() {
		if op.Op == plan.OpShortestPath {
			found = true
			// Both endpoints were bound before the path search.
			assert.True(t, op.LHS.HasAvailable("a"))
			assert.True(t, op.LHS.HasAvailable("b"))
		}
	}
	assert.True(t, found)
}

func TestLegacyFollowsDeclarationOrder(t *testing.T) {
	solver := NewRuleBasedSolver()

	qg := ir.NewQueryGraph().
		WithNodes(anyNode("a"), person("b")).
		WithRelationships(knows("r", "a", "b"))

	p, err := solver.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)

	// The first declared node anchors the plan regardless of cost.
	leaf := p
	for leaf.LHS != nil {
		leaf = leaf.LHS
	}
	assert.Equal(t, plan.OpAllNodesScan, leaf.Op)
	assert.Equal(t, ir.Variable("a"), leaf.Variable)
}

func TestLegacySolvesPredicates(t *testing.T) {
	solver := NewRuleBasedSolver()

	qg := ir.NewQueryGraph().
		WithNodes(person("a"), anyNode("b")).
		WithRelationships(knows("r", "a", "b")).
		WithSelections(ir.PropertyCompare{Entity: "b", Property: "age", Op: ir.OpLT, Value: 40})

	p, err := solver.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)

	solved := make(map[string]bool)
	for _, pred := range p.Solved.Selections() {
		solved[pred.String()] = true
	}
	for _, pred := range qg.Selections() {
		assert.True(t, solved[pred.String()])
	}
}

func TestLegacyDeterministic(t *testing.T) {
	solver := NewRuleBasedSolver()
	provider := testProvider()

	rel := knows("r", "a", "b")
	rel.Length = &ir.VarLength{Min: 1, Max: 2}
	qg := ir.NewQueryGraph().
		WithNodes(person("a"), anyNode("b"), person("c")).
		WithRelationships(rel, knows("r2", "b", "c"))

	first, err := solver.ProducePlan(qg, testContext(provider))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		next, err := solver.ProducePlan(qg, testContext(provider))
		require.NoError(t, err)
		assert.Equal(t, first.Digest(), next.Digest())
	}
}
