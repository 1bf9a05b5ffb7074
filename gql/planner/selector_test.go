package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// fixedCost assigns costs by the plan's scanned variable, defaulting high.
func fixedCost(costs map[string]Cost) CostModel {
	return func(p *plan.Plan) Cost {
		if c, ok := costs[string(p.Variable)]; ok {
			return c
		}
		return 1000
	}
}

func scanWithHint(v ir.Variable, hints ...ir.Hint) *plan.Plan {
	leaf := ir.NewQueryGraph().WithNodes(ir.NodePattern{Variable: v})
	p := plan.NewNodeByLabelScan(v, "Person", leaf, nil)
	if len(hints) > 0 {
		p.SolvedHint = hints[0]
	}
	return p
}

func TestSelectorPrefersMoreHints(t *testing.T) {
	// A satisfies two hints at cost 10; B satisfies one at cost 2. The
	// hint count dominates.
	hintA1 := ir.UsingScanHint{Variable: "a", Label: "Person"}
	hintA2 := ir.UsingIndexHint{Variable: "a", Label: "Person", Property: "name"}
	hintB := ir.UsingScanHint{Variable: "b", Label: "Person"}

	inner := scanWithHint("a", hintA1)
	candidateA := plan.NewSelection(
		ir.HasLabel{Node: "a", Label: "Person"}, inner, inner.Solved)
	candidateA.SolvedHint = hintA2
	candidateB := scanWithHint("b", hintB)

	s := NewCandidateSelector(fixedCost(map[string]Cost{"a": 10, "b": 2}), nil)
	best, ok := SelectBestPlan(s, []*plan.Plan{candidateB, candidateA})
	require.True(t, ok)
	assert.Len(t, best.SolvedHints(), 2)
}

func TestSelectorBreaksHintTieOnCost(t *testing.T) {
	hint := ir.UsingScanHint{Variable: "a", Label: "Person"}
	expensive := scanWithHint("a", hint)
	cheap := scanWithHint("b", ir.UsingScanHint{Variable: "b", Label: "Person"})

	s := NewCandidateSelector(fixedCost(map[string]Cost{"a": 10, "b": 2}), nil)
	best, ok := SelectBestPlan(s, []*plan.Plan{expensive, cheap})
	require.True(t, ok)
	assert.Equal(t, ir.Variable("b"), best.Variable)
}

func TestSelectorEmptyCandidates(t *testing.T) {
	s := NewCandidateSelector(fixedCost(nil), nil)
	_, ok := SelectBestPlan(s, nil)
	assert.False(t, ok)
}

func TestSelectorOrderIndependent(t *testing.T) {
	// Same cost, same hints, same symbol count: the digest tie-break
	// keeps the result stable however the candidates are shuffled.
	candidates := []*plan.Plan{
		scanWithHint("a"), scanWithHint("b"), scanWithHint("c"), scanWithHint("d"),
	}
	constCost := func(*plan.Plan) Cost { return 5 }
	s := NewCandidateSelector(constCost, nil)

	first, ok := SelectBestPlan(s, candidates)
	require.True(t, ok)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*plan.Plan{}, candidates...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		best, ok := SelectBestPlan(s, shuffled)
		require.True(t, ok)
		assert.Equal(t, first.Digest(), best.Digest())
	}
}

func TestSelectorPrefersFewerSymbols(t *testing.T) {
	scan := scanWithHint("a")
	rel := knows("r", "a", "b")
	wide := plan.NewExpandAll(scan, rel, "a", scan.Solved.WithRelationships(rel))

	constCost := func(*plan.Plan) Cost { return 5 }
	s := NewCandidateSelector(constCost, nil)
	best, ok := SelectBestPlan(s, []*plan.Plan{wide, scan})
	require.True(t, ok)
	assert.Equal(t, scan.Digest(), best.Digest())
}

func TestSelectorTraceDoesNotAffectChoice(t *testing.T) {
	var lines int
	trace := func(string, ...interface{}) { lines++ }

	s := NewCandidateSelector(fixedCost(map[string]Cost{"a": 1, "b": 2}), trace)
	best, ok := SelectBestPlan(s, []*plan.Plan{scanWithHint("a"), scanWithHint("b")})
	require.True(t, ok)
	assert.Equal(t, ir.Variable("a"), best.Variable)
	assert.Greater(t, lines, 0)
}

func TestSelectBestGeneric(t *testing.T) {
	type wrapped struct {
		tag string
		p   *plan.Plan
	}
	candidates := []wrapped{
		{tag: "slow", p: scanWithHint("a")},
		{tag: "fast", p: scanWithHint("b")},
	}
	s := NewCandidateSelector(fixedCost(map[string]Cost{"a": 9, "b": 1}), nil)
	best, ok := SelectBest(s, func(w wrapped) *plan.Plan { return w.p }, candidates)
	require.True(t, ok)
	assert.Equal(t, "fast", best.tag)
}
