package planner

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// stubSolver scripts one strategy's behavior and counts invocations.
type stubSolver struct {
	name  string
	plan  *plan.Plan
	err   error
	calls int
}

func (s *stubSolver) Name() string { return s.name }

func (s *stubSolver) ProducePlan(*ir.QueryGraph, *Context) (*plan.Plan, error) {
	s.calls++
	return s.plan, s.err
}

func somePlan(v ir.Variable) *plan.Plan {
	return plan.NewAllNodesScan(v, ir.NewQueryGraph().WithNodes(anyNode(v)))
}

func TestFallbackPrimarySuccess(t *testing.T) {
	primary := &stubSolver{name: "cost", plan: somePlan("a")}
	legacy := &stubSolver{name: "rule", plan: somePlan("b")}
	monitor := NewCollectingMonitor()

	fp := NewFallbackPlanner(primary, legacy, monitor, nil)
	qg := ir.NewQueryGraph().WithNodes(anyNode("a"))

	p, err := fp.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)
	assert.Equal(t, primary.plan, p)
	assert.Equal(t, 0, legacy.calls, "legacy never runs on success")
	assert.Len(t, monitor.Seen(), 1)
	assert.Empty(t, monitor.Fallbacks())
}

func TestFallbackEscalatesOnUnsupported(t *testing.T) {
	cause := unsupported("variable-length relationship", "not handled")
	primary := &stubSolver{name: "cost", err: cause}
	legacy := &stubSolver{name: "rule", plan: somePlan("b")}
	monitor := NewCollectingMonitor()

	var notified []*UnsupportedError
	notify := func(qg *ir.QueryGraph, cause *UnsupportedError) {
		notified = append(notified, cause)
	}

	fp := NewFallbackPlanner(primary, legacy, monitor, notify)
	qg := ir.NewQueryGraph().WithNodes(anyNode("a"))

	p, err := fp.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)
	assert.Equal(t, legacy.plan, p)
	assert.Equal(t, 1, legacy.calls, "legacy runs exactly once")

	assert.Empty(t, monitor.Seen())
	require.Len(t, monitor.Fallbacks(), 1)
	assert.Equal(t, cause, monitor.Fallbacks()[0].Failure)

	require.Len(t, notified, 1)
	assert.Equal(t, "variable-length relationship", notified[0].Construct)
}

func TestFallbackWrappedUnsupportedStillEscalates(t *testing.T) {
	cause := unsupported("shortest-path pattern", "not handled")
	primary := &stubSolver{name: "cost", err: errors.Wrap(cause, "solving")}
	legacy := &stubSolver{name: "rule", plan: somePlan("b")}

	fp := NewFallbackPlanner(primary, legacy, nil, nil)
	qg := ir.NewQueryGraph().WithNodes(anyNode("a"))

	_, err := fp.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)
	assert.Equal(t, 1, legacy.calls)
}

func TestFallbackPropagatesOtherErrors(t *testing.T) {
	internal := &InternalError{QueryGraph: ir.NewQueryGraph()}
	primary := &stubSolver{name: "cost", err: internal}
	legacy := &stubSolver{name: "rule", plan: somePlan("b")}
	monitor := NewCollectingMonitor()

	fp := NewFallbackPlanner(primary, legacy, monitor, nil)

	_, err := fp.ProducePlan(ir.NewQueryGraph(), testContext(testProvider()))
	require.Error(t, err)
	assert.Equal(t, internal, err)
	assert.Equal(t, 0, legacy.calls, "legacy only sees unsupported constructs")
	assert.Empty(t, monitor.Fallbacks())
}

func TestFallbackLegacyFailureIsFinal(t *testing.T) {
	primary := &stubSolver{name: "cost", err: unsupported("shortest-path pattern", "nope")}
	legacyErr := &InternalError{QueryGraph: ir.NewQueryGraph()}
	legacy := &stubSolver{name: "rule", err: legacyErr}

	fp := NewFallbackPlanner(primary, legacy, nil, nil)

	_, err := fp.ProducePlan(ir.NewQueryGraph(), testContext(testProvider()))
	require.Error(t, err)
	assert.Equal(t, legacyErr, err)
	assert.Equal(t, 1, legacy.calls)
	assert.Equal(t, 1, primary.calls, "no retry of the primary")
}

func TestFallbackEndToEnd(t *testing.T) {
	// Real solvers: a shortest-path query escalates and still plans.
	monitor := NewCollectingMonitor()
	fp := NewFallbackPlanner(NewCostBasedSolver(nil), NewRuleBasedSolver(), monitor, nil)

	rel := knows("r", "a", "b")
	rel.ShortestPath = true
	qg := ir.NewQueryGraph().
		WithNodes(person("a"), person("b")).
		WithRelationships(rel)

	p, err := fp.ProducePlan(qg, testContext(testProvider()))
	require.NoError(t, err)
	assert.ElementsMatch(t, []ir.Variable{"a", "b", "r"}, p.Available())
	assert.Len(t, monitor.Fallbacks(), 1)

	// A supported query never escalates.
	simple := ir.NewQueryGraph().WithNodes(person("a"))
	_, err = fp.ProducePlan(simple, testContext(testProvider()))
	require.NoError(t, err)
	assert.Len(t, monitor.Seen(), 1)
	assert.Len(t, monitor.Fallbacks(), 1)
}
