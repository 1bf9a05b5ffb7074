package planner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/symbols"
)

// Context carries one planning session's state: the memoizing metrics,
// the typed variable environment, the variables bound by the enclosing
// scope, and the solver to recurse into for sub-graphs. Contexts are
// copied, never mutated, when descending into a sub-scope.
type Context struct {
	// SessionID identifies the planning session in telemetry.
	SessionID string

	// Metrics is this session's memoized estimation models.
	Metrics Metrics

	// SemanticTable types the variables in scope.
	SemanticTable symbols.Table

	// Arguments are the variables already bound by the enclosing scope.
	Arguments []ir.Variable

	// Selector picks among candidate plans.
	Selector *CandidateSelector

	// solver is the solver to use for recursive sub-graph planning.
	// Each solver defaults it to itself on entry, so composition (for
	// example running the legacy solver standalone) does not leak
	// recursion into the wrong strategy.
	solver PlanProducer

	// synthesized tracks variables this context invented for anonymous
	// pattern elements, so they can be hidden from the outer scope once
	// the sub-pattern is solved.
	synthesized map[ir.Variable]bool
	counter     *int
}

// NewContext builds a session context. A nil selector gets a selector
// over the session's cost model with no tracing.
func NewContext(metrics Metrics, table symbols.Table, selector *CandidateSelector) *Context {
	if selector == nil {
		selector = NewCandidateSelector(metrics.Cost, nil)
	}
	counter := 0
	return &Context{
		SessionID:     uuid.NewString(),
		Metrics:       metrics,
		SemanticTable: table,
		Selector:      selector,
		synthesized:   make(map[ir.Variable]bool),
		counter:       &counter,
	}
}

func (c *Context) clone() *Context {
	cp := *c
	return &cp
}

// WithArguments returns a context whose bound-argument set is args.
func (c *Context) WithArguments(args ...ir.Variable) *Context {
	cp := c.clone()
	cp.Arguments = append([]ir.Variable{}, args...)
	return cp
}

// WithTable returns a context carrying a different symbol table.
func (c *Context) WithTable(table symbols.Table) *Context {
	cp := c.clone()
	cp.SemanticTable = table
	return cp
}

// withSolver pins the solver used for recursive sub-planning.
func (c *Context) withSolver(s PlanProducer) *Context {
	cp := c.clone()
	cp.solver = s
	return cp
}

// SubSolver returns the solver configured for recursion, defaulting to
// fallback.
func (c *Context) SubSolver(fallback PlanProducer) PlanProducer {
	if c.solver != nil {
		return c.solver
	}
	return fallback
}

// forExpressionPlanning returns a context scoped for planning an inline
// pattern expression: same metrics and selector, a fresh synthesized
// set, and the given argument variables.
func (c *Context) forExpressionPlanning(args []ir.Variable) *Context {
	cp := c.clone()
	cp.Arguments = append([]ir.Variable{}, args...)
	cp.synthesized = make(map[ir.Variable]bool)
	return cp
}

// FreshName invents a synthetic variable name for an anonymous pattern
// element and records it for later hiding.
func (c *Context) FreshName(prefix string) ir.Variable {
	*c.counter++
	v := ir.Variable(fmt.Sprintf("  %s@%d", prefix, *c.counter))
	c.synthesized[v] = true
	return v
}

// Synthesized reports whether v was invented by this context.
func (c *Context) Synthesized(v ir.Variable) bool {
	return c.synthesized[v]
}

// HasArgument reports whether v is bound by the enclosing scope.
func (c *Context) HasArgument(v ir.Variable) bool {
	for _, a := range c.Arguments {
		if a == v {
			return true
		}
	}
	return false
}
