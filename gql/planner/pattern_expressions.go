package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// Recursive sub-planning for inline pattern expressions and pattern
// comprehensions. A sub-pattern is extracted into an independent query
// graph whose arguments are exactly the outer variables it actually
// uses, then solved through the session's configured sub-solver.

// planPatternExpression plans an inline sub-pattern against the symbols
// lhs binds:
//
//  1. the expression's free variables are intersected with the bound
//     symbols to form the sub-graph's argument set, so the sub-plan can
//     never reference an out-of-scope binding;
//  2. anonymous elements get synthetic names so the sub-graph has
//     addressable variables, tracked on the expression context so they
//     stay hidden from the outer scope;
//  3. the sub-graph carries any predicate embedded in the expression;
//  4. the sub-graph is solved recursively;
//  5. the renamed expression is returned with the plan so callers can
//     substitute the synthetic names where they need them.
func planPatternExpression(solver PlanProducer, lhs *plan.Plan, expr ir.PatternExpression, ctx *Context) (*plan.Plan, ir.PatternExpression, map[ir.Variable]ir.Variable, error) {
	exprCtx := ctx.forExpressionPlanning(nil)

	mapping := make(map[ir.Variable]ir.Variable)
	for _, n := range expr.Nodes {
		if n.Anonymous {
			mapping[n.Variable] = exprCtx.FreshName("node")
		}
	}
	for _, r := range expr.Relationships {
		if r.Anonymous {
			mapping[r.Variable] = exprCtx.FreshName("rel")
		}
	}
	renamed := expr.Rename(mapping)

	args := intersectVars(renamed.FreeVariables(), lhs.Available())
	exprCtx.Arguments = args
	exprCtx.SemanticTable = ctx.SemanticTable.Filter(func(name string) bool {
		for _, a := range args {
			if string(a) == name {
				return true
			}
		}
		return false
	})

	sub := ir.NewQueryGraph().
		WithNodes(renamed.Nodes...).
		WithRelationships(renamed.Relationships...).
		WithArguments(args...)
	if renamed.Predicate != nil {
		sub = sub.WithSelections(renamed.Predicate)
	}

	inner, err := exprCtx.SubSolver(solver).ProducePlan(sub, exprCtx)
	if err != nil {
		return nil, ir.PatternExpression{}, nil, err
	}
	return inner, renamed, mapping, nil
}

// planPatternPredicate turns an existential pattern test into a
// semi-join: rows survive when the sub-pattern matches (or, negated,
// when it does not). The sub-plan's symbols never escape.
func planPatternPredicate(solver PlanProducer, lhs *plan.Plan, pred ir.PatternPredicate, ctx *Context) (*plan.Plan, error) {
	inner, _, _, err := planPatternExpression(solver, lhs, pred.Pattern, ctx)
	if err != nil {
		return nil, err
	}
	solved := lhs.Solved.WithSelections(pred)
	if pred.Negated {
		return annotate(ctx, plan.NewAntiSemiApply(lhs, inner, solved)), nil
	}
	return annotate(ctx, plan.NewSemiApply(lhs, inner, solved)), nil
}

// PlanPatternComprehension plans a pattern comprehension over the rows
// lhs produces: the sub-pattern is solved per row and the projected
// variable's matches are rolled up into a list bound to the
// comprehension's collection name. The returned comprehension has the
// synthetic names substituted in, so the caller can line the projection
// up with the plan's columns.
func PlanPatternComprehension(solver PlanProducer, lhs *plan.Plan, comp ir.PatternComprehension, ctx *Context) (*plan.Plan, ir.PatternComprehension, error) {
	inner, renamed, mapping, err := planPatternExpression(solver, lhs, comp.Pattern, ctx)
	if err != nil {
		return nil, ir.PatternComprehension{}, err
	}
	projected := comp.Projection
	if synthetic, ok := mapping[projected]; ok {
		projected = synthetic
	}
	rewritten := ir.PatternComprehension{
		Pattern:    renamed,
		Projection: projected,
		Collection: comp.Collection,
	}
	rolled := annotate(ctx, plan.NewRollUpApply(lhs, inner, comp.Collection, projected, lhs.Solved))
	return rolled, rewritten, nil
}
