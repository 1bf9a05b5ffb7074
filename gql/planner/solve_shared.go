package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
	"github.com/nereiddb/nereid/gql/symbols"
)

// Helpers shared by the cost-based and legacy solvers: pattern typing,
// the applied-predicate ledger, selection placement, and optional-match
// planning.

// typePattern folds the graph's pattern variables into the symbol
// table, verifying any pre-existing binding against the type the
// pattern implies. Typing errors are user errors and surface
// immediately.
func typePattern(qg *ir.QueryGraph, table symbols.Table) (symbols.Table, error) {
	for _, node := range qg.Nodes() {
		name := string(node.Variable)
		if _, ok := table.Lookup(name); ok {
			if _, err := table.EvaluateType(name, symbols.Node); err != nil {
				return table, err
			}
			continue
		}
		table = table.Add(name, symbols.Node)
	}
	for _, rel := range qg.Relationships() {
		name := string(rel.Variable)
		if _, ok := table.Lookup(name); ok {
			if _, err := table.EvaluateType(name, symbols.Relationship); err != nil {
				return table, err
			}
			continue
		}
		table = table.Add(name, symbols.Relationship)
	}
	return table, nil
}

// normalizedSelections returns the graph's predicates plus a HasLabel
// predicate per node label, so label constraints are filtered wherever a
// leaf did not already solve them.
func normalizedSelections(qg *ir.QueryGraph) []ir.Predicate {
	preds := append([]ir.Predicate{}, qg.Selections()...)
	seen := make(map[string]bool)
	for _, p := range preds {
		seen[p.String()] = true
	}
	for _, node := range qg.Nodes() {
		for _, label := range node.Labels {
			hl := ir.HasLabel{Node: node.Variable, Label: label}
			if seen[hl.String()] {
				continue
			}
			seen[hl.String()] = true
			preds = append(preds, hl)
		}
	}
	return preds
}

// predicateLedger tracks which predicates the plan under construction
// already satisfies, either through a leaf that solves them or through
// an explicit Selection.
type predicateLedger struct {
	pending []ir.Predicate
	applied map[string]bool
}

func newLedger(preds []ir.Predicate) *predicateLedger {
	return &predicateLedger{pending: preds, applied: make(map[string]bool)}
}

func (l *predicateLedger) markSolvedBy(p *plan.Plan) {
	if p == nil || p.Solved == nil {
		return
	}
	for _, pred := range p.Solved.Selections() {
		l.applied[pred.String()] = true
	}
}

func (l *predicateLedger) mark(pred ir.Predicate) {
	l.applied[pred.String()] = true
}

func (l *predicateLedger) unapplied() []ir.Predicate {
	var out []ir.Predicate
	for _, pred := range l.pending {
		if !l.applied[pred.String()] {
			out = append(out, pred)
		}
	}
	return out
}

// applySelections wraps p in a Selection for every pending predicate
// whose dependencies are bound, and in a semi-join for every applicable
// pattern predicate. Predicates attach at the earliest point their
// variables exist.
func applySelections(solver PlanProducer, p *plan.Plan, ctx *Context, ledger *predicateLedger) (*plan.Plan, error) {
	for _, pred := range ledger.unapplied() {
		if !allAvailable(p, pred.Dependencies()) {
			continue
		}
		if pp, ok := pred.(ir.PatternPredicate); ok {
			next, err := planPatternPredicate(solver, p, pp, ctx)
			if err != nil {
				return nil, err
			}
			p = next
			ledger.mark(pred)
			continue
		}
		p = annotate(ctx, plan.NewSelection(pred, p, p.Solved.WithSelections(pred)))
		ledger.mark(pred)
	}
	return p, nil
}

func allAvailable(p *plan.Plan, vars []ir.Variable) bool {
	for _, v := range vars {
		if !p.HasAvailable(v) {
			return false
		}
	}
	return true
}

// planOptionalMatches solves each optional sub-graph against the
// variables the compulsory plan binds and attaches it with
// Apply/Optional, so missing matches pad with nulls instead of dropping
// rows.
func planOptionalMatches(solver PlanProducer, p *plan.Plan, qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
	for _, opt := range qg.OptionalMatches() {
		args := intersectVars(opt.AllVariables(), p.Available())
		sub := opt.WithArguments(args...)
		subCtx := ctx.WithArguments(args...)
		inner, err := ctx.SubSolver(solver).ProducePlan(sub, subCtx)
		if err != nil {
			return nil, err
		}
		optional := annotate(ctx, plan.NewOptional(inner, inner.Solved))
		p = annotate(ctx, plan.NewApply(p, optional, p.Solved.Union(inner.Solved)))
	}
	return p, nil
}

// annotate attaches the session's cardinality estimate to a freshly
// built node.
func annotate(ctx *Context, p *plan.Plan) *plan.Plan {
	p.EstimatedCardinality = float64(ctx.Metrics.Cardinality(p))
	return p
}

func intersectVars(a, b []ir.Variable) []ir.Variable {
	inB := make(map[ir.Variable]bool)
	for _, v := range b {
		inB[v] = true
	}
	var out []ir.Variable
	for _, v := range a {
		if inB[v] {
			out = append(out, v)
		}
	}
	return out
}
