package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// RuleBasedSolver is the legacy strategy: a deterministic left-deep
// planner that follows declaration order instead of cost. It exists to
// absorb the shapes the cost-based solver declines (variable-length
// relationships and shortest paths) and makes no use of statistics.
type RuleBasedSolver struct{}

// NewRuleBasedSolver builds the legacy solver.
func NewRuleBasedSolver() *RuleBasedSolver {
	return &RuleBasedSolver{}
}

func (s *RuleBasedSolver) Name() string { return "rule" }

// ProducePlan mirrors the primary contract: a plan, or a fatal error.
func (s *RuleBasedSolver) ProducePlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
	ctx = ctx.withSolver(ctx.SubSolver(s))
	p, err := s.tryPlan(qg, ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &InternalError{QueryGraph: qg}
	}
	return p, nil
}

func (s *RuleBasedSolver) tryPlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
	if err := qg.Validate(); err != nil {
		return nil, err
	}
	if len(qg.Nodes()) == 0 && len(qg.Arguments()) == 0 {
		return nil, nil
	}

	table, err := typePattern(qg, ctx.SemanticTable)
	if err != nil {
		return nil, err
	}
	ctx = ctx.WithTable(table)

	ledger := newLedger(normalizedSelections(qg))
	parts := s.planLeaves(qg, ctx, ledger)

	current := parts[0]
	rest := parts[1:]
	remaining := append([]ir.RelationshipPattern{}, qg.Relationships()...)

	for len(remaining) > 0 || len(rest) > 0 {
		progressed := false
		for ri, rel := range remaining {
			startCovered := current.HasAvailable(rel.Start)
			endCovered := current.HasAvailable(rel.End)
			if !startCovered && !endCovered {
				continue
			}
			if rel.ShortestPath && !(startCovered && endCovered) {
				// Shortest path needs both endpoints; bind the missing
				// one first.
				missing := rel.Start
				if startCovered {
					missing = rel.End
				}
				var merged bool
				current, rest, merged = mergePartCovering(ctx, current, rest, missing)
				if !merged {
					continue
				}
			}
			current = s.expand(ctx, current, rel)
			remaining = append(remaining[:ri], remaining[ri+1:]...)
			progressed = true
			break
		}
		if progressed {
			current, err = applySelections(s, current, ctx, ledger)
			if err != nil {
				return nil, err
			}
			continue
		}
		if len(rest) == 0 {
			// Relationships left but no endpoint reachable: the graph
			// failed validation invariants upstream.
			return nil, &InternalError{QueryGraph: qg}
		}
		current = mergeParts(ctx, current, rest[0])
		rest = rest[1:]
		current, err = applySelections(s, current, ctx, ledger)
		if err != nil {
			return nil, err
		}
	}

	current, err = applySelections(s, current, ctx, ledger)
	if err != nil {
		return nil, err
	}
	return planOptionalMatches(s, current, qg, ctx)
}

// planLeaves emits one leaf per node in declaration order: a label scan
// when the node has a label, a full scan otherwise. No candidates, no
// scoring.
func (s *RuleBasedSolver) planLeaves(qg *ir.QueryGraph, ctx *Context, ledger *predicateLedger) []*plan.Plan {
	var parts []*plan.Plan
	if args := qg.Arguments(); len(args) > 0 {
		argQG := ir.NewQueryGraph().WithArguments(args...)
		parts = append(parts, annotate(ctx, plan.NewArgument(args, argQG)))
	}
	for _, node := range qg.Nodes() {
		if qg.HasArgument(node.Variable) {
			continue
		}
		leaf := ir.NewQueryGraph().WithNodes(node)
		var p *plan.Plan
		if len(node.Labels) > 0 {
			label := node.Labels[0]
			solved := leaf.WithSelections(ir.HasLabel{Node: node.Variable, Label: label})
			p = plan.NewNodeByLabelScan(node.Variable, label, solved, nil)
		} else {
			p = plan.NewAllNodesScan(node.Variable, leaf)
		}
		ledger.markSolvedBy(p)
		parts = append(parts, annotate(ctx, p))
	}
	return parts
}

func (s *RuleBasedSolver) expand(ctx *Context, current *plan.Plan, rel ir.RelationshipPattern) *plan.Plan {
	solved := current.Solved.WithRelationships(rel)
	startCovered := current.HasAvailable(rel.Start)
	endCovered := current.HasAvailable(rel.End)
	switch {
	case rel.ShortestPath:
		return annotate(ctx, plan.NewShortestPath(current, rel, solved))
	case rel.Length != nil && startCovered:
		return annotate(ctx, plan.NewVarLengthExpand(current, rel, rel.Start, solved))
	case rel.Length != nil:
		return annotate(ctx, plan.NewVarLengthExpand(current, rel, rel.End, solved))
	case startCovered && endCovered:
		return annotate(ctx, plan.NewExpandInto(current, rel, solved))
	case startCovered:
		return annotate(ctx, plan.NewExpandAll(current, rel, rel.Start, solved))
	default:
		return annotate(ctx, plan.NewExpandAll(current, rel, rel.End, solved))
	}
}

// mergePartCovering merges the part binding v into current, joining on
// shared variables when there are any.
func mergePartCovering(ctx *Context, current *plan.Plan, rest []*plan.Plan, v ir.Variable) (*plan.Plan, []*plan.Plan, bool) {
	for i, part := range rest {
		if !part.HasAvailable(v) {
			continue
		}
		merged := mergeParts(ctx, current, part)
		return merged, append(append([]*plan.Plan{}, rest[:i]...), rest[i+1:]...), true
	}
	return current, rest, false
}

func mergeParts(ctx *Context, a, b *plan.Plan) *plan.Plan {
	solved := a.Solved.Union(b.Solved)
	if shared := sharedVariables(a, b); len(shared) > 0 {
		return annotate(ctx, plan.NewNodeHashJoin(shared, a, b, solved, nil))
	}
	return annotate(ctx, plan.NewCartesianProduct(a, b, solved))
}
