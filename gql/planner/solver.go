// Package planner turns normalized query graphs into logical plans. The
// primary strategy searches cost-scored candidates; a rule-based legacy
// strategy backs it up behind the fallback orchestrator.
//
// File organization:
//   - planner.go: the Planner facade tying a session together
//   - solver.go: the cost-based query graph solver
//   - legacy.go: the rule-based legacy solver
//   - solve_shared.go: pattern typing, selection application, optionals
//   - pattern_expressions.go: recursive sub-planning of inline patterns
//   - selector.go: deterministic candidate selection
//   - metrics.go / model.go: estimation models and the per-session cache
//   - fallback.go: two-tier escalation between strategies
//   - monitor.go: telemetry sinks
//   - plancache.go: cross-session plan cache
//   - errors.go / options.go: error taxonomy and configuration
//
// Start with Planner.Plan in planner.go to understand the flow.
package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// PlanProducer is one planning strategy: it either returns a plan
// covering the whole query graph or an error per the package taxonomy.
type PlanProducer interface {
	ProducePlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error)
	Name() string
}

// IndexCatalog answers whether an index can serve a seek. This is schema
// metadata, not statistics; counts stay behind the cardinality model.
type IndexCatalog interface {
	IndexExists(label, property string) bool
}

type noIndexes struct{}

func (noIndexes) IndexExists(string, string) bool { return false }

// CostBasedSolver is the primary strategy: per-node leaf candidates,
// greedy cost-scored composition, selections applied as soon as their
// dependencies are bound. It declines variable-length and shortest-path
// shapes with an UnsupportedError.
type CostBasedSolver struct {
	indexes IndexCatalog
}

// NewCostBasedSolver builds the primary solver. A nil catalog means no
// index seeks are generated.
func NewCostBasedSolver(indexes IndexCatalog) *CostBasedSolver {
	if indexes == nil {
		indexes = noIndexes{}
	}
	return &CostBasedSolver{indexes: indexes}
}

func (s *CostBasedSolver) Name() string { return "cost" }

// ProducePlan is total: it returns a plan or fails. A nil result from
// tryPlan means no strategy applied to a graph that reached the solver,
// which is an optimizer defect, not user error.
func (s *CostBasedSolver) ProducePlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
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

// tryPlan is the actual search. It returns nil, nil when it has no
// strategy for the graph's shape.
func (s *CostBasedSolver) tryPlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
	if err := qg.Validate(); err != nil {
		return nil, err
	}
	for _, rel := range qg.Relationships() {
		if rel.Length != nil {
			return nil, unsupported("variable-length relationship", "%s", rel)
		}
		if rel.ShortestPath {
			return nil, unsupported("shortest-path pattern", "%s", rel)
		}
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
	for i := range parts {
		var applyErr error
		parts[i], applyErr = applySelections(s, parts[i], ctx, ledger)
		if applyErr != nil {
			return nil, applyErr
		}
	}

	p, err := s.combine(qg, ctx, parts, ledger)
	if err != nil {
		return nil, err
	}
	return planOptionalMatches(s, p, qg, ctx)
}

// planLeaves produces the best leaf plan per pattern node, plus a single
// argument row when the enclosing scope binds variables.
func (s *CostBasedSolver) planLeaves(qg *ir.QueryGraph, ctx *Context, ledger *predicateLedger) []*plan.Plan {
	var parts []*plan.Plan
	if args := qg.Arguments(); len(args) > 0 {
		argQG := ir.NewQueryGraph().WithArguments(args...)
		parts = append(parts, annotate(ctx, plan.NewArgument(args, argQG)))
	}
	for _, node := range qg.Nodes() {
		if qg.HasArgument(node.Variable) {
			continue
		}
		best, ok := SelectBestPlan(ctx.Selector, s.leafCandidates(node, qg, ctx))
		if !ok {
			continue
		}
		ledger.markSolvedBy(best)
		parts = append(parts, annotate(ctx, best))
	}
	return parts
}

// leafCandidates enumerates the ways to start matching one node: a full
// scan, a scan per label, and an index seek per indexed property
// equality. Hints mark conforming candidates; they never remove the
// others.
func (s *CostBasedSolver) leafCandidates(node ir.NodePattern, qg *ir.QueryGraph, ctx *Context) []*plan.Plan {
	v := node.Variable
	leaf := ir.NewQueryGraph().WithNodes(node)
	cands := []*plan.Plan{annotate(ctx, plan.NewAllNodesScan(v, leaf))}

	for _, label := range node.Labels {
		var scanHint ir.Hint
		for _, h := range qg.Hints() {
			if sh, ok := h.(ir.UsingScanHint); ok && sh.Variable == v && sh.Label == label {
				scanHint = h
			}
		}
		solved := leaf.WithSelections(ir.HasLabel{Node: v, Label: label})
		cands = append(cands, annotate(ctx, plan.NewNodeByLabelScan(v, label, solved, scanHint)))

		for _, pred := range qg.Selections() {
			pc, ok := pred.(ir.PropertyCompare)
			if !ok || pc.Entity != v || pc.Op != ir.OpEQ {
				continue
			}
			var indexHint ir.Hint
			for _, h := range qg.Hints() {
				if ih, ok := h.(ir.UsingIndexHint); ok && ih.Variable == v && ih.Label == label && ih.Property == pc.Property {
					indexHint = h
				}
			}
			if !s.indexes.IndexExists(label, pc.Property) && indexHint == nil {
				continue
			}
			seekSolved := leaf.WithSelections(ir.HasLabel{Node: v, Label: label}, pc)
			cands = append(cands, annotate(ctx,
				plan.NewNodeIndexSeek(v, label, pc.Property, pc.Value, seekSolved, indexHint)))
		}
	}
	return cands
}

// step is one candidate move in the greedy composition loop.
type step struct {
	result   *plan.Plan
	consumed []int // indexes into parts
	relIndex int   // index into remaining, -1 when no relationship consumed
}

// combine greedily composes the leaf parts into a single plan covering
// every relationship: expansions where an endpoint is bound, hash joins
// where parts overlap, cartesian products as the last resort. Every
// round the selector picks the cheapest applicable move, so the search
// is deterministic for a fixed statistics snapshot.
func (s *CostBasedSolver) combine(qg *ir.QueryGraph, ctx *Context, parts []*plan.Plan, ledger *predicateLedger) (*plan.Plan, error) {
	remaining := append([]ir.RelationshipPattern{}, qg.Relationships()...)

	for len(remaining) > 0 || len(parts) > 1 {
		var steps []step

		for ri, rel := range remaining {
			for pi, part := range parts {
				startCovered := part.HasAvailable(rel.Start)
				endCovered := part.HasAvailable(rel.End)
				solved := part.Solved.WithRelationships(rel)
				switch {
				case startCovered && endCovered:
					steps = append(steps, step{
						result:   annotate(ctx, plan.NewExpandInto(part, rel, solved)),
						consumed: []int{pi},
						relIndex: ri,
					})
				case startCovered:
					steps = append(steps, step{
						result:   annotate(ctx, plan.NewExpandAll(part, rel, rel.Start, solved)),
						consumed: []int{pi},
						relIndex: ri,
					})
				case endCovered:
					steps = append(steps, step{
						result:   annotate(ctx, plan.NewExpandAll(part, rel, rel.End, solved)),
						consumed: []int{pi},
						relIndex: ri,
					})
				}
			}
		}

		for i := 0; i < len(parts); i++ {
			for j := i + 1; j < len(parts); j++ {
				shared := sharedVariables(parts[i], parts[j])
				if len(shared) == 0 {
					continue
				}
				solved := parts[i].Solved.Union(parts[j].Solved)
				steps = append(steps, step{
					result:   annotate(ctx, plan.NewNodeHashJoin(shared, parts[i], parts[j], solved, joinHintFor(qg, shared))),
					consumed: []int{i, j},
					relIndex: -1,
				})
			}
		}

		if len(steps) == 0 {
			// Disconnected components with no shared variables left.
			for i := 0; i < len(parts); i++ {
				for j := i + 1; j < len(parts); j++ {
					if len(sharedVariables(parts[i], parts[j])) > 0 {
						continue
					}
					solved := parts[i].Solved.Union(parts[j].Solved)
					steps = append(steps, step{
						result:   annotate(ctx, plan.NewCartesianProduct(parts[i], parts[j], solved)),
						consumed: []int{i, j},
						relIndex: -1,
					})
				}
			}
		}

		best, ok := SelectBest(ctx.Selector, func(st step) *plan.Plan { return st.result }, steps)
		if !ok {
			// Cannot happen while parts and relationships remain; kept
			// as a guard against a malformed graph slipping past
			// Validate.
			return nil, &InternalError{QueryGraph: qg}
		}

		next, err := applySelections(s, best.result, ctx, ledger)
		if err != nil {
			return nil, err
		}

		var kept []*plan.Plan
		for i, part := range parts {
			if !containsInt(best.consumed, i) {
				kept = append(kept, part)
			}
		}
		parts = append(kept, next)
		if best.relIndex >= 0 {
			remaining = append(remaining[:best.relIndex], remaining[best.relIndex+1:]...)
		}
	}

	if len(parts) == 0 {
		return nil, &InternalError{QueryGraph: qg}
	}
	return parts[0], nil
}

func joinHintFor(qg *ir.QueryGraph, joined []ir.Variable) ir.Hint {
	covered := make(map[ir.Variable]bool)
	for _, v := range joined {
		covered[v] = true
	}
	for _, h := range qg.Hints() {
		jh, ok := h.(ir.UsingJoinHint)
		if !ok {
			continue
		}
		all := true
		for _, v := range jh.Variables {
			if !covered[v] {
				all = false
			}
		}
		if all {
			return h
		}
	}
	return nil
}

func sharedVariables(a, b *plan.Plan) []ir.Variable {
	var shared []ir.Variable
	for _, v := range a.Available() {
		if b.HasAvailable(v) {
			shared = append(shared, v)
		}
	}
	return shared
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
