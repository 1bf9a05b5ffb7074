package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
	"github.com/nereiddb/nereid/gql/stats"
)

// Default estimation models. These are deliberately simple independence
// assumption formulas; production deployments inject their own through
// ModelFactories.

const (
	// defaultSelectivity applies to predicates the model knows nothing
	// about.
	defaultSelectivity = 0.75
	// equalitySelectivity applies to property-equality predicates
	// without index statistics.
	equalitySelectivity = 0.1
	// minCardinality keeps estimates away from zero so cost ratios
	// between candidate plans stay meaningful.
	minCardinality = 1.0
)

// Per-row work factors by operator kind. Index lookups pay more per row
// than a streaming scan; hash joins pay to build the table.
const (
	costRowScan    = 1.0
	costRowSeek    = 1.9
	costRowExpand  = 1.5
	costRowFilter  = 0.5
	costRowJoin    = 2.0
	costRowApply   = 1.2
	costRowDefault = 1.0
)

// DefaultCardinalityModel estimates per-operator row counts from raw
// graph statistics.
func DefaultCardinalityModel(provider stats.Provider) CardinalityModel {
	var model CardinalityModel
	model = func(p *plan.Plan) Cardinality {
		if p == nil {
			return minCardinality
		}
		lhs := func() Cardinality { return model(p.LHS) }
		switch p.Op {
		case plan.OpArgument:
			return minCardinality
		case plan.OpAllNodesScan:
			return clamp(provider.NodeCount())
		case plan.OpNodeByLabelScan:
			return clamp(provider.NodesWithLabel(p.Label))
		case plan.OpNodeIndexSeek:
			labeled := provider.NodesWithLabel(p.Label)
			sel := provider.IndexSelectivity(p.Label, p.Property)
			if sel <= 0 {
				sel = equalitySelectivity
			}
			return clamp(labeled * sel)
		case plan.OpExpandAll, plan.OpVarLengthExpand:
			return clamp(float64(lhs()) * averageDegree(provider, p.Relationship))
		case plan.OpExpandInto, plan.OpShortestPath:
			// Both endpoints bound: expect roughly one edge check per row.
			return clamp(float64(lhs()) * equalitySelectivity * averageDegree(provider, p.Relationship))
		case plan.OpSelection:
			sel := defaultSelectivity
			if _, ok := p.Predicate.(ir.PropertyCompare); ok {
				sel = equalitySelectivity
			}
			return clamp(float64(lhs()) * sel)
		case plan.OpCartesianProduct:
			return clamp(float64(lhs()) * float64(model(p.RHS)))
		case plan.OpNodeHashJoin:
			l, r := float64(lhs()), float64(model(p.RHS))
			total := provider.NodeCount()
			if total < 1 {
				total = 1
			}
			return clamp(l * r / total)
		case plan.OpApply:
			return clamp(float64(lhs()) * float64(model(p.RHS)))
		case plan.OpOptional:
			return clamp(float64(lhs()))
		case plan.OpSemiApply, plan.OpAntiSemiApply:
			return clamp(float64(lhs()) * 0.5)
		case plan.OpRollUpApply, plan.OpProjection:
			return clamp(float64(lhs()))
		default:
			return clamp(float64(lhs()))
		}
	}
	return model
}

func averageDegree(provider stats.Provider, rel *ir.RelationshipPattern) float64 {
	nodes := provider.NodeCount()
	if nodes < 1 {
		nodes = 1
	}
	var edges float64
	if rel == nil || len(rel.Types) == 0 {
		edges = provider.RelationshipCount("")
	} else {
		for _, t := range rel.Types {
			edges += provider.RelationshipCount(t)
		}
	}
	degree := edges / nodes
	if degree < equalitySelectivity {
		degree = equalitySelectivity
	}
	return degree
}

// DefaultCostModel charges each operator its children's cost plus a
// per-row factor on the rows flowing through it.
func DefaultCostModel(cardinality CardinalityModel) CostModel {
	var model CostModel
	model = func(p *plan.Plan) Cost {
		if p == nil {
			return 0
		}
		rows := float64(cardinality(p))
		var factor float64
		switch p.Op {
		case plan.OpAllNodesScan, plan.OpNodeByLabelScan:
			factor = costRowScan
		case plan.OpNodeIndexSeek:
			factor = costRowSeek
		case plan.OpExpandAll, plan.OpExpandInto, plan.OpVarLengthExpand, plan.OpShortestPath:
			factor = costRowExpand
		case plan.OpSelection:
			factor = costRowFilter
		case plan.OpCartesianProduct, plan.OpNodeHashJoin:
			factor = costRowJoin
		case plan.OpApply, plan.OpSemiApply, plan.OpAntiSemiApply, plan.OpRollUpApply, plan.OpOptional:
			factor = costRowApply
		default:
			factor = costRowDefault
		}
		return model(p.LHS) + model(p.RHS) + Cost(rows*factor)
	}
	return model
}

// DefaultQueryGraphCardinalityModel estimates a whole graph's match
// count: the product of its pattern cardinalities scaled by predicate
// selectivities.
func DefaultQueryGraphCardinalityModel(provider stats.Provider) QueryGraphCardinalityModel {
	return func(qg *ir.QueryGraph) Cardinality {
		estimate := 1.0
		for _, n := range qg.Nodes() {
			if qg.HasArgument(n.Variable) {
				continue
			}
			if len(n.Labels) == 0 {
				estimate *= provider.NodeCount()
				continue
			}
			smallest := provider.NodesWithLabel(n.Labels[0])
			for _, label := range n.Labels[1:] {
				if c := provider.NodesWithLabel(label); c < smallest {
					smallest = c
				}
			}
			estimate *= smallest
		}
		nodes := provider.NodeCount()
		if nodes < 1 {
			nodes = 1
		}
		for _, r := range qg.Relationships() {
			// A relationship constrains its two endpoints; scale by the
			// chance a random node pair is connected by it.
			var edges float64
			if len(r.Types) == 0 {
				edges = provider.RelationshipCount("")
			} else {
				for _, t := range r.Types {
					edges += provider.RelationshipCount(t)
				}
			}
			estimate *= edges / (nodes * nodes)
		}
		for _, pred := range qg.Selections() {
			switch pred.(type) {
			case ir.PropertyCompare:
				estimate *= equalitySelectivity
			case ir.HasLabel:
				// Label predicates are folded into node estimates.
			default:
				estimate *= defaultSelectivity
			}
		}
		return clamp(estimate)
	}
}

func clamp(estimate float64) Cardinality {
	if estimate < minCardinality {
		return Cardinality(minCardinality)
	}
	return Cardinality(estimate)
}
