// Package plan defines the logical plan tree the planner produces: an
// immutable operator tree annotated with the sub-graph each node solves,
// the symbols it makes available, and its estimated cardinality.
//
// File organization:
//   - plan.go: the Plan node, operators, and constructors
//   - render.go: human-readable rendering of plan trees
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nereiddb/nereid/gql/ir"
)

// Operator tags a plan node.
type Operator uint8

const (
	OpArgument Operator = iota
	OpAllNodesScan
	OpNodeByLabelScan
	OpNodeIndexSeek
	OpExpandAll
	OpExpandInto
	OpVarLengthExpand
	OpShortestPath
	OpSelection
	OpCartesianProduct
	OpNodeHashJoin
	OpApply
	OpOptional
	OpSemiApply
	OpAntiSemiApply
	OpRollUpApply
	OpProjection
)

var operatorNames = map[Operator]string{
	OpArgument:         "Argument",
	OpAllNodesScan:     "AllNodesScan",
	OpNodeByLabelScan:  "NodeByLabelScan",
	OpNodeIndexSeek:    "NodeIndexSeek",
	OpExpandAll:        "Expand(All)",
	OpExpandInto:       "Expand(Into)",
	OpVarLengthExpand:  "VarLengthExpand",
	OpShortestPath:     "ShortestPath",
	OpSelection:        "Selection",
	OpCartesianProduct: "CartesianProduct",
	OpNodeHashJoin:     "NodeHashJoin",
	OpApply:            "Apply",
	OpOptional:         "Optional",
	OpSemiApply:        "SemiApply",
	OpAntiSemiApply:    "AntiSemiApply",
	OpRollUpApply:      "RollUpApply",
	OpProjection:       "Projection",
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", op)
}

// Plan is one node of a logical plan tree. Plans are built through the
// constructors below, which derive the available-symbol set from the
// children plus whatever the operator binds, and are not modified after
// construction. EstimatedCardinality is filled in by the solver once,
// before the plan is exposed.
type Plan struct {
	Op  Operator
	LHS *Plan
	RHS *Plan

	// Solved is the sub-graph this plan claims to answer.
	Solved *ir.QueryGraph

	// Operator parameters; which fields are meaningful depends on Op.
	Variable     ir.Variable              // scanned/sought node
	Variables    []ir.Variable            // argument row / join nodes
	Label        string                   // label scan, index seek
	Property     string                   // index seek
	Value        interface{}              // index seek key
	Relationship *ir.RelationshipPattern  // expands
	Predicate    ir.Predicate             // selection
	Collection   ir.Variable              // rollup output list
	Projected    ir.Variable              // rollup collected variable

	// SolvedHint records a hint this node satisfies, if any.
	SolvedHint ir.Hint

	// EstimatedCardinality is the expected number of rows this node
	// produces, attached by the planning session that built the tree.
	EstimatedCardinality float64

	available []ir.Variable
	digest    string
}

// Available returns the symbols visible above this plan node: the union
// of the children's symbols and those the operator binds, sorted.
func (p *Plan) Available() []ir.Variable {
	return p.available
}

// HasAvailable reports whether v is visible above this node.
func (p *Plan) HasAvailable(v ir.Variable) bool {
	for _, a := range p.available {
		if a == v {
			return true
		}
	}
	return false
}

// SolvedHints returns every hint satisfied anywhere in the tree.
func (p *Plan) SolvedHints() []ir.Hint {
	if p == nil {
		return nil
	}
	var hints []ir.Hint
	hints = append(hints, p.LHS.SolvedHints()...)
	hints = append(hints, p.RHS.SolvedHints()...)
	if p.SolvedHint != nil {
		hints = append(hints, p.SolvedHint)
	}
	return hints
}

// Digest returns a deterministic fingerprint of the tree, usable as a
// by-value cache key: structurally equal plans share a digest.
func (p *Plan) Digest() string {
	if p == nil {
		return "-"
	}
	if p.digest == "" {
		params := []string{
			string(p.Variable), p.Label, p.Property, fmt.Sprintf("%v", p.Value),
			renderVars(p.Variables), string(p.Collection), string(p.Projected),
		}
		if p.Relationship != nil {
			params = append(params, p.Relationship.String())
		}
		if p.Predicate != nil {
			params = append(params, p.Predicate.String())
		}
		p.digest = fmt.Sprintf("%s(%s)[%s|%s]",
			p.Op, strings.Join(params, ","), p.LHS.Digest(), p.RHS.Digest())
	}
	return p.digest
}

func derive(p *Plan, bound ...ir.Variable) *Plan {
	seen := make(map[ir.Variable]bool)
	var vars []ir.Variable
	add := func(vs []ir.Variable) {
		for _, v := range vs {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			vars = append(vars, v)
		}
	}
	if p.LHS != nil {
		add(p.LHS.available)
	}
	if p.RHS != nil && p.Op != OpSemiApply && p.Op != OpAntiSemiApply && p.Op != OpRollUpApply {
		add(p.RHS.available)
	}
	add(bound)
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	p.available = vars
	return p
}

// NewArgument produces the rows already bound by the enclosing scope.
func NewArgument(vars []ir.Variable, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpArgument, Variables: vars, Solved: solved}, vars...)
}

// NewAllNodesScan scans every node in the store.
func NewAllNodesScan(v ir.Variable, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpAllNodesScan, Variable: v, Solved: solved}, v)
}

// NewNodeByLabelScan scans the nodes carrying a label.
func NewNodeByLabelScan(v ir.Variable, label string, solved *ir.QueryGraph, hint ir.Hint) *Plan {
	return derive(&Plan{Op: OpNodeByLabelScan, Variable: v, Label: label, Solved: solved, SolvedHint: hint}, v)
}

// NewNodeIndexSeek looks a node up through an index on label.property.
func NewNodeIndexSeek(v ir.Variable, label, property string, value interface{}, solved *ir.QueryGraph, hint ir.Hint) *Plan {
	return derive(&Plan{
		Op: OpNodeIndexSeek, Variable: v, Label: label, Property: property,
		Value: value, Solved: solved, SolvedHint: hint,
	}, v)
}

// NewExpandAll traverses a relationship from a bound endpoint, binding
// the relationship and the far node.
func NewExpandAll(lhs *Plan, rel ir.RelationshipPattern, from ir.Variable, solved *ir.QueryGraph) *Plan {
	to, _ := rel.Other(from)
	r := rel
	return derive(&Plan{Op: OpExpandAll, LHS: lhs, Relationship: &r, Solved: solved}, rel.Variable, to)
}

// NewExpandInto traverses a relationship whose both endpoints are
// already bound, binding only the relationship.
func NewExpandInto(lhs *Plan, rel ir.RelationshipPattern, solved *ir.QueryGraph) *Plan {
	r := rel
	return derive(&Plan{Op: OpExpandInto, LHS: lhs, Relationship: &r, Solved: solved}, rel.Variable)
}

// NewVarLengthExpand traverses a variable-length relationship.
func NewVarLengthExpand(lhs *Plan, rel ir.RelationshipPattern, from ir.Variable, solved *ir.QueryGraph) *Plan {
	to, _ := rel.Other(from)
	r := rel
	return derive(&Plan{Op: OpVarLengthExpand, LHS: lhs, Relationship: &r, Solved: solved}, rel.Variable, to)
}

// NewShortestPath finds a shortest path between two bound endpoints.
func NewShortestPath(lhs *Plan, rel ir.RelationshipPattern, solved *ir.QueryGraph) *Plan {
	r := rel
	return derive(&Plan{Op: OpShortestPath, LHS: lhs, Relationship: &r, Solved: solved}, rel.Variable)
}

// NewSelection filters the child's rows by a predicate.
func NewSelection(pred ir.Predicate, lhs *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpSelection, LHS: lhs, Predicate: pred, Solved: solved})
}

// NewCartesianProduct combines two disconnected plans.
func NewCartesianProduct(lhs, rhs *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpCartesianProduct, LHS: lhs, RHS: rhs, Solved: solved})
}

// NewNodeHashJoin joins two plans on shared node variables.
func NewNodeHashJoin(nodes []ir.Variable, lhs, rhs *Plan, solved *ir.QueryGraph, hint ir.Hint) *Plan {
	return derive(&Plan{Op: OpNodeHashJoin, Variables: nodes, LHS: lhs, RHS: rhs, Solved: solved, SolvedHint: hint})
}

// NewApply runs the RHS once per LHS row, with the LHS row as argument.
func NewApply(lhs, rhs *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpApply, LHS: lhs, RHS: rhs, Solved: solved})
}

// NewOptional pads its child with a single null row when it is empty.
func NewOptional(inner *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpOptional, LHS: inner, Solved: solved})
}

// NewSemiApply keeps LHS rows for which the RHS produces at least one
// row. RHS symbols stay hidden from the outer scope.
func NewSemiApply(lhs, rhs *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpSemiApply, LHS: lhs, RHS: rhs, Solved: solved})
}

// NewAntiSemiApply keeps LHS rows for which the RHS produces no rows.
func NewAntiSemiApply(lhs, rhs *Plan, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{Op: OpAntiSemiApply, LHS: lhs, RHS: rhs, Solved: solved})
}

// NewRollUpApply collects, per LHS row, the projected variable over all
// RHS rows into a list bound to collection. Only the collection escapes;
// the RHS's own symbols stay hidden.
func NewRollUpApply(lhs, rhs *Plan, collection, projected ir.Variable, solved *ir.QueryGraph) *Plan {
	return derive(&Plan{
		Op: OpRollUpApply, LHS: lhs, RHS: rhs,
		Collection: collection, Projected: projected, Solved: solved,
	}, collection)
}

// NewProjection narrows the child's visible symbols.
func NewProjection(lhs *Plan, keep []ir.Variable, solved *ir.QueryGraph) *Plan {
	p := &Plan{Op: OpProjection, LHS: lhs, Variables: keep, Solved: solved}
	seen := make(map[ir.Variable]bool)
	for _, v := range keep {
		seen[v] = true
	}
	var vars []ir.Variable
	for _, v := range lhs.available {
		if seen[v] {
			vars = append(vars, v)
		}
	}
	p.available = vars
	return p
}

func renderVars(vars []ir.Variable) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
