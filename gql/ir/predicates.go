package ir

import (
	"fmt"
	"sort"
	"strings"
)

// CompareOp is a comparison operator in a property predicate.
type CompareOp uint8

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLTE
	OpGT
	OpGTE
)

func (op CompareOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "<>"
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	default:
		return "?"
	}
}

// Predicate is a boolean condition attached to a query graph. The
// planner only needs each predicate's free variables and a stable
// rendering; evaluation belongs to the execution engine.
type Predicate interface {
	// Dependencies returns the predicate's free variables.
	Dependencies() []Variable
	String() string
}

// HasLabel requires a node to carry a label. A label scan leaf solves
// this predicate without a separate filter.
type HasLabel struct {
	Node  Variable
	Label string
}

func (p HasLabel) Dependencies() []Variable { return []Variable{p.Node} }

func (p HasLabel) String() string { return fmt.Sprintf("%s:%s", p.Node, p.Label) }

// PropertyCompare compares a node or relationship property against a
// constant. Equality comparisons on indexed properties make a pattern
// node eligible for an index seek leaf.
type PropertyCompare struct {
	Entity   Variable
	Property string
	Op       CompareOp
	Value    interface{}
}

func (p PropertyCompare) Dependencies() []Variable { return []Variable{p.Entity} }

func (p PropertyCompare) String() string {
	return fmt.Sprintf("%s.%s %s %v", p.Entity, p.Property, p.Op, p.Value)
}

// VariableEquals requires two bound variables to be equal.
type VariableEquals struct {
	Left  Variable
	Right Variable
}

func (p VariableEquals) Dependencies() []Variable {
	return sortedUnique([]Variable{p.Left, p.Right})
}

func (p VariableEquals) String() string { return fmt.Sprintf("%s = %s", p.Left, p.Right) }

// PatternPredicate is an existential test over an inline sub-pattern,
// optionally negated. The solver plans the sub-pattern as an independent
// query graph and attaches it with a semi-join.
type PatternPredicate struct {
	Pattern PatternExpression
	Negated bool
}

func (p PatternPredicate) Dependencies() []Variable {
	return p.Pattern.FreeVariables()
}

func (p PatternPredicate) String() string {
	if p.Negated {
		return "not exists(" + p.Pattern.String() + ")"
	}
	return "exists(" + p.Pattern.String() + ")"
}

// renderVariables joins variables for display.
func renderVariables(vars []Variable) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = string(v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
