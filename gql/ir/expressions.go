package ir

import (
	"fmt"
	"strings"
)

// PatternExpression is an inline sub-pattern embedded in an expression
// position: the body of an existential test or of a pattern
// comprehension. Its node variables may be anonymous; the solver names
// them before extracting a sub-query-graph. A free variable is one that
// names a pattern element declared by an enclosing scope rather than by
// the expression itself.
type PatternExpression struct {
	Nodes         []NodePattern
	Relationships []RelationshipPattern
	Predicate     Predicate // optional embedded predicate
}

// Variables returns every variable the expression mentions, sorted.
func (e PatternExpression) Variables() []Variable {
	var vars []Variable
	for _, n := range e.Nodes {
		vars = append(vars, n.Variable)
	}
	for _, r := range e.Relationships {
		vars = append(vars, r.Variable, r.Start, r.End)
	}
	if e.Predicate != nil {
		vars = append(vars, e.Predicate.Dependencies()...)
	}
	return sortedUnique(vars)
}

// FreeVariables returns the variables the expression references but does
// not introduce itself: the named, non-anonymous node endpoints. These
// are the candidates for the sub-graph's argument set.
func (e PatternExpression) FreeVariables() []Variable {
	introduced := make(map[Variable]bool)
	for _, n := range e.Nodes {
		if n.Anonymous {
			introduced[n.Variable] = true
		}
	}
	for _, r := range e.Relationships {
		if r.Anonymous {
			introduced[r.Variable] = true
		}
	}
	var free []Variable
	for _, v := range e.Variables() {
		if !introduced[v] {
			free = append(free, v)
		}
	}
	return sortedUnique(free)
}

// Rename returns a copy of the expression with every occurrence of the
// mapped variables substituted. Used to install synthetic names for
// anonymous elements.
func (e PatternExpression) Rename(mapping map[Variable]Variable) PatternExpression {
	sub := func(v Variable) Variable {
		if renamed, ok := mapping[v]; ok {
			return renamed
		}
		return v
	}
	out := PatternExpression{Predicate: e.Predicate}
	for _, n := range e.Nodes {
		n.Variable = sub(n.Variable)
		out.Nodes = append(out.Nodes, n)
	}
	for _, r := range e.Relationships {
		r.Variable = sub(r.Variable)
		r.Start = sub(r.Start)
		r.End = sub(r.End)
		out.Relationships = append(out.Relationships, r)
	}
	return out
}

func (e PatternExpression) String() string {
	var parts []string
	for _, r := range e.Relationships {
		parts = append(parts, r.String())
	}
	if len(parts) == 0 {
		for _, n := range e.Nodes {
			parts = append(parts, n.String())
		}
	}
	s := strings.Join(parts, ", ")
	if e.Predicate != nil {
		s += " WHERE " + e.Predicate.String()
	}
	return s
}

// PatternComprehension collects a projected variable's values over every
// match of an inline pattern: [ (a)-[:R]->(b) WHERE pred | b ] AS coll.
type PatternComprehension struct {
	Pattern    PatternExpression
	Projection Variable // variable whose matches are collected
	Collection Variable // name the resulting list is bound to
}

func (c PatternComprehension) String() string {
	return fmt.Sprintf("[%s | %s] AS %s", c.Pattern, c.Projection, c.Collection)
}
