// Package ir holds the normalized intermediate representation the planner
// consumes: query graphs, pattern elements, predicates, and hints. Values
// in this package are immutable once constructed; every transformation
// returns a new instance.
//
// File organization:
//   - querygraph.go: QueryGraph and its pattern elements
//   - predicates.go: boolean predicates attached to a query graph
//   - expressions.go: inline pattern expressions and comprehensions
//   - hints.go: planning directives (index/scan/join preferences)
package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Variable identifies a pattern element or argument within one query
// graph's scope.
type Variable string

// Direction of a relationship pattern, read from its start node.
type Direction uint8

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionOutgoing:
		return "->"
	case DirectionIncoming:
		return "<-"
	default:
		return "--"
	}
}

// NodePattern is a node to match, optionally restricted to labels.
// Anonymous marks elements the query text never named; the solver assigns
// synthetic names to them before planning a sub-pattern.
type NodePattern struct {
	Variable  Variable
	Labels    []string
	Anonymous bool
}

func (n NodePattern) String() string {
	if len(n.Labels) == 0 {
		return fmt.Sprintf("(%s)", n.Variable)
	}
	return fmt.Sprintf("(%s:%s)", n.Variable, strings.Join(n.Labels, ":"))
}

// VarLength bounds a variable-length relationship. Max 0 means unbounded.
type VarLength struct {
	Min int
	Max int
}

// RelationshipPattern is a relationship to match between two node
// variables.
type RelationshipPattern struct {
	Variable     Variable
	Start        Variable
	End          Variable
	Direction    Direction
	Types        []string
	Length       *VarLength // nil for a single hop
	ShortestPath bool
	Anonymous    bool
}

// IsSimple reports whether the relationship is a plain single hop, the
// only shape the cost-based strategy handles.
func (r RelationshipPattern) IsSimple() bool {
	return r.Length == nil && !r.ShortestPath
}

// Other returns the endpoint opposite v.
func (r RelationshipPattern) Other(v Variable) (Variable, bool) {
	switch v {
	case r.Start:
		return r.End, true
	case r.End:
		return r.Start, true
	}
	return "", false
}

// HasEndpoint reports whether v is one of the relationship's endpoints.
func (r RelationshipPattern) HasEndpoint(v Variable) bool {
	return r.Start == v || r.End == v
}

func (r RelationshipPattern) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("(%s)", r.Start))
	if r.Direction == DirectionIncoming {
		b.WriteString("<-")
	} else {
		b.WriteString("-")
	}
	b.WriteString(fmt.Sprintf("[%s", r.Variable))
	if len(r.Types) > 0 {
		b.WriteString(":" + strings.Join(r.Types, "|"))
	}
	if r.Length != nil {
		if r.Length.Max == 0 {
			b.WriteString(fmt.Sprintf("*%d..", r.Length.Min))
		} else {
			b.WriteString(fmt.Sprintf("*%d..%d", r.Length.Min, r.Length.Max))
		}
	}
	b.WriteString("]")
	if r.Direction == DirectionOutgoing {
		b.WriteString("->")
	} else {
		b.WriteString("-")
	}
	b.WriteString(fmt.Sprintf("(%s)", r.End))
	if r.ShortestPath {
		return "shortestPath(" + b.String() + ")"
	}
	return b.String()
}

// QueryGraph is one planning unit: the pattern to match, the predicates
// to satisfy, the variables bound by an enclosing scope, the planning
// hints, and any optional-match sub-graphs. Constructed once and never
// mutated; the With* methods return new instances sharing the untouched
// slices.
type QueryGraph struct {
	nodes         []NodePattern
	relationships []RelationshipPattern
	selections    []Predicate
	arguments     []Variable
	hints         []Hint
	optional      []*QueryGraph
}

// NewQueryGraph returns an empty query graph.
func NewQueryGraph() *QueryGraph {
	return &QueryGraph{}
}

func (qg *QueryGraph) clone() *QueryGraph {
	cp := *qg
	return &cp
}

// WithNodes returns a graph with the given node patterns appended.
func (qg *QueryGraph) WithNodes(nodes ...NodePattern) *QueryGraph {
	cp := qg.clone()
	cp.nodes = append(append([]NodePattern{}, qg.nodes...), nodes...)
	return cp
}

// WithRelationships returns a graph with the given relationship patterns
// appended.
func (qg *QueryGraph) WithRelationships(rels ...RelationshipPattern) *QueryGraph {
	cp := qg.clone()
	cp.relationships = append(append([]RelationshipPattern{}, qg.relationships...), rels...)
	return cp
}

// WithSelections returns a graph with the given predicates appended.
func (qg *QueryGraph) WithSelections(preds ...Predicate) *QueryGraph {
	cp := qg.clone()
	cp.selections = append(append([]Predicate{}, qg.selections...), preds...)
	return cp
}

// WithArguments returns a graph whose argument set is exactly args.
func (qg *QueryGraph) WithArguments(args ...Variable) *QueryGraph {
	cp := qg.clone()
	cp.arguments = sortedUnique(args)
	return cp
}

// WithHints returns a graph with the given hints appended.
func (qg *QueryGraph) WithHints(hints ...Hint) *QueryGraph {
	cp := qg.clone()
	cp.hints = append(append([]Hint{}, qg.hints...), hints...)
	return cp
}

// WithOptionalMatch returns a graph with an optional sub-graph appended.
func (qg *QueryGraph) WithOptionalMatch(sub *QueryGraph) *QueryGraph {
	cp := qg.clone()
	cp.optional = append(append([]*QueryGraph{}, qg.optional...), sub)
	return cp
}

func (qg *QueryGraph) Nodes() []NodePattern                  { return qg.nodes }
func (qg *QueryGraph) Relationships() []RelationshipPattern  { return qg.relationships }
func (qg *QueryGraph) Selections() []Predicate               { return qg.selections }
func (qg *QueryGraph) Arguments() []Variable                 { return qg.arguments }
func (qg *QueryGraph) Hints() []Hint                         { return qg.hints }
func (qg *QueryGraph) OptionalMatches() []*QueryGraph        { return qg.optional }

// Node returns the node pattern for v, if present.
func (qg *QueryGraph) Node(v Variable) (NodePattern, bool) {
	for _, n := range qg.nodes {
		if n.Variable == v {
			return n, true
		}
	}
	return NodePattern{}, false
}

// HasArgument reports whether v is bound by the enclosing scope.
func (qg *QueryGraph) HasArgument(v Variable) bool {
	for _, a := range qg.arguments {
		if a == v {
			return true
		}
	}
	return false
}

// PatternVariables returns the variables bound by the graph's own
// pattern elements, sorted.
func (qg *QueryGraph) PatternVariables() []Variable {
	var vars []Variable
	for _, n := range qg.nodes {
		vars = append(vars, n.Variable)
	}
	for _, r := range qg.relationships {
		vars = append(vars, r.Variable)
	}
	return sortedUnique(vars)
}

// AllVariables returns every variable in scope inside the graph: pattern
// variables plus arguments, sorted.
func (qg *QueryGraph) AllVariables() []Variable {
	return sortedUnique(append(qg.PatternVariables(), qg.arguments...))
}

// Union merges two graphs into one covering both patterns, selections,
// hints, and arguments. Used when composing partial plans.
func (qg *QueryGraph) Union(other *QueryGraph) *QueryGraph {
	merged := NewQueryGraph()
	merged.nodes = uniqueNodes(append(append([]NodePattern{}, qg.nodes...), other.nodes...))
	merged.relationships = uniqueRels(append(append([]RelationshipPattern{}, qg.relationships...), other.relationships...))
	merged.selections = uniquePredicates(append(append([]Predicate{}, qg.selections...), other.selections...))
	merged.arguments = sortedUnique(append(append([]Variable{}, qg.arguments...), other.arguments...))
	merged.hints = uniqueHints(append(append([]Hint{}, qg.hints...), other.hints...))
	merged.optional = append(append([]*QueryGraph{}, qg.optional...), other.optional...)
	return merged
}

// Validate checks the graph's scoping invariants: every selection's free
// variables must be in scope, and every relationship endpoint must be a
// known node or argument.
func (qg *QueryGraph) Validate() error {
	inScope := make(map[Variable]bool)
	for _, v := range qg.AllVariables() {
		inScope[v] = true
	}
	for _, r := range qg.relationships {
		if !inScope[r.Start] {
			return fmt.Errorf("relationship %s starts at undeclared node %q", r.Variable, r.Start)
		}
		if !inScope[r.End] {
			return fmt.Errorf("relationship %s ends at undeclared node %q", r.Variable, r.End)
		}
	}
	for _, pred := range qg.selections {
		for _, dep := range pred.Dependencies() {
			if !inScope[dep] {
				return fmt.Errorf("predicate %s references out-of-scope variable %q", pred, dep)
			}
		}
	}
	return nil
}

// Digest returns a deterministic fingerprint of the graph. Structurally
// equal graphs produce equal digests regardless of construction order.
func (qg *QueryGraph) Digest() string {
	var parts []string
	for _, n := range qg.nodes {
		parts = append(parts, "n:"+n.String())
	}
	for _, r := range qg.relationships {
		parts = append(parts, "r:"+r.String())
	}
	for _, p := range qg.selections {
		parts = append(parts, "p:"+p.String())
	}
	for _, h := range qg.hints {
		parts = append(parts, "h:"+h.String())
	}
	sort.Strings(parts)
	var args []string
	for _, a := range qg.arguments {
		args = append(args, string(a))
	}
	var opts []string
	for _, o := range qg.optional {
		opts = append(opts, o.Digest())
	}
	sort.Strings(opts)
	return fmt.Sprintf("QG{%s|args:%s|opt:%s}",
		strings.Join(parts, ";"), strings.Join(args, ","), strings.Join(opts, ";"))
}

func (qg *QueryGraph) String() string {
	return qg.Digest()
}

func sortedUnique(vars []Variable) []Variable {
	seen := make(map[Variable]bool)
	var out []Variable
	for _, v := range vars {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func uniqueNodes(nodes []NodePattern) []NodePattern {
	seen := make(map[Variable]bool)
	var out []NodePattern
	for _, n := range nodes {
		if seen[n.Variable] {
			continue
		}
		seen[n.Variable] = true
		out = append(out, n)
	}
	return out
}

func uniqueRels(rels []RelationshipPattern) []RelationshipPattern {
	seen := make(map[Variable]bool)
	var out []RelationshipPattern
	for _, r := range rels {
		if seen[r.Variable] {
			continue
		}
		seen[r.Variable] = true
		out = append(out, r)
	}
	return out
}

func uniquePredicates(preds []Predicate) []Predicate {
	seen := make(map[string]bool)
	var out []Predicate
	for _, p := range preds {
		key := p.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func uniqueHints(hints []Hint) []Hint {
	seen := make(map[string]bool)
	var out []Hint
	for _, h := range hints {
		key := h.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}
