package plan

import (
	"fmt"
	"strings"
)

// String returns a human-readable rendering of the plan tree, children
// indented below their parent.
func (p *Plan) String() string {
	var sb strings.Builder
	p.render(&sb, 0)
	return sb.String()
}

func (p *Plan) render(sb *strings.Builder, depth int) {
	if p == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent)
	sb.WriteString(p.Describe())
	sb.WriteString(fmt.Sprintf("  [rows=%.1f]", p.EstimatedCardinality))
	sb.WriteString("\n")
	p.LHS.render(sb, depth+1)
	p.RHS.render(sb, depth+1)
}

// Describe returns a one-line description of this node alone.
func (p *Plan) Describe() string {
	switch p.Op {
	case OpArgument:
		return fmt.Sprintf("Argument(%s)", renderVars(p.Variables))
	case OpAllNodesScan:
		return fmt.Sprintf("AllNodesScan(%s)", p.Variable)
	case OpNodeByLabelScan:
		return fmt.Sprintf("NodeByLabelScan(%s:%s)", p.Variable, p.Label)
	case OpNodeIndexSeek:
		return fmt.Sprintf("NodeIndexSeek(%s:%s(%s = %v))", p.Variable, p.Label, p.Property, p.Value)
	case OpExpandAll, OpExpandInto, OpVarLengthExpand, OpShortestPath:
		return fmt.Sprintf("%s(%s)", p.Op, p.Relationship)
	case OpSelection:
		return fmt.Sprintf("Selection(%s)", p.Predicate)
	case OpNodeHashJoin:
		return fmt.Sprintf("NodeHashJoin(%s)", renderVars(p.Variables))
	case OpRollUpApply:
		return fmt.Sprintf("RollUpApply(%s <- collect(%s))", p.Collection, p.Projected)
	case OpProjection:
		return fmt.Sprintf("Projection(%s)", renderVars(p.Variables))
	default:
		return p.Op.String()
	}
}

// Operators flattens the tree in pre-order, for table rendering.
func (p *Plan) Operators() []*Plan {
	if p == nil {
		return nil
	}
	out := []*Plan{p}
	out = append(out, p.LHS.Operators()...)
	out = append(out, p.RHS.Operators()...)
	return out
}
