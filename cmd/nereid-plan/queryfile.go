package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nereiddb/nereid/gql/ir"
)

// queryFile is the YAML description of a query graph, the CLI's stand-in
// for a parser front end.
type queryFile struct {
	Nodes         []nodeSpec      `yaml:"nodes"`
	Relationships []relSpec       `yaml:"relationships"`
	Selections    []predicateSpec `yaml:"selections"`
	Arguments     []string        `yaml:"arguments"`
	Hints         []hintSpec      `yaml:"hints"`
	Optional      []queryFile     `yaml:"optional"`
}

type nodeSpec struct {
	Var    string   `yaml:"var"`
	Labels []string `yaml:"labels"`
}

type relSpec struct {
	Var          string   `yaml:"var"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Direction    string   `yaml:"direction"`
	Types        []string `yaml:"types"`
	MinLength    *int     `yaml:"min_length"`
	MaxLength    *int     `yaml:"max_length"`
	ShortestPath bool     `yaml:"shortest_path"`
}

type predicateSpec struct {
	HasLabel *struct {
		Node  string `yaml:"node"`
		Label string `yaml:"label"`
	} `yaml:"has_label"`
	Compare *struct {
		Entity   string      `yaml:"entity"`
		Property string      `yaml:"property"`
		Op       string      `yaml:"op"`
		Value    interface{} `yaml:"value"`
	} `yaml:"compare"`
	Equals *struct {
		Left  string `yaml:"left"`
		Right string `yaml:"right"`
	} `yaml:"equals"`
}

type hintSpec struct {
	Index *struct {
		Var      string `yaml:"var"`
		Label    string `yaml:"label"`
		Property string `yaml:"property"`
	} `yaml:"index"`
	Scan *struct {
		Var   string `yaml:"var"`
		Label string `yaml:"label"`
	} `yaml:"scan"`
	Join *struct {
		Vars []string `yaml:"vars"`
	} `yaml:"join"`
}

func loadQueryFile(path string) (*ir.QueryGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading query file %s", path)
	}
	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, errors.Wrapf(err, "parsing query file %s", path)
	}
	qg, err := qf.build()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid query file %s", path)
	}
	if err := qg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid query graph in %s", path)
	}
	return qg, nil
}

func (qf queryFile) build() (*ir.QueryGraph, error) {
	qg := ir.NewQueryGraph()

	for _, n := range qf.Nodes {
		if n.Var == "" {
			return nil, errors.New("node without a var")
		}
		qg = qg.WithNodes(ir.NodePattern{Variable: ir.Variable(n.Var), Labels: n.Labels})
	}

	for _, r := range qf.Relationships {
		if r.Var == "" || r.Start == "" || r.End == "" {
			return nil, errors.New("relationship needs var, start, and end")
		}
		dir, err := parseDirection(r.Direction)
		if err != nil {
			return nil, err
		}
		rel := ir.RelationshipPattern{
			Variable:     ir.Variable(r.Var),
			Start:        ir.Variable(r.Start),
			End:          ir.Variable(r.End),
			Direction:    dir,
			Types:        r.Types,
			ShortestPath: r.ShortestPath,
		}
		if r.MinLength != nil || r.MaxLength != nil {
			length := ir.VarLength{Min: 1}
			if r.MinLength != nil {
				length.Min = *r.MinLength
			}
			if r.MaxLength != nil {
				length.Max = *r.MaxLength
			}
			rel.Length = &length
		}
		qg = qg.WithRelationships(rel)
	}

	for _, p := range qf.Selections {
		pred, err := p.build()
		if err != nil {
			return nil, err
		}
		qg = qg.WithSelections(pred)
	}

	if len(qf.Arguments) > 0 {
		args := make([]ir.Variable, len(qf.Arguments))
		for i, a := range qf.Arguments {
			args[i] = ir.Variable(a)
		}
		qg = qg.WithArguments(args...)
	}

	for _, h := range qf.Hints {
		hint, err := h.build()
		if err != nil {
			return nil, err
		}
		qg = qg.WithHints(hint)
	}

	for _, opt := range qf.Optional {
		sub, err := opt.build()
		if err != nil {
			return nil, err
		}
		qg = qg.WithOptionalMatch(sub)
	}
	return qg, nil
}

func (p predicateSpec) build() (ir.Predicate, error) {
	switch {
	case p.HasLabel != nil:
		return ir.HasLabel{Node: ir.Variable(p.HasLabel.Node), Label: p.HasLabel.Label}, nil
	case p.Compare != nil:
		op, err := parseOp(p.Compare.Op)
		if err != nil {
			return nil, err
		}
		return ir.PropertyCompare{
			Entity:   ir.Variable(p.Compare.Entity),
			Property: p.Compare.Property,
			Op:       op,
			Value:    p.Compare.Value,
		}, nil
	case p.Equals != nil:
		return ir.VariableEquals{
			Left:  ir.Variable(p.Equals.Left),
			Right: ir.Variable(p.Equals.Right),
		}, nil
	default:
		return nil, errors.New("selection needs one of has_label, compare, equals")
	}
}

func (h hintSpec) build() (ir.Hint, error) {
	switch {
	case h.Index != nil:
		return ir.UsingIndexHint{
			Variable: ir.Variable(h.Index.Var),
			Label:    h.Index.Label,
			Property: h.Index.Property,
		}, nil
	case h.Scan != nil:
		return ir.UsingScanHint{Variable: ir.Variable(h.Scan.Var), Label: h.Scan.Label}, nil
	case h.Join != nil:
		vars := make([]ir.Variable, len(h.Join.Vars))
		for i, v := range h.Join.Vars {
			vars[i] = ir.Variable(v)
		}
		return ir.UsingJoinHint{Variables: vars}, nil
	default:
		return nil, errors.New("hint needs one of index, scan, join")
	}
}

func parseDirection(s string) (ir.Direction, error) {
	switch s {
	case "", "outgoing", "->":
		return ir.DirectionOutgoing, nil
	case "incoming", "<-":
		return ir.DirectionIncoming, nil
	case "both", "--":
		return ir.DirectionBoth, nil
	default:
		return 0, errors.Errorf("unknown direction %q", s)
	}
}

func parseOp(s string) (ir.CompareOp, error) {
	switch s {
	case "", "eq", "=":
		return ir.OpEQ, nil
	case "ne", "<>":
		return ir.OpNE, nil
	case "lt", "<":
		return ir.OpLT, nil
	case "le", "<=":
		return ir.OpLTE, nil
	case "gt", ">":
		return ir.OpGT, nil
	case "ge", ">=":
		return ir.OpGTE, nil
	default:
		return 0, errors.Errorf("unknown comparison operator %q", s)
	}
}
