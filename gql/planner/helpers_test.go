package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/stats"
	"github.com/nereiddb/nereid/gql/symbols"
)

// Shared fixtures for the planner tests: a small social graph with an
// indexed Person.name property.

func testProvider() *stats.InMemory {
	p := stats.NewInMemory(10000)
	p.SetLabelCount("Person", 2000)
	p.SetLabelCount("City", 50)
	p.SetRelationshipCount("KNOWS", 30000)
	p.SetRelationshipCount("LIVES_IN", 2000)
	p.SetIndex("Person", "name", 0.001)
	return p
}

func testContext(provider stats.Provider) *Context {
	metrics := NewMetricsFactory(provider, ModelFactories{}).NewMetrics()
	return NewContext(metrics, symbols.NewTable(), nil)
}

func person(v ir.Variable) ir.NodePattern {
	return ir.NodePattern{Variable: v, Labels: []string{"Person"}}
}

func anyNode(v ir.Variable) ir.NodePattern {
	return ir.NodePattern{Variable: v}
}

func knows(v, start, end ir.Variable) ir.RelationshipPattern {
	return ir.RelationshipPattern{
		Variable: v, Start: start, End: end,
		Direction: ir.DirectionOutgoing, Types: []string{"KNOWS"},
	}
}
