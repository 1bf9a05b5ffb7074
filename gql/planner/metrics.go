package planner

import (
	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
	"github.com/nereiddb/nereid/gql/stats"
)

// Cardinality is an estimated row count.
type Cardinality float64

// Cost is an estimated relative execution expense.
type Cost float64

// CardinalityModel estimates the rows a plan produces.
type CardinalityModel func(p *plan.Plan) Cardinality

// QueryGraphCardinalityModel estimates the rows matching a query graph
// before any plan exists for it.
type QueryGraphCardinalityModel func(qg *ir.QueryGraph) Cardinality

// CostModel estimates the expense of executing a plan.
type CostModel func(p *plan.Plan) Cost

// ModelFactories supplies the pluggable estimation models. The planner
// defines no formulas of its own; anything matching these signatures can
// be injected.
type ModelFactories struct {
	Cardinality           func(provider stats.Provider) CardinalityModel
	Cost                  func(cardinality CardinalityModel) CostModel
	QueryGraphCardinality func(provider stats.Provider) QueryGraphCardinalityModel
}

// Metrics is one planning session's view of the models, each wrapped in
// a memoizing layer. The caches die with the session: statistics may
// differ per transaction, so results never leak across sessions.
type Metrics struct {
	Cardinality           CardinalityModel
	Cost                  CostModel
	QueryGraphCardinality QueryGraphCardinalityModel
}

// MetricsFactory builds per-session Metrics from a statistics provider
// and a set of model factories.
type MetricsFactory struct {
	provider  stats.Provider
	factories ModelFactories
}

// NewMetricsFactory returns a factory over the given provider. Zero
// factory fields fall back to the default models.
func NewMetricsFactory(provider stats.Provider, factories ModelFactories) *MetricsFactory {
	if factories.Cardinality == nil {
		factories.Cardinality = DefaultCardinalityModel
	}
	if factories.Cost == nil {
		factories.Cost = DefaultCostModel
	}
	if factories.QueryGraphCardinality == nil {
		factories.QueryGraphCardinality = DefaultQueryGraphCardinalityModel
	}
	return &MetricsFactory{provider: provider, factories: factories}
}

// NewMetrics returns a fresh Metrics with empty memo caches. The cost
// model reads cardinality through the same memoized instance the session
// exposes, so an estimate is computed at most once per session.
func (f *MetricsFactory) NewMetrics() Metrics {
	cardinality := memoizeCardinality(f.factories.Cardinality(f.provider))
	return Metrics{
		Cardinality:           cardinality,
		Cost:                  memoizeCost(f.factories.Cost(cardinality)),
		QueryGraphCardinality: memoizeQueryGraphCardinality(f.factories.QueryGraphCardinality(f.provider)),
	}
}

// The memo key is the input's value fingerprint, not its identity, so
// structurally equal plans hit the cache. Sessions are single-threaded
// (see the concurrency notes on Planner), so plain maps suffice.

func memoizeCardinality(model CardinalityModel) CardinalityModel {
	cache := make(map[string]Cardinality)
	return func(p *plan.Plan) Cardinality {
		key := p.Digest()
		if c, ok := cache[key]; ok {
			return c
		}
		c := model(p)
		cache[key] = c
		return c
	}
}

func memoizeCost(model CostModel) CostModel {
	cache := make(map[string]Cost)
	return func(p *plan.Plan) Cost {
		key := p.Digest()
		if c, ok := cache[key]; ok {
			return c
		}
		c := model(p)
		cache[key] = c
		return c
	}
}

func memoizeQueryGraphCardinality(model QueryGraphCardinalityModel) QueryGraphCardinalityModel {
	cache := make(map[string]Cardinality)
	return func(qg *ir.QueryGraph) Cardinality {
		key := qg.Digest()
		if c, ok := cache[key]; ok {
			return c
		}
		c := model(qg)
		cache[key] = c
		return c
	}
}
