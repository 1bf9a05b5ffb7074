package planner

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
	"github.com/nereiddb/nereid/gql/stats"
	"github.com/nereiddb/nereid/gql/symbols"
)

// Config assembles a Planner. Provider is required; everything else has
// a working default.
type Config struct {
	// Provider supplies the graph statistics the estimation models read.
	Provider stats.Provider

	// Indexes answers index-existence questions for seek candidates.
	// When nil and Provider implements IndexCatalog, the provider is
	// used; otherwise no seeks are generated.
	Indexes IndexCatalog

	// Models overrides the default estimation models.
	Models ModelFactories

	// Monitor receives planning telemetry. Nil discards it.
	Monitor Monitor

	// Logger backs the warn fallback policy and selection tracing. Nil
	// means zap.NewNop.
	Logger *zap.Logger

	// Options is the runtime configuration. The zero value is replaced
	// with DefaultOptions.
	Options Options
}

// Planner is the package entry point: it owns the cross-session plan
// cache and the strategy chain, and spins up an isolated session per
// Plan call. Plan is safe for concurrent use; everything below it is
// session-private.
type Planner struct {
	provider stats.Provider
	metrics  *MetricsFactory
	producer PlanProducer
	cache    *PlanCache
	logger   *zap.Logger
	options  Options
}

// New builds a Planner from cfg.
func New(cfg Config) (*Planner, error) {
	if cfg.Provider == nil {
		return nil, errors.New("planner: statistics provider is required")
	}
	opts := cfg.Options
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	indexes := cfg.Indexes
	if indexes == nil {
		if cat, ok := cfg.Provider.(IndexCatalog); ok {
			indexes = cat
		}
	}

	notify := SilentNotifier
	if opts.Fallback == FallbackWarn {
		notify = WarnNotifier(logger)
	}

	var cache *PlanCache
	if opts.CacheEnabled {
		cache = NewPlanCache(opts.CacheSize, time.Duration(opts.CacheTTL))
	}

	return &Planner{
		provider: cfg.Provider,
		metrics:  NewMetricsFactory(cfg.Provider, cfg.Models),
		producer: NewFallbackPlanner(NewCostBasedSolver(indexes), NewRuleBasedSolver(), cfg.Monitor, notify),
		cache:    cache,
		logger:   logger,
		options:  opts,
	}, nil
}

// Plan produces a logical plan for qg with the variables in table
// already typed. Each call is an independent session: fresh memo
// caches, a fresh session id, and a statistics view pinned to the
// provider's current snapshot.
func (pl *Planner) Plan(qg *ir.QueryGraph, table symbols.Table) (*plan.Plan, error) {
	snapshot := pl.provider.SnapshotID()
	if cached, ok := pl.cache.Get(qg, pl.options, snapshot); ok {
		return cached, nil
	}

	metrics := pl.metrics.NewMetrics()
	var trace Trace
	if pl.options.Trace {
		trace = pl.logger.Sugar().Debugf
	}
	selector := NewCandidateSelector(metrics.Cost, trace)

	ctx := NewContext(metrics, table, selector)
	pl.logger.Debug("planning session started",
		zap.String("session", ctx.SessionID),
		zap.String("query", qg.Digest()),
		zap.String("stats_snapshot", snapshot))

	p, err := pl.producer.ProducePlan(qg, ctx)
	if err != nil {
		return nil, err
	}

	pl.cache.Set(qg, pl.options, snapshot, p)
	return p, nil
}

// CacheStats reports plan cache hits, misses, and current size. All
// zeros when caching is disabled.
func (pl *Planner) CacheStats() (hits, misses int64, size int) {
	return pl.cache.Stats()
}
