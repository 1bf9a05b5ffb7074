package planner

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// FallbackNotifier is told when a query escalates to the legacy
// strategy. The policy is injected so callers decide between silence,
// a log line, or something louder.
type FallbackNotifier func(qg *ir.QueryGraph, cause *UnsupportedError)

// SilentNotifier swallows escalations.
func SilentNotifier(*ir.QueryGraph, *UnsupportedError) {}

// WarnNotifier logs each escalation at warn level.
func WarnNotifier(logger *zap.Logger) FallbackNotifier {
	return func(qg *ir.QueryGraph, cause *UnsupportedError) {
		logger.Warn("query fell back to rule-based planning",
			zap.String("construct", cause.Construct),
			zap.String("reason", cause.Reason),
			zap.String("query", qg.Digest()))
	}
}

// FallbackPlanner chains two strategies: the primary plans everything
// it can, and queries it declines with an UnsupportedError escalate to
// the legacy strategy. Any other error is final. The legacy result is
// final too, whatever it is.
type FallbackPlanner struct {
	primary PlanProducer
	legacy  PlanProducer
	monitor Monitor
	notify  FallbackNotifier
}

// NewFallbackPlanner wires the two strategies together. A nil monitor
// discards telemetry; a nil notifier is silent.
func NewFallbackPlanner(primary, legacy PlanProducer, monitor Monitor, notify FallbackNotifier) *FallbackPlanner {
	if monitor == nil {
		monitor = NoopMonitor{}
	}
	if notify == nil {
		notify = SilentNotifier
	}
	return &FallbackPlanner{primary: primary, legacy: legacy, monitor: monitor, notify: notify}
}

func (f *FallbackPlanner) Name() string { return "fallback" }

func (f *FallbackPlanner) ProducePlan(qg *ir.QueryGraph, ctx *Context) (*plan.Plan, error) {
	p, err := f.primary.ProducePlan(qg, ctx)
	if err == nil {
		f.monitor.NewQuerySeen(qg)
		return p, nil
	}

	var unsup *UnsupportedError
	if !errors.As(err, &unsup) {
		return nil, err
	}

	f.monitor.UnableToHandleQuery(qg, err)
	f.notify(qg, unsup)
	return f.legacy.ProducePlan(qg, ctx)
}
