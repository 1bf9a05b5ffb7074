package planner

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nereiddb/nereid/gql/ir"
)

// Monitor receives planning telemetry. Implementations must be safe for
// concurrent calls from multiple planning sessions and must not block or
// fail back into the planner.
type Monitor interface {
	// NewQuerySeen fires when the primary strategy plans a query.
	NewQuerySeen(qg *ir.QueryGraph)
	// UnableToHandleQuery fires when the primary strategy declines a
	// query and the orchestrator escalates to the legacy strategy.
	UnableToHandleQuery(qg *ir.QueryGraph, failure error)
}

// NoopMonitor discards all events.
type NoopMonitor struct{}

func (NoopMonitor) NewQuerySeen(*ir.QueryGraph)               {}
func (NoopMonitor) UnableToHandleQuery(*ir.QueryGraph, error) {}

// FallbackEvent records one escalation for later inspection.
type FallbackEvent struct {
	QueryGraph *ir.QueryGraph
	Failure    error
}

// CollectingMonitor accumulates events in memory. Append-only and
// mutex-guarded, so concurrent sessions can share one instance.
type CollectingMonitor struct {
	mu        sync.Mutex
	seen      []*ir.QueryGraph
	fallbacks []FallbackEvent
}

// NewCollectingMonitor returns an empty collector.
func NewCollectingMonitor() *CollectingMonitor {
	return &CollectingMonitor{}
}

func (m *CollectingMonitor) NewQuerySeen(qg *ir.QueryGraph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, qg)
}

func (m *CollectingMonitor) UnableToHandleQuery(qg *ir.QueryGraph, failure error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, FallbackEvent{QueryGraph: qg, Failure: failure})
}

// Seen returns a copy of the queries the primary strategy planned.
func (m *CollectingMonitor) Seen() []*ir.QueryGraph {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ir.QueryGraph, len(m.seen))
	copy(out, m.seen)
	return out
}

// Fallbacks returns a copy of the recorded escalations.
func (m *CollectingMonitor) Fallbacks() []FallbackEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FallbackEvent, len(m.fallbacks))
	copy(out, m.fallbacks)
	return out
}

// PrometheusMonitor exports planning telemetry as counters.
type PrometheusMonitor struct {
	queriesPlanned prometheus.Counter
	fallbacks      prometheus.Counter
}

// NewPrometheusMonitor registers the planner counters with reg and
// returns the monitor.
func NewPrometheusMonitor(reg prometheus.Registerer) *PrometheusMonitor {
	m := &PrometheusMonitor{
		queriesPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nereid",
			Subsystem: "planner",
			Name:      "queries_planned_total",
			Help:      "Queries planned by the cost-based strategy.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nereid",
			Subsystem: "planner",
			Name:      "fallbacks_total",
			Help:      "Queries escalated to the legacy planning strategy.",
		}),
	}
	reg.MustRegister(m.queriesPlanned, m.fallbacks)
	return m
}

func (m *PrometheusMonitor) NewQuerySeen(*ir.QueryGraph) {
	m.queriesPlanned.Inc()
}

func (m *PrometheusMonitor) UnableToHandleQuery(*ir.QueryGraph, error) {
	m.fallbacks.Inc()
}
