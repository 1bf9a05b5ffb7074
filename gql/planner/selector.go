package planner

import (
	"github.com/nereiddb/nereid/gql/plan"
)

// Trace receives diagnostic lines during candidate selection. It must
// not influence the chosen result.
type Trace func(format string, args ...interface{})

func noTrace(string, ...interface{}) {}

// CandidateSelector deterministically picks one plan out of a set of
// semantically equivalent candidates. Preference order:
//
//  1. more satisfied hints, since a hint is an authoritative directive
//     that should not be dropped for a marginal cost win;
//  2. lower estimated cost;
//  3. fewer exposed symbols, a historical heuristic kept for
//     reproducibility; then plan digest, so the choice is a total order
//     independent of input iteration order.
type CandidateSelector struct {
	cost  CostModel
	trace Trace
}

// NewCandidateSelector builds a selector over a cost model. A nil trace
// is replaced with a no-op.
func NewCandidateSelector(cost CostModel, trace Trace) *CandidateSelector {
	if trace == nil {
		trace = noTrace
	}
	return &CandidateSelector{cost: cost, trace: trace}
}

type candidateKey struct {
	hints   int
	cost    Cost
	symbols int
	digest  string
}

// less orders keys lexicographically: more hints, then lower cost, then
// fewer symbols, then digest.
func (k candidateKey) less(other candidateKey) bool {
	if k.hints != other.hints {
		return k.hints > other.hints
	}
	if k.cost != other.cost {
		return k.cost < other.cost
	}
	if k.symbols != other.symbols {
		return k.symbols < other.symbols
	}
	return k.digest < other.digest
}

func (s *CandidateSelector) key(p *plan.Plan) candidateKey {
	return candidateKey{
		hints:   len(p.SolvedHints()),
		cost:    s.cost(p),
		symbols: len(p.Available()),
		digest:  p.Digest(),
	}
}

// SelectBest returns the candidate whose projected plan minimizes the
// selector's sort key. Returns false for an empty candidate set. Pure
// aside from cost-model calls and trace output.
func SelectBest[T any](s *CandidateSelector, project func(T) *plan.Plan, candidates []T) (T, bool) {
	var best T
	var bestKey candidateKey
	found := false
	for _, c := range candidates {
		p := project(c)
		key := s.key(p)
		s.trace("candidate %s: hints=%d cost=%.2f symbols=%d",
			p.Describe(), key.hints, float64(key.cost), key.symbols)
		if !found || key.less(bestKey) {
			best, bestKey, found = c, key, true
		}
	}
	if found {
		s.trace("selected %s (cost=%.2f)", project(best).Describe(), float64(bestKey.cost))
	}
	return best, found
}

// SelectBestPlan is SelectBest over bare plans.
func SelectBestPlan(s *CandidateSelector, candidates []*plan.Plan) (*plan.Plan, bool) {
	return SelectBest(s, func(p *plan.Plan) *plan.Plan { return p }, candidates)
}
