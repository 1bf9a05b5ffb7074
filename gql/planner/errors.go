package planner

import (
	"fmt"

	"github.com/nereiddb/nereid/gql/ir"
)

// UnsupportedError signals that the reporting strategy has no way to
// plan a construct. It is the only recoverable planning error: the
// fallback orchestrator converts it into an escalation to the legacy
// strategy, and it never reaches the caller unless the legacy strategy
// also fails.
type UnsupportedError struct {
	Construct string
	Reason    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct %s: %s", e.Construct, e.Reason)
}

// unsupported builds an UnsupportedError for a construct.
func unsupported(construct, format string, args ...interface{}) error {
	return &UnsupportedError{Construct: construct, Reason: fmt.Sprintf(format, args...)}
}

// InternalError signals that no registered strategy could solve a query
// graph that reached the solver. This is an optimizer defect, never user
// error: it is always propagated and never retried.
type InternalError struct {
	QueryGraph *ir.QueryGraph
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal planning error: no strategy produced a plan for %s", e.QueryGraph)
}
