package ir

import "fmt"

// Hint is a planning directive attached to a query graph. Hints bias
// candidate selection toward conforming plans; they never exclude
// non-conforming plans outright.
type Hint interface {
	String() string
	hint()
}

// UsingIndexHint asks the planner to start the named variable from an
// index on label.property.
type UsingIndexHint struct {
	Variable Variable
	Label    string
	Property string
}

func (UsingIndexHint) hint() {}

func (h UsingIndexHint) String() string {
	return fmt.Sprintf("USING INDEX %s:%s(%s)", h.Variable, h.Label, h.Property)
}

// UsingScanHint asks the planner to start the named variable from a
// label scan.
type UsingScanHint struct {
	Variable Variable
	Label    string
}

func (UsingScanHint) hint() {}

func (h UsingScanHint) String() string {
	return fmt.Sprintf("USING SCAN %s:%s", h.Variable, h.Label)
}

// UsingJoinHint asks the planner to join on the named variables rather
// than expanding through them.
type UsingJoinHint struct {
	Variables []Variable
}

func (UsingJoinHint) hint() {}

func (h UsingJoinHint) String() string {
	return fmt.Sprintf("USING JOIN ON %s", renderVariables(h.Variables))
}
