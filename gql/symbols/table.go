package symbols

import (
	"errors"
	"fmt"
	"sort"
)

// UnknownVariableError reports a lookup of a name the table has no
// binding for. Surfaced to the caller as a compilation error.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// TypeMismatchError reports a binding whose type is incompatible with the
// type required at the use site.
type TypeMismatchError struct {
	Name     string
	Expected Type
	Actual   Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %q has type %s, expected %s",
		e.Name, e.Actual.Name(), e.Expected.Name())
}

// binding is one snapshot-versioned entry. Tables share bindings
// structurally; a newer binding for the same name shadows older ones.
type binding struct {
	name string
	typ  Type
	prev *binding
}

// Table is an immutable mapping from variable name to value type. The
// zero value is the empty table. Add returns a new table without
// touching the receiver, so snapshots taken at any point in a planning
// session stay valid.
type Table struct {
	head *binding
}

// NewTable returns an empty table.
func NewTable() Table {
	return Table{}
}

// Add returns a table with name bound to typ, shadowing any previous
// binding for the same name. O(1); the receiver is unchanged.
func (t Table) Add(name string, typ Type) Table {
	return Table{head: &binding{name: name, typ: typ, prev: t.head}}
}

// Lookup returns the current type bound to name.
func (t Table) Lookup(name string) (Type, bool) {
	for b := t.head; b != nil; b = b.prev {
		if b.name == name {
			return b.typ, true
		}
	}
	return nil, false
}

// EvaluateType returns the type bound to name, failing with
// UnknownVariableError if the name is absent and TypeMismatchError if the
// bound type and expected type are incompatible in both directions.
func (t Table) EvaluateType(name string, expected Type) (Type, error) {
	actual, ok := t.Lookup(name)
	if !ok {
		return nil, &UnknownVariableError{Name: name}
	}
	if !Compatible(expected, actual) {
		return nil, &TypeMismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return actual, nil
}

// CheckType is EvaluateType as a boolean. Only the table's own error
// types are converted to false; EvaluateType has no other failure modes,
// so nothing unrelated can be masked here.
func (t Table) CheckType(name string, expected Type) bool {
	_, err := t.EvaluateType(name, expected)
	if err == nil {
		return true
	}
	var unknown *UnknownVariableError
	var mismatch *TypeMismatchError
	if errors.As(err, &unknown) || errors.As(err, &mismatch) {
		return false
	}
	// Not reachable today; kept so a future failure mode cannot be
	// silently swallowed.
	panic(err)
}

// Intersect returns a table containing exactly the names bound in both
// tables, each bound to the least upper bound of the two types. Used to
// reconcile the environments of alternative branches.
func (t Table) Intersect(other Table) Table {
	result := NewTable()
	for _, name := range t.Keys() {
		left, _ := t.Lookup(name)
		right, ok := other.Lookup(name)
		if !ok {
			continue
		}
		result = result.Add(name, LeastUpperBound(left, right))
	}
	return result
}

// Filter returns a table keeping only the bindings whose name satisfies
// keep. Used to project the visible variable set at scope boundaries.
func (t Table) Filter(keep func(name string) bool) Table {
	result := NewTable()
	for _, name := range t.Keys() {
		if !keep(name) {
			continue
		}
		typ, _ := t.Lookup(name)
		result = result.Add(name, typ)
	}
	return result
}

// Keys returns the bound names in sorted order, shadowed entries
// deduplicated.
func (t Table) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for b := t.head; b != nil; b = b.prev {
		if seen[b.name] {
			continue
		}
		seen[b.name] = true
		keys = append(keys, b.name)
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of distinct bound names.
func (t Table) Size() int {
	return len(t.Keys())
}

// String renders the table for diagnostics.
func (t Table) String() string {
	s := "{"
	for i, name := range t.Keys() {
		if i > 0 {
			s += ", "
		}
		typ, _ := t.Lookup(name)
		s += fmt.Sprintf("%s: %s", name, typ.Name())
	}
	return s + "}"
}
