// Package symbols provides the typed variable environment used during
// planning: a small value-type lattice and an immutable symbol table.
//
// File organization:
//   - types.go: the type lattice, assignability, and least upper bounds
//   - table.go: the persistent symbol table and its typed errors
package symbols

import "fmt"

// Type is a value type in the planner's type lattice. Types form a tree
// rooted at Any; Covers reports assignability down the tree.
type Type interface {
	Name() string
	// Covers reports whether a value of type other is always a valid
	// value of this type.
	Covers(other Type) bool
}

type anyType struct{}

func (anyType) Name() string       { return "Any" }
func (anyType) Covers(_ Type) bool { return true }

type simpleType struct {
	name  string
	super Type // nil means the direct parent is Any
}

func (t *simpleType) Name() string { return t.name }

func (t *simpleType) Covers(other Type) bool {
	for other != nil {
		if other == Type(t) {
			return true
		}
		s, ok := other.(*simpleType)
		if !ok {
			return false
		}
		other = s.super
	}
	return false
}

type listType struct {
	inner Type
}

func (t *listType) Name() string { return fmt.Sprintf("List<%s>", t.inner.Name()) }

func (t *listType) Covers(other Type) bool {
	o, ok := other.(*listType)
	if !ok {
		return false
	}
	return t.inner.Covers(o.inner)
}

// The lattice. Number sits above Integer and Float so that numeric
// branches reconcile to Number rather than collapsing to Any.
var (
	Any          Type = anyType{}
	Node         Type = &simpleType{name: "Node"}
	Relationship Type = &simpleType{name: "Relationship"}
	Path         Type = &simpleType{name: "Path"}
	Bool         Type = &simpleType{name: "Bool"}
	Number       Type = &simpleType{name: "Number"}
	Integer      Type = &simpleType{name: "Integer", super: Number}
	Float        Type = &simpleType{name: "Float", super: Number}
	String       Type = &simpleType{name: "String"}
	Map          Type = &simpleType{name: "Map"}
)

// List returns the list type with the given element type.
func List(inner Type) Type {
	return &listType{inner: inner}
}

// ElementType returns the element type of a list type, or false if t is
// not a list.
func ElementType(t Type) (Type, bool) {
	l, ok := t.(*listType)
	if !ok {
		return nil, false
	}
	return l.inner, true
}

// LeastUpperBound returns the most specific type that covers both a and b.
func LeastUpperBound(a, b Type) Type {
	if a.Covers(b) {
		return a
	}
	if b.Covers(a) {
		return b
	}
	if la, ok := a.(*listType); ok {
		if lb, ok := b.(*listType); ok {
			return List(LeastUpperBound(la.inner, lb.inner))
		}
	}
	// Walk a's ancestor chain looking for the first type covering b.
	if sa, ok := a.(*simpleType); ok {
		for super := sa.super; super != nil; {
			if super.Covers(b) {
				return super
			}
			s, ok := super.(*simpleType)
			if !ok {
				break
			}
			super = s.super
		}
	}
	return Any
}

// Compatible reports whether either type is assignable from the other.
// This is the covariant/contravariant acceptance rule used by the symbol
// table: an Any-typed expression is accepted where a Node is expected,
// and a Node-typed expression is accepted where Any is expected.
func Compatible(expected, actual Type) bool {
	return expected.Covers(actual) || actual.Covers(expected)
}
