package symbols

import (
	"testing"
)

func TestLeastUpperBound(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want Type
	}{
		{"identical", Node, Node, Node},
		{"subtype right", Number, Integer, Number},
		{"subtype left", Integer, Number, Number},
		{"siblings under number", Integer, Float, Number},
		{"unrelated", Node, String, Any},
		{"any absorbs", Any, Node, Any},
		{"lists recurse", List(Integer), List(Float), List(Number)},
		{"list vs scalar", List(Integer), Integer, Any},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LeastUpperBound(tt.a, tt.b)
			if got.Name() != tt.want.Name() {
				t.Errorf("LeastUpperBound(%s, %s) = %s, want %s",
					tt.a.Name(), tt.b.Name(), got.Name(), tt.want.Name())
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name             string
		expected, actual Type
		want             bool
	}{
		{"exact", Node, Node, true},
		{"actual narrower", Number, Integer, true},
		{"actual wider", Integer, Number, true},
		{"unrelated", Node, String, false},
		{"any accepts all", Any, Node, true},
		{"all accept any", Node, Any, true},
		{"list inner mismatch", List(Node), List(String), false},
		{"list inner widens", List(Number), List(Integer), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.expected, tt.actual); got != tt.want {
				t.Errorf("Compatible(%s, %s) = %v, want %v",
					tt.expected.Name(), tt.actual.Name(), got, tt.want)
			}
		})
	}
}

func TestElementType(t *testing.T) {
	inner, ok := ElementType(List(Node))
	if !ok || inner.Name() != Node.Name() {
		t.Fatalf("ElementType(List<Node>) = %v, %v", inner, ok)
	}
	if _, ok := ElementType(Node); ok {
		t.Error("ElementType(Node) should report false")
	}
}
