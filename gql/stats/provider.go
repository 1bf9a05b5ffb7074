// Package stats supplies the raw graph statistics the cardinality model
// consumes: node and relationship counts and index selectivities. The
// solver and selector never read statistics directly.
//
// File organization:
//   - provider.go: the Provider interface and the in-memory provider
//   - badger_store.go: persistent provider backed by BadgerDB
package stats

import (
	"fmt"
	"sync"
)

// Provider is a read-only statistics snapshot. Implementations must be
// safe for concurrent reads from multiple planning sessions. Index
// existence is deliberately not part of the interface: it is schema
// metadata, and the solver asks for it through its own catalog
// interface, which the stores here also implement.
type Provider interface {
	// NodeCount returns the total number of nodes in the graph.
	NodeCount() float64
	// NodesWithLabel returns the number of nodes carrying label.
	NodesWithLabel(label string) float64
	// RelationshipCount returns the number of relationships of the
	// given type; the empty type counts all relationships.
	RelationshipCount(relType string) float64
	// IndexSelectivity returns the fraction of labeled nodes a single
	// index lookup on label.property is expected to return.
	IndexSelectivity(label, property string) float64
	// SnapshotID identifies the statistics version; it changes whenever
	// the underlying counts change, so cached plans can be keyed to the
	// snapshot they were costed against.
	SnapshotID() string
}

func indexKey(label, property string) string {
	return label + "." + property
}

// InMemory is a mutable in-process Provider, used for tests and as the
// default when no persistent store is configured.
type InMemory struct {
	mu            sync.RWMutex
	nodeCount     float64
	labels        map[string]float64
	relationships map[string]float64
	indexes       map[string]float64
	version       uint64
}

// NewInMemory returns an empty in-memory provider with the given total
// node count.
func NewInMemory(nodeCount float64) *InMemory {
	return &InMemory{
		nodeCount:     nodeCount,
		labels:        make(map[string]float64),
		relationships: make(map[string]float64),
		indexes:       make(map[string]float64),
	}
}

// SetNodeCount sets the total node count.
func (m *InMemory) SetNodeCount(n float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeCount = n
	m.version++
}

// SetLabelCount sets the node count for a label.
func (m *InMemory) SetLabelCount(label string, n float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[label] = n
	m.version++
}

// SetRelationshipCount sets the relationship count for a type.
func (m *InMemory) SetRelationshipCount(relType string, n float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relationships[relType] = n
	m.version++
}

// SetIndex declares an index on label.property with the given
// selectivity.
func (m *InMemory) SetIndex(label, property string, selectivity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[indexKey(label, property)] = selectivity
	m.version++
}

func (m *InMemory) NodeCount() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodeCount
}

func (m *InMemory) NodesWithLabel(label string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.labels[label]; ok {
		return n
	}
	return 0
}

func (m *InMemory) RelationshipCount(relType string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if relType == "" {
		var total float64
		for _, n := range m.relationships {
			total += n
		}
		return total
	}
	if n, ok := m.relationships[relType]; ok {
		return n
	}
	return 0
}

// IndexExists reports whether an index exists on label.property. Not
// part of Provider; it serves the planner's index catalog role.
func (m *InMemory) IndexExists(label, property string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indexes[indexKey(label, property)]
	return ok
}

func (m *InMemory) IndexSelectivity(label, property string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.indexes[indexKey(label, property)]; ok {
		return s
	}
	return 0
}

func (m *InMemory) SnapshotID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("mem-v%d", m.version)
}
