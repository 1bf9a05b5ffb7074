package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryProvider(t *testing.T) {
	p := NewInMemory(1000)
	p.SetLabelCount("Person", 400)
	p.SetRelationshipCount("KNOWS", 5000)
	p.SetRelationshipCount("LIKES", 200)
	p.SetIndex("Person", "name", 0.01)

	assert.Equal(t, float64(1000), p.NodeCount())
	assert.Equal(t, float64(400), p.NodesWithLabel("Person"))
	assert.Equal(t, float64(0), p.NodesWithLabel("Robot"))
	assert.Equal(t, float64(5000), p.RelationshipCount("KNOWS"))
	assert.Equal(t, float64(5200), p.RelationshipCount(""), "empty type counts everything")

	assert.True(t, p.IndexExists("Person", "name"))
	assert.False(t, p.IndexExists("Person", "age"))
	assert.Equal(t, 0.01, p.IndexSelectivity("Person", "name"))
	assert.Equal(t, float64(0), p.IndexSelectivity("Person", "age"))
}

func TestInMemorySnapshotChangesOnWrite(t *testing.T) {
	p := NewInMemory(10)
	before := p.SnapshotID()
	assert.Equal(t, before, p.SnapshotID(), "reads do not move the snapshot")

	p.SetLabelCount("Person", 5)
	assert.NotEqual(t, before, p.SnapshotID())
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store, err := OpenInMemoryBadgerStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SetNodeCount(1000))
	require.NoError(t, store.SetLabelCount("Person", 400))
	require.NoError(t, store.SetRelationshipCount("KNOWS", 5000))
	require.NoError(t, store.SetRelationshipCount("LIKES", 200))
	require.NoError(t, store.SetIndex("Person", "name", 0.01))

	assert.Equal(t, float64(1000), store.NodeCount())
	assert.Equal(t, float64(400), store.NodesWithLabel("Person"))
	assert.Equal(t, float64(0), store.NodesWithLabel("Robot"))
	assert.Equal(t, float64(5000), store.RelationshipCount("KNOWS"))
	assert.Equal(t, float64(5200), store.RelationshipCount(""))

	assert.True(t, store.IndexExists("Person", "name"))
	assert.False(t, store.IndexExists("Person", "age"))
	assert.Equal(t, 0.01, store.IndexSelectivity("Person", "name"))

	labels := store.Labels()
	assert.Equal(t, map[string]float64{"Person": 400}, labels)
}

func TestBadgerStoreSnapshotAdvances(t *testing.T) {
	store, err := OpenInMemoryBadgerStore()
	require.NoError(t, err)
	defer store.Close()

	before := store.SnapshotID()
	require.NoError(t, store.SetNodeCount(5))
	after := store.SnapshotID()
	assert.NotEqual(t, before, after)

	require.NoError(t, store.SetNodeCount(5))
	assert.NotEqual(t, after, store.SnapshotID(), "every write bumps the version")
}
