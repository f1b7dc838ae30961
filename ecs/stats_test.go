package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectStats(t *testing.T) {
	registry := NewComponentRegistry()
	RegisterComponent[int](registry)
	RegisterComponent[string](registry)
	RegisterComponent[float64](registry)

	m := NewEntityManager(registry, 10)

	stats := m.CollectStats()
	assert.Equal(t, 0, stats.LiveEntities)
	assert.Equal(t, 10, stats.Capacity)
	assert.Empty(t, stats.Components)

	a, _ := Spawn(m, 42, "hello")
	Spawn(m, 100, "world")
	Spawn(m, 200.0, "test")
	_ = m.Destroy(a)

	stats = m.CollectStats()
	assert.Equal(t, 2, stats.LiveEntities)
	assert.Equal(t, 3, stats.AllocatedSlots)
	assert.Equal(t, 1, stats.FreeSlots)

	counts := map[string]int{}
	for _, c := range stats.Components {
		counts[c.Name] = c.Count
	}
	assert.Equal(t, map[string]int{"int": 1, "string": 2, "float64": 1}, counts)
}

func TestGenericComponentStorage(t *testing.T) {
	cs := newGenericComponentStorage[int]()

	assert.True(t, cs.Set(10, 1))
	assert.True(t, cs.Set(3, 2))
	assert.False(t, cs.Set(4, "wrong type"))
	assert.Equal(t, 2, cs.Len())

	p := cs.Get(10).(*int)
	assert.Equal(t, 1, *p)

	assert.True(t, cs.Set(10, 5))
	assert.Same(t, p, cs.Get(10).(*int), "replacing keeps the slot")
	assert.Equal(t, 5, *p)

	assert.True(t, cs.Delete(10))
	assert.False(t, cs.Delete(10))
	assert.Nil(t, cs.Get(10))
	assert.False(t, cs.Has(10))

	// Freed slot is reused.
	assert.True(t, cs.Set(11, 7))
	assert.Same(t, p, cs.Get(11).(*int))

	cs.Clear()
	assert.Equal(t, 0, cs.Len())
	assert.False(t, cs.Has(3))
}

func TestRetiredSlot(t *testing.T) {
	m := NewEntityManager(NewComponentRegistry(), 0)
	id, err := m.Create()
	assert.NoError(t, err)

	// Force the slot to its last generation.
	m.generations[id.Index()] = ^uint32(0)
	last := NewEntityId(id.Index(), ^uint32(0))
	assert.True(t, m.Alive(last))
	assert.NoError(t, m.Destroy(last))

	next, err := m.Create()
	assert.NoError(t, err)
	assert.NotEqual(t, id.Index(), next.Index(), "exhausted slots are never reused")
	assert.False(t, m.Alive(last))
}
