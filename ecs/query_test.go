package ecs_test

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/plus3/tickworks/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	registry := newTestRegistry()
	m := ecs.NewEntityManager(registry, 0)
	posSig := registry.Signature(reflect.TypeFor[Position]())

	t.Run("superset match in index order", func(t *testing.T) {
		e1, _ := m.Create()
		e2, _ := m.Create()
		e3, _ := m.Create()
		require.NoError(t, ecs.Add(m, e1, Position{}))
		require.NoError(t, ecs.Add(m, e2, Position{}))
		require.NoError(t, ecs.Add(m, e2, Velocity{}))
		require.NoError(t, ecs.Add(m, e3, Velocity{}))

		assert.Equal(t, []ecs.EntityId{e1, e2}, collect(m.Query(posSig)))
		assert.Equal(t, []ecs.EntityId{e2}, collect(m.QueryTypes(reflect.TypeFor[Position](), reflect.TypeFor[Velocity]())))
		assert.Equal(t, []ecs.EntityId{e1, e2, e3}, collect(m.Query(ecs.Signature{})))
		assert.Equal(t, 2, m.Count(posSig))
	})

	t.Run("restartable", func(t *testing.T) {
		seq := m.Query(posSig)
		first := collect(seq)
		second := collect(seq)
		assert.Equal(t, first, second)
	})

	t.Run("lazy", func(t *testing.T) {
		seq := m.Query(posSig)
		before := len(collect(seq))
		_, err := ecs.Spawn(m, Position{})
		require.NoError(t, err)
		assert.Equal(t, before+1, len(collect(seq)), "sequence reflects entities created after it was built")
	})

	t.Run("early break", func(t *testing.T) {
		n := 0
		for range m.Query(ecs.Signature{}) {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})

	t.Run("recycled slots keep ascending order", func(t *testing.T) {
		m := ecs.NewEntityManager(registry, 0)
		ids := make([]ecs.EntityId, 5)
		for i := range ids {
			ids[i], _ = ecs.Spawn(m, Position{})
		}
		require.NoError(t, m.Destroy(ids[1]))
		recycled, err := ecs.Spawn(m, Position{})
		require.NoError(t, err)

		got := collect(m.Query(posSig))
		assert.Equal(t, []ecs.EntityId{ids[0], recycled, ids[2], ids[3], ids[4]}, got)
	})
}

func TestQueryMatchesBruteForce(t *testing.T) {
	registry := newTestRegistry()
	m := ecs.NewEntityManager(registry, 0)
	rng := rand.New(rand.NewPCG(7, 11))

	components := []any{Position{}, Velocity{}, Health{}, Name{}}
	types := []reflect.Type{
		reflect.TypeFor[Position](),
		reflect.TypeFor[Velocity](),
		reflect.TypeFor[Health](),
		reflect.TypeFor[Name](),
	}

	var live []ecs.EntityId
	for i := 0; i < 300; i++ {
		id, err := m.Create()
		require.NoError(t, err)
		for _, c := range components {
			if rng.IntN(2) == 0 {
				require.NoError(t, m.AddComponent(id, c))
			}
		}
		live = append(live, id)
		if rng.IntN(4) == 0 {
			victim := rng.IntN(len(live))
			require.NoError(t, m.Destroy(live[victim]))
			live = slices.Delete(live, victim, victim+1)
		}
	}

	for mask := 0; mask < 1<<len(types); mask++ {
		var query []reflect.Type
		for bit, typ := range types {
			if mask&(1<<bit) != 0 {
				query = append(query, typ)
			}
		}

		var want []ecs.EntityId
		for _, id := range live {
			matches := true
			for _, typ := range query {
				if !m.HasComponent(id, typ) {
					matches = false
					break
				}
			}
			if matches {
				want = append(want, id)
			}
		}
		slices.SortFunc(want, func(a, b ecs.EntityId) int { return int(a.Index()) - int(b.Index()) })

		assert.Equal(t, want, collect(m.QueryTypes(query...)), "query %v", query)
	}
}
