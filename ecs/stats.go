package ecs

// EntityStats summarises the state of an EntityManager.
type EntityStats struct {
	LiveEntities   int
	Capacity       int
	AllocatedSlots int
	FreeSlots      int
	Components     []ComponentStats
}

// ComponentStats reports how many entities hold a component type.
type ComponentStats struct {
	Type  ComponentType
	Name  string
	Count int
}

// CollectStats gathers entity and per-component counts. Component types never stored are omitted.
func (m *EntityManager) CollectStats() EntityStats {
	stats := EntityStats{
		LiveEntities:   m.live,
		Capacity:       m.maxEntities,
		AllocatedSlots: len(m.generations),
		FreeSlots:      len(m.freeList),
	}
	for i, store := range m.stores {
		if store == nil {
			continue
		}
		ct := ComponentType(i)
		stats.Components = append(stats.Components, ComponentStats{
			Type:  ct,
			Name:  m.registry.Name(ct),
			Count: store.Len(),
		})
	}
	return stats
}
