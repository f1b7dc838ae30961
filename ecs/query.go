package ecs

import (
	"iter"
	"reflect"
)

// Query returns a lazy sequence of live entities whose signature is a superset of signature,
// in ascending slot index order. The sequence can be ranged over any number of times; each pass
// observes the entity tables as they are at that moment.
//
// An empty signature matches every live entity.
func (m *EntityManager) Query(signature Signature) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for idx := 0; idx < len(m.signatures); idx++ {
			if !m.alive[idx] || !m.signatures[idx].Contains(signature) {
				continue
			}
			if !yield(NewEntityId(uint32(idx), m.generations[idx])) {
				return
			}
		}
	}
}

// QueryTypes is Query for a list of Go component types. It panics on unregistered types.
func (m *EntityManager) QueryTypes(types ...reflect.Type) iter.Seq[EntityId] {
	return m.Query(m.registry.Signature(types...))
}

// Count returns the number of live entities matching signature.
func (m *EntityManager) Count(signature Signature) int {
	n := 0
	for range m.Query(signature) {
		n++
	}
	return n
}
