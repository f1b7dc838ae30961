package ecs

import (
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"
)

// EntityManager owns entity identity and component storage. Entity slots are recycled
// through a free list; every reuse bumps the slot generation so stale handles are rejected.
type EntityManager struct {
	registry    *ComponentRegistry
	generations []uint32
	alive       []bool
	signatures  []Signature
	freeList    []uint32
	stores      []iComponentStorage
	maxEntities int
	live        int
	log         *zap.Logger
}

// NewEntityManager creates an EntityManager backed by registry. maxEntities caps the number of
// simultaneously live entities; zero or a negative value means no ceiling.
func NewEntityManager(registry *ComponentRegistry, maxEntities int, opts ...Option) *EntityManager {
	o := buildOptions(opts)
	if maxEntities < 0 {
		maxEntities = 0
	}
	return &EntityManager{
		registry:    registry,
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		signatures:  make([]Signature, 0, 1024),
		freeList:    make([]uint32, 0, 256),
		maxEntities: maxEntities,
		log:         o.logger,
	}
}

// Registry returns the component registry this manager stores types from.
func (m *EntityManager) Registry() *ComponentRegistry {
	return m.registry
}

// Create allocates a new entity, reusing the most recently freed slot when one exists.
func (m *EntityManager) Create() (EntityId, error) {
	if m.maxEntities > 0 && m.live >= m.maxEntities {
		return 0, fmt.Errorf("create entity (limit %d): %w", m.maxEntities, ErrCapacityExceeded)
	}

	var idx uint32
	if n := len(m.freeList); n > 0 {
		idx = m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
	} else {
		if uint64(len(m.generations)) >= math.MaxUint32 {
			return 0, fmt.Errorf("create entity: index space exhausted: %w", ErrCapacityExceeded)
		}
		idx = uint32(len(m.generations))
		m.generations = append(m.generations, 1)
		m.alive = append(m.alive, false)
		m.signatures = append(m.signatures, Signature{})
	}

	m.alive[idx] = true
	m.live++
	return NewEntityId(idx, m.generations[idx]), nil
}

// Destroy removes every component of id, frees its slot and invalidates the handle.
func (m *EntityManager) Destroy(id EntityId) error {
	idx, err := m.resolve(id)
	if err != nil {
		return fmt.Errorf("destroy entity %s: %w", id, err)
	}

	for _, ct := range m.signatures[idx].Types() {
		m.stores[ct].Delete(idx)
	}
	m.signatures[idx] = Signature{}
	m.alive[idx] = false
	m.live--

	if m.generations[idx] == math.MaxUint32 {
		// Generation space for this slot is used up; never hand it out again.
		m.log.Debug("retiring entity slot", zap.Uint32("index", idx))
		return nil
	}
	m.generations[idx]++
	m.freeList = append(m.freeList, idx)
	return nil
}

// Alive reports whether id refers to a live entity.
func (m *EntityManager) Alive(id EntityId) bool {
	_, err := m.resolve(id)
	return err == nil
}

// Len returns the number of live entities.
func (m *EntityManager) Len() int {
	return m.live
}

// Capacity returns the configured entity ceiling, or zero when unbounded.
func (m *EntityManager) Capacity() int {
	return m.maxEntities
}

// Signature returns the set of component types id currently holds.
func (m *EntityManager) Signature(id EntityId) (Signature, error) {
	idx, err := m.resolve(id)
	if err != nil {
		return Signature{}, err
	}
	return m.signatures[idx], nil
}

// AddComponent attaches component to id. The entity must not already hold a component of that type.
func (m *EntityManager) AddComponent(id EntityId, component any) error {
	idx, ct, err := m.prepare(id, component)
	if err != nil {
		return fmt.Errorf("add component: %w", err)
	}
	if m.signatures[idx].Has(ct) {
		return fmt.Errorf("add %s to entity %s: %w", m.registry.Name(ct), id, ErrDuplicateComponent)
	}
	m.store(ct).Set(idx, component)
	m.signatures[idx] = m.signatures[idx].With(ct)
	return nil
}

// SetComponent attaches component to id, replacing any existing component of the same type.
func (m *EntityManager) SetComponent(id EntityId, component any) error {
	idx, ct, err := m.prepare(id, component)
	if err != nil {
		return fmt.Errorf("set component: %w", err)
	}
	m.store(ct).Set(idx, component)
	m.signatures[idx] = m.signatures[idx].With(ct)
	return nil
}

// RemoveComponent detaches the component of type compType from id.
func (m *EntityManager) RemoveComponent(id EntityId, compType reflect.Type) error {
	idx, err := m.resolve(id)
	if err != nil {
		return fmt.Errorf("remove component from %s: %w", id, err)
	}
	ct, ok := m.registry.TypeOf(compType)
	if !ok || !m.signatures[idx].Has(ct) {
		return fmt.Errorf("remove %s from entity %s: %w", compType, id, ErrComponentNotFound)
	}
	m.stores[ct].Delete(idx)
	m.signatures[idx] = m.signatures[idx].Without(ct)
	return nil
}

// GetComponent returns a pointer to the component of type compType held by id.
// The pointer stays valid until the component is removed or the entity destroyed.
func (m *EntityManager) GetComponent(id EntityId, compType reflect.Type) (any, error) {
	idx, err := m.resolve(id)
	if err != nil {
		return nil, fmt.Errorf("get component from %s: %w", id, err)
	}
	ct, ok := m.registry.TypeOf(compType)
	if !ok || !m.signatures[idx].Has(ct) {
		return nil, fmt.Errorf("get %s from entity %s: %w", compType, id, ErrComponentNotFound)
	}
	return m.stores[ct].Get(idx), nil
}

// HasComponent reports whether id is live and holds a component of type compType.
func (m *EntityManager) HasComponent(id EntityId, compType reflect.Type) bool {
	idx, err := m.resolve(id)
	if err != nil {
		return false
	}
	ct, ok := m.registry.TypeOf(compType)
	return ok && m.signatures[idx].Has(ct)
}

// Components returns the registered names of the components id holds, in ComponentType order.
func (m *EntityManager) Components(id EntityId) ([]string, error) {
	idx, err := m.resolve(id)
	if err != nil {
		return nil, err
	}
	types := m.signatures[idx].Types()
	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = m.registry.Name(ct)
	}
	return names, nil
}

// Clear destroys every live entity. Component tables are emptied in one pass and every
// outstanding handle becomes stale.
func (m *EntityManager) Clear() {
	for idx, alive := range m.alive {
		if !alive {
			continue
		}
		m.signatures[idx] = Signature{}
		m.alive[idx] = false
		if m.generations[idx] == math.MaxUint32 {
			continue
		}
		m.generations[idx]++
		m.freeList = append(m.freeList, uint32(idx))
	}
	for _, cs := range m.stores {
		if cs != nil {
			cs.Clear()
		}
	}
	m.live = 0
}

func (m *EntityManager) resolve(id EntityId) (uint32, error) {
	idx := id.Index()
	if int(idx) >= len(m.generations) || !m.alive[idx] || m.generations[idx] != id.Generation() {
		return 0, ErrInvalidHandle
	}
	return idx, nil
}

func (m *EntityManager) prepare(id EntityId, component any) (uint32, ComponentType, error) {
	idx, err := m.resolve(id)
	if err != nil {
		return 0, 0, fmt.Errorf("entity %s: %w", id, err)
	}
	if component == nil {
		return 0, 0, fmt.Errorf("nil component: %w", ErrUnregisteredComponent)
	}
	compType := reflect.TypeOf(component)
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	ct, ok := m.registry.TypeOf(compType)
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w", compType, ErrUnregisteredComponent)
	}
	return idx, ct, nil
}

func (m *EntityManager) store(ct ComponentType) iComponentStorage {
	for int(ct) >= len(m.stores) {
		m.stores = append(m.stores, nil)
	}
	if m.stores[ct] == nil {
		m.stores[ct] = m.registry.factory(ct)()
	}
	return m.stores[ct]
}

func (m *EntityManager) component(idx uint32, ct ComponentType) any {
	if int(ct) >= len(m.stores) || m.stores[ct] == nil {
		return nil
	}
	return m.stores[ct].Get(idx)
}

// Add attaches a component of type T to id.
func Add[T any](m *EntityManager, id EntityId, component T) error {
	return m.AddComponent(id, component)
}

// Set attaches or replaces the component of type T on id.
func Set[T any](m *EntityManager, id EntityId, component T) error {
	return m.SetComponent(id, component)
}

// Get returns a pointer to the T component held by id.
func Get[T any](m *EntityManager, id EntityId) (*T, error) {
	c, err := m.GetComponent(id, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return c.(*T), nil
}

// Has reports whether id holds a T component.
func Has[T any](m *EntityManager, id EntityId) bool {
	return m.HasComponent(id, reflect.TypeFor[T]())
}

// Remove detaches the T component from id.
func Remove[T any](m *EntityManager, id EntityId) error {
	return m.RemoveComponent(id, reflect.TypeFor[T]())
}
