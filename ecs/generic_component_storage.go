package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// MaxComponentTypes is the number of component types a single registry can hold.
const MaxComponentTypes = 256

// ComponentType is the dense identifier a registry assigns to a component type.
type ComponentType uint8

type componentInfo struct {
	id      ComponentType
	typ     reflect.Type
	name    string
	factory func() iComponentStorage
}

// ComponentRegistry manages component type registration for an ECS instance.
// Each EntityManager is built on a registry, allowing multiple independent
// ECS instances to coexist without interference.
type ComponentRegistry struct {
	byType map[reflect.Type]*componentInfo
	byName map[string]*componentInfo
	infos  []*componentInfo
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]*componentInfo),
		byName: make(map[string]*componentInfo),
	}
}

// RegisterComponent registers a component type under its Go type name.
// This must be called for each component type before it can be used.
// Registering the same type twice returns the existing ComponentType.
func RegisterComponent[T any](r *ComponentRegistry) ComponentType {
	return RegisterComponentAs[T](r, reflect.TypeFor[T]().Name())
}

// RegisterComponentAs registers a component type under an explicit name. The name is
// how scene descriptors and scripts refer to the type.
func RegisterComponentAs[T any](r *ComponentRegistry, name string) ComponentType {
	t := reflect.TypeFor[T]()
	if info, ok := r.byType[t]; ok {
		return info.id
	}

	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}
	if name == "" {
		name = t.String()
	}
	if _, taken := r.byName[name]; taken {
		panic("component name " + name + " already registered")
	}
	if len(r.infos) >= MaxComponentTypes {
		panic("too many component types registered")
	}

	info := &componentInfo{
		id:   ComponentType(len(r.infos)),
		typ:  t,
		name: name,
		factory: func() iComponentStorage {
			return newGenericComponentStorage[T]()
		},
	}
	r.infos = append(r.infos, info)
	r.byType[t] = info
	r.byName[name] = info
	return info.id
}

// ComponentTypeOf returns the ComponentType registered for T. It panics if T is unregistered.
func ComponentTypeOf[T any](r *ComponentRegistry) ComponentType {
	ct, ok := r.TypeOf(reflect.TypeFor[T]())
	if !ok {
		panic("component type " + reflect.TypeFor[T]().String() + " not registered")
	}
	return ct
}

// TypeOf returns the ComponentType registered for t.
func (r *ComponentRegistry) TypeOf(t reflect.Type) (ComponentType, bool) {
	info, ok := r.byType[t]
	if !ok {
		return 0, false
	}
	return info.id, true
}

// Lookup resolves a registered component name to its Go type.
func (r *ComponentRegistry) Lookup(name string) (reflect.Type, bool) {
	info, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return info.typ, true
}

// Name returns the registered name of ct.
func (r *ComponentRegistry) Name(ct ComponentType) string {
	if int(ct) >= len(r.infos) {
		return ""
	}
	return r.infos[ct].name
}

// Type returns the Go type of ct, or nil if ct was never assigned.
func (r *ComponentRegistry) Type(ct ComponentType) reflect.Type {
	if int(ct) >= len(r.infos) {
		return nil
	}
	return r.infos[ct].typ
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.infos)
}

// Signature builds a signature from Go types. It panics on unregistered types.
func (r *ComponentRegistry) Signature(types ...reflect.Type) Signature {
	var s Signature
	for _, t := range types {
		ct, ok := r.TypeOf(t)
		if !ok {
			panic("component type " + t.String() + " not registered")
		}
		s = s.With(ct)
	}
	return s
}

// SignatureByName builds a signature from registered component names.
func (r *ComponentRegistry) SignatureByName(names ...string) (Signature, error) {
	var s Signature
	for _, name := range names {
		info, ok := r.byName[name]
		if !ok {
			return Signature{}, &unknownComponentError{name: name}
		}
		s = s.With(info.id)
	}
	return s, nil
}

func (r *ComponentRegistry) factory(ct ComponentType) func() iComponentStorage {
	return r.infos[ct].factory
}

type unknownComponentError struct {
	name string
}

func (e *unknownComponentError) Error() string {
	return "component type " + e.name + " not registered"
}

func (e *unknownComponentError) Unwrap() error {
	return ErrUnregisteredComponent
}

const (
	genericBlockSize = 64
)

// genericComponentStorage stores components of type T in fixed-size blocks so that
// pointers handed out by Get stay valid for as long as the component lives.
// An intmap translates entity slot indices into block slots.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	slots     *intmap.Map[uint32, int]
	freeSlots []int
	nextSlot  int
}

func newGenericComponentStorage[T any]() *genericComponentStorage[T] {
	return &genericComponentStorage[T]{
		slots: intmap.New[uint32, int](64),
	}
}

// Set stores item for the entity at index, replacing any existing value in place.
func (cs *genericComponentStorage[T]) Set(index uint32, item any) bool {
	var concreteItem T
	if ptr, ok := item.(*T); ok {
		concreteItem = *ptr
	} else if val, ok := item.(T); ok {
		concreteItem = val
	} else {
		return false
	}

	if slot, ok := cs.slots.Get(index); ok {
		cs.blocks[slot/genericBlockSize][slot%genericBlockSize] = concreteItem
		return true
	}

	var slot int
	if n := len(cs.freeSlots); n > 0 {
		slot = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		slot = cs.nextSlot
		cs.nextSlot++
		if slot/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
		}
	}

	cs.blocks[slot/genericBlockSize][slot%genericBlockSize] = concreteItem
	cs.slots.Put(index, slot)
	return true
}

// Get returns a *T for the entity at index, or nil.
func (cs *genericComponentStorage[T]) Get(index uint32) any {
	slot, ok := cs.slots.Get(index)
	if !ok {
		return nil
	}
	return &cs.blocks[slot/genericBlockSize][slot%genericBlockSize]
}

// Delete removes the component for the entity at index.
func (cs *genericComponentStorage[T]) Delete(index uint32) bool {
	slot, ok := cs.slots.Get(index)
	if !ok {
		return false
	}
	cs.slots.Del(index)

	var zero T
	cs.blocks[slot/genericBlockSize][slot%genericBlockSize] = zero
	cs.freeSlots = append(cs.freeSlots, slot)
	return true
}

func (cs *genericComponentStorage[T]) Has(index uint32) bool {
	_, ok := cs.slots.Get(index)
	return ok
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.slots.Len()
}

// Clear drops every component and releases the blocks.
func (cs *genericComponentStorage[T]) Clear() {
	cs.blocks = nil
	cs.freeSlots = nil
	cs.nextSlot = 0
	cs.slots.Clear()
}
