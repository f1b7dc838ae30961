package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View gives typed access to entities with a specific combination of components.
// The type T should be a struct with embedded or named pointer fields for each component type.
// Named fields can be marked as optional using the `ecs:"optional"` struct tag.
//
// Views placed as fields on a System are initialised by SystemManager.Register.
type View[T any] struct {
	entities    *EntityManager
	types       []ComponentType
	optional    []bool
	fieldOffset []uintptr
	required    Signature
}

// NewView creates a new view for the given struct type
// Embedded fields are always required
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
func NewView[T any](entities *EntityManager) *View[T] {
	v := &View[T]{}
	v.Init(entities)
	return v
}

// Init resolves the view's component types against the manager's registry.
// It panics if T is not a struct of pointers to registered component types.
func (v *View[T]) Init(entities *EntityManager) {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v.entities = entities
	v.types = make([]ComponentType, 0, structType.NumField())
	v.optional = make([]bool, 0, structType.NumField())
	v.fieldOffset = make([]uintptr, 0, structType.NumField())
	v.required = Signature{}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		ct, ok := entities.Registry().TypeOf(fieldType.Elem())
		if !ok {
			panic("component type " + fieldType.Elem().String() + " not registered")
		}

		// Parse struct tag to check if component is optional
		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		v.types = append(v.types, ct)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		if !isOptional {
			v.required = v.required.With(ct)
		}
	}
}

// Signature returns the required (non-optional) component types of the view.
func (v *View[T]) Signature() Signature {
	return v.required
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is not alive or is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	idx, err := v.entities.resolve(id)
	if err != nil {
		return false
	}
	return v.populate(unsafe.Pointer(ptr), idx)
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

func (v *View[T]) populate(structPtr unsafe.Pointer, idx uint32) bool {
	for i, ct := range v.types {
		// Calculate the address of the field using the pre-computed offset
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		component := v.entities.component(idx, ct)
		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// Extract the *Component from the interface{} without reflection
		componentPtr := (*eface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}
	return true
}

// Iter returns an iterator over all entities that have all the required components for this view,
// in ascending slot index order. Optional components are set to nil if not present.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for id := range v.entities.Query(v.required) {
			if !v.populate(resultPtr, id.Index()) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entity IDs)
// This is useful when you only care about the component data, not which entity it belongs to
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with components copied from the view struct.
// Nil optional fields are skipped; a nil required field panics.
func (v *View[T]) Spawn(data T) (EntityId, error) {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	for i, ct := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}

		componentType := v.entities.Registry().Type(ct)
		components = append(components, reflect.NewAt(componentType, componentPtr).Elem().Interface())
	}

	return Spawn(v.entities, components...)
}

// eface mirrors the runtime layout of an empty interface so populate can pull the component
// pointer out of the value returned by a type-erased store.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
