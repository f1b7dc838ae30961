package ecs

import (
	"fmt"
	"reflect"
)

// MutationKind selects the operation a Mutation performs.
type MutationKind uint8

const (
	// MutationSet adds the component or replaces an existing one of the same type.
	MutationSet MutationKind = iota
	// MutationAdd adds the component and fails if one of the same type exists.
	MutationAdd
	// MutationRemove removes the component of Type.
	MutationRemove
	// MutationUpdate calls Update with a pointer to the existing component of Type.
	MutationUpdate
	// MutationDestroy destroys the target entity.
	MutationDestroy
)

func (k MutationKind) String() string {
	switch k {
	case MutationSet:
		return "set"
	case MutationAdd:
		return "add"
	case MutationRemove:
		return "remove"
	case MutationUpdate:
		return "update"
	case MutationDestroy:
		return "destroy"
	default:
		return fmt.Sprintf("MutationKind(%d)", uint8(k))
	}
}

// Mutation is a queued structural or data change against a single entity. Input and UI events
// are translated into mutations and applied in one batch before systems run.
type Mutation struct {
	Kind      MutationKind
	Target    EntityId
	Component any
	Type      reflect.Type
	Update    func(component any)
}

// SetMutation sets component on target, replacing any existing value.
func SetMutation(target EntityId, component any) Mutation {
	return Mutation{Kind: MutationSet, Target: target, Component: component}
}

// AddMutation adds component to target.
func AddMutation(target EntityId, component any) Mutation {
	return Mutation{Kind: MutationAdd, Target: target, Component: component}
}

// RemoveMutation removes the T component from target.
func RemoveMutation[T any](target EntityId) Mutation {
	return Mutation{Kind: MutationRemove, Target: target, Type: reflect.TypeFor[T]()}
}

// UpdateMutation edits the T component of target in place.
func UpdateMutation[T any](target EntityId, fn func(*T)) Mutation {
	return Mutation{
		Kind:   MutationUpdate,
		Target: target,
		Type:   reflect.TypeFor[T](),
		Update: func(component any) { fn(component.(*T)) },
	}
}

// DestroyMutation destroys target.
func DestroyMutation(target EntityId) Mutation {
	return Mutation{Kind: MutationDestroy, Target: target}
}

// Apply performs mu against the entity tables.
func (m *EntityManager) Apply(mu Mutation) error {
	switch mu.Kind {
	case MutationSet:
		return m.SetComponent(mu.Target, mu.Component)
	case MutationAdd:
		return m.AddComponent(mu.Target, mu.Component)
	case MutationRemove:
		return m.RemoveComponent(mu.Target, mu.Type)
	case MutationUpdate:
		c, err := m.GetComponent(mu.Target, mu.Type)
		if err != nil {
			return err
		}
		if mu.Update != nil {
			mu.Update(c)
		}
		return nil
	case MutationDestroy:
		return m.Destroy(mu.Target)
	default:
		return fmt.Errorf("unknown mutation kind %s", mu.Kind)
	}
}
