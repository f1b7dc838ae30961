package main

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/plus3/tickworks/ecs"
)

type MovementSystem struct {
	Movers ecs.View[struct {
		*Position
		*Velocity
	}]
}

func (s *MovementSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return s.Movers.Signature()
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for m := range s.Movers.Values() {
		m.Position.X += m.Velocity.DX * frame.DeltaTime
		m.Position.Y += m.Velocity.DY * frame.DeltaTime
	}
	return nil
}

// LifetimeSystem destroys expired entities through the command buffer.
type LifetimeSystem struct {
	Lifetimes ecs.View[struct{ *Lifetime }]
}

func (s *LifetimeSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return s.Lifetimes.Signature()
}

func (s *LifetimeSystem) Execute(frame *ecs.UpdateFrame) error {
	for id, l := range s.Lifetimes.Iter() {
		l.Remaining -= frame.DeltaTime
		if l.Remaining <= 0 {
			frame.Commands.Destroy(id)
		}
	}
	return nil
}

// SpawnerSystem keeps the population near Target by queueing spawns.
type SpawnerSystem struct {
	Target int
	rng    *rand.Rand
}

func (s *SpawnerSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return ecs.Signature{}
}

func (s *SpawnerSystem) Execute(frame *ecs.UpdateFrame) error {
	for i := frame.Entities.Len(); i < s.Target; i++ {
		frame.Commands.Spawn(randomComponents(s.rng)...)
	}
	return nil
}

// newLoadSystems builds n systems that each touch a random pair of component types.
func newLoadSystems(registry *ecs.ComponentRegistry, rng *rand.Rand, n int) []ecs.System {
	types := []reflect.Type{
		reflect.TypeFor[Position](),
		reflect.TypeFor[Velocity](),
		reflect.TypeFor[Health](),
		reflect.TypeFor[Mass](),
		reflect.TypeFor[Tag](),
	}

	systems := make([]ecs.System, n)
	for i := range systems {
		a, b := rng.Intn(len(types)), rng.Intn(len(types))
		sig := registry.Signature(types[a], types[b])
		systems[i] = ecs.NewFuncSystem(fmt.Sprintf("Load%d", i), sig, func(frame *ecs.UpdateFrame) error {
			for id := range frame.Matches {
				if h, err := ecs.Get[Health](frame.Entities, id); err == nil && h.Current > 0 {
					h.Current--
				}
			}
			return nil
		})
	}
	return systems
}
