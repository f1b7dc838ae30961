package ecs_test

import (
	"fmt"
	"reflect"

	"github.com/plus3/tickworks/ecs"
)

type Transform struct {
	X, Y float32
}

type Speed struct {
	DX, DY float32
}

type Hitpoints struct {
	Current, Max int
}

type PhysicsSystem struct {
	Entities ecs.View[struct {
		*Transform
		*Speed
	}]
}

func (s *PhysicsSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return s.Entities.Signature()
}

func (s *PhysicsSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, entity := range s.Entities.Iter() {
		entity.Transform.X += entity.Speed.DX * float32(frame.DeltaTime)
		entity.Transform.Y += entity.Speed.DY * float32(frame.DeltaTime)
	}
	return nil
}

type HealingSystem struct {
	RegenRate float32
}

func (s *HealingSystem) Signature(r *ecs.ComponentRegistry) ecs.Signature {
	return r.Signature(reflect.TypeFor[Hitpoints]())
}

func (s *HealingSystem) Execute(frame *ecs.UpdateFrame) error {
	for id := range frame.Matches {
		hp, err := ecs.Get[Hitpoints](frame.Entities, id)
		if err != nil {
			return err
		}
		hp.Current = min(hp.Max, hp.Current+int(s.RegenRate*float32(frame.DeltaTime)))
	}
	return nil
}

// ExampleSystemManager demonstrates building a game loop with multiple systems.
// Systems run in priority order; View fields are initialised on registration
// and frame.Matches iterates the entities matching each system's signature.
func ExampleSystemManager() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Speed](registry)
	ecs.RegisterComponent[Hitpoints](registry)
	entities := ecs.NewEntityManager(registry, 0)

	a, _ := ecs.Spawn(entities,
		Transform{X: 0, Y: 0},
		Speed{DX: 10, DY: 5},
		Hitpoints{Current: 80, Max: 100},
	)
	b, _ := ecs.Spawn(entities,
		Transform{X: 100, Y: 100},
		Speed{DX: -5, DY: -5},
		Hitpoints{Current: 95, Max: 100},
	)

	systems := ecs.NewSystemManager(entities)
	systems.Register(&HealingSystem{RegenRate: 10}, 20)
	systems.Register(&PhysicsSystem{}, 10)

	systems.Tick(1.0)

	for _, s := range systems.Systems() {
		fmt.Println(ecs.SystemName(s))
	}
	for _, id := range []ecs.EntityId{a, b} {
		tr, _ := ecs.Get[Transform](entities, id)
		hp, _ := ecs.Get[Hitpoints](entities, id)
		fmt.Printf("(%.0f, %.0f) hp=%d\n", tr.X, tr.Y, hp.Current)
	}

	// Output:
	// PhysicsSystem
	// HealingSystem
	// (10, 5) hp=90
	// (95, 95) hp=100
}

// ExampleSystemManager_Tick shows that a failing system is reported without
// stopping the systems after it.
func ExampleSystemManager_Tick() {
	entities := ecs.NewEntityManager(ecs.NewComponentRegistry(), 0)
	systems := ecs.NewSystemManager(entities)

	systems.Register(ecs.NewFuncSystem("broken", ecs.Signature{}, func(*ecs.UpdateFrame) error {
		return fmt.Errorf("out of fuel")
	}), 0)
	systems.Register(ecs.NewFuncSystem("counter", ecs.Signature{}, func(frame *ecs.UpdateFrame) error {
		fmt.Println("counter ran on tick", frame.Tick)
		return nil
	}), 1)

	for _, failure := range systems.Tick(0.016) {
		fmt.Println(failure)
	}

	// Output:
	// counter ran on tick 1
	// system broken failed on tick 1: out of fuel
}
