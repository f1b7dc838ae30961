package main

import (
	"fmt"
	"math/rand"

	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/input"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Health struct {
	Current, Max int
}

type Lifetime struct {
	Remaining float64
}

type Mass struct {
	Kg float64
}

type Tag struct {
	Value string
}

func registerComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[Mass](registry)
	ecs.RegisterComponent[Tag](registry)
}

// randomComponents returns between 1 and 5 distinct components. Every entity gets a Lifetime
// so the population churns.
func randomComponents(rng *rand.Rand) []any {
	pool := []func() any{
		func() any { return Position{X: rng.Float64() * 1000, Y: rng.Float64() * 1000} },
		func() any { return Velocity{DX: rng.Float64()*2 - 1, DY: rng.Float64()*2 - 1} },
		func() any { return Health{Current: 100, Max: 100} },
		func() any { return Mass{Kg: rng.Float64() * 50} },
		func() any { return Tag{Value: fmt.Sprintf("e%d", rng.Intn(1000))} },
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := rng.Intn(len(pool)) + 1
	comps := make([]any, 0, n+1)
	for _, newComponent := range pool[:n] {
		comps = append(comps, newComponent())
	}
	return append(comps, Lifetime{Remaining: 1 + rng.Float64()*4})
}

// bindInput makes keyboard events nudge the focused entity's velocity.
func bindInput(in *input.Manager) {
	in.Bind(input.Keyboard, "", func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.UpdateMutation(target, func(v *Velocity) {
			v.DX = -v.DX
			v.DY = -v.DY
		})}
	})
}
