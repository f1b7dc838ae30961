package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"
)

// Commands provides a buffer for deferred ECS operations that are executed at the end of a tick.
// This prevents structural changes to the entity tables while systems iterate them.
type Commands struct {
	spawns   []spawnCommand
	destroys []EntityId
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
	then       func(EntityId)
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnThen queues a spawn and calls then with the new entity once it exists.
func (c *Commands) SpawnThen(then func(EntityId), components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components, then: then})
}

// Destroy queues an entity destruction.
func (c *Commands) Destroy(entity EntityId) {
	c.destroys = append(c.destroys, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all queued commands to entities and empties the buffer. Operations targeting an
// entity destroyed earlier in the same flush are skipped; every other failure is collected.
func (c *Commands) Flush(entities *EntityManager) error {
	spawns, destroys, adds, removes, defers := c.spawns, c.destroys, c.adds, c.removes, c.defers
	c.spawns, c.destroys, c.adds, c.removes, c.defers = nil, nil, nil, nil, nil

	var errs error
	destroyed := make(map[EntityId]bool, len(destroys))

	for _, id := range destroys {
		if destroyed[id] {
			continue
		}
		errs = multierr.Append(errs, entities.Destroy(id))
		destroyed[id] = true
	}

	for _, cmd := range removes {
		if !destroyed[cmd.entity] {
			errs = multierr.Append(errs, entities.RemoveComponent(cmd.entity, cmd.compType))
		}
	}

	for _, cmd := range adds {
		if !destroyed[cmd.entity] {
			errs = multierr.Append(errs, entities.AddComponent(cmd.entity, cmd.component))
		}
	}

	for _, cmd := range spawns {
		id, err := Spawn(entities, cmd.components...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if cmd.then != nil {
			errs = multierr.Append(errs, protect(func() { cmd.then(id) }))
		}
	}

	// Commands queued by deferred functions run on the next flush.
	for _, df := range defers {
		errs = multierr.Append(errs, protect(df.fn))
	}
	return errs
}

// protect runs fn and converts a panic into an ErrSystemPanic error.
func protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSystemPanic, r)
		}
	}()
	fn()
	return nil
}

// Spawn creates an entity holding components. If any component cannot be added the
// entity is destroyed again and the error returned.
func Spawn(entities *EntityManager, components ...any) (EntityId, error) {
	id, err := entities.Create()
	if err != nil {
		return 0, err
	}
	for _, component := range components {
		if err := entities.AddComponent(id, component); err != nil {
			_ = entities.Destroy(id)
			return 0, fmt.Errorf("spawn: %w", err)
		}
	}
	return id, nil
}
