package input_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/input"
)

type Position struct {
	X, Y float64
}

type Cursor struct {
	X, Y float64
}

func newEntities() *ecs.EntityManager {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Cursor](registry)
	return ecs.NewEntityManager(registry, 0)
}

func step(dx, dy float64) input.Translator {
	return func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.UpdateMutation(target, func(p *Position) {
			p.X += dx
			p.Y += dy
		})}
	}
}

func key(code string) input.Event {
	return input.Event{Device: input.Keyboard, Code: code, Action: input.Press}
}

func TestFlushAppliesBoundEventsToFocus(t *testing.T) {
	entities := newEntities()
	player, err := ecs.Spawn(entities, Position{})
	require.NoError(t, err)

	m := input.NewManager(entities)
	m.Bind(input.Keyboard, "d", step(1, 0))
	m.Bind(input.Keyboard, "s", step(0, 1))
	m.Focus(player)
	assert.Equal(t, player, m.Focused())

	m.Post(key("d"))
	m.Post(key("d"))
	m.Post(key("s"))
	assert.Equal(t, 3, m.Pending())

	pos, _ := ecs.Get[Position](entities, player)
	assert.Equal(t, Position{}, *pos, "nothing changes before Flush")

	report := m.Flush()
	assert.Equal(t, 3, report.Events)
	assert.Equal(t, 3, report.Applied)
	assert.Zero(t, report.Dropped)
	assert.NoError(t, report.Err())
	assert.Equal(t, Position{X: 2, Y: 1}, *pos)
	assert.Equal(t, 0, m.Pending())

	report = m.Flush()
	assert.Equal(t, ecs.FlushReport{}, report)
}

func TestFlushExplicitTarget(t *testing.T) {
	entities := newEntities()
	a, _ := ecs.Spawn(entities, Position{})
	b, _ := ecs.Spawn(entities, Position{})

	m := input.NewManager(entities)
	m.Bind(input.Keyboard, "d", step(1, 0))
	m.Focus(a)

	ev := key("d")
	ev.Target = b
	m.Post(ev)
	m.Flush()

	pa, _ := ecs.Get[Position](entities, a)
	pb, _ := ecs.Get[Position](entities, b)
	assert.Equal(t, 0.0, pa.X)
	assert.Equal(t, 1.0, pb.X)
}

func TestFlushDropsUnboundEvents(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	entities := newEntities()
	player, _ := ecs.Spawn(entities, Position{})

	m := input.NewManager(entities, input.WithLogger(zap.New(core)))
	m.Bind(input.Keyboard, "d", step(1, 0))
	m.Focus(player)

	m.Post(key("x"))
	m.Post(key("d"))
	m.Post(input.Event{Device: input.Mouse, Action: input.Move})

	report := m.Flush()
	assert.Equal(t, 3, report.Events)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 2, report.Dropped)
	require.Len(t, report.Errors, 2)
	assert.ErrorIs(t, report.Errors[0], input.ErrUnbound)
	assert.ErrorIs(t, report.Err(), input.ErrUnbound)
	assert.Equal(t, 2, logs.FilterMessage("dropping input event").Len())
}

func TestFlushDropsMutationsForStaleEntities(t *testing.T) {
	entities := newEntities()
	gone, _ := ecs.Spawn(entities, Position{})
	kept, _ := ecs.Spawn(entities, Position{})
	require.NoError(t, entities.Destroy(gone))

	m := input.NewManager(entities)
	m.Bind(input.Keyboard, "d", step(1, 0))

	stale := key("d")
	stale.Target = gone
	live := key("d")
	live.Target = kept
	m.Post(stale)
	m.Post(live)
	m.Post(key("d")) // no focus

	report := m.Flush()
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 2, report.Dropped)
	for _, err := range report.Errors {
		assert.ErrorIs(t, err, ecs.ErrInvalidHandle)
	}

	pos, _ := ecs.Get[Position](entities, kept)
	assert.Equal(t, 1.0, pos.X)
}

func TestFlushRecoversPanickingTranslators(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	entities := newEntities()
	player, _ := ecs.Spawn(entities, Position{})

	m := input.NewManager(entities, input.WithLogger(zap.New(core)))
	m.Bind(input.Keyboard, "x", func(input.Event, ecs.EntityId) []ecs.Mutation {
		panic("bad binding")
	})
	m.Bind(input.Keyboard, "z", func(_ input.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.UpdateMutation(target, func(*Position) { panic("bad update") })}
	})
	m.Bind(input.Keyboard, "d", step(1, 0))
	m.Focus(player)

	m.Post(key("x"))
	m.Post(key("z"))
	m.Post(key("d"))

	var report ecs.FlushReport
	require.NotPanics(t, func() { report = m.Flush() })
	assert.Equal(t, 3, report.Events)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 2, report.Dropped)
	require.Len(t, report.Errors, 2)
	assert.ErrorIs(t, report.Errors[0], input.ErrTranslatorPanic)
	assert.Contains(t, report.Errors[0].Error(), "bad binding")
	assert.ErrorIs(t, report.Errors[1], ecs.ErrSystemPanic)
	assert.Equal(t, 1, logs.FilterMessage("dropping input event").Len())
	assert.Equal(t, 1, logs.FilterMessage("dropping mutation").Len())

	pos, _ := ecs.Get[Position](entities, player)
	assert.Equal(t, 1.0, pos.X)
	assert.Equal(t, 0, m.Pending())
}

func TestFlushTranslatesBeforeApplying(t *testing.T) {
	entities := newEntities()
	player, _ := ecs.Spawn(entities, Position{})

	var seenAlive []bool
	m := input.NewManager(entities)
	m.Bind(input.Keyboard, "k", func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		seenAlive = append(seenAlive, entities.Alive(target))
		return []ecs.Mutation{ecs.DestroyMutation(target)}
	})
	m.Bind(input.Keyboard, "d", func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		seenAlive = append(seenAlive, entities.Alive(target))
		return step(1, 0)(ev, target)
	})
	m.Focus(player)

	m.Post(key("k"))
	m.Post(key("d"))
	report := m.Flush()

	assert.Equal(t, []bool{true, true}, seenAlive)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Dropped)
	assert.False(t, entities.Alive(player))
}

func TestDeviceWideBinding(t *testing.T) {
	entities := newEntities()
	pointer, _ := ecs.Spawn(entities, Cursor{})

	clicks := 0
	m := input.NewManager(entities)
	m.Bind(input.Mouse, "", func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.SetMutation(target, Cursor{X: ev.X, Y: ev.Y})}
	})
	m.Bind(input.Mouse, "Primary", func(input.Event, ecs.EntityId) []ecs.Mutation {
		clicks++
		return nil
	})
	m.Focus(pointer)

	m.Post(input.Event{Device: input.Mouse, Action: input.Move, X: 3, Y: 4})
	m.Post(input.Event{Device: input.Mouse, Code: "Primary", Action: input.Press, X: 9, Y: 9})
	m.Post(input.Event{Device: input.Mouse, Code: "Middle", Action: input.Press, X: 5, Y: 6})
	report := m.Flush()

	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, clicks)
	c, _ := ecs.Get[Cursor](entities, pointer)
	assert.Equal(t, Cursor{X: 5, Y: 6}, *c)

	m.Unbind(input.Mouse, "")
	m.Post(input.Event{Device: input.Mouse, Action: input.Move})
	assert.Equal(t, 1, m.Flush().Dropped)
}

func TestConcurrentPost(t *testing.T) {
	entities := newEntities()
	player, _ := ecs.Spawn(entities, Position{})

	m := input.NewManager(entities, input.WithQueueCapacity(8))
	m.Bind(input.Keyboard, "d", step(1, 0))
	m.Focus(player)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Post(key("d"))
			}
		}()
	}
	wg.Wait()

	report := m.Flush()
	assert.Equal(t, 800, report.Applied)
	pos, _ := ecs.Get[Position](entities, player)
	assert.Equal(t, 800.0, pos.X)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "keyboard", input.Keyboard.String())
	assert.Equal(t, "touch", input.Touch.String())
	assert.Equal(t, "scroll", input.Scroll.String())
	assert.Equal(t, "Action(0)", input.Action(0).String())
}
