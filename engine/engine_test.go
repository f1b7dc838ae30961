package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/tickworks/config"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/engine"
	"github.com/plus3/tickworks/input"
	"github.com/plus3/tickworks/scene"
	"github.com/plus3/tickworks/ui"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Speed struct {
	Factor float64
}

func newRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Speed](registry)
	return registry
}

func newEngine(t *testing.T, cfg config.Engine) *engine.Engine {
	t.Helper()
	e, err := engine.New(cfg, newRegistry())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

type MovementSystem struct {
	Entities ecs.View[struct {
		*Position
		*Velocity
	}]
	Seen []Position
}

func (s *MovementSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return s.Entities.Signature()
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, e := range s.Entities.Iter() {
		e.Position.X += e.Velocity.DX * frame.DeltaTime
		e.Position.Y += e.Velocity.DY * frame.DeltaTime
		s.Seen = append(s.Seen, *e.Position)
	}
	return nil
}

type named struct {
	name string
	log  *[]string
}

func (n *named) Name() string { return n.name }

func (n *named) Signature(*ecs.ComponentRegistry) ecs.Signature { return ecs.Signature{} }

func (n *named) Execute(*ecs.UpdateFrame) error {
	*n.log = append(*n.log, n.name)
	return nil
}

func TestAddSystemUsesConfiguredPriorities(t *testing.T) {
	e := newEngine(t, config.Engine{SystemPriorities: []string{"Input", "Movement", "Render"}})

	var order []string
	for _, name := range []string{"Debug", "Render", "Movement", "Audio", "Input"} {
		e.AddSystem(&named{name: name, log: &order})
	}
	e.Tick(0.1)

	assert.Equal(t, []string{"Input", "Movement", "Render", "Debug", "Audio"}, order)

	stats := e.Systems().Stats()
	assert.Equal(t, 0, stats.Systems[0].Priority)
	assert.Equal(t, 3, stats.Systems[3].Priority)
	assert.Equal(t, 3, stats.Systems[4].Priority)
}

func TestRemoveSystem(t *testing.T) {
	e := newEngine(t, config.Engine{})
	var order []string
	a := &named{name: "a", log: &order}
	e.AddSystem(a)
	e.AddSystem(&named{name: "b", log: &order})
	e.RemoveSystem(a)
	e.Tick(0)
	assert.Equal(t, []string{"b"}, order)
}

func TestTickAppliesInputAndUIBeforeSystems(t *testing.T) {
	e := newEngine(t, config.Engine{})
	player, err := ecs.Spawn(e.Entities(), Position{}, Velocity{})
	require.NoError(t, err)

	e.Input().Bind(input.Keyboard, "d", func(ev input.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.UpdateMutation(target, func(v *Velocity) { v.DX = 10 })}
	})
	e.Input().Focus(player)
	e.UI().Bind("boost", player, func(ev ui.Event, target ecs.EntityId) []ecs.Mutation {
		return []ecs.Mutation{ecs.UpdateMutation(target, func(v *Velocity) { v.DX *= 2 })}
	})

	movement := &MovementSystem{}
	e.AddSystem(movement)

	e.Input().Post(input.Event{Device: input.Keyboard, Code: "d", Action: input.Press})
	e.UI().Post(ui.Event{Widget: "boost", Kind: "click"})

	report := e.Tick(0.5)
	require.NoError(t, report.Err())
	assert.Equal(t, uint64(1), report.Tick)
	assert.Equal(t, 1, report.Input.Applied)
	assert.Equal(t, 1, report.UI.Applied)
	assert.Equal(t, []Position{{X: 10}}, movement.Seen, "systems see this tick's events")
}

func TestTickReportCollectsFailures(t *testing.T) {
	e := newEngine(t, config.Engine{})

	e.AddSystem(ecs.NewFuncSystem("broken", ecs.Signature{}, func(*ecs.UpdateFrame) error {
		return errors.New("broken")
	}))
	s, err := e.Scenes().Load(scene.Descriptor{Name: "s"})
	require.NoError(t, err)
	require.NoError(t, e.Scenes().Activate(s))
	e.Scenes().RequestUnload(s)

	e.Input().Post(input.Event{Device: input.Keyboard, Code: "x"})
	e.UI().Post(ui.Event{Widget: "nothing"})

	report := e.Tick(0.1)
	assert.Len(t, report.Systems, 1)
	assert.ErrorIs(t, report.Scene, scene.ErrSceneStillActive)
	assert.Equal(t, 1, report.Input.Dropped)
	assert.Equal(t, 1, report.UI.Dropped)

	err = report.Err()
	assert.ErrorIs(t, err, input.ErrUnbound)
	assert.ErrorIs(t, err, ui.ErrUnboundWidget)
	assert.ErrorIs(t, err, scene.ErrSceneStillActive)
	assert.ErrorContains(t, err, "system broken failed")
}

// sceneSwitcher requests the next scene from inside a tick.
type sceneSwitcher struct {
	scenes *scene.Manager
	next   *scene.Scene
	during *scene.Scene
}

func (s *sceneSwitcher) Signature(*ecs.ComponentRegistry) ecs.Signature { return ecs.Signature{} }

func (s *sceneSwitcher) Execute(*ecs.UpdateFrame) error {
	if s.next != nil {
		s.scenes.RequestActivate(s.next)
		s.next = nil
	}
	s.during = s.scenes.Active()
	return nil
}

func TestSceneRequestsApplyAtTickBoundary(t *testing.T) {
	e := newEngine(t, config.Engine{})
	scenes := e.Scenes()

	entities := func(n int) []scene.EntityTemplate {
		out := make([]scene.EntityTemplate, n)
		for i := range out {
			out[i] = scene.EntityTemplate{Components: []scene.ComponentTemplate{scene.Component(Position{X: float64(i)})}}
		}
		return out
	}
	s1, err := scenes.Load(scene.Descriptor{Name: "s1", Entities: entities(5)})
	require.NoError(t, err)
	s2, err := scenes.Load(scene.Descriptor{Name: "s2", Entities: entities(2)})
	require.NoError(t, err)
	require.NoError(t, scenes.Activate(s1))
	old := s1.Entities()

	switcher := &sceneSwitcher{scenes: scenes, next: s2}
	e.AddSystem(switcher)

	report := e.Tick(0.1)
	require.NoError(t, report.Err())
	assert.Same(t, s1, switcher.during, "the switch waits for the end of the tick")
	assert.Same(t, s2, scenes.Active())

	for _, id := range old {
		_, err := ecs.Get[Position](e.Entities(), id)
		assert.ErrorIs(t, err, ecs.ErrInvalidHandle)
	}
	assert.Equal(t, 2, e.Entities().Len())
}

func TestMaxEntitiesFromConfig(t *testing.T) {
	e := newEngine(t, config.Engine{MaxEntities: 2})
	assert.Equal(t, 2, e.Entities().Capacity())

	_, _ = e.Entities().Create()
	_, _ = e.Entities().Create()
	_, err := e.Entities().Create()
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
}

func TestScriptsFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Accelerate.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
requires = {"Velocity", "Speed"}
function update(dt, entities)
  for _, id in ipairs(entities) do
    local dx = ecs.get(id, "Velocity", "DX")
    ecs.set(id, "Velocity", "DX", dx * ecs.get(id, "Speed", "Factor"))
  end
end
`), 0o644))

	e := newEngine(t, config.Engine{
		SystemPriorities: []string{"Accelerate", "MovementSystem"},
		Scripts:          []string{path},
	})
	movement := &MovementSystem{}
	e.AddSystem(movement)

	_, err := ecs.Spawn(e.Entities(), Position{}, Velocity{DX: 1}, Speed{Factor: 3})
	require.NoError(t, err)

	require.NoError(t, e.Tick(1).Err())
	assert.Equal(t, []Position{{X: 3}}, movement.Seen)

	systems := e.Systems().Systems()
	require.Len(t, systems, 2)
	assert.Equal(t, "Accelerate", ecs.SystemName(systems[0]))

	_, err = engine.New(config.Engine{Scripts: []string{filepath.Join(dir, "missing.lua")}}, newRegistry())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadScenes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: arena
entities:
  - name: hero
    components:
      - type: Position
        data: {x: 4}
      - type: Velocity
`), 0o644))

	e := newEngine(t, config.Engine{})
	require.NoError(t, e.LoadScenes(config.Scenes{Files: []string{path}, Start: "arena"}))

	active := e.Scenes().Active()
	require.NotNil(t, active)
	hero, ok := active.Entity("hero")
	require.True(t, ok)
	pos, err := ecs.Get[Position](e.Entities(), hero)
	require.NoError(t, err)
	assert.Equal(t, 4.0, pos.X)

	e2 := newEngine(t, config.Engine{})
	err = e2.LoadScenes(config.Scenes{Files: []string{path}, Start: "elsewhere"})
	assert.ErrorIs(t, err, scene.ErrSceneNotLoaded)

	err = e2.LoadScenes(config.Scenes{Files: []string{filepath.Join(dir, "missing.yaml")}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunStopsOnCancel(t *testing.T) {
	var ticks atomic.Int64
	e, err := engine.New(config.Engine{}, newRegistry(), engine.WithTickHook(func(r engine.TickReport) {
		ticks.Add(1)
	}))
	require.NoError(t, err)
	defer e.Close()

	var dts []float64
	e.AddSystem(ecs.NewFuncSystem("clock", ecs.Signature{}, func(frame *ecs.UpdateFrame) error {
		dts = append(dts, frame.DeltaTime)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		e.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Greater(t, ticks.Load(), int64(0))
	assert.Equal(t, uint64(ticks.Load()), e.Systems().Ticks())
	for _, dt := range dts {
		assert.Greater(t, dt, 0.0)
	}
}
