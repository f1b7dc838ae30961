// Package engine wires the five managers together and drives them one tick at a time.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/config"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/input"
	"github.com/plus3/tickworks/scene"
	"github.com/plus3/tickworks/script"
	"github.com/plus3/tickworks/ui"
)

type options struct {
	logger *zap.Logger
	onTick func(TickReport)
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the root logger. Each manager logs through a named child.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTickHook calls fn with the report of every tick run by Run.
func WithTickHook(fn func(TickReport)) Option {
	return func(o *options) {
		o.onTick = fn
	}
}

// TickReport collects everything that went wrong, or was dropped, during one tick.
type TickReport struct {
	Tick     uint64
	Input    ecs.FlushReport
	UI       ecs.FlushReport
	Systems  []*ecs.SystemError
	Scene    error
	Duration time.Duration
}

// Err combines every failure in the report.
func (r TickReport) Err() error {
	var errs error
	errs = multierr.Append(errs, r.Input.Err())
	errs = multierr.Append(errs, r.UI.Err())
	for _, e := range r.Systems {
		errs = multierr.Append(errs, e)
	}
	return multierr.Append(errs, r.Scene)
}

// Engine owns one instance of each manager.
//
// A tick applies queued input events, then queued UI events, runs every system in
// priority order (flushing their commands) and finally carries out the scene request
// made during the tick, if any.
type Engine struct {
	cfg      config.Engine
	entities *ecs.EntityManager
	systems  *ecs.SystemManager
	scenes   *scene.Manager
	input    *input.Manager
	ui       *ui.Manager
	scripts  []*script.System
	onTick   func(TickReport)
	log      *zap.Logger
}

// New builds an engine over registry. Lua scripts listed in cfg are loaded and added
// as systems.
func New(cfg config.Engine, registry *ecs.ComponentRegistry, opts ...Option) (*Engine, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	entities := ecs.NewEntityManager(registry, cfg.MaxEntities, ecs.WithLogger(log.Named("entities")))
	e := &Engine{
		cfg:      cfg,
		entities: entities,
		systems:  ecs.NewSystemManager(entities, ecs.WithLogger(log.Named("systems"))),
		scenes:   scene.NewManager(entities, scene.WithLogger(log.Named("scenes"))),
		input:    input.NewManager(entities, input.WithLogger(log.Named("input"))),
		ui:       ui.NewManager(entities, ui.WithLogger(log.Named("ui"))),
		onTick:   o.onTick,
		log:      log,
	}

	for _, path := range cfg.Scripts {
		sys, err := script.LoadFile(path, script.WithLogger(log.Named("script")))
		if err != nil {
			e.Close()
			return nil, err
		}
		e.scripts = append(e.scripts, sys)
		e.AddSystem(sys)
	}
	return e, nil
}

func (e *Engine) Entities() *ecs.EntityManager { return e.entities }
func (e *Engine) Systems() *ecs.SystemManager { return e.systems }
func (e *Engine) Scenes() *scene.Manager { return e.scenes }
func (e *Engine) Input() *input.Manager { return e.input }
func (e *Engine) UI() *ui.Manager { return e.ui }

// AddSystem registers system with the priority configured for its name. Systems missing
// from the configured order run after all listed ones, in the order they were added.
func (e *Engine) AddSystem(system ecs.System) {
	name := ecs.SystemName(system)
	priority := e.cfg.Priority(name)
	if priority == len(e.cfg.SystemPriorities) && len(e.cfg.SystemPriorities) > 0 {
		e.log.Debug("system has no configured priority", zap.String("system", name))
	}
	e.systems.Register(system, priority)
}

// RemoveSystem unregisters system.
func (e *Engine) RemoveSystem(system ecs.System) {
	e.systems.Unregister(system)
}

// LoadScenes loads every descriptor file in cfg and activates cfg.Start when set.
func (e *Engine) LoadScenes(cfg config.Scenes) error {
	for _, path := range cfg.Files {
		if _, err := e.scenes.LoadFile(path); err != nil {
			return err
		}
	}
	if cfg.Start == "" {
		return nil
	}
	s, ok := e.scenes.Get(cfg.Start)
	if !ok {
		return fmt.Errorf("start scene %q: %w", cfg.Start, scene.ErrSceneNotLoaded)
	}
	return e.scenes.Activate(s)
}

// Tick advances the simulation by dt seconds.
func (e *Engine) Tick(dt float64) TickReport {
	start := time.Now()
	report := TickReport{
		Input: e.input.Flush(),
		UI:    e.ui.Flush(),
	}
	report.Systems = e.systems.Tick(dt)
	report.Tick = e.systems.Ticks()

	if err := e.scenes.ApplyPending(); err != nil {
		report.Scene = err
		e.log.Error("scene transition failed", zap.Uint64("tick", report.Tick), zap.Error(err))
	}
	report.Duration = time.Since(start)
	return report
}

// Run ticks at the given interval until ctx is cancelled. dt is the wall time since the
// previous tick.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = e.cfg.TickRate
	}
	if interval <= 0 {
		interval = config.Default().Engine.TickRate
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()
	e.log.Info("engine running", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", zap.Uint64("ticks", e.systems.Ticks()))
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			report := e.Tick(dt)
			if e.onTick != nil {
				e.onTick(report)
			}
		}
	}
}

// Close releases script VMs.
func (e *Engine) Close() {
	for _, s := range e.scripts {
		s.Close()
	}
	e.scripts = nil
}
