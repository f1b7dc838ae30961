package input

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/tickworks/ecs"
)

var (
	// ErrUnbound is reported for events with no matching binding.
	ErrUnbound = errors.New("no input binding")
	// ErrTranslatorPanic is reported for events whose Translator panicked.
	ErrTranslatorPanic = errors.New("input translator panicked")
)

type bindingKey struct {
	device Device
	code   string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for dropped events.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.log = logger
		}
	}
}

// WithQueueCapacity presizes the event queue.
func WithQueueCapacity(n int) Option {
	return func(m *Manager) {
		m.queue = ecs.NewEventQueue[Event](n)
	}
}

// Manager queues device events and turns them into entity mutations at the tick boundary.
//
// Post is safe for concurrent use. Every other method must be called from the goroutine
// running the tick.
type Manager struct {
	entities *ecs.EntityManager
	queue    *ecs.EventQueue[Event]
	bindings map[bindingKey]Translator
	focus    ecs.EntityId
	log      *zap.Logger
}

// NewManager creates an input manager applying mutations to entities.
func NewManager(entities *ecs.EntityManager, opts ...Option) *Manager {
	m := &Manager{
		entities: entities,
		queue:    ecs.NewEventQueue[Event](64),
		bindings: make(map[bindingKey]Translator),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind sets the translator for code on device, replacing any previous binding. An empty
// code binds every event from device that has no binding of its own.
func (m *Manager) Bind(device Device, code string, t Translator) {
	m.bindings[bindingKey{device, code}] = t
}

// Unbind removes the binding for code on device.
func (m *Manager) Unbind(device Device, code string) {
	delete(m.bindings, bindingKey{device, code})
}

// Focus sets the entity events are delivered to when they carry no Target.
func (m *Manager) Focus(id ecs.EntityId) {
	m.focus = id
}

// Focused returns the focused entity.
func (m *Manager) Focused() ecs.EntityId {
	return m.focus
}

// Post queues ev for the next Flush.
func (m *Manager) Post(ev Event) {
	m.queue.Push(ev)
}

// Pending returns the number of queued events.
func (m *Manager) Pending() int {
	return m.queue.Len()
}

// Flush drains the queue, translates every event and then applies the resulting mutations
// in order. Unbound events and failed mutations are dropped and reported.
func (m *Manager) Flush() ecs.FlushReport {
	events := m.queue.Drain()
	report := ecs.FlushReport{Events: len(events)}

	var mutations []ecs.Mutation
	for _, ev := range events {
		t := m.lookup(ev)
		if t == nil {
			report.Drop(m.log, "dropping input event",
				fmt.Errorf("%s %s %q: %w", ev.Device, ev.Action, ev.Code, ErrUnbound))
			continue
		}
		target := ev.Target
		if target.IsZero() {
			target = m.focus
		}
		muts, err := translate(t, ev, target)
		if err != nil {
			report.Drop(m.log, "dropping input event",
				fmt.Errorf("%s %s %q: %w", ev.Device, ev.Action, ev.Code, err))
			continue
		}
		mutations = append(mutations, muts...)
	}

	m.entities.ApplyBatch(mutations, &report, m.log)
	return report
}

func translate(t Translator, ev Event, target ecs.EntityId) (muts []ecs.Mutation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTranslatorPanic, r)
		}
	}()
	return t(ev, target), nil
}

func (m *Manager) lookup(ev Event) Translator {
	if t, ok := m.bindings[bindingKey{ev.Device, ev.Code}]; ok {
		return t
	}
	return m.bindings[bindingKey{device: ev.Device}]
}
