// Package ui turns widget events raised by an external UI layer into entity mutations.
// Rendering is left to that layer; widgets are known here only by name.
package ui

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/tickworks/ecs"
)

var (
	// ErrUnboundWidget is reported for events from widgets with no binding.
	ErrUnboundWidget = errors.New("widget not bound")
	// ErrHandlerPanic is reported for events whose Handler panicked.
	ErrHandlerPanic = errors.New("ui handler panicked")
)

// Event is raised by a widget. Kind is widget specific ("click", "change", "select").
type Event struct {
	Widget string
	Kind   string
	Value  any
}

// Handler turns a widget event into mutations against the entity the widget is bound to.
type Handler func(ev Event, target ecs.EntityId) []ecs.Mutation

type binding struct {
	target  ecs.EntityId
	handler Handler
}

func (b binding) handle(ev Event) (muts []ecs.Mutation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return b.handler(ev, b.target), nil
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

// Manager queues widget events and applies them as mutations at the tick boundary.
// Post is safe for concurrent use; the rest is not.
type Manager struct {
	entities *ecs.EntityManager
	queue    *ecs.EventQueue[Event]
	bindings map[string]binding
	log      *zap.Logger
}

// NewManager creates a UI manager applying mutations to entities.
func NewManager(entities *ecs.EntityManager, opts ...Option) *Manager {
	m := &Manager{
		entities: entities,
		queue:    ecs.NewEventQueue[Event](32),
		bindings: make(map[string]binding),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind routes events from widget to h with target as the entity. Rebinding replaces the
// previous handler and target.
func (m *Manager) Bind(widget string, target ecs.EntityId, h Handler) {
	m.bindings[widget] = binding{target: target, handler: h}
}

// Unbind removes the binding for widget. Queued events for it are dropped on Flush.
func (m *Manager) Unbind(widget string) {
	delete(m.bindings, widget)
}

// Target returns the entity widget is bound to.
func (m *Manager) Target(widget string) (ecs.EntityId, bool) {
	b, ok := m.bindings[widget]
	return b.target, ok
}

// Post queues ev for the next Flush.
func (m *Manager) Post(ev Event) {
	m.queue.Push(ev)
}

// Pending returns the number of queued events.
func (m *Manager) Pending() int {
	return m.queue.Len()
}

// Flush drains the queue, runs every bound handler and then applies the mutations in
// order. Events from unbound widgets and failed mutations are dropped and reported.
func (m *Manager) Flush() ecs.FlushReport {
	events := m.queue.Drain()
	report := ecs.FlushReport{Events: len(events)}

	var mutations []ecs.Mutation
	for _, ev := range events {
		b, ok := m.bindings[ev.Widget]
		if !ok {
			report.Drop(m.log, "dropping ui event",
				fmt.Errorf("%s %q: %w", ev.Kind, ev.Widget, ErrUnboundWidget))
			continue
		}
		muts, err := b.handle(ev)
		if err != nil {
			report.Drop(m.log, "dropping ui event",
				fmt.Errorf("%s %q: %w", ev.Kind, ev.Widget, err))
			continue
		}
		mutations = append(mutations, muts...)
	}

	m.entities.ApplyBatch(mutations, &report, m.log)
	return report
}
