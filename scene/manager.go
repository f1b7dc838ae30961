package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/tickworks/ecs"
)

type requestKind uint8

const (
	requestActivate requestKind = iota + 1
	requestUnload
	requestDeactivate
)

type request struct {
	kind  requestKind
	scene *Scene
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for scene transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.log = logger
		}
	}
}

// Manager owns the loaded scenes and keeps at most one of them active. Scene entities are
// created and destroyed through the EntityManager; the Manager only remembers their ids.
type Manager struct {
	entities *ecs.EntityManager
	scenes   map[string]*Scene
	order    []*Scene
	active   *Scene
	pending  *request
	log      *zap.Logger
}

// NewManager creates a scene manager instantiating entities in entities.
func NewManager(entities *ecs.EntityManager, opts ...Option) *Manager {
	m := &Manager{
		entities: entities,
		scenes:   make(map[string]*Scene),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load validates d and registers it as a Loaded scene. No entities are created until the
// scene is activated.
func (m *Manager) Load(d Descriptor) (*Scene, error) {
	s, err := compile(d, m.entities.Registry())
	if err != nil {
		return nil, err
	}
	if _, dup := m.scenes[s.name]; dup {
		return nil, fmt.Errorf("load scene %q: %w", s.name, ErrSceneAlreadyLoaded)
	}
	s.state = Loaded
	m.scenes[s.name] = s
	m.order = append(m.order, s)
	m.log.Debug("scene loaded", zap.String("scene", s.name), zap.Int("templates", len(s.templates)))
	return s, nil
}

// LoadFile parses the YAML descriptor at path and loads it.
func (m *Manager) LoadFile(path string) (*Scene, error) {
	d, err := LoadDescriptorFile(path)
	if err != nil {
		return nil, err
	}
	return m.Load(d)
}

// Activate makes s the active scene. The previously active scene is deactivated first and
// its entities destroyed. If s cannot be fully instantiated, every entity created for it is
// destroyed again, s stays Loaded and no scene is active. Activating the active scene does
// nothing.
func (m *Manager) Activate(s *Scene) error {
	if err := m.check(s); err != nil {
		return fmt.Errorf("activate scene: %w", err)
	}
	if m.active == s {
		return nil
	}

	m.Deactivate()

	if err := m.instantiate(s); err != nil {
		m.log.Warn("scene activation failed", zap.String("scene", s.name), zap.Error(err))
		return fmt.Errorf("activate scene %q: %w", s.name, err)
	}
	s.state = Active
	m.active = s
	m.log.Info("scene activated", zap.String("scene", s.name), zap.Int("entities", len(s.entities)))
	return nil
}

// Deactivate destroys the active scene's entities and returns it to Loaded.
// Entities already destroyed by other means are skipped.
func (m *Manager) Deactivate() {
	s := m.active
	if s == nil {
		return
	}
	stale := 0
	for _, id := range s.entities {
		if err := m.entities.Destroy(id); err != nil {
			stale++
		}
	}
	m.log.Info("scene deactivated",
		zap.String("scene", s.name),
		zap.Int("destroyed", len(s.entities)-stale),
		zap.Int("stale", stale))

	s.entities = nil
	s.named = nil
	s.state = Loaded
	m.active = nil
}

// Unload discards a Loaded scene. The active scene must be deactivated first.
func (m *Manager) Unload(s *Scene) error {
	if err := m.check(s); err != nil {
		return fmt.Errorf("unload scene: %w", err)
	}
	if m.active == s {
		return fmt.Errorf("unload scene %q: %w", s.name, ErrSceneStillActive)
	}
	delete(m.scenes, s.name)
	for i, other := range m.order {
		if other == s {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	s.state = Unloaded
	m.log.Debug("scene unloaded", zap.String("scene", s.name))
	return nil
}

// Active returns the active scene or nil.
func (m *Manager) Active() *Scene {
	return m.active
}

// Get returns the loaded scene called name.
func (m *Manager) Get(name string) (*Scene, bool) {
	s, ok := m.scenes[name]
	return s, ok
}

// Scenes returns the loaded scenes in load order.
func (m *Manager) Scenes() []*Scene {
	out := make([]*Scene, len(m.order))
	copy(out, m.order)
	return out
}

// Attach adds a live entity to the active scene so it is destroyed with it.
func (m *Manager) Attach(id ecs.EntityId) error {
	if m.active == nil {
		return fmt.Errorf("attach entity %s: %w", id, ErrNoActiveScene)
	}
	if !m.entities.Alive(id) {
		return fmt.Errorf("attach entity %s: %w", id, ecs.ErrInvalidHandle)
	}
	m.active.entities = append(m.active.entities, id)
	return nil
}

// RequestActivate schedules Activate(s) for the next ApplyPending.
// A later request replaces an earlier one.
func (m *Manager) RequestActivate(s *Scene) {
	m.request(request{kind: requestActivate, scene: s})
}

// RequestUnload schedules Unload(s) for the next ApplyPending.
// A later request replaces an earlier one.
func (m *Manager) RequestUnload(s *Scene) {
	m.request(request{kind: requestUnload, scene: s})
}

// RequestDeactivate schedules Deactivate for the next ApplyPending.
// A later request replaces an earlier one.
func (m *Manager) RequestDeactivate() {
	m.request(request{kind: requestDeactivate})
}

// Pending reports whether a scene request is waiting for ApplyPending.
func (m *Manager) Pending() bool {
	return m.pending != nil
}

// ApplyPending carries out the last request made since the previous call.
func (m *Manager) ApplyPending() error {
	req := m.pending
	m.pending = nil
	if req == nil {
		return nil
	}
	switch req.kind {
	case requestActivate:
		return m.Activate(req.scene)
	case requestUnload:
		return m.Unload(req.scene)
	case requestDeactivate:
		m.Deactivate()
	}
	return nil
}

func (m *Manager) request(req request) {
	if m.pending != nil {
		m.log.Debug("scene request superseded", zap.Uint8("kind", uint8(m.pending.kind)))
	}
	m.pending = &req
}

func (m *Manager) check(s *Scene) error {
	if s == nil || s.state == Unloaded || m.scenes[s.name] != s {
		return ErrSceneNotLoaded
	}
	return nil
}

func (m *Manager) instantiate(s *Scene) error {
	created := make([]ecs.EntityId, 0, len(s.templates))
	named := make(map[string]ecs.EntityId)

	rollback := func(err error) error {
		for _, id := range created {
			_ = m.entities.Destroy(id)
		}
		return err
	}

	for i, tmpl := range s.templates {
		components := make([]any, len(tmpl.components))
		for j, c := range tmpl.components {
			v, err := c.build()
			if err != nil {
				return rollback(fmt.Errorf("entity %d: decode %s: %w", i, c.typ, err))
			}
			components[j] = v
		}
		id, err := ecs.Spawn(m.entities, components...)
		if err != nil {
			return rollback(fmt.Errorf("entity %d: %w", i, err))
		}
		created = append(created, id)
		if tmpl.name != "" {
			named[tmpl.name] = id
		}
	}

	s.entities = created
	s.named = named
	return nil
}
