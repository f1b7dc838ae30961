package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include View fields
// for accessing entities, as well as custom state fields that persist between ticks.
//
// Signature is called once at registration, after View fields have been initialised.
// Execute is called once per tick with frame.Matches iterating the entities whose
// signature is a superset of it. A returned error (or a panic) is reported by the
// SystemManager and does not stop the remaining systems.
type System interface {
	Signature(registry *ComponentRegistry) Signature
	Execute(frame *UpdateFrame) error
}

// Named can be implemented by systems to override the type-derived name used in
// stats, logs and priority configuration.
type Named interface {
	Name() string
}

// FuncSystem adapts a function to the System interface.
type FuncSystem struct {
	name      string
	signature Signature
	fn        func(frame *UpdateFrame) error
}

// NewFuncSystem creates a named system running fn over entities matching signature.
func NewFuncSystem(name string, signature Signature, fn func(frame *UpdateFrame) error) *FuncSystem {
	return &FuncSystem{name: name, signature: signature, fn: fn}
}

func (s *FuncSystem) Name() string { return s.name }

func (s *FuncSystem) Signature(*ComponentRegistry) Signature { return s.signature }

func (s *FuncSystem) Execute(frame *UpdateFrame) error { return s.fn(frame) }
