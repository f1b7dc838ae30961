package ecs

import "errors"

var (
	// ErrInvalidHandle is returned when an EntityId is stale, destroyed or was never issued.
	ErrInvalidHandle = errors.New("invalid entity handle")
	// ErrDuplicateComponent is returned when an entity already holds a component of the given type.
	ErrDuplicateComponent = errors.New("duplicate component")
	// ErrComponentNotFound is returned when an entity does not hold the requested component type.
	ErrComponentNotFound = errors.New("component not found")
	// ErrCapacityExceeded is returned when the configured entity ceiling has been reached.
	ErrCapacityExceeded = errors.New("entity capacity exceeded")
	// ErrUnregisteredComponent is returned for component types missing from the registry.
	ErrUnregisteredComponent = errors.New("component type not registered")
	// ErrSystemPanic wraps a value recovered from a panicking system.
	ErrSystemPanic = errors.New("system panicked")
)
