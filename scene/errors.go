package scene

import "errors"

var (
	// ErrInvalidSceneDescriptor is returned when a descriptor cannot be parsed or refers to
	// component types and data the registry cannot represent.
	ErrInvalidSceneDescriptor = errors.New("invalid scene descriptor")
	// ErrSceneStillActive is returned when unloading the active scene.
	ErrSceneStillActive = errors.New("scene still active")
	// ErrSceneNotLoaded is returned for scenes that were never loaded or have been unloaded.
	ErrSceneNotLoaded = errors.New("scene not loaded")
	// ErrSceneAlreadyLoaded is returned when loading a second scene under an existing name.
	ErrSceneAlreadyLoaded = errors.New("scene already loaded")
	// ErrNoActiveScene is returned by operations that need an active scene.
	ErrNoActiveScene = errors.New("no active scene")
)
