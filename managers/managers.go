// Package managers gathers the engine's managers under one import path.
package managers

import (
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/input"
	"github.com/plus3/tickworks/scene"
	"github.com/plus3/tickworks/ui"
)

type (
	EntityManager = ecs.EntityManager
	InputManager  = input.Manager
	SceneManager  = scene.Manager
	SystemManager = ecs.SystemManager
	UIManager     = ui.Manager
)
