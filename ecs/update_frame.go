package ecs

import "iter"

// UpdateFrame is handed to each system during a tick.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	// Matches iterates the live entities matching the running system's signature.
	Matches  iter.Seq[EntityId]
	Entities *EntityManager
	Commands *Commands
	// Systems is the manager running this tick. Register and Unregister calls made
	// through it take effect after the tick completes.
	Systems *SystemManager
}

func newUpdateFrame(dt float64, tick uint64, entities *EntityManager, commands *Commands, systems *SystemManager) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Entities:  entities,
		Commands:  commands,
		Systems:   systems,
	}
}
