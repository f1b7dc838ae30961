// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickworks/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers the render function of every ImguiItem to the end of the tick and
// keeps an ImguiInputState component up to date on its own entity.
type ImguiSystem struct {
	Items ecs.View[struct{ *ImguiItem }]

	state     ecs.EntityId
	deltaTime float64
}

func (i *ImguiSystem) Signature(*ecs.ComponentRegistry) ecs.Signature {
	return i.Items.Signature()
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) error {
	i.deltaTime = frame.DeltaTime

	io := imgui.CurrentIO()
	state := ImguiInputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
	if frame.Entities.Alive(i.state) {
		if err := ecs.Set(frame.Entities, i.state, state); err != nil {
			return err
		}
	} else {
		frame.Commands.SpawnThen(func(id ecs.EntityId) { i.state = id }, state)
	}

	for item := range i.Items.Values() {
		frame.Commands.Defer(item.Render)
	}
	return nil
}

// InputState returns the capture state recorded on the last tick.
func (i *ImguiSystem) InputState(entities *ecs.EntityManager) ImguiInputState {
	if s, err := ecs.Get[ImguiInputState](entities, i.state); err == nil {
		return *s
	}
	return ImguiInputState{}
}
