package input

import (
	"fmt"
	"time"

	"github.com/plus3/tickworks/ecs"
)

// Device identifies the kind of device an event came from.
type Device uint8

const (
	Keyboard Device = iota + 1
	Mouse
	Gamepad
	Touch
)

func (d Device) String() string {
	switch d {
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	case Gamepad:
		return "gamepad"
	case Touch:
		return "touch"
	default:
		return fmt.Sprintf("Device(%d)", uint8(d))
	}
}

// Action is what happened to the key, button or pointer.
type Action uint8

const (
	Press Action = iota + 1
	Release
	Repeat
	Move
	Scroll
)

func (a Action) String() string {
	switch a {
	case Press:
		return "press"
	case Release:
		return "release"
	case Repeat:
		return "repeat"
	case Move:
		return "move"
	case Scroll:
		return "scroll"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Event is a device event that has already been delivered by the platform layer.
type Event struct {
	Device    Device
	Code      string
	Action    Action
	Modifiers Modifier
	X, Y      float64
	// Target overrides the focused entity when non-zero.
	Target ecs.EntityId
	Time   time.Time
}

// Translator turns an event into mutations against target, which is the event's Target or
// the focused entity. Translators run inside Flush and must not touch the EntityManager
// directly.
type Translator func(ev Event, target ecs.EntityId) []ecs.Mutation
