package input

import (
	"github.com/gdamore/tcell/v2"
)

var mouseButtons = []struct {
	mask tcell.ButtonMask
	code string
}{
	{tcell.ButtonPrimary, "Primary"},
	{tcell.ButtonSecondary, "Secondary"},
	{tcell.ButtonMiddle, "Middle"},
	{tcell.WheelUp, "WheelUp"},
	{tcell.WheelDown, "WheelDown"},
	{tcell.WheelLeft, "WheelLeft"},
	{tcell.WheelRight, "WheelRight"},
}

// FromTcell converts a terminal key or mouse event into an Event. Other tcell events
// report false.
//
// Key codes are the rune for printable keys and tcell's key name otherwise ("Enter",
// "Up", "Ctrl-C"). Mouse codes are the first pressed button, with Action Scroll for the
// wheel and Move when no button is held.
func FromTcell(ev tcell.Event) (Event, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		out := Event{
			Device:    Keyboard,
			Action:    Press,
			Modifiers: fromTcellMod(ev.Modifiers()),
			Time:      ev.When(),
		}
		if ev.Key() == tcell.KeyRune {
			out.Code = string(ev.Rune())
		} else if name, ok := tcell.KeyNames[ev.Key()]; ok {
			out.Code = name
		} else {
			return Event{}, false
		}
		return out, true

	case *tcell.EventMouse:
		x, y := ev.Position()
		out := Event{
			Device:    Mouse,
			Action:    Move,
			Modifiers: fromTcellMod(ev.Modifiers()),
			X:         float64(x),
			Y:         float64(y),
			Time:      ev.When(),
		}
		buttons := ev.Buttons()
		for _, b := range mouseButtons {
			if buttons&b.mask == 0 {
				continue
			}
			out.Code = b.code
			if b.mask&(tcell.WheelUp|tcell.WheelDown|tcell.WheelLeft|tcell.WheelRight) != 0 {
				out.Action = Scroll
			} else {
				out.Action = Press
			}
			break
		}
		return out, true
	}
	return Event{}, false
}

func fromTcellMod(mod tcell.ModMask) Modifier {
	var out Modifier
	if mod&tcell.ModShift != 0 {
		out |= ModShift
	}
	if mod&tcell.ModCtrl != 0 {
		out |= ModCtrl
	}
	if mod&tcell.ModAlt != 0 {
		out |= ModAlt
	}
	if mod&tcell.ModMeta != 0 {
		out |= ModMeta
	}
	return out
}
