package engine

import (
	"errors"
	"image"
	"slices"
)

// ErrInputUnsupported is returned by canvases that cannot deliver input.
var ErrInputUnsupported = errors.New("input events not supported")

// ScreenRegion is a region ready to draw: a resolved colour and an integer
// outline in centred canvas coordinates.
type ScreenRegion struct {
	Color  string        `json:"color"`
	Points []image.Point `json:"points"`
}

// Sizer reports the drawable size of a canvas. ok is false when the size is
// not known yet.
type Sizer interface {
	Size() (width, height int, ok bool)
}

// Canvas is everything the engine needs from a drawing surface. Coordinates
// passed to DrawPolygon have their origin at the canvas centre.
type Canvas interface {
	Sizer
	DrawPolygon(color string, points []image.Point)
	SetStatus(text string)
	// OnInput registers handler for trigger. Handlers must be invoked on the
	// same goroutine that drives the controller.
	OnInput(trigger Trigger, handler func()) error
	Clear()
	Flush()
}

// Trigger names an input event, usually a key.
type Trigger string

// Control is a user-driven playback action.
type Control string

const (
	ControlTogglePause    Control = "pause"
	ControlSpeedUp        Control = "faster"
	ControlSpeedDown      Control = "slower"
	ControlSpeedReset     Control = "reset-speed"
	ControlFinishNow      Control = "finish"
	ControlShuffleRestart Control = "shuffle"
)

// Keymap binds triggers to controls.
type Keymap map[Trigger]Control

// DefaultKeymap mirrors the usual keyboard layout: space pauses, plus/equals
// speeds up, minus slows down, 0 resets, f finishes, r reshuffles.
func DefaultKeymap() Keymap {
	return Keymap{
		"space":       ControlTogglePause,
		"plus":        ControlSpeedUp,
		"equal":       ControlSpeedUp,
		"KP_Add":      ControlSpeedUp,
		"minus":       ControlSpeedDown,
		"KP_Subtract": ControlSpeedDown,
		"0":           ControlSpeedReset,
		"f":           ControlFinishNow,
		"r":           ControlShuffleRestart,
	}
}

// Triggers returns the keymap's triggers in a stable order.
func (k Keymap) Triggers() []Trigger {
	out := make([]Trigger, 0, len(k))
	for t := range k {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// ParseControl maps a control name to a Control.
func ParseControl(s string) (Control, bool) {
	for _, c := range []Control{
		ControlTogglePause, ControlSpeedUp, ControlSpeedDown,
		ControlSpeedReset, ControlFinishNow, ControlShuffleRestart,
	} {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
