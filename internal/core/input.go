package core

import "fmt"

// KeyAction is the logical direction of a key event.
type KeyAction int

const (
	KeyActionDown KeyAction = iota // button pressed
	KeyActionUp                    // button released
)

// String returns a human-readable name for the action.
func (a KeyAction) String() string {
	switch a {
	case KeyActionDown:
		return "Down"
	case KeyActionUp:
		return "Up"
	default:
		return "Unknown"
	}
}

// MotionSource identifies which control produced a motion event.
// The numeric values are part of the core contract.
type MotionSource int

const (
	SourceDPad        MotionSource = 0 // hat axes, values in [-1, 1]
	SourceAnalogLeft  MotionSource = 1 // primary stick, values in [-1, 1]
	SourceAnalogRight MotionSource = 2 // secondary stick, values in [-1, 1]
	SourcePointer     MotionSource = 3 // screen-relative, values in [0, 1]
)

// String returns a human-readable name for the source.
func (s MotionSource) String() string {
	switch s {
	case SourceDPad:
		return "DPad"
	case SourceAnalogLeft:
		return "AnalogLeft"
	case SourceAnalogRight:
		return "AnalogRight"
	case SourcePointer:
		return "Pointer"
	default:
		return "Unknown"
	}
}

// PointerReleased is the coordinate sent on both axes when the pointer
// lifts. It lies outside [0, 1] so the core can tell it apart from any
// valid position.
const PointerReleased = -1.0

// PortEvent is an input event addressed to a controller port.
// It is implemented only by KeyEvent and MotionEvent.
type PortEvent interface {
	// PortIndex returns the zero-based controller slot.
	PortIndex() int
	portEvent()
}

// KeyEvent is a button press or release on a port.
type KeyEvent struct {
	Port    int
	Action  KeyAction
	KeyCode int // core-defined keycode, already remapped
}

func (KeyEvent) portEvent() {}

// PortIndex returns the zero-based controller slot.
func (e KeyEvent) PortIndex() int { return e.Port }

func (e KeyEvent) String() string {
	return fmt.Sprintf("key(port=%d %s code=%d)", e.Port, e.Action, e.KeyCode)
}

// MotionEvent is a two-axis sample from a port.
type MotionEvent struct {
	Port   int
	Source MotionSource
	X, Y   float64
}

func (MotionEvent) portEvent() {}

// PortIndex returns the zero-based controller slot.
func (e MotionEvent) PortIndex() int { return e.Port }

// Released reports whether this is the pointer-up sentinel.
func (e MotionEvent) Released() bool {
	return e.Source == SourcePointer && e.X == PointerReleased && e.Y == PointerReleased
}

func (e MotionEvent) String() string {
	return fmt.Sprintf("motion(port=%d %s x=%.3f y=%.3f)", e.Port, e.Source, e.X, e.Y)
}

// FrameEvent is a milestone published by a session.
// Only the most recent value is retained.
type FrameEvent int

const (
	FrameRendered FrameEvent = iota + 1
	SurfaceCreated
)

// String returns a human-readable name for the milestone.
func (e FrameEvent) String() string {
	switch e {
	case FrameRendered:
		return "FrameRendered"
	case SurfaceCreated:
		return "SurfaceCreated"
	default:
		return "Unknown"
	}
}
