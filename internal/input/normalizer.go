// Package input translates raw host input into per-port core events.
//
// Translation is pure: a Normalizer holds only its key map and never
// touches a core. Delivery is the render loop's job.
package input

import "github.com/vovakirdan/retrobridge/internal/core"

// DeviceClass is the kind of device that produced an event.
type DeviceClass int

const (
	ClassUnknown DeviceClass = iota
	ClassKeyboard
	ClassGamepad
	ClassJoystick
	ClassTouchscreen
)

func (c DeviceClass) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassGamepad:
		return "gamepad"
	case ClassJoystick:
		return "joystick"
	case ClassTouchscreen:
		return "touchscreen"
	default:
		return "unknown"
	}
}

// DeviceInfo describes the source device of a raw event.
type DeviceInfo struct {
	// ControllerNumber is 1-based; 0 means the host has not assigned one.
	ControllerNumber int
	Class            DeviceClass
}

// Port returns the zero-based port, or -1 when no controller is assigned.
func (d DeviceInfo) Port() int {
	return d.ControllerNumber - 1
}

// Raw is a host input event. It is implemented by RawKey, RawMotion and
// RawTouch.
type Raw interface {
	raw()
}

// RawKey is a host key press or release.
type RawKey struct {
	Device  DeviceInfo
	KeyCode int // host keycode
	Action  core.KeyAction
}

// Axes is one joystick sample. Values are expected in [-1, 1].
type Axes struct {
	HatX, HatY float64
	X, Y       float64
	Z, RZ      float64
}

// RawMotion is a generic motion sample from a joystick-class device.
type RawMotion struct {
	Device DeviceInfo
	Axes   Axes
}

// TouchAction is the phase of a touch.
type TouchAction int

const (
	TouchDown TouchAction = iota
	TouchMove
	TouchUp
)

// RawTouch is a touch in surface pixel coordinates.
type RawTouch struct {
	Action TouchAction
	X, Y   float64
}

func (RawKey) raw()    {}
func (RawMotion) raw() {}
func (RawTouch) raw()  {}

// Normalizer turns raw host events into core port events.
type Normalizer struct {
	keys KeyMap
}

// NewNormalizer returns a normalizer using keys, or DefaultKeyMap if nil.
func NewNormalizer(keys KeyMap) *Normalizer {
	if keys == nil {
		keys = DefaultKeyMap()
	}
	return &Normalizer{keys: keys}
}

// Key translates a key event. Keys outside the controller set, devices
// without a controller number and non-controller device classes yield
// nothing.
func (n *Normalizer) Key(k RawKey) (core.KeyEvent, bool) {
	switch k.Device.Class {
	case ClassKeyboard, ClassGamepad, ClassJoystick:
	default:
		return core.KeyEvent{}, false
	}
	port := k.Device.Port()
	if port < 0 {
		return core.KeyEvent{}, false
	}
	code, ok := n.keys.Remap(k.KeyCode)
	if !ok {
		return core.KeyEvent{}, false
	}
	return core.KeyEvent{Port: port, Action: k.Action, KeyCode: code}, true
}

// Motion translates a joystick sample into exactly three events, in order:
// D-pad from the hat axes, left stick from X/Y and right stick from Z/RZ.
func (n *Normalizer) Motion(m RawMotion) []core.PortEvent {
	switch m.Device.Class {
	case ClassJoystick, ClassGamepad:
	default:
		return nil
	}
	port := m.Device.Port()
	if port < 0 {
		return nil
	}
	a := m.Axes
	return []core.PortEvent{
		core.MotionEvent{Port: port, Source: core.SourceDPad, X: axis(a.HatX), Y: axis(a.HatY)},
		core.MotionEvent{Port: port, Source: core.SourceAnalogLeft, X: axis(a.X), Y: axis(a.Y)},
		core.MotionEvent{Port: port, Source: core.SourceAnalogRight, X: axis(a.Z), Y: axis(a.RZ)},
	}
}

// Touch translates a touch into a pointer event on port 0. Down and move
// are normalised by the surface size; up sends the released sentinel.
// Without a valid surface size only the release can be translated.
func (n *Normalizer) Touch(t RawTouch, surface core.Size) (core.MotionEvent, bool) {
	if t.Action == TouchUp {
		return core.MotionEvent{
			Port:   0,
			Source: core.SourcePointer,
			X:      core.PointerReleased,
			Y:      core.PointerReleased,
		}, true
	}
	x, y, ok := surface.Normalize(t.X, t.Y)
	if !ok {
		return core.MotionEvent{}, false
	}
	return core.MotionEvent{Port: 0, Source: core.SourcePointer, X: x, Y: y}, true
}

// Translate dispatches any raw event. Unrecognised events yield nothing.
func (n *Normalizer) Translate(r Raw, surface core.Size) []core.PortEvent {
	switch ev := r.(type) {
	case RawKey:
		if k, ok := n.Key(ev); ok {
			return []core.PortEvent{k}
		}
	case RawMotion:
		return n.Motion(ev)
	case RawTouch:
		if m, ok := n.Touch(ev, surface); ok {
			return []core.PortEvent{m}
		}
	}
	return nil
}

func axis(v float64) float64 {
	return core.ClampF(v, -1, 1)
}
