package input

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Host keycodes of the recognised controller keys. The numbering follows
// the common gamepad key space used by host input stacks.
const (
	KeyDPadUp       = 19
	KeyDPadDown     = 20
	KeyDPadLeft     = 21
	KeyDPadRight    = 22
	KeyButtonA      = 96
	KeyButtonB      = 97
	KeyButtonX      = 99
	KeyButtonY      = 100
	KeyButtonL1     = 102
	KeyButtonR1     = 103
	KeyButtonL2     = 104
	KeyButtonR2     = 105
	KeyButtonThumbL = 106
	KeyButtonThumbR = 107
	KeyButtonStart  = 108
	KeyButtonSelect = 109
)

// Core joypad ids, as understood by the core's key event handler.
const (
	JoypadB      = 0
	JoypadY      = 1
	JoypadSelect = 2
	JoypadStart  = 3
	JoypadUp     = 4
	JoypadDown   = 5
	JoypadLeft   = 6
	JoypadRight  = 7
	JoypadA      = 8
	JoypadX      = 9
	JoypadL      = 10
	JoypadR      = 11
	JoypadL2     = 12
	JoypadR2     = 13
	JoypadL3     = 14
	JoypadR3     = 15
)

var hostKeyNames = map[string]int{
	"DPAD_UP":       KeyDPadUp,
	"DPAD_DOWN":     KeyDPadDown,
	"DPAD_LEFT":     KeyDPadLeft,
	"DPAD_RIGHT":    KeyDPadRight,
	"BUTTON_A":      KeyButtonA,
	"BUTTON_B":      KeyButtonB,
	"BUTTON_X":      KeyButtonX,
	"BUTTON_Y":      KeyButtonY,
	"BUTTON_L1":     KeyButtonL1,
	"BUTTON_R1":     KeyButtonR1,
	"BUTTON_L2":     KeyButtonL2,
	"BUTTON_R2":     KeyButtonR2,
	"BUTTON_THUMBL": KeyButtonThumbL,
	"BUTTON_THUMBR": KeyButtonThumbR,
	"BUTTON_START":  KeyButtonStart,
	"BUTTON_SELECT": KeyButtonSelect,
}

var joypadNames = map[string]int{
	"B":      JoypadB,
	"Y":      JoypadY,
	"SELECT": JoypadSelect,
	"START":  JoypadStart,
	"UP":     JoypadUp,
	"DOWN":   JoypadDown,
	"LEFT":   JoypadLeft,
	"RIGHT":  JoypadRight,
	"A":      JoypadA,
	"X":      JoypadX,
	"L":      JoypadL,
	"R":      JoypadR,
	"L2":     JoypadL2,
	"R2":     JoypadR2,
	"L3":     JoypadL3,
	"R3":     JoypadR3,
}

// HostKey returns the host keycode for a name such as "BUTTON_A".
func HostKey(name string) (int, bool) {
	code, ok := hostKeyNames[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok
}

// HostKeyNames lists the recognised host key names in sorted order.
func HostKeyNames() []string {
	return slices.Sorted(maps.Keys(hostKeyNames))
}

// JoypadID returns the core joypad id for a name such as "START".
func JoypadID(name string) (int, bool) {
	id, ok := joypadNames[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

// KeyMap remaps recognised host keycodes to core keycodes. A host key that
// is not in the map is not a controller key and is dropped.
type KeyMap map[int]int

// DefaultKeyMap returns the standard controller layout.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyDPadUp:       JoypadUp,
		KeyDPadDown:     JoypadDown,
		KeyDPadLeft:     JoypadLeft,
		KeyDPadRight:    JoypadRight,
		KeyButtonA:      JoypadA,
		KeyButtonB:      JoypadB,
		KeyButtonX:      JoypadX,
		KeyButtonY:      JoypadY,
		KeyButtonL1:     JoypadL,
		KeyButtonR1:     JoypadR,
		KeyButtonL2:     JoypadL2,
		KeyButtonR2:     JoypadR2,
		KeyButtonThumbL: JoypadL3,
		KeyButtonThumbR: JoypadR3,
		KeyButtonStart:  JoypadStart,
		KeyButtonSelect: JoypadSelect,
	}
}

// Remap returns the core keycode for a host keycode.
func (m KeyMap) Remap(hostKey int) (int, bool) {
	code, ok := m[hostKey]
	return code, ok
}

// WithOverrides returns a copy of m with the named bindings replaced, e.g.
// {"BUTTON_A": "B"} swaps the face button. Unknown names are an error.
func (m KeyMap) WithOverrides(overrides map[string]string) (KeyMap, error) {
	out := maps.Clone(m)
	if out == nil {
		out = KeyMap{}
	}
	for _, host := range slices.Sorted(maps.Keys(overrides)) {
		hk, ok := HostKey(host)
		if !ok {
			return nil, fmt.Errorf("input: unknown host key %q", host)
		}
		id, ok := JoypadID(overrides[host])
		if !ok {
			return nil, fmt.Errorf("input: unknown joypad button %q for %s", overrides[host], host)
		}
		out[hk] = id
	}
	return out, nil
}
