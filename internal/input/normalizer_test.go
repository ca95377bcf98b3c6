package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/retrobridge/internal/core"
)

var pad1 = DeviceInfo{ControllerNumber: 1, Class: ClassGamepad}

func TestKeyTranslation(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name   string
		in     RawKey
		want   core.KeyEvent
		wantOK bool
	}{
		{
			name:   "button A on first pad",
			in:     RawKey{Device: pad1, KeyCode: KeyButtonA, Action: core.KeyActionDown},
			want:   core.KeyEvent{Port: 0, Action: core.KeyActionDown, KeyCode: JoypadA},
			wantOK: true,
		},
		{
			name:   "start release on third pad",
			in:     RawKey{Device: DeviceInfo{ControllerNumber: 3, Class: ClassJoystick}, KeyCode: KeyButtonStart, Action: core.KeyActionUp},
			want:   core.KeyEvent{Port: 2, Action: core.KeyActionUp, KeyCode: JoypadStart},
			wantOK: true,
		},
		{
			name:   "keyboard d-pad",
			in:     RawKey{Device: DeviceInfo{ControllerNumber: 1, Class: ClassKeyboard}, KeyCode: KeyDPadLeft},
			want:   core.KeyEvent{Port: 0, KeyCode: JoypadLeft},
			wantOK: true,
		},
		{
			name: "controller number zero",
			in:   RawKey{Device: DeviceInfo{ControllerNumber: 0, Class: ClassGamepad}, KeyCode: KeyButtonA},
		},
		{
			name: "not a controller key",
			in:   RawKey{Device: pad1, KeyCode: 29}, // KEYCODE_A on a keyboard
		},
		{
			name: "touchscreen device",
			in:   RawKey{Device: DeviceInfo{ControllerNumber: 1, Class: ClassTouchscreen}, KeyCode: KeyButtonA},
		},
		{
			name: "unknown device",
			in:   RawKey{Device: DeviceInfo{ControllerNumber: 1}, KeyCode: KeyButtonA},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := n.Key(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestControllerZeroNeverForwarded(t *testing.T) {
	n := NewNormalizer(nil)
	dev := DeviceInfo{ControllerNumber: 0, Class: ClassGamepad}
	for code := range DefaultKeyMap() {
		for _, action := range []core.KeyAction{core.KeyActionDown, core.KeyActionUp} {
			evs := n.Translate(RawKey{Device: dev, KeyCode: code, Action: action}, core.Size{})
			assert.Empty(t, evs, "keycode %d", code)
		}
	}
	assert.Empty(t, n.Motion(RawMotion{Device: dev}))
}

func TestJoystickYieldsThreeEventsInOrder(t *testing.T) {
	n := NewNormalizer(nil)
	evs := n.Motion(RawMotion{
		Device: DeviceInfo{ControllerNumber: 2, Class: ClassJoystick},
		Axes:   Axes{HatX: 1, HatY: -1, X: 0.25, Y: -0.5, Z: 1.7, RZ: 0.1},
	})

	require.Len(t, evs, 3)
	assert.Equal(t, []core.PortEvent{
		core.MotionEvent{Port: 1, Source: core.SourceDPad, X: 1, Y: -1},
		core.MotionEvent{Port: 1, Source: core.SourceAnalogLeft, X: 0.25, Y: -0.5},
		core.MotionEvent{Port: 1, Source: core.SourceAnalogRight, X: 1, Y: 0.1},
	}, evs)
}

func TestMotionFromKeyboardDropped(t *testing.T) {
	n := NewNormalizer(nil)
	assert.Nil(t, n.Motion(RawMotion{Device: DeviceInfo{ControllerNumber: 1, Class: ClassKeyboard}}))
}

func TestTouch(t *testing.T) {
	n := NewNormalizer(nil)
	surface := core.Size{W: 200, H: 100}

	down, ok := n.Touch(RawTouch{Action: TouchDown, X: 50, Y: 25}, surface)
	require.True(t, ok)
	assert.Equal(t, core.MotionEvent{Port: 0, Source: core.SourcePointer, X: 0.25, Y: 0.25}, down)

	move, ok := n.Touch(RawTouch{Action: TouchMove, X: 250, Y: 100}, surface)
	require.True(t, ok)
	assert.Equal(t, 1.0, move.X)
	assert.Equal(t, 1.0, move.Y)

	up, ok := n.Touch(RawTouch{Action: TouchUp, X: 12, Y: 34}, surface)
	require.True(t, ok)
	assert.Equal(t, core.MotionEvent{Port: 0, Source: core.SourcePointer, X: -1, Y: -1}, up)
	assert.True(t, up.Released())
}

func TestTouchWithoutSurface(t *testing.T) {
	n := NewNormalizer(nil)

	_, ok := n.Touch(RawTouch{Action: TouchDown, X: 1, Y: 1}, core.Size{})
	assert.False(t, ok)

	up, ok := n.Touch(RawTouch{Action: TouchUp}, core.Size{})
	assert.True(t, ok)
	assert.True(t, up.Released())
}

func TestKeyMapOverrides(t *testing.T) {
	m, err := DefaultKeyMap().WithOverrides(map[string]string{
		"button_a": "b",
		"BUTTON_B": "A",
	})
	require.NoError(t, err)

	n := NewNormalizer(m)
	ev, ok := n.Key(RawKey{Device: pad1, KeyCode: KeyButtonA})
	require.True(t, ok)
	assert.Equal(t, JoypadB, ev.KeyCode)

	ev, ok = n.Key(RawKey{Device: pad1, KeyCode: KeyButtonB})
	require.True(t, ok)
	assert.Equal(t, JoypadA, ev.KeyCode)

	// the default map is not modified
	assert.Equal(t, JoypadA, DefaultKeyMap()[KeyButtonA])

	_, err = DefaultKeyMap().WithOverrides(map[string]string{"BUTTON_Z": "A"})
	assert.Error(t, err)
	_, err = DefaultKeyMap().WithOverrides(map[string]string{"BUTTON_A": "TURBO"})
	assert.Error(t, err)
}

func TestHostKeyNames(t *testing.T) {
	names := HostKeyNames()
	assert.Len(t, names, len(DefaultKeyMap()))
	for _, name := range names {
		code, ok := HostKey(name)
		require.True(t, ok, name)
		_, mapped := DefaultKeyMap().Remap(code)
		assert.True(t, mapped, name)
	}
}
