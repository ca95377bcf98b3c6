package session

import (
	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/input"
)

// KeyDown queues a key press. It reports whether the key was a controller
// key that the session consumed.
func (s *Session) KeyDown(k input.RawKey) bool {
	k.Action = core.KeyActionDown
	return s.enqueue(s.normalizer.Translate(k, core.Size{}))
}

// KeyUp queues a key release.
func (s *Session) KeyUp(k input.RawKey) bool {
	k.Action = core.KeyActionUp
	return s.enqueue(s.normalizer.Translate(k, core.Size{}))
}

// GenericMotion queues a joystick sample as three motion events.
func (s *Session) GenericMotion(m input.RawMotion) bool {
	return s.enqueue(s.normalizer.Translate(m, core.Size{}))
}

// Touch queues a pointer event normalised by the current surface size.
func (s *Session) Touch(t input.RawTouch) bool {
	return s.enqueue(s.normalizer.Translate(t, s.surfaceSize()))
}

// SendKeyEvent queues a key event with a core keycode, bypassing the key
// map.
func (s *Session) SendKeyEvent(action core.KeyAction, keyCode, port int) bool {
	if port < 0 {
		return false
	}
	return s.enqueue([]core.PortEvent{core.KeyEvent{Port: port, Action: action, KeyCode: keyCode}})
}

// SendMotionEvent queues a motion event on an explicit port.
func (s *Session) SendMotionEvent(source core.MotionSource, x, y float64, port int) bool {
	if port < 0 {
		return false
	}
	return s.enqueue([]core.PortEvent{core.MotionEvent{Port: port, Source: source, X: x, Y: y}})
}

func (s *Session) enqueue(events []core.PortEvent) bool {
	if len(events) == 0 {
		return false
	}
	return s.loop.Enqueue(events...)
}
