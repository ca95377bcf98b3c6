package core

import "sync"

// Screen holds the last framebuffer a core published. The render goroutine
// writes it and a host reads it from its own goroutine; both sides work on
// private copies.
type Screen struct {
	mu  sync.Mutex
	fb  *Framebuffer
	seq uint64
}

// Publish copies fb into the screen.
func (s *Screen) Publish(fb *Framebuffer) {
	s.mu.Lock()
	if s.fb == nil {
		s.fb = fb.Clone()
	} else {
		s.fb.CopyFrom(fb)
	}
	s.seq++
	s.mu.Unlock()
}

// Snapshot returns a copy of the last published frame and its sequence
// number. It returns nil before the first Publish and after Clear.
func (s *Screen) Snapshot() (*Framebuffer, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fb == nil {
		return nil, s.seq
	}
	return s.fb.Clone(), s.seq
}

// Seq returns the number of frames published so far.
func (s *Screen) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Clear drops the published frame.
func (s *Screen) Clear() {
	s.mu.Lock()
	s.fb = nil
	s.mu.Unlock()
}

// Presenter is implemented by cores that publish character frames.
type Presenter interface {
	Screen() *Screen
}
