package session

import "github.com/vovakirdan/retrobridge/internal/core"

// onLoop runs fn on the render goroutine and returns its result.
func onLoop[T any](s *Session, op string, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if derr := s.loop.Do(func() { out, err = fn() }); derr != nil {
		var zero T
		return zero, stopped(op, derr)
	}
	return out, err
}

// SerializeState captures the core state between frames.
func (s *Session) SerializeState() (core.SaveBlob, error) {
	return onLoop(s, "serialize state", s.handle.SerializeState)
}

// UnserializeState restores a state blob. It reports false if the core
// rejected the blob or the blob was empty.
func (s *Session) UnserializeState(blob core.SaveBlob) (bool, error) {
	return onLoop(s, "unserialize state", func() (bool, error) {
		return s.handle.UnserializeState(blob)
	})
}

// SerializeSRAM captures save-RAM.
func (s *Session) SerializeSRAM() (core.SaveBlob, error) {
	return onLoop(s, "serialize sram", s.handle.SerializeSRAM)
}

// Reset restarts the loaded game.
func (s *Session) Reset() error {
	_, err := onLoop(s, "reset", func() (struct{}, error) {
		return struct{}{}, s.handle.Reset()
	})
	return err
}

// Variables lists the core's tuning options.
func (s *Session) Variables() ([]core.Variable, error) {
	return onLoop(s, "variables", s.handle.Variables)
}

// UpdateVariables applies each variable in order. It stops at the first
// failure.
func (s *Session) UpdateVariables(vars ...core.Variable) error {
	_, err := onLoop(s, "update variables", func() (struct{}, error) {
		for _, v := range vars {
			if err := s.handle.UpdateVariable(v); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

// AvailableDisks lists the disk indexes of the loaded game.
func (s *Session) AvailableDisks() ([]int, error) {
	return onLoop(s, "available disks", s.handle.AvailableDisks)
}

// CurrentDisk returns the inserted disk.
func (s *Session) CurrentDisk() (int, error) {
	return onLoop(s, "current disk", s.handle.CurrentDisk)
}

// ChangeDisk inserts another disk. Unknown indexes fail with core.ErrDisk
// and leave the current disk unchanged.
func (s *Session) ChangeDisk(index int) error {
	_, err := onLoop(s, "change disk", func() (struct{}, error) {
		return struct{}{}, s.handle.ChangeDisk(index)
	})
	return err
}

// AspectRatio returns the core's preferred display aspect ratio.
func (s *Session) AspectRatio() (float64, error) {
	return onLoop(s, "aspect ratio", s.handle.AspectRatio)
}
