// Package binding defines the contract between the bridge and an emulation
// core, and the state-gated Handle through which the bridge drives it.
//
// Core is implemented by engines (see internal/cores). Nothing outside this
// package calls a Core directly: every call goes through a Handle, which
// enforces the lifecycle table so that a core is created before use, loads
// its game once, only steps while running, and is destroyed exactly once.
package binding

import "github.com/vovakirdan/retrobridge/internal/core"

// Core is an emulation engine behind a frame-stepping contract.
//
// Implementations are not required to be safe for concurrent use. The
// bridge calls Create from the host goroutine before the render loop starts
// and every other method from the render goroutine.
type Core interface {
	// Create allocates the engine. A returned error is wrapped as core.ErrInit.
	Create(params core.CreateParams) error

	// Destroy releases the engine. Called at most once per successful Create.
	Destroy()

	// LoadGame loads the game at path. A returned error is wrapped as core.ErrLoad.
	LoadGame(path string) error

	// UnserializeSRAM restores save-RAM. A returned error is wrapped as core.ErrRestore.
	UnserializeSRAM(blob core.SaveBlob) error

	// OnSurfaceCreated binds GPU resources to a new surface.
	OnSurfaceCreated()

	// OnSurfaceChanged announces new surface dimensions.
	OnSurfaceChanged(width, height int)

	// Resume reacquires GPU-bound resources released by Pause.
	Resume()

	// Pause releases transient GPU-bound resources.
	Pause()

	// Step advances exactly one logical frame.
	Step() error

	SerializeState() (core.SaveBlob, error)
	UnserializeState(blob core.SaveBlob) bool
	SerializeSRAM() core.SaveBlob
	Reset()

	OnKeyEvent(port int, action core.KeyAction, keyCode int)
	OnMotionEvent(port int, source core.MotionSource, x, y float64)

	Variables() []core.Variable
	UpdateVariable(v core.Variable)

	AvailableDisks() []int
	CurrentDisk() int

	// ChangeDisk switches the inserted disk. A returned error is wrapped as core.ErrDisk.
	ChangeDisk(index int) error

	// AspectRatio returns the preferred display aspect ratio, or 0 if the
	// core has no preference.
	AspectRatio() float64
}
