package binding

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vovakirdan/retrobridge/internal/core"
)

// Handle owns a Core for the lifetime of one session and gates every call
// on the lifecycle state:
//
//	Uninitialized -Open-> Created -LoadGame-> GameLoaded -Start-> Running <-Pause/Resume-> Paused
//	any non-terminal state -Close-> Destroyed
//
// A Handle is safe for concurrent use, but the session only calls it from
// the render goroutine once the core has been opened.
type Handle struct {
	mu      sync.Mutex
	core    Core
	state   core.LifecycleState
	created bool // Create succeeded, Destroy is owed
	loaded  bool // one-shot game load flag
	frames  uint64
}

// NewHandle wraps c. The handle starts Uninitialized and does not call c
// until Open.
func NewHandle(c Core) *Handle {
	return &Handle{core: c, state: core.StateUninitialized}
}

// State returns the current lifecycle state.
func (h *Handle) State() core.LifecycleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Frames returns the number of successful steps.
func (h *Handle) Frames() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Open creates the core. A second Open without Close is rejected with
// core.ErrAlreadyCreated. If the core fails to create, the handle moves
// straight to Destroyed and Destroy is never called.
func (h *Handle) Open(params core.CreateParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case core.StateUninitialized:
	case core.StateDestroyed:
		return fmt.Errorf("binding: open: %w", core.ErrDestroyed)
	default:
		return fmt.Errorf("binding: open: %w", core.ErrAlreadyCreated)
	}

	if err := h.core.Create(params); err != nil {
		h.state = core.StateDestroyed
		return fmt.Errorf("binding: create %q: %w: %w", params.CorePath, core.ErrInit, err)
	}
	h.created = true
	h.state = core.StateCreated
	return nil
}

// LoadGame loads the game once. It reports whether a load happened: after
// the first success every further call is a no-op returning false. On
// failure the handle stays in Created so the load can be retried.
func (h *Handle) LoadGame(path string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == core.StateDestroyed {
		return false, fmt.Errorf("binding: load game: %w", core.ErrDestroyed)
	}
	if h.loaded {
		return false, nil
	}
	if h.state != core.StateCreated {
		return false, h.invalid("load game")
	}

	if err := h.core.LoadGame(path); err != nil {
		return false, fmt.Errorf("binding: load game %q: %w: %w", path, core.ErrLoad, err)
	}
	h.loaded = true
	h.state = core.StateGameLoaded
	return true, nil
}

// RestoreSRAM hands a save-RAM blob to the core. Empty blobs are ignored.
func (h *Handle) RestoreSRAM(blob core.SaveBlob) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("restore sram"); err != nil {
		return err
	}
	if blob.Empty() {
		return nil
	}
	if err := h.core.UnserializeSRAM(blob); err != nil {
		return fmt.Errorf("binding: restore sram: %w: %w", core.ErrRestore, err)
	}
	return nil
}

// BindSurface tells the core a GPU surface exists. It may be called again
// whenever the graphics context is recreated.
func (h *Handle) BindSurface() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("bind surface"); err != nil {
		return err
	}
	h.core.OnSurfaceCreated()
	return nil
}

// Resize forwards new surface dimensions. Before a game is loaded the
// request is discarded and Resize reports false.
func (h *Handle) Resize(width, height int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == core.StateDestroyed {
		return false, fmt.Errorf("binding: resize: %w", core.ErrDestroyed)
	}
	if !h.state.HasGame() {
		return false, nil
	}
	h.core.OnSurfaceChanged(width, height)
	return true, nil
}

// Start moves GameLoaded to Running on the first frame tick.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != core.StateGameLoaded {
		return h.invalid("start")
	}
	h.state = core.StateRunning
	return nil
}

// Step advances one frame. Only legal while Running.
func (h *Handle) Step() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != core.StateRunning {
		return h.invalid("step")
	}
	if err := h.core.Step(); err != nil {
		return fmt.Errorf("binding: step: %w", err)
	}
	h.frames++
	return nil
}

// Pause releases GPU-bound resources. Running -> Paused.
func (h *Handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != core.StateRunning {
		return h.invalid("pause")
	}
	h.core.Pause()
	h.state = core.StatePaused
	return nil
}

// Resume reacquires GPU-bound resources. Paused -> Running.
func (h *Handle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != core.StatePaused {
		return h.invalid("resume")
	}
	h.core.Resume()
	h.state = core.StateRunning
	return nil
}

// Deliver hands one port event to the core.
func (h *Handle) Deliver(ev core.PortEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("deliver input"); err != nil {
		return err
	}
	// Events without a controller port never reach the core.
	if ev.PortIndex() < 0 {
		return nil
	}
	switch e := ev.(type) {
	case core.KeyEvent:
		h.core.OnKeyEvent(e.Port, e.Action, e.KeyCode)
	case core.MotionEvent:
		h.core.OnMotionEvent(e.Port, e.Source, e.X, e.Y)
	}
	return nil
}

// SerializeState captures the core state.
func (h *Handle) SerializeState() (core.SaveBlob, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("serialize state"); err != nil {
		return nil, err
	}
	blob, err := h.core.SerializeState()
	if err != nil {
		return nil, fmt.Errorf("binding: serialize state: %w", err)
	}
	return blob, nil
}

// UnserializeState restores a state captured by SerializeState. An empty
// blob is treated as "no prior state" and reports false without calling
// the core.
func (h *Handle) UnserializeState(blob core.SaveBlob) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("unserialize state"); err != nil {
		return false, err
	}
	if blob.Empty() {
		return false, nil
	}
	return h.core.UnserializeState(blob), nil
}

// SerializeSRAM captures save-RAM.
func (h *Handle) SerializeSRAM() (core.SaveBlob, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("serialize sram"); err != nil {
		return nil, err
	}
	return h.core.SerializeSRAM(), nil
}

// Reset restarts the loaded game.
func (h *Handle) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("reset"); err != nil {
		return err
	}
	h.core.Reset()
	return nil
}

// Variables lists the core's tuning options.
func (h *Handle) Variables() ([]core.Variable, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("variables"); err != nil {
		return nil, err
	}
	return h.core.Variables(), nil
}

// UpdateVariable sets one tuning option.
func (h *Handle) UpdateVariable(v core.Variable) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("update variable"); err != nil {
		return err
	}
	h.core.UpdateVariable(v)
	return nil
}

// AvailableDisks lists disk indexes of the loaded game.
func (h *Handle) AvailableDisks() ([]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("available disks"); err != nil {
		return nil, err
	}
	return h.core.AvailableDisks(), nil
}

// CurrentDisk returns the inserted disk index.
func (h *Handle) CurrentDisk() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("current disk"); err != nil {
		return 0, err
	}
	return h.core.CurrentDisk(), nil
}

// ChangeDisk inserts another disk. Indexes the core does not list are
// rejected with core.ErrDisk before reaching the core.
func (h *Handle) ChangeDisk(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("change disk"); err != nil {
		return err
	}
	if !slices.Contains(h.core.AvailableDisks(), index) {
		return fmt.Errorf("binding: change disk %d: %w", index, core.ErrDisk)
	}
	if err := h.core.ChangeDisk(index); err != nil {
		return fmt.Errorf("binding: change disk %d: %w: %w", index, core.ErrDisk, err)
	}
	return nil
}

// AspectRatio returns the core's preferred display aspect ratio.
func (h *Handle) AspectRatio() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireGame("aspect ratio"); err != nil {
		return 0, err
	}
	return h.core.AspectRatio(), nil
}

// Close destroys the core. Destroy is called only if Open succeeded, and
// never twice.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == core.StateDestroyed {
		return fmt.Errorf("binding: close: %w", core.ErrDestroyed)
	}
	if h.created {
		h.core.Destroy()
		h.created = false
	}
	h.state = core.StateDestroyed
	return nil
}

func (h *Handle) requireGame(op string) error {
	if h.state == core.StateDestroyed {
		return fmt.Errorf("binding: %s: %w", op, core.ErrDestroyed)
	}
	if !h.state.HasGame() {
		return h.invalid(op)
	}
	return nil
}

func (h *Handle) invalid(op string) error {
	if h.state == core.StateDestroyed {
		return fmt.Errorf("binding: %s: %w", op, core.ErrDestroyed)
	}
	return fmt.Errorf("binding: %s in state %s: %w", op, h.state, core.ErrInvalidState)
}
