// Package render runs the frame loop: a single goroutine, locked to its OS
// thread, that owns every call into the core once it has started.
package render

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/retrobridge/internal/core"
)

// ErrStopped is returned for work submitted to, or pending on, a loop that
// has stopped.
var ErrStopped = errors.New("render: loop stopped")

// DefaultInputCapacity bounds the input queue when no capacity is given.
const DefaultInputCapacity = 512

// Renderer receives surface and frame callbacks on the loop goroutine.
type Renderer interface {
	OnSurfaceCreated() error
	OnSurfaceChanged(width, height int) error
	// OnDrawFrame steps the core once. It reports whether a frame was
	// actually produced; a renderer with nothing to step returns false.
	OnDrawFrame() (bool, error)
}

// Options configures a Loop.
type Options struct {
	Renderer Renderer
	Frames   FrameSource

	// Deliver hands one queued input event to the core. It runs on the
	// loop goroutine before every drawn frame.
	Deliver func(core.PortEvent) error

	// InputCapacity bounds the input queue. When full, the oldest event is
	// dropped. Zero selects DefaultInputCapacity.
	InputCapacity int

	// OnError receives renderer errors and recovered panics. It runs on the
	// loop goroutine and must not block.
	OnError func(error)

	Logger *log.Logger
}

type task struct {
	fn   func()
	done chan struct{}
}

// Loop serialises surface callbacks, tasks, input delivery and frame
// stepping onto one goroutine.
//
// Rendering starts active: frames are drawn as soon as a surface is
// available. Do, Stop and Submit must not be called from the loop
// goroutine itself, except PauseRendering and ResumeRendering which must
// only be called from there.
type Loop struct {
	renderer Renderer
	frames   FrameSource
	deliver  func(core.PortEvent) error
	onError  func(error)
	logger   *log.Logger
	capacity int

	mu          sync.Mutex
	tasks       []task
	input       []core.PortEvent
	overflowing bool
	dropped     uint64
	started     bool
	stopping    bool
	final       func()

	wake    chan struct{}
	stopped chan struct{}

	// loop goroutine only
	surfaceReady bool
	paused       bool
}

// New creates a loop. It does not start the goroutine.
func New(opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("render")
	}
	capacity := opts.InputCapacity
	if capacity <= 0 {
		capacity = DefaultInputCapacity
	}
	deliver := opts.Deliver
	if deliver == nil {
		deliver = func(core.PortEvent) error { return nil }
	}
	return &Loop{
		renderer: opts.Renderer,
		frames:   opts.Frames,
		deliver:  deliver,
		onError:  opts.OnError,
		logger:   logger,
		capacity: capacity,
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling Start again, or after Stop,
// has no effect.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopping {
		return
	}
	l.started = true
	go l.run()
}

// Submit queues fn to run on the loop goroutine before the next frame.
// Before Start, fn runs inline on the caller.
func (l *Loop) Submit(fn func()) error {
	_, err := l.push(fn)
	return err
}

// Do runs fn on the loop goroutine and waits for it to finish. No frame is
// in flight while fn runs. If the loop stops before fn runs, Do returns
// ErrStopped and fn never runs. Before Start, fn runs inline on the caller.
func (l *Loop) Do(fn func()) error {
	done, err := l.push(fn)
	if err != nil || done == nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) push(fn func()) (chan struct{}, error) {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return nil, ErrStopped
	}
	if !l.started {
		l.mu.Unlock()
		fn()
		return nil, nil
	}
	t := task{fn: fn, done: make(chan struct{})}
	l.tasks = append(l.tasks, t)
	l.mu.Unlock()
	l.signal()
	return t.done, nil
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Enqueue appends input events for delivery before the next drawn frame.
// It reports false if the loop has stopped.
func (l *Loop) Enqueue(events ...core.PortEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopping {
		return false
	}
	for _, ev := range events {
		if len(l.input) >= l.capacity {
			l.input = l.input[1:]
			l.dropped++
			if !l.overflowing {
				l.overflowing = true
				l.logger.Warn("input queue full, dropping oldest events", "capacity", l.capacity)
			}
		}
		l.input = append(l.input, ev)
	}
	return true
}

// Pending returns the number of queued input events.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.input)
}

// Dropped returns how many input events were discarded on overflow.
func (l *Loop) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// SurfaceAvailable binds a new surface of the given size: the renderer gets
// OnSurfaceCreated then OnSurfaceChanged, and frames begin to be drawn.
func (l *Loop) SurfaceAvailable(width, height int) error {
	return l.Submit(func() {
		l.surfaceReady = true
		l.guard("surface created", l.renderer.OnSurfaceCreated)
		l.guard("surface changed", func() error { return l.renderer.OnSurfaceChanged(width, height) })
	})
}

// SurfaceChanged forwards new surface dimensions.
func (l *Loop) SurfaceChanged(width, height int) error {
	return l.Submit(func() {
		l.guard("surface changed", func() error { return l.renderer.OnSurfaceChanged(width, height) })
	})
}

// SurfaceLost stops drawing until the next SurfaceAvailable.
func (l *Loop) SurfaceLost() error {
	return l.Submit(func() { l.surfaceReady = false })
}

// PauseRendering stops frame delivery. Loop goroutine only.
func (l *Loop) PauseRendering() { l.paused = true }

// ResumeRendering restarts frame delivery. Loop goroutine only.
func (l *Loop) ResumeRendering() { l.paused = false }

// Rendering reports whether frames are currently drawn. Loop goroutine only.
func (l *Loop) Rendering() bool { return l.surfaceReady && !l.paused }

// Stop ends the loop. Pending tasks fail with ErrStopped, queued input is
// discarded, and final (if not nil) runs on the loop goroutine after any
// in-flight frame completes. Stop waits for the goroutine to exit. If the
// loop never started, final runs inline. Only the first Stop has effect.
func (l *Loop) Stop(final func()) {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		<-l.stopped
		return
	}
	l.stopping = true
	l.input = nil
	l.final = final
	started := l.started
	l.mu.Unlock()

	if !started {
		if final != nil {
			final()
		}
		if l.frames != nil {
			l.frames.Stop()
		}
		close(l.stopped)
		return
	}
	l.signal()
	<-l.stopped
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.stopped)

	var frames <-chan Frame
	if l.frames != nil {
		frames = l.frames.Frames()
	}

	l.logger.Debug("loop started")
	for {
		select {
		case <-l.wake:
			if !l.runTasks() {
				l.shutdown()
				return
			}
		case f := <-frames:
			if !l.runTasks() {
				f.Ack(false)
				l.shutdown()
				return
			}
			f.Ack(l.frame())
		}
	}
}

// runTasks runs queued tasks in order. It returns false once Stop has been
// requested.
func (l *Loop) runTasks() bool {
	for {
		l.mu.Lock()
		if l.stopping {
			l.mu.Unlock()
			return false
		}
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return true
		}
		t := l.tasks[0]
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.guard("task", func() error { t.fn(); return nil })
		close(t.done)
	}
}

func (l *Loop) frame() bool {
	if !l.Rendering() {
		return false
	}

	l.mu.Lock()
	input := l.input
	l.input = nil
	l.overflowing = false
	l.mu.Unlock()

	for _, ev := range input {
		l.guard("deliver input", func() error { return l.deliver(ev) })
	}
	drawn := false
	l.guard("draw frame", func() error {
		ok, err := l.renderer.OnDrawFrame()
		drawn = ok && err == nil
		return err
	})
	return drawn
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	final := l.final
	l.tasks = nil
	l.input = nil
	l.mu.Unlock()

	if final != nil {
		l.guard("final", func() error { final(); return nil })
	}
	if l.frames != nil {
		l.frames.Stop()
	}
	l.logger.Debug("loop stopped")
}

// guard runs fn, converting a returned error or a panic into a report.
func (l *Loop) guard(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			l.report(fmt.Errorf("render: %s panicked: %v", op, r))
		}
	}()
	if err := fn(); err != nil {
		l.report(fmt.Errorf("render: %s: %w", op, err))
	}
}

func (l *Loop) report(err error) {
	l.logger.Error("render loop", "err", err)
	if l.onError != nil {
		l.onError(err)
	}
}
