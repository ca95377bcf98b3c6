// Package session binds a host surface lifecycle to an emulation core.
//
// A Session owns one binding.Handle and one render.Loop. It reacts to host
// lifecycle events (create, resume, pause, destroy) and surface callbacks,
// keeps the core's state machine legal, and surfaces milestones through a
// notify.Broadcaster. After creation every core call happens on the render
// goroutine.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/retrobridge/internal/binding"
	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/input"
	"github.com/vovakirdan/retrobridge/internal/lifecycle"
	"github.com/vovakirdan/retrobridge/internal/notify"
	"github.com/vovakirdan/retrobridge/internal/render"
)

// errorBuffer is the capacity of the Errors channel.
const errorBuffer = 16

// Options configures a Session.
type Options struct {
	Core   binding.Core
	Params core.CreateParams

	// GamePath is loaded on the first surface-available.
	GamePath string

	// SaveRAM, when not empty, is restored right after the game loads.
	SaveRAM core.SaveBlob

	// Owner, when set, delivers lifecycle events. The session registers
	// itself at construction and unregisters on destroy.
	Owner lifecycle.Owner

	// Frames paces the render loop. Nil selects a wall-clock ticker at
	// Params.RefreshRate.
	Frames render.FrameSource

	// InputCapacity bounds the pending input queue.
	InputCapacity int

	// KeyMap remaps host keys; nil selects input.DefaultKeyMap.
	KeyMap input.KeyMap

	// GeometryHint, when set, receives the core's aspect ratio after each
	// surface bind. It runs on its own goroutine.
	GeometryHint func(aspect float64)

	Logger *log.Logger
}

// Session is one bridged core.
type Session struct {
	id       string
	params   core.CreateParams
	gamePath string
	saveRAM  core.SaveBlob
	owner    lifecycle.Owner
	hint     func(float64)

	handle     *binding.Handle
	loop       *render.Loop
	normalizer *input.Normalizer
	events     *notify.Broadcaster[core.FrameEvent]
	errs       chan error
	logger     *log.Logger

	mu      sync.Mutex
	surface core.Size

	destroyOnce sync.Once
}

// New builds a session. If opts.Owner is set the session registers on it,
// which may immediately replay Create and Resume.
func New(opts Options) (*Session, error) {
	if opts.Core == nil {
		return nil, errors.New("session: no core")
	}

	id := uuid.Must(uuid.NewV7()).String()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("session")
	}
	logger = logger.With("session", id[len(id)-8:])

	frames := opts.Frames
	if frames == nil {
		frames = render.NewTicker(opts.Params.RefreshRate)
	}

	s := &Session{
		id:         id,
		params:     opts.Params,
		gamePath:   opts.GamePath,
		saveRAM:    opts.SaveRAM,
		owner:      opts.Owner,
		hint:       opts.GeometryHint,
		handle:     binding.NewHandle(opts.Core),
		normalizer: input.NewNormalizer(opts.KeyMap),
		events:     notify.New[core.FrameEvent](),
		errs:       make(chan error, errorBuffer),
		logger:     logger,
	}
	s.loop = render.New(render.Options{
		Renderer:      (*renderer)(s),
		Frames:        frames,
		Deliver:       s.deliver,
		InputCapacity: opts.InputCapacity,
		OnError:       s.report,
		Logger:        logger.WithPrefix("render"),
	})

	if s.owner != nil {
		s.owner.AddObserver(s)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() core.LifecycleState { return s.handle.State() }

// Frames returns the number of frames stepped so far.
func (s *Session) Frames() uint64 { return s.handle.Frames() }

// Events returns the milestone broadcaster.
func (s *Session) Events() *notify.Broadcaster[core.FrameEvent] { return s.events }

// Errors returns asynchronous failures: load errors, core step errors and
// recovered panics. When the buffer is full the oldest error is dropped.
// The channel is never closed.
func (s *Session) Errors() <-chan error { return s.errs }

// PendingInput returns the number of input events waiting for the next
// frame.
func (s *Session) PendingInput() int { return s.loop.Pending() }

// OnLifecycleEvent implements lifecycle.Observer.
func (s *Session) OnLifecycleEvent(e lifecycle.Event) {
	var err error
	switch e {
	case lifecycle.EventCreate:
		err = s.Create()
	case lifecycle.EventResume:
		err = s.Resume()
	case lifecycle.EventPause:
		err = s.Pause()
	case lifecycle.EventDestroy:
		s.Destroy()
	}
	if err != nil && !errors.Is(err, core.ErrInit) {
		s.logger.Warn("lifecycle event failed", "event", e, "err", err)
	}
}

// Create allocates the core and starts the render loop. It must be called
// on the host goroutine. If the core fails to initialise, the failure is
// reported, the session is destroyed and core.ErrInit is returned.
func (s *Session) Create() error {
	if err := s.handle.Open(s.params); err != nil {
		if errors.Is(err, core.ErrInit) {
			s.logger.Error("core init failed", "core", s.params.CorePath, "err", err)
			s.report(err)
			s.Destroy()
		}
		return err
	}
	s.logger.Debug("core created", "core", s.params.CorePath, "shader", s.params.Shader)
	s.loop.Start()
	return nil
}

// Resume restarts frame delivery. If the core was paused it is resumed
// first.
func (s *Session) Resume() error {
	if s.State().Terminal() {
		return fmt.Errorf("session: resume: %w", core.ErrDestroyed)
	}
	var err error
	derr := s.loop.Do(func() {
		if s.handle.State() == core.StatePaused {
			err = s.handle.Resume()
		}
		s.loop.ResumeRendering()
	})
	if derr != nil {
		return stopped("resume", derr)
	}
	if err == nil {
		s.logger.Debug("resumed", "state", s.State())
	}
	return err
}

// Pause stops frame delivery, then pauses the core if it was running.
// Before the first frame only frame delivery is toggled.
func (s *Session) Pause() error {
	if s.State().Terminal() {
		return fmt.Errorf("session: pause: %w", core.ErrDestroyed)
	}
	var err error
	derr := s.loop.Do(func() {
		s.loop.PauseRendering()
		if s.handle.State() == core.StateRunning {
			err = s.handle.Pause()
		}
	})
	if derr != nil {
		return stopped("pause", derr)
	}
	if err == nil {
		s.logger.Debug("paused", "state", s.State())
	}
	return err
}

// Destroy stops the loop, discarding queued input, and destroys the core
// on the render goroutine. A frame in flight completes first. Calling
// Destroy more than once is harmless.
func (s *Session) Destroy() {
	s.destroyOnce.Do(func() {
		s.loop.Stop(func() {
			if err := s.handle.Close(); err != nil && !errors.Is(err, core.ErrDestroyed) {
				s.logger.Error("close core", "err", err)
			}
		})
		if s.owner != nil {
			s.owner.RemoveObserver(s)
		}
		s.events.Close()
		s.logger.Debug("session destroyed", "frames", s.handle.Frames(), "dropped_input", s.loop.Dropped())
	})
}

// SurfaceAvailable announces a new drawing surface. The first one loads
// the game; later ones rebind the core to the new surface.
func (s *Session) SurfaceAvailable(width, height int) error {
	s.setSurface(width, height)
	return s.loop.SurfaceAvailable(width, height)
}

// SurfaceChanged announces new surface dimensions.
func (s *Session) SurfaceChanged(width, height int) error {
	s.setSurface(width, height)
	return s.loop.SurfaceChanged(width, height)
}

// SurfaceLost stops drawing until the next SurfaceAvailable.
func (s *Session) SurfaceLost() error {
	return s.loop.SurfaceLost()
}

func (s *Session) setSurface(width, height int) {
	s.mu.Lock()
	s.surface = core.Size{W: width, H: height}
	s.mu.Unlock()
}

func (s *Session) surfaceSize() core.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// report publishes err on the Errors channel, dropping the oldest pending
// error if the buffer is full.
func (s *Session) report(err error) {
	for {
		select {
		case s.errs <- err:
			return
		default:
		}
		select {
		case <-s.errs:
		default:
		}
	}
}

// deliver runs on the render goroutine. Input arriving before a game is
// loaded is dropped.
func (s *Session) deliver(ev core.PortEvent) error {
	if !s.handle.State().HasGame() {
		return nil
	}
	return s.handle.Deliver(ev)
}

func stopped(op string, err error) error {
	if errors.Is(err, render.ErrStopped) {
		return fmt.Errorf("session: %s: %w: %w", op, core.ErrDestroyed, err)
	}
	return fmt.Errorf("session: %s: %w", op, err)
}

// renderer adapts the session to render.Renderer without exporting the
// callbacks on Session.
type renderer Session

func (r *renderer) OnSurfaceCreated() error {
	s := (*Session)(r)

	loaded, err := s.handle.LoadGame(s.gamePath)
	if err != nil {
		return err
	}
	if loaded {
		s.logger.Debug("game loaded", "game", s.gamePath)
		if !s.saveRAM.Empty() {
			if err := s.handle.RestoreSRAM(s.saveRAM); err != nil {
				s.logger.Warn("save-RAM rejected, starting fresh", "err", err)
			}
		}
	}

	if err := s.handle.BindSurface(); err != nil {
		return err
	}
	s.events.Publish(core.SurfaceCreated)

	if s.hint != nil {
		if aspect, err := s.handle.AspectRatio(); err == nil && aspect > 0 {
			go s.hint(aspect)
		}
	}
	return nil
}

func (r *renderer) OnSurfaceChanged(width, height int) error {
	s := (*Session)(r)
	forwarded, err := s.handle.Resize(width, height)
	if err != nil {
		return err
	}
	if !forwarded {
		s.logger.Debug("resize before game load discarded", "width", width, "height", height)
	}
	return nil
}

// OnDrawFrame steps the core. Before the game is loaded there is nothing
// to step and the frame is reported as not drawn.
func (r *renderer) OnDrawFrame() (bool, error) {
	s := (*Session)(r)
	switch s.handle.State() {
	case core.StateGameLoaded:
		if err := s.handle.Start(); err != nil {
			return false, err
		}
		s.logger.Debug("first frame", "state", core.StateRunning)
	case core.StateRunning:
	default:
		return false, nil
	}

	if err := s.handle.Step(); err != nil {
		return false, err
	}
	s.events.Publish(core.FrameRendered)
	return true, nil
}
