package session

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/retrobridge/internal/binding/bindingtest"
	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/input"
	"github.com/vovakirdan/retrobridge/internal/lifecycle"
	"github.com/vovakirdan/retrobridge/internal/notify"
	"github.com/vovakirdan/retrobridge/internal/render"
)

var testParams = core.CreateParams{
	GraphicsAPIVersion: 3,
	CorePath:           "sandbox",
	Shader:             core.ShaderDefault,
	RefreshRate:        60,
	Locale:             "en",
}

type fixture struct {
	rec    *bindingtest.Recorder
	frames *render.Manual
	owner  *lifecycle.Registry
	s      *Session

	mu       sync.Mutex
	rendered int
	created  int
	sub      *notify.Subscription
}

func newFixture(t *testing.T, rec *bindingtest.Recorder, mutate func(*Options)) *fixture {
	t.Helper()
	if rec == nil {
		rec = &bindingtest.Recorder{}
	}
	f := &fixture{
		rec:    rec,
		frames: render.NewManual(),
		owner:  lifecycle.NewRegistry(),
	}
	opts := Options{
		Core:     rec,
		Params:   testParams,
		GamePath: "game.rom",
		Owner:    f.owner,
		Frames:   f.frames,
		Logger:   log.New(io.Discard),
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	f.s = s
	f.sub = s.Events().Subscribe(func(e core.FrameEvent) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch e {
		case core.FrameRendered:
			f.rendered++
		case core.SurfaceCreated:
			f.created++
		}
	})
	t.Cleanup(s.Destroy)
	return f
}

// start drives the session to GameLoaded with rendering enabled.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.owner.Dispatch(lifecycle.EventCreate)
	require.NoError(t, f.s.SurfaceAvailable(640, 480))
	f.owner.Dispatch(lifecycle.EventResume)
}

func (f *fixture) tick(t *testing.T, n int) {
	t.Helper()
	for range n {
		require.True(t, f.frames.Tick(), "frame was not drawn")
	}
}

// destroy tears the session down and waits for all milestones to arrive.
func (f *fixture) destroy(t *testing.T) {
	t.Helper()
	f.owner.Dispatch(lifecycle.EventDestroy)
	select {
	case <-f.sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("event subscription did not drain")
	}
}

func (f *fixture) counts() (rendered, created int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rendered, f.created
}

func nextError(t *testing.T, s *Session) error {
	t.Helper()
	select {
	case err := <-s.Errors():
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
		return nil
	}
}

func TestScenario(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.start(t)
	f.tick(t, 3)
	f.owner.Dispatch(lifecycle.EventPause)
	assert.False(t, f.frames.Tick(), "no frames while paused")
	assert.Equal(t, core.StatePaused, f.s.State())
	f.owner.Dispatch(lifecycle.EventResume)
	f.tick(t, 2)
	f.destroy(t)

	rendered, created := f.counts()
	assert.Equal(t, 5, rendered)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.rec.Count("load_game"))
	assert.Equal(t, 1, f.rec.Count("destroy"))
	assert.Equal(t, uint64(5), f.s.Frames())
	assert.Equal(t, core.StateDestroyed, f.s.State())

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "scenario", []byte(f.rec.Trace()))
}

func TestPauseResumeBalanced(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 1)

	for range 10 {
		require.NoError(t, f.s.Pause())
		require.NoError(t, f.s.Resume())
		f.tick(t, 1)
	}
	f.destroy(t)

	assert.Equal(t, 10, f.rec.Count("pause"))
	assert.Equal(t, f.rec.Count("pause"), f.rec.Count("resume"))
}

func TestPauseBeforeFirstFrameOnlyTogglesDelivery(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)

	require.NoError(t, f.s.Pause())
	assert.False(t, f.frames.Tick())
	require.NoError(t, f.s.Resume())
	assert.Equal(t, core.StateGameLoaded, f.s.State())

	f.tick(t, 1)
	assert.Equal(t, core.StateRunning, f.s.State())
	assert.Zero(t, f.rec.Count("pause"))
	assert.Zero(t, f.rec.Count("resume"))
}

func TestLoadGameOnceAcrossSurfaces(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 1)

	for range 3 {
		require.NoError(t, f.s.SurfaceLost())
		assert.False(t, f.frames.Tick())
		require.NoError(t, f.s.SurfaceAvailable(320, 240))
		f.tick(t, 1)
	}
	f.destroy(t)

	_, created := f.counts()
	assert.Equal(t, 1, f.rec.Count("load_game"))
	assert.Equal(t, 4, f.rec.Count("surface_created"))
	assert.Equal(t, 4, created)
}

func TestLoadErrorKeepsCreated(t *testing.T) {
	boom := errors.New("unsupported image")
	f := newFixture(t, &bindingtest.Recorder{LoadErrs: []error{boom}}, nil)
	f.owner.Dispatch(lifecycle.EventCreate)
	require.NoError(t, f.s.SurfaceAvailable(100, 100))
	assert.False(t, f.frames.Tick(), "no game, nothing stepped")

	err := nextError(t, f.s)
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, core.StateCreated, f.s.State())
	assert.Zero(t, f.rec.Count("step"))
	assert.Zero(t, f.rec.Count("surface_changed"), "resize before load is discarded")

	require.NoError(t, f.s.SurfaceAvailable(100, 100))
	f.tick(t, 1)
	assert.Equal(t, core.StateRunning, f.s.State())
	assert.Equal(t, 2, f.rec.Count("load_game"))
}

func TestInitErrorDestroysWithoutCoreDestroy(t *testing.T) {
	boom := errors.New("missing bios")
	f := newFixture(t, &bindingtest.Recorder{CreateErr: boom}, nil)

	err := f.s.Create()
	assert.ErrorIs(t, err, core.ErrInit)
	assert.ErrorIs(t, nextError(t, f.s), core.ErrInit)
	assert.Equal(t, core.StateDestroyed, f.s.State())
	assert.Zero(t, f.rec.Count("destroy"))

	assert.ErrorIs(t, f.s.Pause(), core.ErrDestroyed)
	assert.False(t, f.frames.Tick())
}

func TestDoubleCreateRejected(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, f.s.Create())
	assert.ErrorIs(t, f.s.Create(), core.ErrAlreadyCreated)
	assert.Equal(t, 1, f.rec.Count("create"))
}

func TestSaveRAMRestore(t *testing.T) {
	f := newFixture(t, nil, func(o *Options) { o.SaveRAM = bindingtest.Blob(42) })
	f.start(t)
	f.tick(t, 1)

	assert.Equal(t, 1, f.rec.Count("unserialize_sram"))
	assert.Equal(t, uint64(43), f.rec.Steps())
}

func TestBadSaveRAMStartsFresh(t *testing.T) {
	f := newFixture(t, nil, func(o *Options) { o.SaveRAM = core.SaveBlob("not a blob") })
	f.start(t)
	f.tick(t, 2)

	assert.Equal(t, core.StateRunning, f.s.State())
	assert.Equal(t, uint64(2), f.rec.Steps())
}

func TestInputDeliveredBeforeStep(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 1)

	assert.True(t, f.s.SendKeyEvent(core.KeyActionDown, input.JoypadA, 1))
	assert.True(t, f.s.KeyDown(input.RawKey{
		Device:  input.DeviceInfo{ControllerNumber: 1, Class: input.ClassGamepad},
		KeyCode: input.KeyButtonStart,
	}))
	assert.True(t, f.s.Touch(input.RawTouch{Action: input.TouchDown, X: 160, Y: 120}))
	assert.Equal(t, 3, f.s.PendingInput())
	f.tick(t, 1)

	calls := f.rec.Calls()
	assert.Equal(t, []string{
		"key port=1 action=Down code=8",
		"key port=0 action=Down code=3",
		"motion port=0 source=Pointer x=0.250 y=0.250",
		"step",
	}, calls[len(calls)-4:])
}

func TestUnmappedInputDropped(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)

	assert.False(t, f.s.KeyDown(input.RawKey{
		Device:  input.DeviceInfo{ControllerNumber: 0, Class: input.ClassGamepad},
		KeyCode: input.KeyButtonA,
	}))
	assert.False(t, f.s.KeyUp(input.RawKey{
		Device:  input.DeviceInfo{ControllerNumber: 1, Class: input.ClassGamepad},
		KeyCode: 4242,
	}))
	assert.False(t, f.s.SendMotionEvent(core.SourceDPad, 0, 0, -1))
	assert.Zero(t, f.s.PendingInput())
}

func TestGenericMotion(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 1)

	assert.True(t, f.s.GenericMotion(input.RawMotion{
		Device: input.DeviceInfo{ControllerNumber: 2, Class: input.ClassJoystick},
		Axes:   input.Axes{HatX: -1, X: 0.5, RZ: 1},
	}))
	f.tick(t, 1)

	calls := f.rec.Calls()
	assert.Equal(t, []string{
		"motion port=1 source=DPad x=-1.000 y=0.000",
		"motion port=1 source=AnalogLeft x=0.500 y=0.000",
		"motion port=1 source=AnalogRight x=0.000 y=1.000",
		"step",
	}, calls[len(calls)-4:])
}

func TestDestroyDiscardsQueuedInput(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 2)

	for i := range 10 {
		f.s.SendKeyEvent(core.KeyActionDown, i, 0)
	}
	f.destroy(t)

	calls := f.rec.Calls()
	assert.Equal(t, "destroy", calls[len(calls)-1])
	assert.Zero(t, f.rec.Count("key"))
	assert.Zero(t, f.s.PendingInput())
	assert.False(t, f.s.SendKeyEvent(core.KeyActionUp, 0, 0))
	assert.False(t, f.frames.Tick())
	assert.Len(t, f.rec.Calls(), len(calls), "no core calls after destroy")
}

func TestDestroyTwice(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.s.Destroy()
	f.s.Destroy()
	assert.Equal(t, 1, f.rec.Count("destroy"))
}

func TestSessionControlRoundTrip(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 4)

	blob, err := f.s.SerializeState()
	require.NoError(t, err)
	f.tick(t, 3)
	assert.Equal(t, uint64(7), f.rec.Steps())

	ok, err := f.s.UnserializeState(blob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), f.rec.Steps())

	sram, err := f.s.SerializeSRAM()
	require.NoError(t, err)
	assert.Equal(t, bindingtest.Blob(4), sram)

	require.NoError(t, f.s.Reset())
	assert.Zero(t, f.rec.Steps())
}

func TestSessionVariablesAndDisks(t *testing.T) {
	f := newFixture(t, &bindingtest.Recorder{Disks: []int{0, 1}}, nil)
	f.start(t)

	require.NoError(t, f.s.UpdateVariables(
		core.Variable{Key: "a", Value: "1"},
		core.Variable{Key: "b", Value: "2"},
	))
	vars, err := f.s.Variables()
	require.NoError(t, err)
	assert.Len(t, vars, 2)

	disks, err := f.s.AvailableDisks()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, disks)

	require.NoError(t, f.s.ChangeDisk(1))
	assert.ErrorIs(t, f.s.ChangeDisk(9), core.ErrDisk)
	cur, err := f.s.CurrentDisk()
	require.NoError(t, err)
	assert.Equal(t, 1, cur)
}

func TestSessionControlAfterDestroy(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.start(t)
	f.destroy(t)

	_, err := f.s.SerializeState()
	assert.ErrorIs(t, err, core.ErrDestroyed)
	assert.ErrorIs(t, f.s.Reset(), core.ErrDestroyed)
	assert.ErrorIs(t, f.s.Resume(), core.ErrDestroyed)
}

func TestStepErrorReportedAndLoopContinues(t *testing.T) {
	boom := errors.New("illegal opcode")
	f := newFixture(t, nil, nil)
	f.start(t)
	f.tick(t, 1)

	f.rec.StepErr = boom
	assert.False(t, f.frames.Tick(), "a failed step is not drawn")
	assert.ErrorIs(t, nextError(t, f.s), boom)

	f.rec.StepErr = nil
	f.tick(t, 1)
	f.destroy(t)

	rendered, _ := f.counts()
	assert.Equal(t, 2, rendered)
}

func TestGeometryHint(t *testing.T) {
	hints := make(chan float64, 1)
	f := newFixture(t, &bindingtest.Recorder{Aspect: 4.0 / 3.0}, func(o *Options) {
		o.GeometryHint = func(a float64) { hints <- a }
	})
	f.start(t)
	f.tick(t, 1)

	select {
	case a := <-hints:
		assert.InDelta(t, 4.0/3.0, a, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no geometry hint")
	}
}

func TestLateRegistrationReplaysHostState(t *testing.T) {
	rec := &bindingtest.Recorder{}
	owner := lifecycle.NewRegistry()
	owner.Dispatch(lifecycle.EventCreate)
	owner.Dispatch(lifecycle.EventResume)

	frames := render.NewManual()
	s, err := New(Options{
		Core:     rec,
		Params:   testParams,
		GamePath: "game.rom",
		Owner:    owner,
		Frames:   frames,
		Logger:   log.New(io.Discard),
	})
	require.NoError(t, err)
	defer s.Destroy()

	assert.Equal(t, core.StateCreated, s.State())
	require.NoError(t, s.SurfaceAvailable(10, 10))
	assert.True(t, frames.Tick())
	assert.Equal(t, core.StateRunning, s.State())
}

func TestSessionIDIsUUID(t *testing.T) {
	f := newFixture(t, nil, nil)
	assert.Len(t, f.s.ID(), 36)
	g := newFixture(t, nil, nil)
	assert.NotEqual(t, f.s.ID(), g.s.ID())
}

func TestNewRequiresCore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
