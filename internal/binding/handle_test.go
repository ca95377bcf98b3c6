package binding_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/retrobridge/internal/binding"
	"github.com/vovakirdan/retrobridge/internal/binding/bindingtest"
	"github.com/vovakirdan/retrobridge/internal/core"
)

var params = core.CreateParams{
	GraphicsAPIVersion: 3,
	CorePath:           "cores/sandbox_libretro.so",
	Shader:             core.ShaderCRT,
	RefreshRate:        60,
	Locale:             "en",
}

func loadedHandle(t *testing.T) (*binding.Handle, *bindingtest.Recorder) {
	t.Helper()
	rec := &bindingtest.Recorder{}
	h := binding.NewHandle(rec)
	require.NoError(t, h.Open(params))
	loaded, err := h.LoadGame("game.rom")
	require.NoError(t, err)
	require.True(t, loaded)
	return h, rec
}

func TestHandleHappyPath(t *testing.T) {
	h, rec := loadedHandle(t)

	require.NoError(t, h.BindSurface())
	ok, err := h.Resize(320, 240)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.Start())
	require.NoError(t, h.Step())
	require.NoError(t, h.Pause())
	require.NoError(t, h.Resume())
	require.NoError(t, h.Step())
	require.NoError(t, h.Close())

	assert.Equal(t, core.StateDestroyed, h.State())
	assert.Equal(t, uint64(2), h.Frames())
	assert.Equal(t, []string{
		"create core=cores/sandbox_libretro.so gfx=3 shader=crt refresh=60 locale=en",
		"load_game path=game.rom",
		"surface_created",
		"surface_changed 320x240",
		"step",
		"pause",
		"resume",
		"step",
		"destroy",
	}, rec.Calls())
}

func TestHandleCreateFailure(t *testing.T) {
	boom := errors.New("no such core")
	rec := &bindingtest.Recorder{CreateErr: boom}
	h := binding.NewHandle(rec)

	err := h.Open(params)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, core.StateDestroyed, h.State())

	// Destroy is owed only after a successful create.
	assert.ErrorIs(t, h.Close(), core.ErrDestroyed)
	assert.Zero(t, rec.Count("destroy"))
}

func TestHandleDoubleOpen(t *testing.T) {
	rec := &bindingtest.Recorder{}
	h := binding.NewHandle(rec)
	require.NoError(t, h.Open(params))

	assert.ErrorIs(t, h.Open(params), core.ErrAlreadyCreated)
	assert.Equal(t, 1, rec.Count("create"))
	assert.Equal(t, core.StateCreated, h.State())
}

func TestHandleLoadOnce(t *testing.T) {
	h, rec := loadedHandle(t)

	for range 3 {
		loaded, err := h.LoadGame("game.rom")
		require.NoError(t, err)
		assert.False(t, loaded)
	}
	assert.Equal(t, 1, rec.Count("load_game"))
	assert.Equal(t, core.StateGameLoaded, h.State())
}

func TestHandleLoadFailureIsRetryable(t *testing.T) {
	rec := &bindingtest.Recorder{LoadErrs: []error{errors.New("bad header"), nil}}
	h := binding.NewHandle(rec)
	require.NoError(t, h.Open(params))

	_, err := h.LoadGame("game.rom")
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.Equal(t, core.StateCreated, h.State())

	loaded, err := h.LoadGame("game.rom")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, rec.Count("load_game"))
}

func TestHandleGatesByState(t *testing.T) {
	rec := &bindingtest.Recorder{}
	h := binding.NewHandle(rec)

	_, err := h.LoadGame("game.rom")
	assert.ErrorIs(t, err, core.ErrInvalidState)

	require.NoError(t, h.Open(params))

	assert.ErrorIs(t, h.Step(), core.ErrInvalidState)
	assert.ErrorIs(t, h.Pause(), core.ErrInvalidState)
	assert.ErrorIs(t, h.Resume(), core.ErrInvalidState)
	assert.ErrorIs(t, h.Deliver(core.KeyEvent{KeyCode: 8}), core.ErrInvalidState)
	_, err = h.SerializeState()
	assert.ErrorIs(t, err, core.ErrInvalidState)

	ok, err := h.Resize(640, 480)
	require.NoError(t, err)
	assert.False(t, ok, "resize before load must be discarded")

	assert.Zero(t, rec.Count("step"))
	assert.Zero(t, rec.Count("surface_changed"))
	assert.Zero(t, rec.Count("key"))
}

func TestHandleStepOnlyWhileRunning(t *testing.T) {
	h, rec := loadedHandle(t)

	assert.ErrorIs(t, h.Step(), core.ErrInvalidState, "step before first frame tick")
	require.NoError(t, h.Start())
	assert.ErrorIs(t, h.Start(), core.ErrInvalidState)

	require.NoError(t, h.Pause())
	assert.ErrorIs(t, h.Step(), core.ErrInvalidState)
	assert.ErrorIs(t, h.Pause(), core.ErrInvalidState)
	assert.Zero(t, rec.Count("step"))
	assert.Equal(t, 1, rec.Count("pause"))
}

func TestHandleStepError(t *testing.T) {
	boom := errors.New("core fault")
	h, rec := loadedHandle(t)
	rec.StepErr = boom
	require.NoError(t, h.Start())

	assert.ErrorIs(t, h.Step(), boom)
	assert.Equal(t, core.StateRunning, h.State())
	assert.Zero(t, h.Frames())
}

func TestHandleAfterClose(t *testing.T) {
	h, rec := loadedHandle(t)
	require.NoError(t, h.Close())

	assert.ErrorIs(t, h.Close(), core.ErrDestroyed)
	assert.ErrorIs(t, h.Open(params), core.ErrDestroyed)
	assert.ErrorIs(t, h.Step(), core.ErrDestroyed)
	assert.ErrorIs(t, h.Deliver(core.MotionEvent{}), core.ErrDestroyed)
	_, err := h.Resize(1, 1)
	assert.ErrorIs(t, err, core.ErrDestroyed)
	_, err = h.SerializeSRAM()
	assert.ErrorIs(t, err, core.ErrDestroyed)

	assert.Equal(t, 1, rec.Count("destroy"))
}

func TestHandleDeliver(t *testing.T) {
	h, rec := loadedHandle(t)

	require.NoError(t, h.Deliver(core.KeyEvent{Port: 1, Action: core.KeyActionDown, KeyCode: 8}))
	require.NoError(t, h.Deliver(core.MotionEvent{Port: 0, Source: core.SourcePointer, X: 0.5, Y: 0.25}))

	calls := rec.Calls()
	assert.Equal(t, []string{
		"key port=1 action=Down code=8",
		"motion port=0 source=Pointer x=0.500 y=0.250",
	}, calls[len(calls)-2:])
}

func TestHandleDeliverDropsPortless(t *testing.T) {
	h, rec := loadedHandle(t)
	before := len(rec.Calls())

	require.NoError(t, h.Deliver(core.KeyEvent{Port: -1, Action: core.KeyActionDown, KeyCode: 8}))
	require.NoError(t, h.Deliver(core.MotionEvent{Port: -1, Source: core.SourceDPad, X: 1}))

	assert.Len(t, rec.Calls(), before)
}

func TestHandleRestoreSRAM(t *testing.T) {
	h, rec := loadedHandle(t)

	require.NoError(t, h.RestoreSRAM(nil))
	assert.Zero(t, rec.Count("unserialize_sram"), "empty blob must not reach the core")

	require.NoError(t, h.RestoreSRAM(bindingtest.Blob(7)))
	assert.Equal(t, uint64(7), rec.Steps())

	err := h.RestoreSRAM(core.SaveBlob("garbage"))
	assert.ErrorIs(t, err, core.ErrRestore)
	assert.Equal(t, core.StateGameLoaded, h.State())
}

func TestHandleStateRoundTrip(t *testing.T) {
	h, rec := loadedHandle(t)
	require.NoError(t, h.Start())
	for range 5 {
		require.NoError(t, h.Step())
	}

	blob, err := h.SerializeState()
	require.NoError(t, err)

	require.NoError(t, h.Step())
	require.NoError(t, h.Step())
	assert.Equal(t, uint64(7), rec.Steps())

	ok, err := h.UnserializeState(blob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), rec.Steps())

	ok, err = h.UnserializeState(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.UnserializeState(core.SaveBlob{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(5), rec.Steps())
}

func TestHandleChangeDisk(t *testing.T) {
	h, rec := loadedHandle(t)
	rec.Disks = []int{0, 1, 2}

	require.NoError(t, h.ChangeDisk(2))
	cur, err := h.CurrentDisk()
	require.NoError(t, err)
	assert.Equal(t, 2, cur)

	assert.ErrorIs(t, h.ChangeDisk(5), core.ErrDisk)
	assert.Equal(t, 1, rec.Count("change_disk"), "unknown index must not reach the core")

	rec.DiskErr = errors.New("tray stuck")
	assert.ErrorIs(t, h.ChangeDisk(1), core.ErrDisk)
}

func TestHandleVariables(t *testing.T) {
	h, _ := loadedHandle(t)

	require.NoError(t, h.UpdateVariable(core.Variable{Key: "speed", Value: "2"}))
	vars, err := h.Variables()
	require.NoError(t, err)
	assert.Equal(t, []core.Variable{{Key: "speed", Value: "2"}}, vars)
}
