package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/registry"
)

var testParams = core.CreateParams{GraphicsAPIVersion: 3, RefreshRate: 60, Locale: "en"}

func writeROM(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// running returns a created core with a loaded game and a 32x9 surface.
func running(t *testing.T) *Core {
	t.Helper()
	c := New()
	require.NoError(t, c.Create(testParams))
	require.NoError(t, c.LoadGame(writeROM(t, t.TempDir(), "game.rom", "sandbox test image")))
	c.OnSurfaceCreated()
	c.OnSurfaceChanged(32, 9)
	c.Resume()
	return c
}

func stepN(t *testing.T, c *Core, n int) []string {
	t.Helper()
	frames := make([]string, 0, n)
	for range n {
		require.NoError(t, c.Step())
		fb, _ := c.Screen().Snapshot()
		require.NotNil(t, fb)
		frames = append(frames, fb.String())
	}
	return frames
}

func TestRegistered(t *testing.T) {
	c, info, err := registry.Resolve("/cores/sandbox_libretro.so")
	require.NoError(t, err)
	assert.IsType(t, &Core{}, c)
	assert.Equal(t, Name, info.Name)
	assert.Contains(t, info.Extensions, ".rom")
}

func TestCreateRequiresGraphicsVersion(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Create(core.CreateParams{GraphicsAPIVersion: 1}), errGraphics)
	assert.NoError(t, c.Create(core.CreateParams{GraphicsAPIVersion: 2}))
}

func TestStepWithoutGame(t *testing.T) {
	c := New()
	require.NoError(t, c.Create(testParams))
	assert.ErrorIs(t, c.Step(), errNoGame)

	_, err := c.SerializeState()
	assert.ErrorIs(t, err, errNoGame)
}

func TestLoadGameMissing(t *testing.T) {
	c := New()
	require.NoError(t, c.Create(testParams))
	assert.Error(t, c.LoadGame(filepath.Join(t.TempDir(), "absent.rom")))
}

func TestStateRoundTrip(t *testing.T) {
	c := running(t)
	c.OnKeyEvent(0, core.KeyActionDown, buttonA)
	c.OnMotionEvent(0, core.SourceAnalogLeft, 0.8, -0.4)
	c.OnMotionEvent(1, core.SourceDPad, -1, 0)
	stepN(t, c, 10)

	saved, err := c.SerializeState()
	require.NoError(t, err)
	require.Len(t, saved, stateSize)

	c.OnKeyEvent(1, core.KeyActionDown, buttonA)
	first := stepN(t, c, 40)

	require.True(t, c.UnserializeState(saved))
	again, err := c.SerializeState()
	require.NoError(t, err)
	assert.Equal(t, saved, again)

	c.OnKeyEvent(1, core.KeyActionDown, buttonA)
	second := stepN(t, c, 40)
	assert.Equal(t, first, second)
}

func TestUnserializeStateRejectsMalformed(t *testing.T) {
	c := running(t)
	stepN(t, c, 3)
	good, err := c.SerializeState()
	require.NoError(t, err)

	badMagic := append(core.SaveBlob(nil), good...)
	badMagic[0] = 'X'
	badVersion := append(core.SaveBlob(nil), good...)
	badVersion[4] = 9

	tests := []struct {
		name string
		blob core.SaveBlob
	}{
		{"nil", nil},
		{"truncated", good[:len(good)-1]},
		{"too long", append(append(core.SaveBlob(nil), good...), 0)},
		{"bad magic", badMagic},
		{"bad version", badVersion},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, c.UnserializeState(tc.blob))
		})
	}

	after, err := c.SerializeState()
	require.NoError(t, err)
	assert.Equal(t, good, after, "rejected blobs must not change the machine")
}

func TestSRAM(t *testing.T) {
	c := running(t)
	assert.ErrorIs(t, c.UnserializeSRAM(core.SaveBlob{1, 2, 3}), errBadSRAM)

	blob := make(core.SaveBlob, SRAMSize)
	blob[17] = 2
	require.NoError(t, c.UnserializeSRAM(blob))
	assert.Equal(t, blob, c.SerializeSRAM())

	c.Reset()
	assert.Equal(t, blob, c.SerializeSRAM(), "reset keeps save-RAM")
}

func TestPointerPaints(t *testing.T) {
	c := running(t)
	c.OnMotionEvent(0, core.SourcePointer, 0, 0)
	stepN(t, c, 1)
	assert.Equal(t, byte(Ports+1), c.SerializeSRAM()[0])

	c.OnMotionEvent(0, core.SourcePointer, core.PointerReleased, core.PointerReleased)
	c.OnMotionEvent(0, core.SourcePointer, 0.99, 0.99)
	c.OnMotionEvent(0, core.SourcePointer, core.PointerReleased, core.PointerReleased)
	stepN(t, c, 1)
	assert.Zero(t, c.SerializeSRAM()[SRAMSize-1], "released pointer does not paint")
}

func TestButtonsStampAndErase(t *testing.T) {
	c := running(t)
	center := cellAt(0.5, 0.5)

	c.OnKeyEvent(2, core.KeyActionDown, buttonA)
	stepN(t, c, 1)
	assert.Equal(t, byte(3), c.SerializeSRAM()[center])

	c.OnKeyEvent(2, core.KeyActionUp, buttonA)
	c.OnKeyEvent(2, core.KeyActionDown, buttonB)
	stepN(t, c, 1)
	assert.Zero(t, c.SerializeSRAM()[center])
}

func TestOutOfRangeInputIgnored(t *testing.T) {
	c := running(t)
	c.OnKeyEvent(Ports, core.KeyActionDown, buttonA)
	c.OnKeyEvent(-1, core.KeyActionDown, buttonA)
	c.OnKeyEvent(0, core.KeyActionDown, 40)
	c.OnMotionEvent(9, core.SourceDPad, 1, 1)
	stepN(t, c, 1)
	assert.Equal(t, make(core.SaveBlob, SRAMSize), c.SerializeSRAM())
}

func TestPauseReleasesFramebuffer(t *testing.T) {
	c := running(t)
	stepN(t, c, 1)
	seq := c.Screen().Seq()

	c.Pause()
	require.NoError(t, c.Step())
	assert.Equal(t, seq, c.Screen().Seq(), "nothing is drawn while paused")

	c.OnSurfaceChanged(40, 10)
	c.Resume()
	frames := stepN(t, c, 1)
	fb, _ := c.Screen().Snapshot()
	assert.Equal(t, core.Size{W: 40, H: 10}, fb.Size())
	assert.Contains(t, frames[0], "frame ")
}

func TestDestroyClearsScreen(t *testing.T) {
	c := running(t)
	stepN(t, c, 1)
	c.Destroy()
	fb, _ := c.Screen().Snapshot()
	assert.Nil(t, fb)
}

func TestPlaylistDisks(t *testing.T) {
	dir := t.TempDir()
	writeROM(t, dir, "disk1.rom", "first")
	writeROM(t, dir, "disk2.rom", "second")
	playlist := writeROM(t, dir, "set.m3u", "disk1.rom\ndisk2.rom\n")

	c := New()
	require.NoError(t, c.Create(testParams))
	require.NoError(t, c.LoadGame(playlist))

	assert.Equal(t, []int{0, 1}, c.AvailableDisks())
	assert.Equal(t, 0, c.CurrentDisk())
	require.NoError(t, c.ChangeDisk(1))
	assert.Equal(t, 1, c.CurrentDisk())
	assert.Equal(t, "second", string(c.image.Data))
	assert.Error(t, c.ChangeDisk(2))
	assert.Equal(t, 1, c.CurrentDisk())
}

func TestVariables(t *testing.T) {
	c := New()
	assert.Equal(t, []core.Variable{
		{Key: varSpeed, Value: "2", Description: "Cursor speed; 1|2|3|4"},
		{Key: varTrail, Value: "off", Description: "Keep cursor trails; off|on"},
	}, c.Variables())

	c.UpdateVariable(core.Variable{Key: varSpeed, Value: "4"})
	c.UpdateVariable(core.Variable{Key: varTrail, Value: "on"})
	c.UpdateVariable(core.Variable{Key: varSpeed, Value: "9"})
	c.UpdateVariable(core.Variable{Key: "unknown", Value: "x"})

	vars := c.Variables()
	assert.Equal(t, "4", vars[0].Value)
	assert.Equal(t, "on", vars[1].Value)
}

func TestAspectRatio(t *testing.T) {
	assert.InDelta(t, 4.0/3.0, New().AspectRatio(), 1e-9)
}
