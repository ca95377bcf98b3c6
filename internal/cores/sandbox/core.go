// Package sandbox is a deterministic software core. It implements the full
// core contract without any native code: four controller ports move cursors
// over a small canvas kept in save-RAM, the pointer paints, and everything
// is rendered as glyphs into a core.Framebuffer.
//
// It exists so the bridge can run end to end in a terminal and so save
// states have a real oracle to round-trip against.
package sandbox

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/vovakirdan/retrobridge/internal/binding"
	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/registry"
	"github.com/vovakirdan/retrobridge/internal/romloader"
)

// Name is the registry name of the core.
const Name = "sandbox"

// Ports is the number of controller ports.
const Ports = 4

// Canvas dimensions. The canvas is the save-RAM, one byte per cell.
const (
	CanvasW  = 16
	CanvasH  = 16
	SRAMSize = CanvasW * CanvasH
)

// Extensions lists the accepted game image extensions.
var Extensions = []string{".rom", ".bin", ".txt"}

var (
	errNoGame   = errors.New("sandbox: no game loaded")
	errBadSRAM  = errors.New("sandbox: save-RAM has wrong size")
	errGraphics = errors.New("sandbox: graphics API version 2 or later required")
)

func init() {
	registry.Register(registry.CoreInfo{
		Name:       Name,
		Title:      "Sandbox reference core",
		Extensions: Extensions,
	}, func() binding.Core {
		return New()
	})
}

type port struct {
	X, Y    float64 // cursor, in [0, 1]
	DX, DY  float64 // d-pad
	LX, LY  float64 // left stick
	RX, RY  float64 // right stick
	Buttons uint16  // joypad id bitmask
}

type pointer struct {
	X, Y float64
	Down bool
}

// Core is the sandbox engine.
type Core struct {
	params  core.CreateParams
	palette palette
	loader  romloader.Loader

	disks []string
	disk  int
	image romloader.Image
	seed  uint64

	ports   [Ports]port
	pointer pointer
	frame   uint64
	rng     uint64
	sparkle uint16
	sram    [SRAMSize]byte

	speed int
	trail bool

	width, height int
	paused        bool
	fb            *core.Framebuffer
	screen        *core.Screen
}

// New returns an uncreated core.
func New() *Core {
	return &Core{
		loader: romloader.Loader{Extensions: Extensions},
		screen: &core.Screen{},
		speed:  2,
	}
}

// Screen returns the shared screen the core publishes frames to.
func (c *Core) Screen() *core.Screen { return c.screen }

func (c *Core) Create(params core.CreateParams) error {
	if params.GraphicsAPIVersion < 2 {
		return fmt.Errorf("%w (got %d)", errGraphics, params.GraphicsAPIVersion)
	}
	c.params = params
	c.palette = paletteFor(params.Shader)
	return nil
}

func (c *Core) Destroy() {
	c.fb = nil
	c.image = romloader.Image{}
	c.screen.Clear()
}

func (c *Core) LoadGame(path string) error {
	disks := []string{path}
	if romloader.IsPlaylist(path) {
		var err error
		disks, err = romloader.ReadPlaylist(path)
		if err != nil {
			return err
		}
	}
	img, err := c.loader.Load(disks[0])
	if err != nil {
		return err
	}
	c.disks = disks
	c.disk = 0
	c.image = img
	c.seed = seedFrom(img.Data)
	c.resetMachine()
	return nil
}

func (c *Core) UnserializeSRAM(blob core.SaveBlob) error {
	if len(blob) != SRAMSize {
		return fmt.Errorf("%w: %d bytes", errBadSRAM, len(blob))
	}
	copy(c.sram[:], blob)
	return nil
}

func (c *Core) OnSurfaceCreated() {
	if !c.paused && c.width > 0 && c.height > 0 && c.fb == nil {
		c.fb = core.NewFramebuffer(c.width, c.height)
	}
}

func (c *Core) OnSurfaceChanged(width, height int) {
	c.width, c.height = width, height
	if c.paused {
		return
	}
	if c.fb == nil {
		c.fb = core.NewFramebuffer(width, height)
		return
	}
	c.fb.Resize(width, height)
}

// Pause releases the framebuffer.
func (c *Core) Pause() {
	c.paused = true
	c.fb = nil
}

// Resume reallocates the framebuffer at the last known size.
func (c *Core) Resume() {
	c.paused = false
	if c.width > 0 && c.height > 0 {
		c.fb = core.NewFramebuffer(c.width, c.height)
	}
}

func (c *Core) Step() error {
	if c.image.Data == nil {
		return errNoGame
	}
	c.simulate()
	if c.fb != nil {
		c.draw(c.fb)
		c.screen.Publish(c.fb)
	}
	return nil
}

func (c *Core) SerializeSRAM() core.SaveBlob {
	out := make(core.SaveBlob, SRAMSize)
	copy(out, c.sram[:])
	return out
}

// Reset restarts the machine. Save-RAM survives, as on real hardware.
func (c *Core) Reset() {
	c.resetMachine()
}

func (c *Core) resetMachine() {
	c.ports = [Ports]port{}
	for i := range c.ports {
		c.ports[i].X, c.ports[i].Y = 0.5, 0.5
	}
	c.pointer = pointer{}
	c.frame = 0
	c.rng = c.seed
	c.sparkle = 0
}

func (c *Core) OnKeyEvent(p int, action core.KeyAction, keyCode int) {
	if p < 0 || p >= Ports || keyCode < 0 || keyCode > 15 {
		return
	}
	bit := uint16(1) << keyCode
	if action == core.KeyActionDown {
		c.ports[p].Buttons |= bit
	} else {
		c.ports[p].Buttons &^= bit
	}
}

func (c *Core) OnMotionEvent(p int, source core.MotionSource, x, y float64) {
	if p < 0 || p >= Ports {
		return
	}
	switch source {
	case core.SourceDPad:
		c.ports[p].DX, c.ports[p].DY = x, y
	case core.SourceAnalogLeft:
		c.ports[p].LX, c.ports[p].LY = x, y
	case core.SourceAnalogRight:
		c.ports[p].RX, c.ports[p].RY = x, y
	case core.SourcePointer:
		if (core.MotionEvent{Source: source, X: x, Y: y}).Released() {
			c.pointer.Down = false
			return
		}
		c.pointer = pointer{X: x, Y: y, Down: true}
	}
}

const (
	varSpeed = "sandbox_speed"
	varTrail = "sandbox_trail"
)

func (c *Core) Variables() []core.Variable {
	trail := "off"
	if c.trail {
		trail = "on"
	}
	return []core.Variable{
		{Key: varSpeed, Value: strconv.Itoa(c.speed), Description: "Cursor speed; 1|2|3|4"},
		{Key: varTrail, Value: trail, Description: "Keep cursor trails; off|on"},
	}
}

func (c *Core) UpdateVariable(v core.Variable) {
	switch v.Key {
	case varSpeed:
		if n, err := strconv.Atoi(v.Value); err == nil && n >= 1 && n <= 4 {
			c.speed = n
		}
	case varTrail:
		switch v.Value {
		case "on":
			c.trail = true
		case "off":
			c.trail = false
		}
	}
}

func (c *Core) AvailableDisks() []int {
	out := make([]int, len(c.disks))
	for i := range out {
		out[i] = i
	}
	return out
}

func (c *Core) CurrentDisk() int { return c.disk }

func (c *Core) ChangeDisk(index int) error {
	if index < 0 || index >= len(c.disks) {
		return fmt.Errorf("sandbox: no disk %d", index)
	}
	img, err := c.loader.Load(c.disks[index])
	if err != nil {
		return err
	}
	c.disk = index
	c.image = img
	return nil
}

// AspectRatio is fixed at 4:3.
func (c *Core) AspectRatio() float64 { return 4.0 / 3.0 }

// seedFrom derives a non-zero RNG seed from the game image.
func seedFrom(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	if s := h.Sum64(); s != 0 {
		return s
	}
	return 0x9E3779B97F4A7C15
}
