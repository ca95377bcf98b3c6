package sandbox

import (
	"fmt"

	"github.com/vovakirdan/retrobridge/internal/core"
)

// Joypad ids the machine reacts to.
const (
	buttonB     = 0
	buttonStart = 3
	buttonUp    = 4
	buttonDown  = 5
	buttonLeft  = 6
	buttonRight = 7
	buttonA     = 8
)

// sparkleEvery is the number of frames between sparkle moves.
const sparkleEvery = 30

type palette struct {
	fill    rune
	sparkle rune
}

func paletteFor(s core.Shader) palette {
	switch s {
	case core.ShaderCRT:
		return palette{fill: '▓', sparkle: '*'}
	case core.ShaderLCD:
		return palette{fill: '▒', sparkle: '+'}
	case core.ShaderSharp:
		return palette{fill: '#', sparkle: '*'}
	default:
		return palette{fill: '█', sparkle: '*'}
	}
}

var portColors = [Ports]core.Color{core.ColorGreen, core.ColorCyan, core.ColorYellow, core.ColorMagenta}

// simulate advances the machine by one frame.
func (c *Core) simulate() {
	c.frame++
	step := float64(c.speed) / 100

	for i := range c.ports {
		p := &c.ports[i]
		bx, by := p.pressedAxes()
		p.X = core.ClampF(p.X+(p.DX+p.LX+bx)*step, 0, 1)
		p.Y = core.ClampF(p.Y+(p.DY+p.LY+by)*step, 0, 1)

		cell := cellAt(p.X, p.Y)
		switch {
		case p.Buttons&(1<<buttonA) != 0:
			c.sram[cell] = byte(i + 1)
		case p.Buttons&(1<<buttonB) != 0:
			c.sram[cell] = 0
		}
		if p.Buttons&(1<<buttonStart) != 0 && i == 0 {
			c.sram = [SRAMSize]byte{}
		}
	}

	if c.pointer.Down {
		c.sram[cellAt(c.pointer.X, c.pointer.Y)] = Ports + 1
	}

	if c.frame%sparkleEvery == 0 {
		c.sparkle = uint16(c.next() % SRAMSize)
	}
}

// pressedAxes turns the d-pad buttons into axis values.
func (p *port) pressedAxes() (x, y float64) {
	held := func(id int) float64 {
		if p.Buttons&(1<<id) != 0 {
			return 1
		}
		return 0
	}
	return held(buttonRight) - held(buttonLeft), held(buttonDown) - held(buttonUp)
}

// next advances the xorshift64 generator.
func (c *Core) next() uint64 {
	x := c.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	c.rng = x
	return x
}

func cellAt(x, y float64) int {
	cx := core.Clamp(int(x*CanvasW), 0, CanvasW-1)
	cy := core.Clamp(int(y*CanvasH), 0, CanvasH-1)
	return cy*CanvasW + cx
}

// draw renders the canvas, the cursors and a status line into fb. The last
// row holds the status line; the rest is the canvas scaled to fit.
func (c *Core) draw(fb *core.Framebuffer) {
	w, h := fb.Width(), fb.Height()-1
	if w <= 0 || h <= 0 {
		return
	}
	if !c.trail {
		fb.Clear()
	}

	for y := 0; y < h; y++ {
		cy := y * CanvasH / h
		for x := 0; x < w; x++ {
			cx := x * CanvasW / w
			v := c.sram[cy*CanvasW+cx]
			if v == 0 {
				continue
			}
			color := core.ColorWhite
			if int(v) <= Ports {
				color = portColors[v-1]
			}
			fb.Set(x, y, c.palette.fill, color)
		}
	}

	sx, sy := int(c.sparkle)%CanvasW, int(c.sparkle)/CanvasW
	fb.Set(sx*w/CanvasW, sy*h/CanvasH, c.palette.sparkle, core.ColorOrange)

	for i := range c.ports {
		p := c.ports[i]
		x := core.Clamp(int(p.X*float64(w)), 0, w-1)
		y := core.Clamp(int(p.Y*float64(h)), 0, h-1)
		fb.Set(x, y, rune('1'+i), portColors[i])
	}

	status := fmt.Sprintf("frame %d  disk %d/%d  speed %d", c.frame, c.disk+1, len(c.disks), c.speed)
	for x := 0; x < w; x++ {
		fb.Set(x, h, ' ', core.ColorDefault)
	}
	fb.DrawText(0, h, status, core.ColorGray)
}
