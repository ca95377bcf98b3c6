package core

import "strings"

// Color is a foreground color for a framebuffer cell, as an ANSI
// 256-color index. Zero means the terminal default.
type Color uint8

const (
	ColorDefault Color = 0
	ColorRed     Color = 1
	ColorGreen   Color = 2
	ColorYellow  Color = 3
	ColorBlue    Color = 4
	ColorMagenta Color = 5
	ColorCyan    Color = 6
	ColorWhite   Color = 7
	ColorGray    Color = 245
	ColorOrange  Color = 208
)

// Cell is one character position of a framebuffer.
type Cell struct {
	Rune  rune
	Color Color
}

var blankCell = Cell{Rune: ' '}

// Framebuffer is a character-cell surface a core renders into. Its size
// follows the surface size announced through OnSurfaceChanged.
type Framebuffer struct {
	width  int
	height int
	cells  []Cell
}

// NewFramebuffer allocates a cleared framebuffer. Negative sizes are
// treated as zero.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{width: max(width, 0), height: max(height, 0)}
	fb.cells = make([]Cell, fb.width*fb.height)
	fb.Clear()
	return fb
}

// Width returns the width in cells.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the height in cells.
func (fb *Framebuffer) Height() int { return fb.height }

// Size returns the dimensions as a Size.
func (fb *Framebuffer) Size() Size { return Size{W: fb.width, H: fb.height} }

// Resize changes the dimensions. Content is discarded because a new
// surface size invalidates the previous layout.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == fb.width && height == fb.height {
		return
	}
	fb.width, fb.height = width, height
	fb.cells = make([]Cell, width*height)
	fb.Clear()
}

// Clear fills every cell with a default-colored space.
func (fb *Framebuffer) Clear() {
	for i := range fb.cells {
		fb.cells[i] = blankCell
	}
}

// Set writes a cell. Out-of-bounds writes are ignored.
func (fb *Framebuffer) Set(x, y int, r rune, c Color) {
	if !fb.inBounds(x, y) {
		return
	}
	fb.cells[y*fb.width+x] = Cell{Rune: r, Color: c}
}

// At returns the cell at (x, y), or a blank cell when out of bounds.
func (fb *Framebuffer) At(x, y int) Cell {
	if !fb.inBounds(x, y) {
		return blankCell
	}
	return fb.cells[y*fb.width+x]
}

// DrawText writes a string starting at (x, y), clipping at the edges.
func (fb *Framebuffer) DrawText(x, y int, text string, c Color) {
	i := 0
	for _, r := range text {
		fb.Set(x+i, y, r, c)
		i++
	}
}

// CopyFrom makes fb an exact copy of src, reusing storage when possible.
func (fb *Framebuffer) CopyFrom(src *Framebuffer) {
	if len(fb.cells) != len(src.cells) {
		fb.cells = make([]Cell, len(src.cells))
	}
	fb.width, fb.height = src.width, src.height
	copy(fb.cells, src.cells)
}

// Clone returns an independent copy.
func (fb *Framebuffer) Clone() *Framebuffer {
	c := &Framebuffer{}
	c.CopyFrom(fb)
	return c
}

// String returns the runes row by row, joined with newlines.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow(fb.width*fb.height + fb.height)
	for y := 0; y < fb.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < fb.width; x++ {
			sb.WriteRune(fb.cells[y*fb.width+x].Rune)
		}
	}
	return sb.String()
}

func (fb *Framebuffer) inBounds(x, y int) bool {
	return x >= 0 && x < fb.width && y >= 0 && y < fb.height
}
