package render

import (
	"math"
	"sync"
	"time"
)

// Frame is one frame callback from a FrameSource.
type Frame struct {
	At  time.Time
	ack chan bool
}

// Ack reports back to the source whether the frame was drawn. Sources that
// do not wait for frames leave ack nil.
func (f Frame) Ack(drawn bool) {
	if f.ack != nil {
		f.ack <- drawn
	}
}

// FrameSource delivers frame callbacks to a Loop. The loop stops its source
// when it stops.
type FrameSource interface {
	Frames() <-chan Frame
	Stop()
}

// Ticker paces frames on the wall clock at a fixed refresh rate. A tick
// that arrives while the loop is still busy is dropped, the way a display
// skips a vsync.
type Ticker struct {
	t    *time.Ticker
	c    chan Frame
	quit chan struct{}
	once sync.Once
}

// DefaultRefreshRate is used when a non-positive rate is given.
const DefaultRefreshRate = 60.0

// NewTicker starts a ticker at rate frames per second.
func NewTicker(rate float64) *Ticker {
	tk := &Ticker{
		t:    time.NewTicker(frameInterval(rate)),
		c:    make(chan Frame),
		quit: make(chan struct{}),
	}
	go tk.run()
	return tk
}

// frameInterval converts a rate to a tick period. Non-positive or NaN rates
// select DefaultRefreshRate. The period is clamped to [1ns, MaxInt64].
func frameInterval(rate float64) time.Duration {
	if !(rate > 0) {
		rate = DefaultRefreshRate
	}
	period := float64(time.Second) / rate
	if period >= math.MaxInt64 {
		return math.MaxInt64
	}
	return max(time.Duration(period), time.Nanosecond)
}

func (tk *Ticker) run() {
	for {
		select {
		case now := <-tk.t.C:
			select {
			case tk.c <- Frame{At: now}:
			default:
			}
		case <-tk.quit:
			return
		}
	}
}

// Frames returns the frame channel.
func (tk *Ticker) Frames() <-chan Frame { return tk.c }

// Stop halts the ticker. It is safe to call more than once.
func (tk *Ticker) Stop() {
	tk.once.Do(func() {
		tk.t.Stop()
		close(tk.quit)
	})
}

// Manual produces a frame only when Tick is called, which makes stepping
// deterministic in tests and headless runs.
type Manual struct {
	c    chan Frame
	quit chan struct{}
	once sync.Once
}

// NewManual returns an idle manual source.
func NewManual() *Manual {
	return &Manual{
		c:    make(chan Frame),
		quit: make(chan struct{}),
	}
}

// Tick delivers one frame and blocks until the loop has processed it.
// It reports whether the frame was drawn: frames are skipped while no
// surface is bound or rendering is paused, and a frame in which the
// renderer stepped nothing or failed is not drawn. After Stop, Tick returns false
// immediately.
func (m *Manual) Tick() bool {
	f := Frame{At: time.Now(), ack: make(chan bool, 1)}
	select {
	case m.c <- f:
	case <-m.quit:
		return false
	}
	select {
	case drawn := <-f.ack:
		return drawn
	case <-m.quit:
		select {
		case drawn := <-f.ack:
			return drawn
		default:
			return false
		}
	}
}

// Frames returns the frame channel.
func (m *Manual) Frames() <-chan Frame { return m.c }

// Stop releases blocked and future Tick calls.
func (m *Manual) Stop() {
	m.once.Do(func() { close(m.quit) })
}
