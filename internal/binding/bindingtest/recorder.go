// Package bindingtest provides a recording binding.Core for tests.
package bindingtest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vovakirdan/retrobridge/internal/core"
)

// ErrBadBlob is returned by UnserializeSRAM for blobs not produced by a
// Recorder.
var ErrBadBlob = errors.New("bindingtest: malformed blob")

const blobMagic = "RECD"

// Recorder is a fake core that records every call in order. The zero value
// is ready to use and succeeds at everything.
//
// Serialized state and save-RAM carry the step counter, so a round trip
// through SerializeState and UnserializeState is observable in Steps.
type Recorder struct {
	// Configurable failures. LoadErrs is consumed one entry per LoadGame
	// call, a nil entry meaning success.
	CreateErr error
	LoadErrs  []error
	SRAMErr   error
	StepErr   error
	DiskErr   error

	// Disks lists disk indexes; nil means a single disk 0.
	Disks []int

	// Aspect is returned by AspectRatio.
	Aspect float64

	// BeforeStep, when set, runs at the start of every Step outside the
	// recorder lock. Tests use it to hold a step in flight.
	BeforeStep func()

	mu     sync.Mutex
	calls  []string
	counts map[string]int
	steps  uint64
	disk   int
	vars   map[string]string
	params core.CreateParams
}

func (r *Recorder) record(name, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked(name, format, args...)
}

func (r *Recorder) recordLocked(name, format string, args ...any) {
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[name]++
	line := name
	if format != "" {
		line += " " + fmt.Sprintf(format, args...)
	}
	r.calls = append(r.calls, line)
}

// Calls returns a copy of the call trace.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Trace returns the call trace, one call per line.
func (r *Recorder) Trace() string {
	return strings.Join(r.Calls(), "\n") + "\n"
}

// Count returns how many times the named call was made.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Steps returns the internal frame counter.
func (r *Recorder) Steps() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps
}

// Params returns the parameters given to Create.
func (r *Recorder) Params() core.CreateParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

func (r *Recorder) Create(p core.CreateParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = p
	r.recordLocked("create", "core=%s gfx=%d shader=%s refresh=%g locale=%s",
		p.CorePath, p.GraphicsAPIVersion, p.Shader, p.RefreshRate, p.Locale)
	return r.CreateErr
}

func (r *Recorder) Destroy() { r.record("destroy", "") }

func (r *Recorder) LoadGame(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("load_game", "path=%s", path)
	if len(r.LoadErrs) == 0 {
		return nil
	}
	err := r.LoadErrs[0]
	r.LoadErrs = r.LoadErrs[1:]
	return err
}

func (r *Recorder) UnserializeSRAM(blob core.SaveBlob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("unserialize_sram", "bytes=%d", len(blob))
	if r.SRAMErr != nil {
		return r.SRAMErr
	}
	steps, ok := decode(blob)
	if !ok {
		return ErrBadBlob
	}
	r.steps = steps
	return nil
}

func (r *Recorder) OnSurfaceCreated() { r.record("surface_created", "") }

func (r *Recorder) OnSurfaceChanged(width, height int) {
	r.record("surface_changed", "%dx%d", width, height)
}

func (r *Recorder) Resume() { r.record("resume", "") }
func (r *Recorder) Pause()  { r.record("pause", "") }

func (r *Recorder) Step() error {
	if r.BeforeStep != nil {
		r.BeforeStep()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("step", "")
	if r.StepErr != nil {
		return r.StepErr
	}
	r.steps++
	return nil
}

func (r *Recorder) SerializeState() (core.SaveBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("serialize_state", "")
	return encode(r.steps), nil
}

func (r *Recorder) UnserializeState(blob core.SaveBlob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("unserialize_state", "bytes=%d", len(blob))
	steps, ok := decode(blob)
	if ok {
		r.steps = steps
	}
	return ok
}

func (r *Recorder) SerializeSRAM() core.SaveBlob {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("serialize_sram", "")
	return encode(r.steps)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("reset", "")
	r.steps = 0
}

func (r *Recorder) OnKeyEvent(port int, action core.KeyAction, keyCode int) {
	r.record("key", "port=%d action=%s code=%d", port, action, keyCode)
}

func (r *Recorder) OnMotionEvent(port int, source core.MotionSource, x, y float64) {
	r.record("motion", "port=%d source=%s x=%.3f y=%.3f", port, source, x, y)
}

func (r *Recorder) Variables() []core.Variable {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("variables", "")
	keys := make([]string, 0, len(r.vars))
	for k := range r.vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]core.Variable, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.Variable{Key: k, Value: r.vars[k]})
	}
	return out
}

func (r *Recorder) UpdateVariable(v core.Variable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("update_variable", "%s=%s", v.Key, v.Value)
	if r.vars == nil {
		r.vars = make(map[string]string)
	}
	r.vars[v.Key] = v.Value
}

func (r *Recorder) AvailableDisks() []int {
	if r.Disks == nil {
		return []int{0}
	}
	return slices.Clone(r.Disks)
}

func (r *Recorder) CurrentDisk() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disk
}

func (r *Recorder) ChangeDisk(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked("change_disk", "%d", index)
	if r.DiskErr != nil {
		return r.DiskErr
	}
	r.disk = index
	return nil
}

func (r *Recorder) AspectRatio() float64 { return r.Aspect }

func encode(steps uint64) core.SaveBlob {
	buf := make([]byte, len(blobMagic)+8)
	copy(buf, blobMagic)
	binary.LittleEndian.PutUint64(buf[len(blobMagic):], steps)
	return buf
}

func decode(blob core.SaveBlob) (uint64, bool) {
	if len(blob) != len(blobMagic)+8 || string(blob[:len(blobMagic)]) != blobMagic {
		return 0, false
	}
	return binary.LittleEndian.Uint64(blob[len(blobMagic):]), true
}

// Blob returns a valid serialized blob carrying the given step count.
func Blob(steps uint64) core.SaveBlob { return encode(steps) }
