package tui

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/retrobridge/internal/config"
	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/input"
	"github.com/vovakirdan/retrobridge/internal/registry"
	"github.com/vovakirdan/retrobridge/internal/render"
	"github.com/vovakirdan/retrobridge/internal/session"
	"github.com/vovakirdan/retrobridge/internal/storage"
)

// Host view constants
const (
	viewRate  = 30 // redraws per second
	slotCount = 9
)

// HostOptions configures a Host.
type HostOptions struct {
	Config config.Config
	Store  *storage.Store // optional; disables saves when nil
	Logger *log.Logger

	// Frames paces the session; nil uses a ticker at the configured rate.
	Frames render.FrameSource

	// Width and Height, when known up front, announce the surface in Init
	// instead of waiting for the first window size message.
	Width, Height int

	// Scope, when set, keeps saves apart per user: keys become scope/game.
	Scope string
}

// Host is the Bubble Tea model that drives one session.
type Host struct {
	sess     *session.Session
	screen   *core.Screen
	info     registry.CoreInfo
	gameKey  string
	store    *storage.Store
	logger   *log.Logger
	mapper   *KeyMapper
	keys     HostKeyMap
	help     help.Model
	port     int
	release  time.Duration
	held     map[int]int
	gen      int
	width    int
	height   int
	surface  bool
	paused   bool
	showHelp bool
	slot     int
	notice   string
	err      error

	closeOnce sync.Once
}

// NewHost resolves the configured core, restores save-RAM from the store
// and builds the session. The core is not created until Init.
func NewHost(opts HostOptions) (*Host, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("host")
	}

	c, info, err := registry.Resolve(cfg.Core)
	if err != nil {
		return nil, err
	}
	params, err := cfg.CreateParams()
	if err != nil {
		return nil, err
	}
	keys, err := input.DefaultKeyMap().WithOverrides(cfg.Input.Keys)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	gameKey := storage.GameKey(cfg.Game)
	if opts.Scope != "" {
		gameKey = opts.Scope + "/" + gameKey
	}

	h := &Host{
		info:    info,
		gameKey: gameKey,
		store:   opts.Store,
		logger:  logger,
		mapper:  NewKeyMapper(),
		keys:    DefaultHostKeyMap(),
		help:    help.New(),
		port:    cfg.Input.KeyboardController,
		release: cfg.Input.KeyRelease(),
		held:    make(map[int]int),
		width:   opts.Width,
		height:  opts.Height,
		slot:    1,
	}
	if p, ok := c.(core.Presenter); ok {
		h.screen = p.Screen()
	}

	var sram core.SaveBlob
	if h.store != nil {
		if sram, err = h.store.LoadSRAM(info.Name, h.gameKey); err != nil {
			logger.Warn("could not load save-RAM", "err", err)
		}
	}

	h.sess, err = session.New(session.Options{
		Core:          c,
		Params:        params,
		GamePath:      cfg.Game,
		SaveRAM:       sram,
		Frames:        opts.Frames,
		InputCapacity: cfg.Input.QueueCapacity,
		KeyMap:        keys,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	if h.store != nil {
		if _, err := h.store.StartSession(h.sess.ID(), info.Name, h.gameKey); err != nil {
			logger.Warn("could not record session", "err", err)
		}
	}
	return h, nil
}

// Session returns the driven session.
func (h *Host) Session() *session.Session { return h.sess }

// Err returns the failure that ended the host, if any.
func (h *Host) Err() error { return h.err }

// Init creates and resumes the session.
func (h *Host) Init() tea.Cmd {
	if err := h.sess.Create(); err != nil {
		h.err = err
		h.Shutdown("error")
		return tea.Quit
	}
	if err := h.sess.Resume(); err != nil {
		h.logger.Warn("resume failed", "err", err)
	}
	if h.width > 0 && h.height > 1 {
		h.announceSurface(h.width, h.height)
	}
	return tickCmd(viewRate)
}

// Update handles messages and forwards them to the session.
func (h *Host) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return h.handleKey(msg)

	case releaseMsg:
		if h.held[msg.keyCode] == msg.gen {
			delete(h.held, msg.keyCode)
			h.sess.KeyUp(h.rawKey(msg.keyCode, core.KeyActionUp))
		}
		return h, nil

	case tea.MouseMsg:
		h.handleMouse(msg)
		return h, nil

	case tea.WindowSizeMsg:
		h.announceSurface(msg.Width, msg.Height)
		return h, nil

	case tea.FocusMsg:
		h.setPaused(false)
		return h, nil

	case tea.BlurMsg:
		h.setPaused(true)
		return h, nil

	case TickMsg:
		h.drainErrors()
		if h.sess.State().Terminal() {
			h.Shutdown("error")
			return h, tea.Quit
		}
		return h, tickCmd(viewRate)
	}

	return h, nil
}

// announceSurface maps the terminal size to the surface. The last row is
// kept for the status bar.
func (h *Host) announceSurface(width, height int) {
	h.width, h.height = width, height
	w, hh := width, height-1
	var err error
	if !h.surface {
		h.surface = true
		err = h.sess.SurfaceAvailable(w, hh)
	} else {
		err = h.sess.SurfaceChanged(w, hh)
	}
	if err != nil {
		h.logger.Debug("surface update failed", "err", err)
	}
}

func (h *Host) setPaused(paused bool) {
	var err error
	if paused {
		err = h.sess.Pause()
	} else {
		err = h.sess.Resume()
	}
	if err != nil {
		h.logger.Warn("pause toggle failed", "paused", paused, "err", err)
		return
	}
	h.paused = paused
}

// handleKey processes keyboard input.
func (h *Host) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, h.keys.Quit):
		h.Shutdown("quit")
		return h, tea.Quit
	case key.Matches(msg, h.keys.Pause):
		h.setPaused(!h.paused)
		return h, nil
	case key.Matches(msg, h.keys.SaveState):
		h.saveState()
		return h, nil
	case key.Matches(msg, h.keys.NextSlot):
		h.slot = h.slot%slotCount + 1
		h.notice = fmt.Sprintf("slot %d", h.slot)
		return h, nil
	case key.Matches(msg, h.keys.LoadState):
		h.loadState()
		return h, nil
	case key.Matches(msg, h.keys.Reset):
		if err := h.sess.Reset(); err != nil {
			h.notice = "reset failed"
		} else {
			h.notice = "reset"
		}
		return h, nil
	case key.Matches(msg, h.keys.NextDisk):
		h.nextDisk()
		return h, nil
	case key.Matches(msg, h.keys.Help):
		h.showHelp = !h.showHelp
		h.help.ShowAll = h.showHelp
		return h, nil
	}

	code, ok := h.mapper.MapKey(msg)
	if !ok {
		return h, nil
	}
	h.gen++
	if _, down := h.held[code]; !down {
		h.sess.KeyDown(h.rawKey(code, core.KeyActionDown))
	}
	h.held[code] = h.gen
	return h, releaseCmd(code, h.gen, h.release)
}

func (h *Host) rawKey(code int, action core.KeyAction) input.RawKey {
	return input.RawKey{
		Device:  input.DeviceInfo{ControllerNumber: h.port, Class: input.ClassKeyboard},
		KeyCode: code,
		Action:  action,
	}
}

// handleMouse forwards the left button as a touch. Motion only counts
// while the button is down.
func (h *Host) handleMouse(msg tea.MouseMsg) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return
	}
	t := input.RawTouch{X: float64(msg.X), Y: float64(msg.Y)}
	switch msg.Action {
	case tea.MouseActionPress:
		t.Action = input.TouchDown
	case tea.MouseActionMotion:
		t.Action = input.TouchMove
	case tea.MouseActionRelease:
		t.Action = input.TouchUp
	default:
		return
	}
	h.sess.Touch(t)
}

func (h *Host) saveState() {
	if h.store == nil {
		h.notice = "no save database"
		return
	}
	blob, err := h.sess.SerializeState()
	if err == nil {
		err = h.store.SaveState(h.info.Name, h.gameKey, h.slot, int64(h.sess.Frames()), blob)
	}
	if err != nil {
		h.logger.Warn("save state failed", "slot", h.slot, "err", err)
		h.notice = fmt.Sprintf("save to slot %d failed", h.slot)
		return
	}
	h.notice = fmt.Sprintf("saved slot %d", h.slot)
}

func (h *Host) loadState() {
	if h.store == nil {
		h.notice = "no save database"
		return
	}
	st, err := h.store.LoadState(h.info.Name, h.gameKey, h.slot)
	if err != nil || st == nil {
		h.notice = fmt.Sprintf("slot %d is empty", h.slot)
		return
	}
	ok, err := h.sess.UnserializeState(st.Data)
	if err != nil || !ok {
		h.notice = fmt.Sprintf("slot %d rejected", h.slot)
		return
	}
	h.notice = fmt.Sprintf("loaded slot %d", h.slot)
}

func (h *Host) nextDisk() {
	disks, err := h.sess.AvailableDisks()
	if err != nil || len(disks) < 2 {
		h.notice = "single disk"
		return
	}
	cur, err := h.sess.CurrentDisk()
	if err != nil {
		return
	}
	next := disks[0]
	for i, d := range disks {
		if d == cur && i+1 < len(disks) {
			next = disks[i+1]
		}
	}
	if err := h.sess.ChangeDisk(next); err != nil {
		h.notice = "disk change failed"
		return
	}
	h.notice = fmt.Sprintf("disk %d", next+1)
}

// drainErrors shows the latest asynchronous session error.
func (h *Host) drainErrors() {
	for {
		select {
		case err := <-h.sess.Errors():
			h.logger.Debug("session error", "err", err)
			h.notice = err.Error()
			if errors.Is(err, core.ErrInit) {
				h.err = err
			}
		default:
			return
		}
	}
}

// Shutdown persists save-RAM, records the end of the session and destroys
// it. Only the first call has an effect.
func (h *Host) Shutdown(reason string) {
	h.closeOnce.Do(func() {
		if h.store != nil {
			if h.sess.State().HasGame() {
				if sram, err := h.sess.SerializeSRAM(); err == nil && !sram.Empty() {
					if err := h.store.SaveSRAM(h.info.Name, h.gameKey, sram); err != nil {
						h.logger.Warn("could not save save-RAM", "err", err)
					}
				}
			}
			if err := h.store.EndSession(h.sess.ID(), int64(h.sess.Frames()), reason); err != nil {
				h.logger.Warn("could not record session end", "err", err)
			}
		}
		h.sess.Destroy()
		h.logger.Info("session ended", "reason", reason, "frames", h.sess.Frames())
	})
}

// View renders the last frame and the status bar.
func (h *Host) View() string {
	var sb strings.Builder

	var fb *core.Framebuffer
	if h.screen != nil {
		fb, _ = h.screen.Snapshot()
	}
	switch {
	case fb != nil:
		sb.WriteString(RenderFramebuffer(fb))
	case h.err != nil:
		sb.WriteString(noticeStyle.Render(h.err.Error()))
	default:
		sb.WriteString(noticeStyle.Render("waiting for the first frame..."))
	}
	sb.WriteByte('\n')
	sb.WriteString(h.statusLine())

	if h.showHelp {
		sb.WriteByte('\n')
		sb.WriteString(h.help.View(h.keys))
	}
	return sb.String()
}

func (h *Host) statusLine() string {
	parts := []string{h.info.Title, h.sess.State().String(), fmt.Sprintf("slot %d", h.slot)}
	if h.notice != "" {
		parts = append(parts, h.notice)
	}
	line := " " + strings.Join(parts, " | ") + " "
	if h.paused {
		line = pausedStyle.Render(" PAUSED ") + statusStyle.Render(line)
	} else {
		line = statusStyle.Render(line)
	}
	if h.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(h.width).Render(line)
	}
	return line
}

// Run starts a Bubble Tea program hosting one session.
func Run(opts HostOptions) error {
	h, err := NewHost(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		h,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Mouse drives the pointer
		tea.WithReportFocus(),     // Focus drives pause and resume
	)

	_, err = p.Run()
	h.Shutdown("quit")
	if err != nil {
		return err
	}
	return h.Err()
}
