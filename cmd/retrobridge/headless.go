package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrobridge/internal/core"
	"github.com/vovakirdan/retrobridge/internal/input"
	"github.com/vovakirdan/retrobridge/internal/lifecycle"
	"github.com/vovakirdan/retrobridge/internal/registry"
	"github.com/vovakirdan/retrobridge/internal/render"
	"github.com/vovakirdan/retrobridge/internal/session"
)

var (
	flagFrames   int
	flagWidth    int
	flagHeight   int
	flagHold     []string
	flagPrint    bool
	flagStateIn  string
	flagStateOut string
)

var headlessCmd = &cobra.Command{
	Use:   "headless <game>",
	Short: "Step a game without a terminal",
	Long: `Load the game and step it for a fixed number of frames against an
off-screen surface. Frames are paced as fast as the core runs.

Host keys named with --hold stay pressed for the whole run. Names are host
key names such as DPAD_RIGHT or BUTTON_A.

Examples:
  retrobridge headless ./games/demo.rom --frames 300 --print
  retrobridge headless ./games/demo.rom --hold DPAD_RIGHT --hold BUTTON_A
  retrobridge headless ./games/demo.rom --state-out demo.state
  retrobridge headless ./games/demo.rom --state-in demo.state --frames 1 --print`,
	Args: cobra.ExactArgs(1),
	RunE: runHeadless,
}

func init() {
	headlessCmd.Flags().IntVar(&flagFrames, "frames", 60, "Number of frames to step")
	headlessCmd.Flags().IntVar(&flagWidth, "width", 64, "Surface width in cells")
	headlessCmd.Flags().IntVar(&flagHeight, "height", 24, "Surface height in cells")
	headlessCmd.Flags().StringArrayVar(&flagHold, "hold", nil, "Host key held for the whole run (repeatable)")
	headlessCmd.Flags().BoolVar(&flagPrint, "print", false, "Print the last frame")
	headlessCmd.Flags().StringVar(&flagStateIn, "state-in", "", "Restore this save state before stepping")
	headlessCmd.Flags().StringVar(&flagStateOut, "state-out", "", "Write a save state after stepping")
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Game, err = filepath.Abs(args[0]); err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	var held []int
	for _, name := range flagHold {
		code, ok := input.HostKey(name)
		if !ok {
			return fmt.Errorf("unknown host key %q", name)
		}
		held = append(held, code)
	}

	c, info, err := registry.Resolve(cfg.Core)
	if err != nil {
		return err
	}
	params, err := cfg.CreateParams()
	if err != nil {
		return err
	}
	keys, err := input.DefaultKeyMap().WithOverrides(cfg.Input.Keys)
	if err != nil {
		return err
	}

	owner := lifecycle.NewRegistry()
	frames := render.NewManual()
	sess, err := session.New(session.Options{
		Core:          c,
		Params:        params,
		GamePath:      cfg.Game,
		Owner:         owner,
		Frames:        frames,
		InputCapacity: cfg.Input.QueueCapacity,
		KeyMap:        keys,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer owner.Dispatch(lifecycle.EventDestroy)

	var rendered, surfaces atomic.Int64
	sub := sess.Events().Subscribe(func(e core.FrameEvent) {
		switch e {
		case core.FrameRendered:
			rendered.Add(1)
		case core.SurfaceCreated:
			surfaces.Add(1)
		}
	})

	owner.Dispatch(lifecycle.EventCreate)
	if sess.State().Terminal() {
		return firstError(sess, errors.New("core init failed"))
	}
	owner.Dispatch(lifecycle.EventResume)
	if err := sess.SurfaceAvailable(flagWidth, flagHeight); err != nil {
		return err
	}
	logger.Info("session started", "core", info.Name, "game", filepath.Base(cfg.Game), "session", sess.ID())

	// The game loads on the first frame.
	if !frames.Tick() {
		return firstError(sess, errors.New("first frame was not drawn"))
	}

	if flagStateIn != "" {
		blob, readErr := os.ReadFile(flagStateIn)
		if readErr != nil {
			return readErr
		}
		ok, restoreErr := sess.UnserializeState(blob)
		if restoreErr != nil {
			return restoreErr
		}
		if !ok {
			return fmt.Errorf("%s: state rejected by core %s", flagStateIn, info.Name)
		}
	}

	for _, code := range held {
		sess.KeyDown(input.RawKey{
			Device:  input.DeviceInfo{ControllerNumber: cfg.Input.KeyboardController, Class: input.ClassKeyboard},
			KeyCode: code,
			Action:  core.KeyActionDown,
		})
	}

	for i := 1; i < flagFrames; i++ {
		frames.Tick()
		drainErrors(sess, logger.Warn)
	}

	if flagStateOut != "" {
		blob, saveErr := sess.SerializeState()
		if saveErr != nil {
			return saveErr
		}
		if err := os.WriteFile(flagStateOut, blob, 0o644); err != nil {
			return err
		}
		logger.Info("state written", "path", flagStateOut, "bytes", len(blob))
	}

	// The core clears its screen when destroyed.
	if flagPrint {
		if p, ok := c.(core.Presenter); ok {
			if fb, _ := p.Screen().Snapshot(); fb != nil {
				fmt.Println(fb.String())
			}
		}
	}

	total := sess.Frames()
	last, _ := sess.Events().Latest()
	owner.Dispatch(lifecycle.EventDestroy)
	<-sub.Done()
	fmt.Printf("frames: %d  rendered events: %d  surfaces: %d  last event: %s\n",
		total, rendered.Load(), surfaces.Load(), last)
	if n := sub.Dropped(); n > 0 {
		fmt.Printf("milestones dropped by a slow reader: %d\n", n)
	}
	return nil
}

// firstError returns the first error the session reported, or fallback.
func firstError(sess *session.Session, fallback error) error {
	select {
	case err := <-sess.Errors():
		return err
	default:
		return fallback
	}
}

func drainErrors(sess *session.Session, warn func(any, ...any)) {
	for {
		select {
		case err := <-sess.Errors():
			warn("session error", "err", err)
		default:
			return
		}
	}
}
