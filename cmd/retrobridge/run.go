package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/retrobridge/internal/platform/tui"
	"github.com/vovakirdan/retrobridge/internal/registry"
)

var flagLogFile string

var runCmd = &cobra.Command{
	Use:   "run <game>",
	Short: "Play a game",
	Long: `Load the game into the configured core and play it in this terminal.

Controls:
  Arrows/WASD  - D-pad
  X/J, Z/K     - A, B
  U, I         - X, Y
  [, ]         - L1, R1
  Enter, Tab   - Start, Select
  Mouse        - Pointer
  P            - Pause
  F2/F3/F4     - Save state / next slot / load state
  F5, F6       - Reset, next disk
  ?            - Help
  Q/Ctrl+C     - Quit

Examples:
  retrobridge run ./games/demo.rom
  retrobridge run ./games/demo.zip --core sandbox
  retrobridge run ./games/set.m3u --log-file /tmp/retrobridge.log`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (default: discard below warn)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Game, err = filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if !registry.Exists(registry.CoreName(cfg.Core)) {
		return fmt.Errorf("unknown core %q, run 'retrobridge cores' to see available cores", cfg.Core)
	}

	// The alternate screen owns stdout; logs go to a file or stderr.
	logOut := os.Stderr
	if flagLogFile != "" {
		f, openErr := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		logOut = f
	} else if cfg.LogLevel == "debug" || cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}

	width, height := 0, 0
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	return tui.Run(tui.HostOptions{
		Config: cfg,
		Store:  store,
		Logger: logger,
		Width:  width,
		Height: height,
	})
}
