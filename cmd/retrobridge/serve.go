package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrobridge/internal/config"
	"github.com/vovakirdan/retrobridge/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RetroBridge SSH server",
	Long: `Start an SSH server that runs one session per connection.

Every connection plays the configured game with the configured core. The
PTY window is the screen; disconnecting saves save-RAM and ends the session.
Save states are kept apart per SSH user.

Examples:
  retrobridge serve                          # Listen on :23234
  retrobridge serve --ssh :2222              # Listen on port 2222
  retrobridge serve --host-key ./host_key    # Use a specific host key
  retrobridge serve --game ./games/demo.rom

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

var flagServeGame string

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (generated if missing)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", -1, "Idle timeout in minutes (overrides config)")
	serveCmd.Flags().StringVar(&flagServeGame, "game", "", "Game every connection plays (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSSHAddr != "" {
		cfg.SSH.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKey = config.ExpandHome(flagHostKey)
	}
	if flagIdleTimeout >= 0 {
		cfg.SSH.IdleTimeoutMinutes = flagIdleTimeout
	}
	if flagServeGame != "" {
		cfg.Game = flagServeGame
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "source", cfg.Source)

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	server, err := tui.NewSSHServer(cfg, store, logger)
	if err != nil {
		return err
	}
	return server.ListenAndServe()
}
