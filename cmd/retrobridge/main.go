// retrobridge runs emulator cores in the terminal.
//
// Usage:
//
//	retrobridge cores                - List registered cores
//	retrobridge run <game>           - Play a game in this terminal
//	retrobridge serve                - Start SSH server for remote play
//	retrobridge headless <game>      - Step a game without a terminal
//	retrobridge saves                - Browse sessions and save states
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.retrobridge, ./configs)
//	--core <name|path>  - Core to run, overriding the config
//	--db <path>         - Save database, overriding the config
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrobridge/internal/config"
	// Import cores to register them
	_ "github.com/vovakirdan/retrobridge/internal/cores/sandbox"
	"github.com/vovakirdan/retrobridge/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagCore     string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "retrobridge",
	Short: "RetroBridge - run emulator cores in your terminal",
	Long: `RetroBridge hosts an emulator core, feeds it keyboard and mouse input
and draws its frames in the terminal.

Available commands:
  cores     - Show all registered cores
  run       - Play a game in this terminal
  serve     - Start SSH server for remote play
  headless  - Step a game for a number of frames without a terminal
  saves     - Browse recorded sessions and save states

Examples:
  retrobridge cores
  retrobridge run ./games/demo.rom
  retrobridge run ./games/collection.m3u --core sandbox
  retrobridge serve
  retrobridge headless ./games/demo.rom --frames 120 --print`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagCore, "core", "", "Core name or path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to save database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(coresCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(headlessCmd)
	rootCmd.AddCommand(savesCmd)
}

// loadConfig reads the config and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagCore != "" {
		cfg.Core = flagCore
	}
	if flagDBPath != "" {
		cfg.Database = config.ExpandHome(flagDBPath)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger. Interactive commands pass a file
// so log lines do not tear the alternate screen.
func newLogger(cfg config.Config, w *os.File) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "retrobridge",
	}), nil
}

// openStore opens the save database. Saves are optional, so a failure
// only warns.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	if cfg.Database == "" {
		return nil
	}
	store, err := storage.Open(cfg.Database)
	if err != nil {
		logger.Warn("could not open save database, saves disabled", "path", cfg.Database, "err", err)
		return nil
	}
	return store
}
