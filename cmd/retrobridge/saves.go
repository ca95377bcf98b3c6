package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/retrobridge/internal/platform/tui"
	"github.com/vovakirdan/retrobridge/internal/storage"
)

var flagPlain bool

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Browse sessions and save states",
	Long: `Show recorded sessions and the save-state slots of their games.

Without a terminal, or with --plain, prints the most recent sessions.

Examples:
  retrobridge saves
  retrobridge saves --plain`,
	Args: cobra.NoArgs,
	RunE: runSaves,
}

func init() {
	savesCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print a listing instead of the browser")
}

func runSaves(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database == "" {
		return errors.New("no save database configured")
	}
	store, err := storage.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	width, height, termErr := term.GetSize(int(os.Stdout.Fd()))
	if !flagPlain && termErr == nil {
		return tui.RunHistory(store, width, height)
	}
	return printSessions(store)
}

func printSessions(store *storage.Store) error {
	records, err := store.RecentSessions(20)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	fmt.Printf("  %-16s  %-24s  %-10s  %-8s  %s\n", "Started", "Game", "Core", "Frames", "End")
	fmt.Printf("  %-16s  %-24s  %-10s  %-8s  %s\n", "-------", "----", "----", "------", "---")
	for _, r := range records {
		end := r.EndReason
		if r.EndedAt.IsZero() {
			end = "running"
		}
		fmt.Printf("  %-16s  %-24s  %-10s  %-8d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Game, r.Core, r.Frames, end)
	}
	return nil
}
