package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrobridge/internal/registry"
)

var coresCmd = &cobra.Command{
	Use:   "cores",
	Short: "List all registered cores",
	Long:  `Shows the cores compiled into this binary and the game files they accept.`,
	Run:   runCores,
}

func runCores(cmd *cobra.Command, args []string) {
	cores := registry.List()

	if len(cores) == 0 {
		fmt.Println("No cores available.")
		return
	}

	fmt.Println("Available cores:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	maxTitleLen := 5
	for _, c := range cores {
		maxNameLen = max(maxNameLen, len(c.Name))
		maxTitleLen = max(maxTitleLen, len(c.Title))
	}

	fmt.Printf("  %-*s  %-*s  %s\n", maxNameLen, "Name", maxTitleLen, "Title", "Extensions")
	fmt.Printf("  %-*s  %-*s  %s\n", maxNameLen, "----", maxTitleLen, "-----", "----------")

	for _, c := range cores {
		fmt.Printf("  %-*s  %-*s  %s\n", maxNameLen, c.Name, maxTitleLen, c.Title, strings.Join(c.Extensions, " "))
	}

	fmt.Println()
	fmt.Println("Run 'retrobridge run <game> --core <name>' to play.")
}
