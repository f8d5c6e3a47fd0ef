package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrodesk/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available games",
	Long:  `Shows every game registered in the manifest.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	games := registry.List()
	if len(games) == 0 {
		fmt.Println("No games available.")
		return
	}

	fmt.Println("Available games:")
	fmt.Println()

	maxIDLen := 2
	for _, g := range games {
		if len(g.ID) > maxIDLen {
			maxIDLen = len(g.ID)
		}
	}

	fmt.Printf("  %-*s  %-12s  %-10s  %s\n", maxIDLen, "ID", "Title", "Touch", "Scores")
	fmt.Printf("  %-*s  %-12s  %-10s  %s\n", maxIDLen, "--", "-----", "-----", "------")
	for _, g := range games {
		entry, err := registry.Lookup(g.ID)
		if err != nil {
			continue
		}
		ranked := "yes"
		if !entry.Competitive {
			ranked = "no"
		}
		fmt.Printf("  %-*s  %-12s  %-10s  %s\n", maxIDLen, entry.ID, entry.Title, entry.Gesture, ranked)
	}

	fmt.Println()
	fmt.Println("Run 'retrodesk play <id>' to play a game.")
}
