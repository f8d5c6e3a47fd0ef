package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrodesk/internal/registry"
)

var (
	flagLimit int
	flagClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores <game>",
	Short: "Show high scores for a game",
	Long: `Display the top scores and statistics for the specified game.

Examples:
  retrodesk scores snake
  retrodesk scores breakout --limit 25
  retrodesk scores snake --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete every stored score for the game")
}

func runScores(cmd *cobra.Command, args []string) error {
	entry, err := registry.Lookup(args[0])
	if err != nil {
		return fmt.Errorf("unknown game %q; run 'retrodesk list' to see available games", args[0])
	}
	if !entry.Competitive {
		fmt.Printf("%s does not keep scores.\n", entry.Title)
		return nil
	}

	service, closeScores := openScores()
	defer closeScores()
	ctx := cmd.Context()

	if flagClear {
		if err := service.Clear(ctx, entry.ID); err != nil {
			return err
		}
		fmt.Printf("Cleared scores for %s.\n", entry.Title)
		return nil
	}

	top, err := service.Top(ctx, entry.ID, flagLimit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	fmt.Printf("High Scores - %s\n\n", entry.Title)
	if len(top) == 0 {
		high, _ := service.HighScore(ctx, entry.ID)
		fmt.Println("No scores recorded yet.")
		if high > 0 {
			fmt.Printf("Local best: %d\n", high)
		}
		fmt.Printf("\nPlay 'retrodesk play %s' to set the first high score!\n", entry.ID)
		return nil
	}

	fmt.Printf("  %-4s  %-16s  %-10s  %s\n", "Rank", "Player", "Score", "Date")
	fmt.Printf("  %-4s  %-16s  %-10s  %s\n", "----", strings.Repeat("-", 6), "-----", "----")
	for i, r := range top {
		fmt.Printf("  %-4d  %-16s  %-10d  %s\n", i+1, r.DisplayName, r.Score, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	if stats, err := service.Stats(ctx, entry.ID); err == nil && stats != nil {
		fmt.Println()
		fmt.Printf("Games: %d  Best: %d  Average: %.1f\n", stats.GamesCount, stats.HighScore, stats.AvgScore)
	}
	return nil
}
