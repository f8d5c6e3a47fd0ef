// retrodesk serves a retro web desktop of sandboxed arcade games and plays
// the same games in the terminal.
//
// Usage:
//
//	retrodesk serve [--ssh]   - Start the HTTP server (and optionally SSH)
//	retrodesk play [game]     - Play in this terminal
//	retrodesk list            - List available games
//	retrodesk scores <game>   - Show high scores for a game
//	retrodesk chat [message]  - Talk to the arcade's resident AI
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search order)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrodesk/internal/config"

	// Register the bundled games.
	_ "github.com/vovakirdan/retrodesk/internal/programs"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg    config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "retrodesk",
	Short: "Retrodesk - a retro desktop of sandboxed arcade games",
	Long: `Retrodesk runs small arcade game programs inside an interpreter
sandbox and serves them to a retro web desktop over WebSocket. The same
games can be played in a terminal, locally or over SSH.

Examples:
  retrodesk serve
  retrodesk serve --ssh
  retrodesk play snake
  retrodesk scores breakout
  retrodesk chat "what is the best game here?"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(chatCmd)
}

func setup(_ *cobra.Command, _ []string) error {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "retrodesk",
		Level:           level,
	})

	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	return nil
}
