package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/retrodesk/internal/platform/tui"
	"github.com/vovakirdan/retrodesk/internal/registry"
)

var flagPlayScriptsURL string

var playCmd = &cobra.Command{
	Use:   "play [game]",
	Short: "Play in this terminal",
	Long: `Play retrodesk games in the terminal. Without a game the menu opens.

Controls:
  Arrows/WASD  - Move
  Space        - Action
  Enter        - Start / confirm
  Esc          - Cancel
  R            - Retry after game over
  M            - Mute sounds
  Ctrl+R       - Reload after a program error
  Q            - Back to the menu
  Ctrl+C       - Quit

Examples:
  retrodesk play
  retrodesk play antigravity`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlayScriptsURL, "scripts-url", "", "Fetch program sources from this base URL")
}

func runPlay(_ *cobra.Command, args []string) error {
	gameID := ""
	if len(args) == 1 {
		gameID = args[0]
		if !registry.Exists(gameID) {
			return fmt.Errorf("unknown game %q; run 'retrodesk list' to see available games", gameID)
		}
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	// Keep log output off the alternate screen.
	if logger.GetLevel() < log.ErrorLevel {
		logger.SetLevel(log.ErrorLevel)
	}

	service, closeScores := openScores()
	defer closeScores()

	return tui.Run(tuiDeps(service, flagPlayScriptsURL), gameID, width, height)
}
