package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/retrodesk/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the arcade's resident AI",
	Long: `Send one message, or start an interactive chat when no message is
given. Without an API key in the configured environment variable the
offline bot answers instead.

Examples:
  retrodesk chat "got any tips for breakout?"
  GROQ_API_KEY=... retrodesk chat`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, err := chatProvider(ctx, true)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		reply, err := provider.Reply(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	fmt.Println("connected. type 'exit' to leave.")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		msg := strings.TrimSpace(in.Text())
		switch msg {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		reply, err := provider.Reply(ctx, msg)
		if err != nil {
			logger.Warn("chat failed", "err", err)
			fmt.Println(chat.SignalLost)
			continue
		}
		fmt.Println(reply)
	}
}
