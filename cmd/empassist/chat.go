package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/empassist/empassist"
	"github.com/empassist/empassist/internal/metrics"
	"github.com/empassist/empassist/internal/presentation/tui"
)

// responderFunc adapts a closure to the per-turn exchange the loop needs.
type responderFunc func(ctx context.Context, text string) (string, error)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant interactively",
	Long: `Starts an interactive conversation on the terminal. By default the
rule-based dialogue engine runs in-process against the configured backend
operations; with --remote each turn is submitted to the hosted agents
platform instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		remote, _ := cmd.Flags().GetBool("remote")

		logger := createLogger(cfg)

		var respond responderFunc
		cleanup := func() error { return nil }

		if remote {
			orch, err := buildOrchestrator(cfg, logger, metrics.NewNop())
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			var threadID string
			respond = func(ctx context.Context, text string) (string, error) {
				result, err := orch.SubmitTurn(ctx, threadID, text)
				if err != nil {
					return "", err
				}
				threadID = result.ThreadID
				return result.Answer, nil
			}
		} else {
			agent, closeStore, err := buildAgent(cfg, logger)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			cleanup = closeStore
			sessionID := "cli_" + uuid.NewString()
			respond = func(ctx context.Context, text string) (string, error) {
				return agent.Respond(ctx, sessionID, text)
			}
		}
		defer cleanup()

		if err := runChatLoop(cmd.Context(), respond); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// runChatLoop reads user turns from stdin until EOF or a quit command.
func runChatLoop(ctx context.Context, respond responderFunc) error {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	render := func(answer string) string { return answer + "\n" }
	prompt := "> "
	if interactive {
		tui.PrintBanner(empassist.Version)
		render = tui.NewRenderer()
		prompt = tui.Prompt()
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		switch strings.ToLower(text) {
		case "quit", "exit", "q":
			fmt.Println("Bye!")
			return nil
		}

		answer, err := respond(ctx, text)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Print(render(answer))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("remote", false, "Submit turns to the hosted agents platform")
}
