package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acretu/smart-librarian/internal/bootstrap"
	"github.com/acretu/smart-librarian/internal/config"
	"github.com/acretu/smart-librarian/internal/observability/logging"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive recommendation session",
	Long: `Start an interactive session. Each line you type is handled as one
recommendation request; type "exit" or press Ctrl-D to quit.`,
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "One-shot recommendation request",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := config.Load()
	// The CLI talks to a human; keep structured logs out of the way
	// unless something is actually wrong.
	logLevel := cfg.LogLevel
	if logLevel == "" || logLevel == "info" {
		logLevel = "warn"
	}
	slog.SetDefault(logging.NewJSONLogger("cli", logLevel))
	return bootstrap.New(ctx, cfg, "cli")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Ask for a book recommendation (\"exit\" to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}
		if err := answer(ctx, app, query); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return answer(ctx, app, args[0])
}

func answer(ctx context.Context, app *bootstrap.App, query string) error {
	response, err := app.Recommender.Recommend(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(response.Answer)
	if response.ChosenTitle != "" {
		fmt.Printf("\nChosen book: %s\n\n%s\n", response.ChosenTitle, response.Summary)
	}
	return nil
}
