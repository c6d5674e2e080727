package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/socratic-labs/tutor/pipeline"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the tutor a question",
	Long: `Ask submits one question through the pipeline and prints the answer.

Example:
  tutor ask "Explain recursion to me"
  tutor --session 0192d3f0-... ask "How does the base case help?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	orch, err := pipeline.New(&cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer orch.Close()

	result, err := orch.Submit(ctx, sessionID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	switch result.ErrorKind {
	case pipeline.ErrKindProviderTimeout:
		return fmt.Errorf("the tutor timed out; try again")
	case pipeline.ErrKindProviderUnavailable:
		return fmt.Errorf("the tutor backend is unavailable; try again later")
	case pipeline.ErrKindPersistenceWriteFailed:
		fmt.Fprintln(os.Stderr, "warning: this exchange could not be saved")
	}

	fmt.Println(result.FinalText)

	fmt.Fprintf(os.Stderr, "\nsession: %s  intent: %s", result.SessionID, result.Intent)
	if result.WasBlocked {
		fmt.Fprintf(os.Stderr, "  [blocked by %s]", result.Decision.RuleID)
	}
	if result.WasRewritten {
		fmt.Fprintf(os.Stderr, "  [rewritten by %s]", result.Decision.RuleID)
	}
	if result.WasSanitized {
		fmt.Fprint(os.Stderr, "  [sanitized]")
	}
	fmt.Fprintln(os.Stderr)

	return nil
}
