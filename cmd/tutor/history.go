package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socratic-labs/tutor/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a session's turns, or list sessions",
	Long: `History prints the turns of the session given with --session,
oldest first. Without --session it lists known sessions instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent N turns (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if sessionID == "" {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions recorded")
			return nil
		}
		for _, sess := range sessions {
			fmt.Printf("%s  %s\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	turns, err := st.LoadHistory(ctx, sessionID, historyLimit)
	if err != nil {
		return err
	}
	for _, turn := range turns {
		marker := ""
		if turn.Policy.RuleID != "" {
			marker = fmt.Sprintf("  [%s: %s]", turn.Policy.Verdict, turn.Policy.RuleID)
		}
		fmt.Printf("%s %-9s %s%s\n",
			turn.Timestamp.Format("15:04:05"), turn.Role, turn.DisplayText(), marker)
	}
	return nil
}
