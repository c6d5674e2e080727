package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socratic-labs/tutor/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's history as JSON",
	Long: `Export writes the full history of the session given with --session
to a JSON file. The file appears atomically.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "session.json", "Output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if sessionID == "" {
		return fmt.Errorf("--session is required")
	}

	st, err := store.NewStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := store.Export(cmd.Context(), st, sessionID, exportOut); err != nil {
		return err
	}
	fmt.Printf("exported session %s to %s\n", sessionID, exportOut)
	return nil
}
