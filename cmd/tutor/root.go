package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/socratic-labs/tutor/pipeline"
)

var (
	configFile string
	sessionID  string
	verbose    bool

	cfg pipeline.Config
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "tutor - a guarded programming tutor on the command line",
	Long: `tutor routes each question through intent classification, guardrail
policies, a language-model backend, and output sanitization before
anything reaches the screen or the conversation store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))

		cfg = pipeline.DefaultConfig()
		if configFile != "" {
			loaded, err := pipeline.LoadConfig(configFile)
			if err != nil {
				return err
			}
			cfg = *loaded
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to JSON config file (default: built-in mock setup)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Session to continue (default: start a new one)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging to stderr")
}

func Execute() error {
	return rootCmd.Execute()
}
