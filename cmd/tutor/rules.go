package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socratic-labs/tutor/classify"
	"github.com/socratic-labs/tutor/policy"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the active classifier and guardrail rules",
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	classifierRules := classify.DefaultRules()
	if cfg.Classifier.PackPath != "" {
		loaded, err := classify.LoadPack(cfg.Classifier.PackPath)
		if err != nil {
			return err
		}
		classifierRules = loaded
	}

	fmt.Println("classifier rules (first match wins):")
	for _, r := range classifierRules {
		fmt.Printf("  %-20s -> %s\n", r.ID, r.Intent)
	}

	pack := policy.DefaultPack()
	if cfg.PolicyPack != "" {
		loaded, err := policy.Load(cfg.PolicyPack)
		if err != nil {
			return err
		}
		pack = loaded
	}

	fmt.Printf("\nguardrail rules (pack version %s):\n", pack.Version)
	for _, r := range pack.Rules {
		stage := string(r.Stage)
		if stage == "" {
			stage = "both"
		}
		fmt.Printf("  %-24s %-5s %-8s %s\n", r.ID, stage, r.Verdict, r.Reason)
	}
	return nil
}
