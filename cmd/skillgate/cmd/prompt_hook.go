package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillgate/skillgate/internal/adapter/inbound/hook"
	"github.com/skillgate/skillgate/internal/adapter/outbound/audit"
	"github.com/skillgate/skillgate/internal/service"
)

var promptHookCmd = &cobra.Command{
	Use:           "prompt-hook",
	Short:         "Internal: user prompt hook handler",
	Hidden:        true,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runPromptHook())
	},
}

func init() {
	rootCmd.AddCommand(promptHookCmd)
}

// runPromptHook wires the advisory path: suggestions to stdout, always a
// neutral exit unless the setup or payload itself is broken.
func runPromptHook() int {
	cfg, rules, err := loadConfigAndRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "skillgate: %v\n", err)
		return hook.ExitInternal
	}
	logger := newLogger(cfg.LogLevel)

	store, cleanup, err := openSessionStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skillgate: %v\n", err)
		return hook.ExitInternal
	}
	defer cleanup()

	auditW, err := audit.NewWriter(cfg.Audit.Output, os.Stderr, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skillgate: %v\n", err)
		return hook.ExitInternal
	}
	defer func() { _ = auditW.Close() }()

	r := &hook.Runner{
		Rules:   rules,
		Service: service.NewDecisionService(rules, store, logger),
		Audit:   auditW,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
	}
	return r.RunPrompt(context.Background())
}
