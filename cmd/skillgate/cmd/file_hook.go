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

var fileHookCmd = &cobra.Command{
	Use:           "file-hook",
	Short:         "Internal: Edit/Write pre-tool hook handler",
	Hidden:        true,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runFileHook())
	},
}

func init() {
	rootCmd.AddCommand(fileHookCmd)
}

// runFileHook wires the enforcement path. Exit 0 means proceed, exit 2
// means the operation is blocked (messages on stderr); anything else is an
// internal failure the caller must not read as a policy decision.
func runFileHook() int {
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
	return r.RunFile(context.Background())
}
