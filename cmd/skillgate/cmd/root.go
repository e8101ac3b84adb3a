// Package cmd provides the CLI commands for skillgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillgate/skillgate/internal/config"
)

var (
	cfgFile   string
	rulesFile string
)

var rootCmd = &cobra.Command{
	Use:   "skillgate",
	Short: "skillgate - skill trigger and guardrail engine",
	Long: `skillgate decides when an AI coding assistant's skills should activate.

It is invoked once per event by the assistant's hook mechanism: a user
prompt or a file edit arrives as JSON on stdin, skillgate evaluates it
against a declarative rule set, and either stays silent, suggests skills,
or blocks the operation via its exit status.

Quick start:
  1. Write a rule set: skills.yaml
  2. Check it: skillgate validate
  3. Wire the hooks: skillgate prompt-hook / skillgate file-hook

Configuration:
  Config is loaded from skillgate.yaml in the current directory,
  $HOME/.skillgate/, or /etc/skillgate/.

  Environment variables can override config values with the SKILLGATE_
  prefix. Example: SKILLGATE_STATE_BACKEND=sqlite

Commands:
  validate    Load and validate the rule set
  rules       Print the loaded rule set
  reset       Remove persisted session state
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./skillgate.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rule set file (default: from config, ./skills.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
