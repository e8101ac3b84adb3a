package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the rule set",
	Long: `Load the skills rule document, compile every pattern, and report the
first structural problem found. A rule set that validates here will never
fail at hook time.`,
	SilenceUsage: true,
	RunE:         runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, rules, err := loadConfigAndRules()
	if err != nil {
		return err
	}
	fmt.Printf("rule set OK: %d skills (%s)\n", rules.Len(), cfg.RulesFile)
	return nil
}
