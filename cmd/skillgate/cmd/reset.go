package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillgate/skillgate/internal/config"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove persisted session state",
	Long: `Remove all persisted session records.

Every session forgets which guardrails it has already satisfied, so the
next matching file operation in any session blocks again. The rule set and
configuration are untouched.

Examples:
  # Remove session state (interactive confirmation)
  skillgate reset

  # Remove without prompting
  skillgate reset --force`,
	SilenceUsage: true,
	RunE:         runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var target string
	switch cfg.State.Backend {
	case "sqlite":
		target = cfg.State.Path
	default:
		target = cfg.State.Dir
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		fmt.Println("no session state to remove")
		return nil
	}

	if !resetForce {
		fmt.Printf("Remove session state at %s? [y/N] ", target)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}
	}

	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove session state: %w", err)
	}
	fmt.Printf("removed %s\n", target)
	return nil
}
