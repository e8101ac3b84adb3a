package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/skillgate/skillgate/internal/domain/rule"
)

var rulesCmd = &cobra.Command{
	Use:          "rules",
	Short:        "Print the loaded rule set",
	Long:         `Print the loaded skills grouped by priority (highest first).`,
	SilenceUsage: true,
	RunE:         runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	_, rules, err := loadConfigAndRules()
	if err != nil {
		return err
	}

	// Group by priority for presentation; declaration order within a group.
	groups := make(map[int][]*rule.Skill)
	var priorities []int
	for _, s := range rules.All() {
		if _, seen := groups[s.Priority]; !seen {
			priorities = append(priorities, s.Priority)
		}
		groups[s.Priority] = append(groups[s.Priority], s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))

	for _, p := range priorities {
		fmt.Printf("priority %d:\n", p)
		for _, s := range groups[p] {
			fmt.Printf("  %-30s %-10s %s\n", s.Name, s.Kind, s.Enforcement)
			if s.Description != "" {
				fmt.Printf("      %s\n", s.Description)
			}
		}
	}
	return nil
}
