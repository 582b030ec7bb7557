package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/plan"
)

// NewCustomCommand creates the custom command
func NewCustomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom <instruction>",
		Short: "Run a single custom refactoring mission",
		Long: `Run one refactoring mission described in free text instead of a
built-in task type.

Example:
  refactory custom "Replace the hand-rolled option parser with OptionParser" --workspace ./mygem`,
		Args: cobra.MinimumNArgs(1),
		RunE: customCommand,
	}

	addRunFlags(cmd)
	return cmd
}

func customCommand(cmd *cobra.Command, args []string) error {
	p := &plan.Plan{Tasks: []plan.TaskSpec{{
		Type:        "custom",
		Priority:    1,
		Description: strings.Join(args, " "),
	}}}
	return executePlan(cmd, p)
}
