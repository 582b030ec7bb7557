package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/plan"
)

// NewTasksCommand creates the tasks command
func NewTasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "Describe the built-in refactoring task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Built-in refactoring tasks, in default plan order:")
			fmt.Fprintln(out)

			for _, spec := range plan.DefaultPlan().Sorted() {
				deps := "-"
				if len(spec.DependsOn) > 0 {
					deps = strings.Join(spec.DependsOn, ", ")
				}
				fmt.Fprintf(out, "%d. %-18s depends on: %s\n", spec.Priority, spec.Type, deps)
				fmt.Fprintf(out, "   %s\n\n", spec.Description)
			}
			return nil
		},
	}
}
