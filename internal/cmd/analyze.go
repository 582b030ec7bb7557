package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a workspace without making changes",
		Long: `Report project structure, conventions and line-count metrics for a
workspace. No LLM provider is used and nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: analyzeCommand,
	}

	cmd.Flags().String("workspace", "", "Workspace directory (default: current directory)")
	return cmd
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	workspacePath, _ := cmd.Flags().GetString("workspace")

	guard, dispatcher, err := newWorkspaceTools(workspacePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzing %s\n\n", guard.Root())

	structure := dispatcher.Dispatch(cmd.Context(), "analyze_project_structure", nil)
	if !structure.Success {
		return fmt.Errorf("structure analysis: %s", structure.Error)
	}
	fmt.Fprintln(out, structure.Output)

	metrics := dispatcher.Dispatch(cmd.Context(), "run_command", map[string]any{
		"command": "find lib -name '*.rb' | xargs wc -l | tail -1",
	})
	if metrics.Success {
		fmt.Fprintf(out, "\nLine counts:\n%s", metrics.Output)
	}
	return nil
}
