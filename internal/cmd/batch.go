package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/plan"
)

// NewBatchCommand creates the batch command
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a refactoring plan from a markdown file",
		Long: `Run a custom refactoring plan written as markdown.

Plan files use level-2 "## Task N: <type>" headings with optional
Priority:, Depends:, Files: and Criteria: metadata lines followed by
the mission description.

Example:
  refactory batch --plan refactor-plan.md --workspace ./mygem`,
		Args: cobra.NoArgs,
		RunE: batchCommand,
	}

	addRunFlags(cmd)
	cmd.Flags().String("plan", "", "Path to the markdown plan file (required)")
	cmd.MarkFlagRequired("plan")

	return cmd
}

func batchCommand(cmd *cobra.Command, args []string) error {
	planPath, _ := cmd.Flags().GetString("plan")

	file, err := os.Open(planPath)
	if err != nil {
		return fmt.Errorf("open plan file: %w", err)
	}
	defer file.Close()

	p, err := plan.NewMarkdownParser().Parse(file)
	if err != nil {
		return fmt.Errorf("parse plan %s: %w", planPath, err)
	}
	if p.Description != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Plan: %s\n", p.Description)
	}
	return executePlan(cmd, p)
}
