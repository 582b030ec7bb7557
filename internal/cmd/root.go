// Package cmd wires the refactory CLI together.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for refactory
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refactory",
		Short: "LLM-driven iterative refactoring agent",
		Long: `Refactory runs an LLM agent against a workspace to perform staged
refactoring tasks.

The agent works through a prioritized plan of refactoring missions
(architecture, performance, code smells, ...), issuing tool actions
against the workspace until each mission reports completion. Results
are summarized and persisted alongside the workspace.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewSetupCommand())
	cmd.AddCommand(NewProvidersCommand())
	cmd.AddCommand(NewUseCommand())
	cmd.AddCommand(NewRefactorCommand())
	cmd.AddCommand(NewBatchCommand())
	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewCustomCommand())
	cmd.AddCommand(NewTasksCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
