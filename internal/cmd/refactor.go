package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/agent"
	"github.com/harrison/refactory/internal/config"
	"github.com/harrison/refactory/internal/history"
	"github.com/harrison/refactory/internal/logger"
	"github.com/harrison/refactory/internal/plan"
	"github.com/harrison/refactory/internal/report"
)

// NewRefactorCommand creates the refactor command
func NewRefactorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refactor",
		Short: "Run the built-in refactoring plan against a workspace",
		Long: `Run the built-in refactoring plan: eight prioritized tasks from
architecture review down to duplication removal, with dependency
gating between them.

Examples:
  refactory refactor --workspace ./mygem
  refactory refactor --focus architecture --focus performance
  refactory refactor --dry-run
  refactory refactor --provider openrouter`,
		Args: cobra.NoArgs,
		RunE: refactorCommand,
	}

	addRunFlags(cmd)
	cmd.Flags().StringSlice("focus", nil, "Task types to run (default: all)")

	return cmd
}

// addRunFlags registers the flags shared by the plan-executing commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("workspace", "", "Workspace directory (default: current directory)")
	cmd.Flags().Bool("dry-run", false, "Show what would run without executing missions")
	cmd.Flags().String("provider", "", "LLM provider to use (default: configured provider)")
	cmd.Flags().Bool("verbose", false, "Show debug output")
}

func refactorCommand(cmd *cobra.Command, args []string) error {
	focus, _ := cmd.Flags().GetStringSlice("focus")

	p := plan.DefaultPlan()
	if len(focus) > 0 {
		p = p.Filter(focus)
		if len(p.Tasks) == 0 {
			return fmt.Errorf("no known task types in focus list %v (see 'refactory tasks')", focus)
		}
	}
	return executePlan(cmd, p)
}

// executePlan wires workspace, provider, loop, runner, history and report
// together and runs the given plan. Shared by refactor, batch and custom.
func executePlan(cmd *cobra.Command, p *plan.Plan) error {
	workspacePath, _ := cmd.Flags().GetString("workspace")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	providerName, _ := cmd.Flags().GetString("provider")
	verbose, _ := cmd.Flags().GetBool("verbose")

	guard, dispatcher, err := newWorkspaceTools(workspacePath)
	if err != nil {
		return err
	}

	log, fileLog := newRunLogger(verbose)
	if fileLog != nil {
		defer fileLog.Close()
	}

	var runner *plan.Runner
	if dryRun {
		// Dry runs never execute missions, so no provider is needed.
		runner = plan.NewRunner(nil, log)
	} else {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		llm, resolved, err := buildProvider(cfg, providerName)
		if err != nil {
			return err
		}

		loop := agent.NewLoop(llm, dispatcher, guard.Root(), log)
		runner = plan.NewRunner(&plan.LoopExecutor{Loop: loop}, log)
		runner.EnableAnalysis(dispatcher)

		if closeStore := enableHistory(cmd.Context(), runner, log, guard.Root(), resolved); closeStore != nil {
			defer closeStore()
		}
	}

	results, err := runner.Run(cmd.Context(), p, dryRun)
	if err != nil {
		return err
	}

	summary := report.Build(guard.Root(), results)
	summary.RenderTable(cmd.OutOrStdout(), stdoutIsTerminal())

	if !dryRun {
		path, err := summary.Save(guard.Root())
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSummary saved to %s\n", path)
	}

	if summary.FailedTasks > 0 {
		return fmt.Errorf("%d of %d task(s) did not complete", summary.FailedTasks, summary.TotalTasks)
	}
	return nil
}

// enableHistory opens the run history store and registers this run on the
// runner. History is best effort and never blocks a run. Returns a cleanup
// function, or nil when history could not be enabled.
func enableHistory(ctx context.Context, runner *plan.Runner, log logger.Logger, workspacePath, providerName string) func() {
	dbPath, err := config.DefaultHistoryDBPath()
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return nil
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return nil
	}

	run := history.NewRun(workspacePath, providerName)
	if err := store.RecordRun(ctx, run); err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		store.Close()
		return nil
	}

	runner.EnableHistory(store, run.ID)
	return func() { store.Close() }
}
