package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/config"
	"github.com/harrison/refactory/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show statistics from past refactoring runs",
		Args:  cobra.NoArgs,
		RunE:  historyCommand,
	}

	cmd.Flags().String("db", "", "Path to the history database (default: $REFACTORY_HOME/history.db)")
	cmd.Flags().Int("recent", 0, "Also list the N most recent task executions")

	return cmd
}

func historyCommand(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	recent, _ := cmd.Flags().GetInt("recent")

	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultHistoryDBPath()
		if err != nil {
			return err
		}
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()

	stats, err := store.SummaryStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("query statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Refactoring history:")
	fmt.Fprintf(out, "  Runs:         %d\n", stats.TotalRuns)
	fmt.Fprintf(out, "  Executions:   %d\n", stats.TotalExecutions)
	fmt.Fprintf(out, "  Success rate: %.1f%%\n", stats.SuccessRate)

	if len(stats.ByType) > 0 {
		fmt.Fprintln(out, "\nBy task type:")
		for _, ts := range stats.ByType {
			fmt.Fprintf(out, "  %-18s %3d run(s)  %5.1f%% success  %.1f avg action(s)\n",
				ts.TaskType, ts.Executions, ts.SuccessRate, ts.AvgActions)
		}
	}

	if recent > 0 {
		execs, err := store.RecentExecutions(cmd.Context(), recent)
		if err != nil {
			return fmt.Errorf("query executions: %w", err)
		}
		fmt.Fprintln(out, "\nRecent executions:")
		for _, e := range execs {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(out, "  %s  %-18s %-6s %d action(s)\n",
				e.Timestamp.Format("2006-01-02 15:04"), e.TaskType, status, e.Actions)
		}
	}
	return nil
}
