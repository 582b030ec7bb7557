// Package report aggregates plan results into the refactoring summary that
// gets persisted alongside the workspace.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/refactory/internal/plan"
)

// CriterionCheck records one success criterion for manual follow-up. The
// agent cannot prove criteria like "reduced coupling", so every criterion of
// a finished task is flagged for a human.
type CriterionCheck struct {
	Criterion string `json:"criterion"`
	Status    string `json:"status"`
}

// StatusNeedsVerification marks criteria awaiting manual review.
const StatusNeedsVerification = "needs_manual_verification"

// TaskReport is the per-task slice of a Summary.
type TaskReport struct {
	TaskType     string           `json:"task_type"`
	Status       string           `json:"status"`
	ActionsTaken int              `json:"actions_taken"`
	Iterations   int              `json:"iterations"`
	DurationSecs float64          `json:"duration_secs"`
	Error        string           `json:"error,omitempty"`
	SkipReason   string           `json:"skip_reason,omitempty"`
	Criteria     []CriterionCheck `json:"success_criteria,omitempty"`
}

// Summary is the aggregate result of one plan run.
type Summary struct {
	Timestamp       string       `json:"timestamp"`
	Workspace       string       `json:"workspace"`
	TotalTasks      int          `json:"total_tasks"`
	SuccessfulTasks int          `json:"successful_tasks"`
	FailedTasks     int          `json:"failed_tasks"`
	SuccessRate     float64      `json:"success_rate"`
	TotalActions    int          `json:"total_actions"`
	TaskResults     []TaskReport `json:"task_results"`
}

// Build aggregates task results into a Summary. The success rate is a
// percentage over all tasks, skipped ones included.
func Build(workspacePath string, results []plan.TaskResult) *Summary {
	summary := &Summary{
		Timestamp:   time.Now().Format(time.RFC3339),
		Workspace:   workspacePath,
		TotalTasks:  len(results),
		TaskResults: make([]TaskReport, 0, len(results)),
	}

	for _, result := range results {
		report := TaskReport{
			TaskType:     result.Spec.Type,
			Status:       result.Status,
			ActionsTaken: result.Actions,
			Iterations:   result.Iterations,
			DurationSecs: result.Duration.Seconds(),
			SkipReason:   result.SkipReason,
		}
		if result.Err != nil {
			report.Error = result.Err.Error()
		}

		switch {
		case result.Succeeded():
			summary.SuccessfulTasks++
			for _, criterion := range result.Spec.SuccessCriteria {
				report.Criteria = append(report.Criteria, CriterionCheck{
					Criterion: criterion,
					Status:    StatusNeedsVerification,
				})
			}
		case result.Status == plan.StatusSkipped:
			// Skipped tasks count toward the total but neither tally.
		default:
			summary.FailedTasks++
		}

		summary.TotalActions += result.Actions
		summary.TaskResults = append(summary.TaskResults, report)
	}

	if summary.TotalTasks > 0 {
		summary.SuccessRate = float64(summary.SuccessfulTasks) / float64(summary.TotalTasks) * 100
	}
	return summary
}

// RenderTable writes a human-readable summary to w. Colors are applied only
// when colorize is set.
func (s *Summary) RenderTable(w io.Writer, colorize bool) {
	green := fmt.Sprint
	red := fmt.Sprint
	bold := fmt.Sprint
	if colorize {
		green = color.New(color.FgGreen).Sprint
		red = color.New(color.FgRed).Sprint
		bold = color.New(color.Bold).Sprint
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Refactoring Summary"))
	fmt.Fprintf(w, "  Workspace:    %s\n", s.Workspace)
	fmt.Fprintf(w, "  Total tasks:  %d\n", s.TotalTasks)
	fmt.Fprintf(w, "  Successful:   %s\n", green(s.SuccessfulTasks))
	fmt.Fprintf(w, "  Failed:       %s\n", red(s.FailedTasks))
	fmt.Fprintf(w, "  Success rate: %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "  Total actions: %d\n", s.TotalActions)

	if s.FailedTasks > 0 {
		fmt.Fprintf(w, "\n%s\n", red("Failed tasks:"))
		for _, task := range s.TaskResults {
			if task.Status == plan.StatusSuccess || task.Status == plan.StatusDryRun {
				continue
			}
			detail := task.Error
			if detail == "" {
				detail = task.SkipReason
			}
			fmt.Fprintf(w, "  - %s: %s\n", task.TaskType, detail)
		}
	}
}
