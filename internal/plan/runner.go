package plan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/refactory/internal/agent"
	"github.com/harrison/refactory/internal/history"
	"github.com/harrison/refactory/internal/logger"
	"github.com/harrison/refactory/internal/tools"
)

// Task result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusDryRun  = "dry_run"
)

// TaskResult is the outcome of one plan task.
type TaskResult struct {
	Spec       TaskSpec
	Status     string
	SkipReason string
	Actions    int
	Iterations int
	Duration   time.Duration
	Err        error
}

// Succeeded reports whether the task completed.
func (r TaskResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusDryRun
}

// Executor runs one task's mission. *agent.Loop is adapted via MissionFor;
// tests substitute stubs.
type Executor interface {
	Execute(ctx context.Context, spec TaskSpec) (*agent.Outcome, error)
}

// LoopExecutor adapts an agent.Loop to the Executor interface.
type LoopExecutor struct {
	Loop *agent.Loop
}

// Execute implements Executor. Only provider errors fail a task: a mission
// that stops without the model declaring completion still made its changes
// and counts as done, with the criteria left for manual verification. The
// loop itself logs the undeclared stop.
func (e *LoopExecutor) Execute(ctx context.Context, spec TaskSpec) (*agent.Outcome, error) {
	return e.Loop.Run(ctx, MissionFor(spec))
}

// MissionFor builds the mission text for a spec: the task type's built-in
// instruction (or the description for unknown types), plus focus files and
// success criteria.
func MissionFor(spec TaskSpec) string {
	var sb strings.Builder

	if agent.IsKnownTaskType(spec.Type) {
		sb.WriteString(agent.TaskInstruction(spec.Type))
	} else {
		sb.WriteString(agent.CustomInstruction(spec.Description))
	}

	if len(spec.FilesFocus) > 0 {
		sb.WriteString("\n\nFocus on these files and directories:\n")
		for _, f := range spec.FilesFocus {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	if len(spec.SuccessCriteria) > 0 {
		sb.WriteString("\nSuccess criteria:\n")
		for _, c := range spec.SuccessCriteria {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	return sb.String()
}

// Runner executes a plan sequentially in priority order with dependency
// gating.
type Runner struct {
	executor   Executor
	logger     logger.Logger
	dispatcher *tools.Dispatcher // optional, enables pre/post analysis
	store      *history.Store    // optional, best-effort run recording
	runID      string
}

// NewRunner creates a Runner.
func NewRunner(executor Executor, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Runner{executor: executor, logger: log}
}

// EnableAnalysis gives the runner a dispatcher for pre/post analysis steps.
func (r *Runner) EnableAnalysis(d *tools.Dispatcher) {
	r.dispatcher = d
}

// EnableHistory turns on run recording. Store errors are logged and
// otherwise ignored: history must never fail a run.
func (r *Runner) EnableHistory(store *history.Store, runID string) {
	r.store = store
	r.runID = runID
}

// Run executes the plan. Tasks run one at a time in ascending priority; a
// task whose dependencies did not all succeed is skipped. In dry-run mode no
// mission is executed and every runnable task reports StatusDryRun.
func (r *Runner) Run(ctx context.Context, p *Plan, dryRun bool) ([]TaskResult, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	sorted := p.Sorted()
	r.logger.LogInfo(fmt.Sprintf("starting refactoring plan: %d task(s), dry-run=%t", len(sorted), dryRun))

	if !dryRun {
		r.preAnalysis(ctx)
	}

	completed := make(map[string]bool, len(sorted))
	results := make([]TaskResult, 0, len(sorted))

	for _, spec := range sorted {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		if unmet := unmetDependencies(spec, completed); len(unmet) > 0 {
			reason := fmt.Sprintf("dependencies not met: %s", strings.Join(unmet, ", "))
			r.logger.LogWarn(fmt.Sprintf("skipping %s: %s", spec.Type, reason))
			results = append(results, TaskResult{Spec: spec, Status: StatusSkipped, SkipReason: reason})
			continue
		}

		results = append(results, r.runTask(ctx, spec, dryRun, completed))
	}

	if !dryRun {
		r.postAnalysis(ctx)
	}
	return results, nil
}

// runTask executes one gated task and records it.
func (r *Runner) runTask(ctx context.Context, spec TaskSpec, dryRun bool, completed map[string]bool) TaskResult {
	r.logger.LogTaskStart(spec.Type, spec.Description)

	if dryRun {
		r.logger.LogInfo(fmt.Sprintf("dry-run: would refactor %s (%d focus files)", spec.Type, len(spec.FilesFocus)))
		completed[spec.Type] = true
		return TaskResult{Spec: spec, Status: StatusDryRun}
	}

	start := time.Now()
	outcome, err := r.executor.Execute(ctx, spec)
	duration := time.Since(start)

	result := TaskResult{Spec: spec, Duration: duration}
	if outcome != nil {
		result.Actions = len(outcome.Actions)
		result.Iterations = outcome.Iterations
	}

	if err != nil {
		result.Status = StatusFailed
		result.Err = NewTaskError(spec.Type, "mission failed", err)
	} else {
		result.Status = StatusSuccess
		completed[spec.Type] = true
	}

	r.logger.LogTaskComplete(spec.Type, result.Status == StatusSuccess, duration)
	r.record(ctx, result)
	return result
}

// record persists one task result to the history store, best effort.
func (r *Runner) record(ctx context.Context, result TaskResult) {
	if r.store == nil {
		return
	}

	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	exec := history.TaskExecution{
		RunID:        r.runID,
		TaskType:     result.Spec.Type,
		Success:      result.Status == StatusSuccess,
		Actions:      result.Actions,
		Iterations:   result.Iterations,
		DurationSecs: result.Duration.Seconds(),
		ErrorMessage: errMsg,
	}
	if err := r.store.RecordExecution(ctx, exec); err != nil {
		r.logger.LogWarn(fmt.Sprintf("record execution: %v", err))
	}
}

// unmetDependencies lists the dependencies of spec that have not succeeded.
func unmetDependencies(spec TaskSpec, completed map[string]bool) []string {
	var unmet []string
	for _, dep := range spec.DependsOn {
		if !completed[dep] {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// preAnalysis establishes a baseline before any edits: project structure
// and a line-count metric. Failures are logged and ignored.
func (r *Runner) preAnalysis(ctx context.Context) {
	if r.dispatcher == nil {
		return
	}
	r.logger.LogInfo("running pre-refactoring analysis")

	if result := r.dispatcher.Dispatch(ctx, "analyze_project_structure", nil); !result.Success {
		r.logger.LogWarn(fmt.Sprintf("structure analysis: %s", result.Error))
	} else {
		r.logger.LogDebug(result.Output)
	}

	metrics := r.dispatcher.Dispatch(ctx, "run_command", map[string]any{
		"command": "find lib -name '*.rb' | xargs wc -l | tail -1",
	})
	if metrics.Success {
		r.logger.LogInfo(fmt.Sprintf("baseline metrics: %s", strings.TrimSpace(metrics.Output)))
	}
}

// postAnalysis verifies nothing broke: test suite and linter. Failures are
// reported but do not change task results.
func (r *Runner) postAnalysis(ctx context.Context) {
	if r.dispatcher == nil {
		return
	}
	r.logger.LogInfo("running post-refactoring analysis")

	if result := r.dispatcher.Dispatch(ctx, "run_command", map[string]any{"command": "bundle exec rake test"}); result.Success {
		r.logger.LogInfo("test suite passing")
	} else {
		r.logger.LogWarn("test failures detected, review needed")
	}

	if result := r.dispatcher.Dispatch(ctx, "run_command", map[string]any{"command": "bundle exec standardrb"}); result.Success {
		r.logger.LogInfo("code style compliant")
	} else {
		r.logger.LogWarn("code style issues detected")
	}
}
