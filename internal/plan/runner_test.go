package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/refactory/internal/agent"
	"github.com/harrison/refactory/internal/history"
)

// stubExecutor completes every task except those listed in fail.
type stubExecutor struct {
	executed []string
	fail     map[string]bool
}

func (s *stubExecutor) Execute(ctx context.Context, spec TaskSpec) (*agent.Outcome, error) {
	s.executed = append(s.executed, spec.Type)
	if s.fail[spec.Type] {
		return nil, errors.New("loop gave up")
	}
	return &agent.Outcome{
		Completed:  true,
		Iterations: 3,
		Actions: []agent.ActionRecord{
			{Name: "read_file", Success: true},
			{Name: "write_file", Success: true},
		},
	}, nil
}

func twoStepPlan() *Plan {
	return &Plan{Tasks: []TaskSpec{
		{Type: "architecture", Priority: 1, Description: "restructure"},
		{Type: "performance", Priority: 2, Description: "speed up", DependsOn: []string{"architecture"}},
	}}
}

func TestRunnerExecutesInPriorityOrder(t *testing.T) {
	executor := &stubExecutor{}
	runner := NewRunner(executor, nil)

	results, err := runner.Run(context.Background(), twoStepPlan(), false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"architecture", "performance"}, executor.executed)
	for _, result := range results {
		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, 2, result.Actions)
		assert.Equal(t, 3, result.Iterations)
	}
}

func TestRunnerSkipsWhenDependencyFails(t *testing.T) {
	executor := &stubExecutor{fail: map[string]bool{"architecture": true}}
	runner := NewRunner(executor, nil)

	results, err := runner.Run(context.Background(), twoStepPlan(), false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, StatusFailed, results[0].Status)
	assert.True(t, IsTaskError(results[0].Err))

	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Contains(t, results[1].SkipReason, "architecture")
	assert.Equal(t, []string{"architecture"}, executor.executed, "skipped task must not execute")
}

// incompleteExecutor returns outcomes where the model never declared
// completion but no provider error occurred.
type incompleteExecutor struct {
	executed []string
}

func (s *incompleteExecutor) Execute(ctx context.Context, spec TaskSpec) (*agent.Outcome, error) {
	s.executed = append(s.executed, spec.Type)
	return &agent.Outcome{Completed: false, Iterations: 15}, nil
}

func TestRunnerTreatsUndeclaredCompletionAsSuccess(t *testing.T) {
	executor := &incompleteExecutor{}
	runner := NewRunner(executor, nil)

	results, err := runner.Run(context.Background(), twoStepPlan(), false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, result := range results {
		assert.Equal(t, StatusSuccess, result.Status)
		assert.NoError(t, result.Err)
	}
	assert.Equal(t, []string{"architecture", "performance"}, executor.executed,
		"dependent task must run when its dependency finished without a provider error")
}

func TestRunnerDryRun(t *testing.T) {
	executor := &stubExecutor{}
	runner := NewRunner(executor, nil)

	results, err := runner.Run(context.Background(), twoStepPlan(), true)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Empty(t, executor.executed)
	for _, result := range results {
		assert.Equal(t, StatusDryRun, result.Status)
		assert.True(t, result.Succeeded())
	}
}

func TestRunnerRejectsInvalidPlan(t *testing.T) {
	runner := NewRunner(&stubExecutor{}, nil)
	bad := &Plan{Tasks: []TaskSpec{{Type: "a", Priority: 1, DependsOn: []string{"a"}}}}

	_, err := runner.Run(context.Background(), bad, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := &stubExecutor{}
	_, err := NewRunner(executor, nil).Run(ctx, twoStepPlan(), false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, executor.executed)
}

func TestRunnerRecordsHistory(t *testing.T) {
	store, err := history.NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	run := history.NewRun("/tmp/ws", "anthropic")
	require.NoError(t, store.RecordRun(ctx, run))

	executor := &stubExecutor{fail: map[string]bool{"performance": true}}
	runner := NewRunner(executor, nil)
	runner.EnableHistory(store, run.ID)

	_, err = runner.Run(ctx, twoStepPlan(), false)
	require.NoError(t, err)

	execs, err := store.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	byType := make(map[string]history.TaskExecution, len(execs))
	for _, e := range execs {
		byType[e.TaskType] = e
	}
	assert.True(t, byType["architecture"].Success)
	assert.False(t, byType["performance"].Success)
	assert.Contains(t, byType["performance"].ErrorMessage, "loop gave up")
}

func TestMissionForKnownType(t *testing.T) {
	mission := MissionFor(TaskSpec{
		Type:            "architecture",
		FilesFocus:      []string{"lib/observable.rb"},
		SuccessCriteria: []string{"Clear module boundaries"},
	})

	assert.Contains(t, mission, agent.TaskInstruction("architecture"))
	assert.Contains(t, mission, "Focus on these files and directories:\n- lib/observable.rb")
	assert.Contains(t, mission, "Success criteria:\n- Clear module boundaries")
}

func TestMissionForCustomType(t *testing.T) {
	mission := MissionFor(TaskSpec{Type: "cleanup_scripts", Description: "Tidy the bin scripts"})
	assert.Contains(t, mission, "Tidy the bin scripts")
}
