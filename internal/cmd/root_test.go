package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"setup", "providers", "use", "refactor", "batch", "analyze", "custom", "tasks", "history"} {
		assert.Contains(t, names, want)
	}
	assert.True(t, root.SilenceUsage)
}

func TestTasksCommandListsAllTypes(t *testing.T) {
	out, err := execute(t, "tasks")
	require.NoError(t, err)

	for _, taskType := range []string{
		"architecture", "performance", "code_smells", "idiomatic",
		"error_handling", "testing", "understandability", "duplication",
	} {
		assert.Contains(t, out, taskType)
	}
	assert.Contains(t, out, "depends on: architecture")
}

func TestSetupProvidersUseRoundTrip(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())

	out, err := execute(t, "setup", "openrouter", "--api-key", "sk-or-test")
	require.NoError(t, err)
	assert.Contains(t, out, "openrouter configured")

	out, err = execute(t, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "* openrouter")
	assert.Contains(t, out, "key set")

	out, err = execute(t, "use", "claude-cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Current provider: claude-cli")

	out, err = execute(t, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "* claude-cli")
}

func TestSetupRejectsUnknownProvider(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())

	_, err := execute(t, "setup", "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRefactorDryRun(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())
	workspace := t.TempDir()

	out, err := execute(t, "refactor", "--workspace", workspace, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Refactoring Summary")
	assert.Contains(t, out, "Total tasks:  8")
	// Dry runs never persist a summary file.
	assert.NotContains(t, out, "Summary saved")
	_, statErr := os.Stat(filepath.Join(workspace, "refactoring_results"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRefactorFocusFilters(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())
	workspace := t.TempDir()

	out, err := execute(t, "refactor", "--workspace", workspace, "--dry-run", "--focus", "architecture")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tasks:  1")

	_, err = execute(t, "refactor", "--workspace", workspace, "--dry-run", "--focus", "nonsense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no known task types")
}

func TestBatchDryRunWithPlanFile(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())
	workspace := t.TempDir()

	planPath := filepath.Join(t.TempDir(), "plan.md")
	planContent := strings.Join([]string{
		"## Task 1: architecture",
		"",
		"Restructure the gem into cohesive modules.",
		"",
		"## Task 2: testing",
		"Depends: architecture",
		"",
		"Add coverage for the public API.",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(planPath, []byte(planContent), 0644))

	out, err := execute(t, "batch", "--plan", planPath, "--workspace", workspace, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tasks:  2")
}

func TestBatchRejectsMissingPlanFile(t *testing.T) {
	t.Setenv("REFACTORY_HOME", t.TempDir())

	_, err := execute(t, "batch", "--plan", "/nonexistent/plan.md", "--workspace", t.TempDir(), "--dry-run")
	require.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "lib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "lib", "widget.rb"), []byte("class Widget\nend\n"), 0644))

	out, err := execute(t, "analyze", "--workspace", workspace)
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzing")
	assert.Contains(t, out, "lib/")
}

func TestHistoryCommandEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Runs:         0")
}
