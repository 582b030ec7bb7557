package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/harrison/refactory/internal/workspace"
)

// commandTimeout bounds a single run_command invocation. Ruby test suites
// and linters should finish well inside this.
const commandTimeout = 60 * time.Second

// RunCommandTool executes a shell command with the workspace root as its
// working directory. The process directory is set on the command itself, so
// the tool never changes the agent's own working directory.
type RunCommandTool struct {
	guard   *workspace.Guard
	timeout time.Duration
}

// NewRunCommandTool creates a RunCommandTool bound to the guard.
func NewRunCommandTool(guard *workspace.Guard) *RunCommandTool {
	return &RunCommandTool{guard: guard, timeout: commandTimeout}
}

// Name implements Tool.
func (t *RunCommandTool) Name() string { return "run_command" }

// Description implements Tool.
func (t *RunCommandTool) Description() string {
	return "Execute a shell command in the workspace, e.g. bundle, rake, standardrb (params: command)"
}

// Run implements Tool.
func (t *RunCommandTool) Run(ctx context.Context, params map[string]any) Result {
	command := strings.TrimSpace(stringParam(params, "command"))
	if command == "" {
		return Fail("run_command requires a \"command\" parameter")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Dir = t.guard.Root()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return Fail("command timed out after %s: %s", t.timeout, command)
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += stderr.String()
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return Result{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("command exited with code %d: %s", exitCode, command),
		}
	}

	return Result{
		Success: true,
		Output:  fmt.Sprintf("command succeeded: %s\n%s", command, output),
	}
}
