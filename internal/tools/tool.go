// Package tools implements the agent's tool set: file access, directory
// listing, command execution, and source analysis, all confined to a guarded
// workspace.
package tools

import (
	"context"
	"fmt"
)

// Result is the outcome of a single tool invocation. Failures are data, not
// Go errors: they are fed back into the conversation so the model can react.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a successful Result with a formatted output message.
func Ok(format string, args ...any) Result {
	return Result{Success: true, Output: fmt.Sprintf(format, args...)}
}

// Fail builds a failed Result with a formatted error message.
func Fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Tool is a single capability the agent can invoke by name.
type Tool interface {
	// Name is the identifier the model uses in ACTION: lines.
	Name() string

	// Description is a one-line summary rendered into the system prompt.
	Description() string

	// Run executes the tool with the parsed action params.
	Run(ctx context.Context, params map[string]any) Result
}

// stringParam extracts a string parameter, tolerating absent keys.
func stringParam(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
