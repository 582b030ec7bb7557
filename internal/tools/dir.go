package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harrison/refactory/internal/workspace"
)

// ListDirectoryTool lists the entries of a workspace directory.
type ListDirectoryTool struct {
	guard *workspace.Guard
}

// NewListDirectoryTool creates a ListDirectoryTool bound to the guard.
func NewListDirectoryTool(guard *workspace.Guard) *ListDirectoryTool {
	return &ListDirectoryTool{guard: guard}
}

// Name implements Tool.
func (t *ListDirectoryTool) Name() string { return "list_directory" }

// Description implements Tool.
func (t *ListDirectoryTool) Description() string {
	return "List files and directories at a path (params: dir_path, defaults to workspace root)"
}

// Run implements Tool.
func (t *ListDirectoryTool) Run(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "dir_path")
	if path == "" {
		path = "."
	}

	full, err := t.guard.Resolve(path)
	if err != nil {
		return Fail("access denied: %v", err)
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return Fail("list %s: %v", path, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d entries in %s:\n", len(entries), path)
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&sb, "  [dir]  %s\n", entry.Name())
			continue
		}
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(&sb, "  [file] %s (%d bytes)\n", entry.Name(), size)
	}

	return Result{Success: true, Output: sb.String()}
}
