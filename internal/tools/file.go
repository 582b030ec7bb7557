package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harrison/refactory/internal/workspace"
)

// ReadFileTool reads a file from the workspace and returns its contents.
type ReadFileTool struct {
	guard *workspace.Guard
}

// NewReadFileTool creates a ReadFileTool bound to the guard.
func NewReadFileTool(guard *workspace.Guard) *ReadFileTool {
	return &ReadFileTool{guard: guard}
}

// Name implements Tool.
func (t *ReadFileTool) Name() string { return "read_file" }

// Description implements Tool.
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file (params: file_path)"
}

// Run implements Tool.
func (t *ReadFileTool) Run(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "file_path")
	if path == "" {
		return Fail("read_file requires a \"file_path\" parameter")
	}

	full, err := t.guard.Resolve(path)
	if err != nil {
		return Fail("access denied: %v", err)
	}

	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return Fail("file %s does not exist", path)
	}
	if err != nil {
		return Fail("stat %s: %v", path, err)
	}
	if info.IsDir() {
		return Fail("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Fail("read %s: %v", path, err)
	}
	if !utf8.Valid(data) {
		return Fail("%s is not valid UTF-8 text (binary file?)", path)
	}

	return Result{
		Success: true,
		Output:  fmt.Sprintf("Contents of %s (%d bytes):\n%s", path, len(data), data),
	}
}

// WriteFileTool creates or overwrites a file inside the workspace.
type WriteFileTool struct {
	guard *workspace.Guard
}

// NewWriteFileTool creates a WriteFileTool bound to the guard.
func NewWriteFileTool(guard *workspace.Guard) *WriteFileTool {
	return &WriteFileTool{guard: guard}
}

// Name implements Tool.
func (t *WriteFileTool) Name() string { return "write_file" }

// Description implements Tool.
func (t *WriteFileTool) Description() string {
	return "Write content to a file, creating it if needed (params: file_path, content)"
}

// Run implements Tool.
func (t *WriteFileTool) Run(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "file_path")
	if path == "" {
		return Fail("write_file requires a \"file_path\" parameter")
	}
	content, hasContent := params["content"].(string)
	if !hasContent {
		return Fail("write_file requires a \"content\" parameter")
	}

	full, err := t.guard.Resolve(path)
	if err != nil {
		return Fail("access denied: %v", err)
	}

	existed := false
	if _, err := os.Stat(full); err == nil {
		existed = true
	}

	if dir := filepath.Dir(full); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Fail("create directory for %s: %v", path, err)
		}
	}

	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return Fail("write %s: %v", path, err)
	}

	verb := "created"
	if existed {
		verb = "updated"
	}
	lines := strings.Count(content, "\n") + 1
	return Ok("%s %s (%d bytes, %d lines)", verb, path, len(content), lines)
}
