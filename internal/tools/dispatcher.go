package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/refactory/internal/workspace"
)

// Dispatcher routes named actions to registered tools. Unknown tools and
// panicking tools both come back as failure Results so a single bad action
// never aborts a conversation.
type Dispatcher struct {
	tools map[string]Tool
	order []string
}

// NewDispatcher creates a Dispatcher with the standard tool set registered
// against the given workspace guard.
func NewDispatcher(guard *workspace.Guard) *Dispatcher {
	d := &Dispatcher{tools: make(map[string]Tool)}
	d.Register(NewReadFileTool(guard))
	d.Register(NewWriteFileTool(guard))
	d.Register(NewListDirectoryTool(guard))
	d.Register(NewRunCommandTool(guard))
	d.Register(NewAnalyzeSourceTool(guard))
	d.Register(NewAnalyzeStructureTool(guard))
	return d
}

// Register adds a tool to the dispatcher. A tool with a duplicate name
// replaces the earlier registration.
func (d *Dispatcher) Register(tool Tool) {
	name := tool.Name()
	if _, exists := d.tools[name]; !exists {
		d.order = append(d.order, name)
	}
	d.tools[name] = tool
}

// Names returns the registered tool names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog renders a numbered tool list for the system prompt, in
// registration order.
func (d *Dispatcher) Catalog() string {
	var sb strings.Builder
	for i, name := range d.order {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, name, d.tools[name].Description())
	}
	return sb.String()
}

// Dispatch runs the named tool with the given params. An unknown name yields
// a failure Result listing the available tools.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]any) (result Result) {
	tool, ok := d.tools[name]
	if !ok {
		return Fail("unknown tool %q, available tools: %s", name, strings.Join(d.Names(), ", "))
	}

	defer func() {
		if r := recover(); r != nil {
			result = Fail("tool %s panicked: %v", name, r)
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	return tool.Run(ctx, params)
}
