package agent

import (
	"fmt"
	"sort"
	"strings"
)

// taskInstructions maps each built-in task type to the mission text sent to
// the model. The numbered steps mirror how an experienced reviewer would
// approach each concern in a Ruby gem.
var taskInstructions = map[string]string{
	"architecture": `Improve the overall architecture of the codebase by:
1. Analyzing current component relationships
2. Reducing coupling between modules
3. Improving abstraction boundaries
4. Creating cleaner interfaces between components
5. Organizing code into logical layers
6. Making the system more modular and testable
Maintain backward compatibility with the existing public API.`,

	"performance": `Improve the performance of the codebase by:
1. Analyzing method calls and identifying bottlenecks
2. Optimizing argument extraction and serialization
3. Reducing memory allocations and object creation
4. Optimizing configuration access patterns
5. Considering lazy loading and memoization where appropriate
Run the test suite after changes to verify nothing regressed.`,

	"code_smells": `Remove code smells by:
1. Identifying and fixing long methods (over 15 lines)
2. Breaking down large classes into focused components
3. Removing dead code and unused methods
4. Eliminating feature envy and inappropriate intimacy between classes
5. Removing magic numbers and strings
Ensure all existing functionality remains intact.`,

	"idiomatic": `Make the code more idiomatic Ruby by:
1. Following Ruby naming conventions and patterns
2. Using appropriate Ruby idioms and standard library methods
3. Implementing proper module and class structures
4. Following gem development best practices
5. Implementing Ruby-style configuration patterns
Maintain compatibility with the existing public API.`,

	"error_handling": `Improve error handling throughout the codebase by:
1. Adding proper exception handling for edge cases
2. Creating custom exception classes where appropriate
3. Ensuring graceful degradation on failure
4. Adding better error messages and debugging information
5. Adding validation for configuration parameters
Test error conditions thoroughly after changes.`,

	"testing": `Improve the testing structure and coverage by:
1. Analyzing current test coverage and identifying gaps
2. Adding tests for edge cases and error conditions
3. Improving test organization and structure
4. Creating better test helpers and utilities
5. Ensuring tests are reliable and fast
All tests must pass after refactoring.`,

	"understandability": `Improve code readability and understandability by:
1. Adding clear method and class documentation
2. Improving variable and method names for clarity
3. Breaking down complex methods into smaller, focused ones
4. Organizing code structure logically
5. Making the public API more intuitive
Run the linter to ensure style consistency.`,

	"duplication": `Remove code duplication by:
1. Identifying repeated code patterns across files
2. Extracting common functionality into shared modules or methods
3. Consolidating similar configuration patterns
4. Eliminating duplicate error handling patterns
Ensure tests still pass after refactoring.`,
}

// TaskTypes returns the built-in task type names, sorted.
func TaskTypes() []string {
	types := make([]string, 0, len(taskInstructions))
	for t := range taskInstructions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// TaskInstruction returns the mission text for a built-in task type. Unknown
// types get a generic quality mission mentioning the requested type.
func TaskInstruction(taskType string) string {
	if instruction, ok := taskInstructions[taskType]; ok {
		return instruction
	}
	return fmt.Sprintf("Perform general code quality improvements with a focus on %q. "+
		"Maintain existing functionality while improving clarity, performance, and maintainability.", taskType)
}

// CustomInstruction wraps a free-form instruction as a mission.
func CustomInstruction(instruction string) string {
	return fmt.Sprintf(`Perform the following refactoring task:

%s

Focus on maintaining functionality while improving code quality, performance,
and maintainability. Follow Ruby best practices and gem conventions.`, strings.TrimSpace(instruction))
}

// IsKnownTaskType reports whether the type has a built-in instruction.
func IsKnownTaskType(taskType string) bool {
	_, ok := taskInstructions[taskType]
	return ok
}

// buildSystemPrompt assembles the system prompt from the tool catalog, the
// workspace root, and the mission.
func buildSystemPrompt(catalog, workspaceRoot, mission string) string {
	var sb strings.Builder

	sb.WriteString("You are a Ruby refactoring specialist improving a production codebase.\n\n")
	sb.WriteString("AVAILABLE TOOLS:\n")
	sb.WriteString(catalog)
	sb.WriteString("\nWORKING DIRECTORY: ")
	sb.WriteString(workspaceRoot)
	sb.WriteString("\n\n")

	sb.WriteString(`REFACTORING PRINCIPLES:
- Make incremental, safe changes
- Preserve existing functionality
- Improve code clarity and maintainability
- Follow Ruby community conventions and idioms
- Maintain proper error handling and testing structure

TASK FORMAT:
For each action, either emit a fenced JSON block:

` + "```json" + `
{"action": "tool_name", "params": {"param": "value"}, "reasoning": "why"}
` + "```" + `

or the marker form:

ACTION: tool_name
PARAMS: {"param": "value"}
REASONING: Brief explanation of why you're taking this action

When the work is done, say "refactoring complete".

**CRITICAL: You must use tools to complete refactoring tasks. Always start by analyzing the project structure.**

Your mission: `)
	sb.WriteString(mission)
	sb.WriteString("\n\nStart by analyzing the project structure and then examining the relevant files.")

	return sb.String()
}

// nudgeMessage is sent when a reply contains no parseable action.
const nudgeMessage = `No action detected. For refactoring tasks you must:
- Use tools to analyze and modify code
- Start each action with: ACTION: tool_name
- Follow with: PARAMS: {"param": "value"}
- Add: REASONING: explanation

Continue with your next refactoring action.`
