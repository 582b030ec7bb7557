// Package plan models refactoring task plans and runs them in dependency
// order.
package plan

import (
	"fmt"
	"sort"
	"strings"
)

// TaskSpec describes one refactoring task in a plan.
type TaskSpec struct {
	Type            string   // task type, unique within a plan
	Priority        int      // lower runs earlier
	Description     string   // mission summary shown to the model and operator
	FilesFocus      []string // files or directories the task should concentrate on
	SuccessCriteria []string // criteria reported for manual verification
	DependsOn       []string // task types that must succeed first
}

// Plan is an ordered collection of task specs for one workspace.
type Plan struct {
	Description string // optional summary, from plan-file frontmatter
	Tasks       []TaskSpec
}

// DefaultPlan returns the built-in eight-task refactoring plan.
func DefaultPlan() *Plan {
	return &Plan{Tasks: []TaskSpec{
		{
			Type:        "architecture",
			Priority:    1,
			Description: "Analyze and improve architecture and module organization",
			FilesFocus:  []string{"lib/"},
			SuccessCriteria: []string{
				"Clear module boundaries",
				"Reduced coupling between components",
				"Proper separation of concerns",
			},
		},
		{
			Type:        "performance",
			Priority:    2,
			Description: "Optimize performance and reduce overhead",
			FilesFocus:  []string{"lib/"},
			SuccessCriteria: []string{
				"Reduced method call overhead",
				"Efficient object creation",
				"Memory usage improvements",
			},
			DependsOn: []string{"architecture"},
		},
		{
			Type:        "code_smells",
			Priority:    3,
			Description: "Remove code smells and improve code quality",
			FilesFocus:  []string{"lib/", "test/"},
			SuccessCriteria: []string{
				"Methods under 15 lines",
				"Classes with single responsibility",
				"No duplicate code patterns",
				"Proper error handling",
			},
		},
		{
			Type:        "idiomatic",
			Priority:    4,
			Description: "Make code more idiomatic and follow project conventions",
			FilesFocus:  []string{"lib/"},
			SuccessCriteria: []string{
				"Follows naming conventions",
				"Uses appropriate language patterns",
				"Proper project structure",
			},
			DependsOn: []string{"code_smells"},
		},
		{
			Type:        "error_handling",
			Priority:    5,
			Description: "Improve error handling and resilience",
			FilesFocus:  []string{"lib/"},
			SuccessCriteria: []string{
				"Graceful degradation on errors",
				"Proper exception handling",
				"Clear error messages",
			},
		},
		{
			Type:        "testing",
			Priority:    6,
			Description: "Enhance test coverage and test quality",
			FilesFocus:  []string{"test/", "spec/"},
			SuccessCriteria: []string{
				"Coverage for critical paths",
				"Edge case testing",
				"Reliable and fast tests",
			},
			DependsOn: []string{"error_handling"},
		},
		{
			Type:        "understandability",
			Priority:    7,
			Description: "Improve code documentation and clarity",
			FilesFocus:  []string{"lib/", "README.md"},
			SuccessCriteria: []string{
				"Clear method documentation",
				"Usage examples",
				"Comments for complex logic",
			},
		},
		{
			Type:        "duplication",
			Priority:    8,
			Description: "Remove code duplication and extract common patterns",
			FilesFocus:  []string{"lib/", "test/"},
			SuccessCriteria: []string{
				"No duplicate code blocks",
				"Shared utilities extracted",
				"DRY principle applied",
			},
			DependsOn: []string{"understandability"},
		},
	}}
}

// Filter returns a new plan containing only the named task types, keeping
// the original order. Unknown names are ignored.
func (p *Plan) Filter(types []string) *Plan {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	filtered := &Plan{}
	for _, task := range p.Tasks {
		if wanted[task.Type] {
			filtered.Tasks = append(filtered.Tasks, task)
		}
	}
	return filtered
}

// Sorted returns the tasks ordered by ascending priority. The sort is
// stable: equal priorities keep their declaration order.
func (p *Plan) Sorted() []TaskSpec {
	sorted := append([]TaskSpec(nil), p.Tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// Validate rejects duplicate task types, dependencies on unknown types, and
// dependency cycles.
func (p *Plan) Validate() error {
	byType := make(map[string]TaskSpec, len(p.Tasks))
	for _, task := range p.Tasks {
		if task.Type == "" {
			return fmt.Errorf("task with empty type")
		}
		if _, dup := byType[task.Type]; dup {
			return fmt.Errorf("duplicate task type %q", task.Type)
		}
		byType[task.Type] = task
	}

	for _, task := range p.Tasks {
		for _, dep := range task.DependsOn {
			if _, ok := byType[dep]; !ok {
				return fmt.Errorf("task %q depends on unknown task %q", task.Type, dep)
			}
		}
	}

	if cycle := findCycle(byType); len(cycle) > 0 {
		return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// findCycle runs a DFS over the dependency graph and returns a cycle path
// when one exists.
func findCycle(byType map[string]TaskSpec) []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(byType))

	var path []string
	var visit func(t string) []string
	visit = func(t string) []string {
		state[t] = visiting
		path = append(path, t)

		for _, dep := range byType[t].DependsOn {
			switch state[dep] {
			case visiting:
				return append(path, dep)
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		state[t] = done
		return nil
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		if state[t] == unvisited {
			path = path[:0]
			if cycle := visit(t); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
