package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/refactory/internal/workspace"
)

// AnalyzeSourceTool inspects a Ruby source file and reports its structure:
// requires, classes, modules, methods, constants, gemspec dependencies, and
// flagged issues. The heuristics are line-based and deliberately simple; the
// model interprets the findings.
type AnalyzeSourceTool struct {
	guard *workspace.Guard
}

// NewAnalyzeSourceTool creates an AnalyzeSourceTool bound to the guard.
func NewAnalyzeSourceTool(guard *workspace.Guard) *AnalyzeSourceTool {
	return &AnalyzeSourceTool{guard: guard}
}

// Name implements Tool.
func (t *AnalyzeSourceTool) Name() string { return "analyze_source" }

// Description implements Tool.
func (t *AnalyzeSourceTool) Description() string {
	return "Analyze a Ruby source file for structure, patterns and issues (params: file_path)"
}

// Run implements Tool.
func (t *AnalyzeSourceTool) Run(ctx context.Context, params map[string]any) Result {
	path := stringParam(params, "file_path")
	if path == "" {
		return Fail("analyze_source requires a \"file_path\" parameter")
	}

	full, err := t.guard.Resolve(path)
	if err != nil {
		return Fail("access denied: %v", err)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Fail("read %s: %v", path, err)
	}

	report := analyzeRubySource(path, string(data))
	return Result{Success: true, Output: report}
}

// sourceFacts accumulates line-level findings for one file.
type sourceFacts struct {
	lineCount  int
	codeLines  int
	requires   []string
	classes    []string
	modules    []string
	methods    []string
	constants  []string
	gemDeps    []string
	issues     []string
}

func analyzeRubySource(path, content string) string {
	lines := strings.Split(content, "\n")
	facts := sourceFacts{lineCount: len(lines)}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		loc := fmt.Sprintf("L%d: %s", i+1, line)

		switch {
		case strings.HasPrefix(line, "require ") || strings.HasPrefix(line, "require_relative"):
			facts.requires = append(facts.requires, loc)
		case strings.HasPrefix(line, "class "):
			facts.classes = append(facts.classes, loc)
		case strings.HasPrefix(line, "module "):
			facts.modules = append(facts.modules, loc)
		case strings.HasPrefix(line, "def "):
			facts.methods = append(facts.methods, loc)
		}

		if line != "" && line[0] >= 'A' && line[0] <= 'Z' && strings.Contains(line, "=") {
			facts.constants = append(facts.constants, loc)
		}
		if strings.Contains(line, "add_dependency") || strings.Contains(line, "add_development_dependency") {
			facts.gemDeps = append(facts.gemDeps, loc)
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			facts.codeLines++
		}
	}

	if len(facts.classes) > 5 {
		facts.issues = append(facts.issues, "multiple classes in a single file, consider splitting")
	}
	if facts.codeLines > 200 {
		facts.issues = append(facts.issues, "large file, consider refactoring")
	}
	if strings.Contains(strings.ToLower(content), "rescue exception") {
		facts.issues = append(facts.issues, "rescuing Exception is too broad")
	}
	if len(facts.methods) > 20 {
		facts.issues = append(facts.issues, "many methods, consider extracting modules")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis of %s: %d lines (%d code)\n", path, facts.lineCount, facts.codeLines)
	writeSection(&sb, "requires", facts.requires)
	writeSection(&sb, "classes", facts.classes)
	writeSection(&sb, "modules", facts.modules)
	writeSection(&sb, "methods", facts.methods)
	writeSection(&sb, "constants", facts.constants)
	writeSection(&sb, "gem dependencies", facts.gemDeps)
	writeSection(&sb, "potential issues", facts.issues)
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(sb, "  %s\n", item)
	}
}

// AnalyzeStructureTool checks the workspace against standard gem layout
// conventions: gemspec, lib/, test or spec trees, README, CHANGELOG, LICENSE.
type AnalyzeStructureTool struct {
	guard *workspace.Guard
}

// NewAnalyzeStructureTool creates an AnalyzeStructureTool bound to the guard.
func NewAnalyzeStructureTool(guard *workspace.Guard) *AnalyzeStructureTool {
	return &AnalyzeStructureTool{guard: guard}
}

// Name implements Tool.
func (t *AnalyzeStructureTool) Name() string { return "analyze_project_structure" }

// Description implements Tool.
func (t *AnalyzeStructureTool) Description() string {
	return "Analyze the project directory layout against gem conventions (no params)"
}

// Run implements Tool.
func (t *AnalyzeStructureTool) Run(ctx context.Context, params map[string]any) Result {
	root := t.guard.Root()

	entries, err := os.ReadDir(root)
	if err != nil {
		return Fail("list workspace: %v", err)
	}

	var (
		hasGemspec, hasLib, hasTest, hasSpec   bool
		hasReadme, hasChangelog, hasLicense    bool
		libFiles, testFiles                    []string
	)

	for _, entry := range entries {
		name := entry.Name()
		lower := strings.ToLower(name)

		switch {
		case strings.HasSuffix(name, ".gemspec"):
			hasGemspec = true
		case entry.IsDir() && lower == "lib":
			hasLib = true
			libFiles = rubyFilesUnder(filepath.Join(root, name), root)
		case entry.IsDir() && (lower == "test" || lower == "tests"):
			hasTest = true
			testFiles = rubyFilesUnder(filepath.Join(root, name), root)
		case entry.IsDir() && lower == "spec":
			hasSpec = true
		case lower == "readme.md" || lower == "readme.txt" || lower == "readme":
			hasReadme = true
		case lower == "changelog.md" || lower == "changelog" || lower == "history.md":
			hasChangelog = true
		case lower == "license" || lower == "license.txt" || lower == "license.md" || lower == "mit-license":
			hasLicense = true
		}
	}

	var missing, recommendations []string
	if !hasGemspec {
		missing = append(missing, "gemspec file")
	}
	if !hasLib {
		missing = append(missing, "lib/ directory")
	}
	if !hasTest && !hasSpec {
		missing = append(missing, "test/ or spec/ directory")
	}
	if !hasReadme {
		missing = append(missing, "README file")
	}
	if !hasLicense {
		missing = append(missing, "LICENSE file")
	}
	if len(libFiles) > 10 {
		recommendations = append(recommendations, "consider organizing lib files into subdirectories")
	}
	if !hasChangelog {
		recommendations = append(recommendations, "consider adding a CHANGELOG.md")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Project structure for %s\n", root)
	fmt.Fprintf(&sb, "gemspec: %t, lib/: %t, test/: %t, spec/: %t, README: %t, CHANGELOG: %t, LICENSE: %t\n",
		hasGemspec, hasLib, hasTest, hasSpec, hasReadme, hasChangelog, hasLicense)
	writeSection(&sb, "lib files", libFiles)
	writeSection(&sb, "test files", testFiles)
	writeSection(&sb, "missing conventions", missing)
	writeSection(&sb, "recommendations", recommendations)
	return Result{Success: true, Output: sb.String()}
}

// rubyFilesUnder collects .rb files below dir, relative to root.
func rubyFilesUnder(dir, root string) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".rb") {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			files = append(files, rel)
		}
		return nil
	})
	return files
}
