package plan

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Markdown plan format:
//
//	---
//	description: optional yaml frontmatter
//	---
//
//	## Task 1: architecture
//	Priority: 1
//	Depends: -
//	Files: lib/observable.rb, lib/observable/
//	Criteria: Clear module boundaries; Reduced coupling
//
//	Free-form description of the mission.
//
// Tasks are level-2 headings matching "Task N: <type>". Metadata lines are
// optional; Priority defaults to the task number.

var taskHeadingRegex = regexp.MustCompile(`^Task\s+(\d+):\s+(\S+)$`)

// frontmatter is the optional YAML header of a plan file.
type frontmatter struct {
	Description string `yaml:"description"`
}

// MarkdownParser parses markdown plan files.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a MarkdownParser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{markdown: goldmark.New()}
}

// Parse reads a markdown plan and returns the validated Plan.
func (p *MarkdownParser) Parse(r io.Reader) (*Plan, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	content, fm := extractFrontmatter(content)
	var meta frontmatter
	if fm != nil {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	sections, err := p.taskSections(content)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("plan contains no task headings (## Task N: <type>)")
	}

	plan := &Plan{Description: strings.TrimSpace(meta.Description)}
	for _, section := range sections {
		spec, err := parseTaskSection(section)
		if err != nil {
			return nil, err
		}
		plan.Tasks = append(plan.Tasks, spec)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// taskSection is one "## Task N: type" heading plus its body text.
type taskSection struct {
	number  int
	tasktyp string
	body    string
}

// taskSections walks the goldmark AST for level-2 task headings and slices
// the source into per-task bodies using the heading segment offsets.
func (p *MarkdownParser) taskSections(source []byte) ([]taskSection, error) {
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	type headingMark struct {
		number  int
		tasktyp string
		start   int // offset of the heading line in source
		end     int // offset just past the heading text
	}
	var marks []headingMark

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}

		segment := heading.Lines().At(0)
		title := strings.TrimSpace(string(segment.Value(source)))
		matches := taskHeadingRegex.FindStringSubmatch(title)
		if matches == nil {
			return ast.WalkContinue, nil
		}

		number, convErr := strconv.Atoi(matches[1])
		if convErr != nil {
			return ast.WalkContinue, nil
		}
		marks = append(marks, headingMark{
			number:  number,
			tasktyp: matches[2],
			start:   segment.Start,
			end:     segment.Stop,
		})
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk plan markdown: %w", err)
	}

	sections := make([]taskSection, 0, len(marks))
	for i, mark := range marks {
		bodyEnd := len(source)
		if i+1 < len(marks) {
			bodyEnd = marks[i+1].start
		}
		body := string(source[mark.end:bodyEnd])
		// The slice runs up to the next heading's text segment, so it may
		// carry that heading's "##" marker at the tail.
		body = strings.TrimRight(body, "\n #")
		sections = append(sections, taskSection{
			number:  mark.number,
			tasktyp: mark.tasktyp,
			body:    body,
		})
	}
	return sections, nil
}

// parseTaskSection extracts metadata lines and the description from a task
// body.
func parseTaskSection(section taskSection) (TaskSpec, error) {
	spec := TaskSpec{
		Type:     section.tasktyp,
		Priority: section.number,
	}

	var description []string
	for _, raw := range strings.Split(section.body, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "Priority:"):
			value := strings.TrimSpace(strings.TrimPrefix(line, "Priority:"))
			priority, err := strconv.Atoi(value)
			if err != nil {
				return TaskSpec{}, fmt.Errorf("task %q: invalid priority %q", spec.Type, value)
			}
			spec.Priority = priority

		case strings.HasPrefix(line, "Depends:"):
			spec.DependsOn = splitList(strings.TrimPrefix(line, "Depends:"), ",")

		case strings.HasPrefix(line, "Files:"):
			spec.FilesFocus = splitList(strings.TrimPrefix(line, "Files:"), ",")

		case strings.HasPrefix(line, "Criteria:"):
			spec.SuccessCriteria = splitList(strings.TrimPrefix(line, "Criteria:"), ";")

		default:
			if line != "" {
				description = append(description, line)
			}
		}
	}

	spec.Description = strings.Join(description, " ")
	if spec.Description == "" {
		spec.Description = fmt.Sprintf("Run the %s refactoring task", spec.Type)
	}
	return spec, nil
}

// splitList splits a metadata value on sep, trimming entries and dropping
// empties and the "-" placeholder.
func splitList(value, sep string) []string {
	var items []string
	for _, item := range strings.Split(value, sep) {
		item = strings.TrimSpace(item)
		if item != "" && item != "-" {
			items = append(items, item)
		}
	}
	return items
}

// extractFrontmatter splits an optional leading "---" YAML block from the
// content. Returns the remaining content and the frontmatter bytes (nil when
// absent).
func extractFrontmatter(content []byte) ([]byte, []byte) {
	const marker = "---\n"
	if !bytes.HasPrefix(content, []byte(marker)) {
		return content, nil
	}

	rest := content[len(marker):]
	end := bytes.Index(rest, []byte("\n---"))
	if end == -1 {
		return content, nil
	}

	fm := rest[:end]
	body := rest[end+len("\n---"):]
	return bytes.TrimLeft(body, "\n"), fm
}
