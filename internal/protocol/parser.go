// Package protocol extracts tool actions from model replies.
//
// The primary wire format is a fenced JSON block:
//
//	```json
//	{"action": "read_file", "params": {"file_path": "lib/foo.rb"}, "reasoning": "..."}
//	```
//
// Models that ignore the fenced format fall back to the line-marker form:
//
//	ACTION: read_file
//	PARAMS: {"file_path": "lib/foo.rb"}
//	REASONING: inspect before editing
package protocol

import (
	"encoding/json"
	"strings"
)

// Action is one tool invocation requested by the model.
type Action struct {
	Name      string
	Params    map[string]any
	Reasoning string
}

// Parser extracts an action from a raw model reply. The second return value
// is false when the reply contains no recognizable action.
type Parser interface {
	Parse(reply string) (Action, bool)
}

// MarkerParser scans replies line by line for ACTION:/PARAMS:/REASONING:
// markers. The last ACTION: line wins. Params seen earlier in the reply
// carry over to a later ACTION: line that has none of its own, and malformed
// PARAMS: JSON degrades to empty params rather than failing the parse.
type MarkerParser struct{}

// Parse implements Parser.
func (MarkerParser) Parse(reply string) (Action, bool) {
	var (
		action Action
		found  bool
	)
	action.Params = map[string]any{}

	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "ACTION:"):
			action.Name = strings.TrimSpace(strings.TrimPrefix(line, "ACTION:"))
			found = true

		case strings.HasPrefix(line, "PARAMS:") && found:
			payload := strings.TrimSpace(strings.TrimPrefix(line, "PARAMS:"))
			params := map[string]any{}
			if err := json.Unmarshal([]byte(payload), &params); err != nil {
				params = map[string]any{}
			}
			action.Params = params

		case strings.HasPrefix(line, "REASONING:") && found:
			action.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
		}
	}

	if !found || action.Name == "" {
		return Action{}, false
	}
	return action, true
}

// blockAction is the fenced JSON payload shape.
type blockAction struct {
	Action    string         `json:"action"`
	Params    map[string]any `json:"params"`
	Reasoning string         `json:"reasoning"`
}

// BlockParser extracts an action from the first fenced JSON block that
// carries an "action" key. It is strict: a malformed block is ignored so the
// caller can fall back to the marker form.
type BlockParser struct{}

// Parse implements Parser.
func (BlockParser) Parse(reply string) (Action, bool) {
	for _, block := range fencedBlocks(reply) {
		var ba blockAction
		if err := json.Unmarshal([]byte(block), &ba); err != nil {
			continue
		}
		if ba.Action == "" {
			continue
		}
		params := ba.Params
		if params == nil {
			params = map[string]any{}
		}
		return Action{Name: ba.Action, Params: params, Reasoning: ba.Reasoning}, true
	}
	return Action{}, false
}

// fencedBlocks returns the bodies of ``` fenced blocks, tolerating an info
// string such as "json" on the opening fence.
func fencedBlocks(reply string) []string {
	var blocks []string
	lines := strings.Split(reply, "\n")

	var body []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, strings.Join(body, "\n"))
				body = nil
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	return blocks
}

// chain tries each parser in order.
type chain []Parser

// Chain combines parsers; the first one that finds an action wins.
func Chain(parsers ...Parser) Parser {
	return chain(parsers)
}

// Parse implements Parser.
func (c chain) Parse(reply string) (Action, bool) {
	for _, p := range c {
		if action, ok := p.Parse(reply); ok {
			return action, ok
		}
	}
	return Action{}, false
}

// Default returns the standard parser: fenced JSON preferred, marker lines
// as fallback.
func Default() Parser {
	return Chain(BlockParser{}, MarkerParser{})
}
