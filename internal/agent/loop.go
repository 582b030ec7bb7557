// Package agent runs the iterative conversation between an LLM provider and
// the workspace tool set until the model declares the mission complete or
// the iteration budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/refactory/internal/logger"
	"github.com/harrison/refactory/internal/protocol"
	"github.com/harrison/refactory/internal/provider"
	"github.com/harrison/refactory/internal/tools"
)

// DefaultMaxIterations bounds a single mission. Complex refactorings need
// room for analyze-edit-verify cycles.
const DefaultMaxIterations = 15

// completionPhrases end the loop when found in a reply (case-insensitive).
var completionPhrases = []string{
	"refactoring complete",
	"task complete",
	"mission accomplished",
	"all changes applied",
}

// ActionRecord captures one executed action for reporting.
type ActionRecord struct {
	Name      string
	Reasoning string
	Success   bool
}

// Outcome is the result of running one mission.
type Outcome struct {
	Completed  bool // model declared completion
	Iterations int
	Actions    []ActionRecord
	FinalReply string
}

// Loop drives one mission to completion against a provider.
type Loop struct {
	provider      provider.Provider
	dispatcher    *tools.Dispatcher
	parser        protocol.Parser
	logger        logger.Logger
	workspaceRoot string
	maxIterations int
}

// NewLoop creates a Loop with the default parser and iteration budget.
func NewLoop(p provider.Provider, d *tools.Dispatcher, workspaceRoot string, log logger.Logger) *Loop {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Loop{
		provider:      p,
		dispatcher:    d,
		parser:        protocol.Default(),
		logger:        log,
		workspaceRoot: workspaceRoot,
		maxIterations: DefaultMaxIterations,
	}
}

// SetMaxIterations overrides the iteration budget. Values < 1 are ignored.
func (l *Loop) SetMaxIterations(n int) {
	if n >= 1 {
		l.maxIterations = n
	}
}

// SetParser overrides the reply parser.
func (l *Loop) SetParser(p protocol.Parser) {
	if p != nil {
		l.parser = p
	}
}

// Run executes one mission. The conversation history is append-only: every
// assistant reply and every tool result becomes a turn. Run returns an error
// only when the provider fails or the context is cancelled; tool failures
// are fed back to the model as data.
func (l *Loop) Run(ctx context.Context, mission string) (*Outcome, error) {
	system := buildSystemPrompt(l.dispatcher.Catalog(), l.workspaceRoot, mission)

	history := []provider.Message{
		{Role: provider.RoleUser, Content: mission},
	}

	outcome := &Outcome{}

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		outcome.Iterations = iteration + 1

		reply, err := l.provider.Send(ctx, system, history)
		if err != nil {
			return outcome, fmt.Errorf("iteration %d: %w", iteration+1, err)
		}
		outcome.FinalReply = reply
		history = append(history, provider.Message{Role: provider.RoleAssistant, Content: reply})

		action, ok := l.parser.Parse(reply)
		if !ok {
			if isComplete(reply) {
				outcome.Completed = true
				l.logger.LogDebug(fmt.Sprintf("model declared completion after %d iteration(s)", iteration+1))
				return outcome, nil
			}
			// One nudge, then stop. A model that stops emitting actions
			// without declaring completion has lost the thread.
			l.logger.LogWarn("no action detected in reply, stopping mission")
			if iteration < l.maxIterations-1 {
				history = append(history, provider.Message{Role: provider.RoleUser, Content: nudgeMessage})
			}
			return outcome, nil
		}

		l.logger.LogInfo(fmt.Sprintf("executing %s", action.Name))
		l.logger.LogTrace(fmt.Sprintf("%s params: %v", action.Name, action.Params))

		result := l.dispatcher.Dispatch(ctx, action.Name, action.Params)
		outcome.Actions = append(outcome.Actions, ActionRecord{
			Name:      action.Name,
			Reasoning: action.Reasoning,
			Success:   result.Success,
		})
		if !result.Success {
			l.logger.LogWarn(fmt.Sprintf("%s failed: %s", action.Name, result.Error))
		}

		history = append(history, provider.Message{
			Role:    provider.RoleUser,
			Content: formatToolFeedback(action, result),
		})

		// The completion check comes after the action so a reply that both
		// acts and declares completion still has its action applied.
		if isComplete(reply) {
			outcome.Completed = true
			l.logger.LogDebug(fmt.Sprintf("model declared completion after %d iteration(s)", iteration+1))
			return outcome, nil
		}
	}

	l.logger.LogWarn(fmt.Sprintf("iteration budget (%d) exhausted without completion", l.maxIterations))
	return outcome, nil
}

// isComplete checks a reply for a completion phrase.
func isComplete(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, phrase := range completionPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// formatToolFeedback renders a tool result as the next user turn.
func formatToolFeedback(action protocol.Action, result tools.Result) string {
	reasoning := action.Reasoning
	if reasoning == "" {
		reasoning = "Not provided"
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		payload = []byte(fmt.Sprintf("{\"success\": %t}", result.Success))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tool '%s' executed.\n", action.Name)
	fmt.Fprintf(&sb, "Reasoning: %s\n", reasoning)
	fmt.Fprintf(&sb, "Result: %s\n", payload)
	if !result.Success {
		sb.WriteString("\n**ERROR**: The tool execution failed. Please analyze the error and try a different approach.\n")
	}
	sb.WriteString("\nContinue with the next action to complete your refactoring mission.")
	return sb.String()
}
