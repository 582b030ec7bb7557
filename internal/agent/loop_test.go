package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/refactory/internal/provider"
	"github.com/harrison/refactory/internal/tools"
	"github.com/harrison/refactory/internal/workspace"
)

// stubProvider replays scripted replies and records the history it was sent.
type stubProvider struct {
	replies   []string
	calls     int
	histories [][]provider.Message
	err       error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Send(ctx context.Context, system string, history []provider.Message) (string, error) {
	s.histories = append(s.histories, append([]provider.Message(nil), history...))
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[len(s.replies)-1]
	if s.calls < len(s.replies) {
		reply = s.replies[s.calls]
	}
	s.calls++
	return reply, nil
}

func newTestLoop(t *testing.T, p provider.Provider) (*Loop, *workspace.Guard) {
	t.Helper()
	guard, err := workspace.NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return NewLoop(p, tools.NewDispatcher(guard), guard.Root(), nil), guard
}

func TestRunCompletesOnPhrase(t *testing.T) {
	stub := &stubProvider{replies: []string{"All done here. Refactoring complete."}}
	loop, _ := newTestLoop(t, stub)

	outcome, err := loop.Run(context.Background(), "do the thing")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !outcome.Completed {
		t.Error("expected Completed")
	}
	if outcome.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", outcome.Iterations)
	}
	if len(outcome.Actions) != 0 {
		t.Errorf("Actions = %v, want none", outcome.Actions)
	}
}

func TestRunExecutesActionThenCompletes(t *testing.T) {
	stub := &stubProvider{replies: []string{
		"ACTION: write_file\nPARAMS: {\"file_path\": \"lib/a.rb\", \"content\": \"class A\\nend\\n\"}\nREASONING: create the class",
		"The file is in place. Task complete.",
	}}
	loop, guard := newTestLoop(t, stub)

	outcome, err := loop.Run(context.Background(), "create lib/a.rb")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !outcome.Completed || outcome.Iterations != 2 {
		t.Errorf("outcome = %+v", outcome)
	}
	if len(outcome.Actions) != 1 || outcome.Actions[0].Name != "write_file" || !outcome.Actions[0].Success {
		t.Errorf("Actions = %+v", outcome.Actions)
	}

	if _, err := os.Stat(filepath.Join(guard.Root(), "lib", "a.rb")); err != nil {
		t.Errorf("file not written: %v", err)
	}

	// The second request must carry the tool feedback turn.
	last := stub.histories[1]
	feedback := last[len(last)-1]
	if feedback.Role != provider.RoleUser || !strings.Contains(feedback.Content, "Tool 'write_file' executed") {
		t.Errorf("feedback turn wrong: %+v", feedback)
	}
}

func TestRunDispatchesActionBeforeCompletionPhrase(t *testing.T) {
	stub := &stubProvider{replies: []string{
		"ACTION: write_file\nPARAMS: {\"file_path\": \"final.rb\", \"content\": \"# done\\n\"}\nREASONING: last change\n\nRefactoring complete.",
	}}
	loop, guard := newTestLoop(t, stub)

	outcome, err := loop.Run(context.Background(), "finish up")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !outcome.Completed || outcome.Iterations != 1 {
		t.Errorf("outcome = %+v", outcome)
	}
	if len(outcome.Actions) != 1 || outcome.Actions[0].Name != "write_file" {
		t.Errorf("final action dropped: %+v", outcome.Actions)
	}
	if _, err := os.Stat(filepath.Join(guard.Root(), "final.rb")); err != nil {
		t.Errorf("final.rb not written: %v", err)
	}
}

func TestRunFeedsFailureBackToModel(t *testing.T) {
	stub := &stubProvider{replies: []string{
		"ACTION: read_file\nPARAMS: {\"file_path\": \"missing.rb\"}",
		"I see. Refactoring complete.",
	}}
	loop, _ := newTestLoop(t, stub)

	outcome, err := loop.Run(context.Background(), "read it")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(outcome.Actions) != 1 || outcome.Actions[0].Success {
		t.Errorf("Actions = %+v", outcome.Actions)
	}

	last := stub.histories[1]
	feedback := last[len(last)-1].Content
	if !strings.Contains(feedback, "**ERROR**") {
		t.Errorf("failure feedback missing error callout:\n%s", feedback)
	}
}

func TestRunStopsOnMissingAction(t *testing.T) {
	stub := &stubProvider{replies: []string{"Let me think about the architecture first."}}
	loop, _ := newTestLoop(t, stub)

	outcome, err := loop.Run(context.Background(), "refactor")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Completed {
		t.Error("should not be completed")
	}
	if outcome.Iterations != 1 || stub.calls != 1 {
		t.Errorf("loop should stop after the first actionless reply, iterations=%d calls=%d",
			outcome.Iterations, stub.calls)
	}
}

func TestRunExhaustsIterationBudget(t *testing.T) {
	stub := &stubProvider{replies: []string{
		"ACTION: list_directory\nPARAMS: {}",
	}}
	loop, _ := newTestLoop(t, stub)
	loop.SetMaxIterations(4)

	outcome, err := loop.Run(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Completed {
		t.Error("should not be completed")
	}
	if outcome.Iterations != 4 || len(outcome.Actions) != 4 {
		t.Errorf("iterations=%d actions=%d, want 4/4", outcome.Iterations, len(outcome.Actions))
	}
}

func TestRunPropagatesProviderError(t *testing.T) {
	stub := &stubProvider{err: &provider.Error{Provider: "stub", Message: "boom"}}
	loop, _ := newTestLoop(t, stub)

	_, err := loop.Run(context.Background(), "x")
	if err == nil {
		t.Fatal("expected provider error")
	}
	if !provider.IsProviderError(err) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestRunSystemPromptIncludesCatalogAndRoot(t *testing.T) {
	var seenSystem string
	stub := &stubProviderFunc{fn: func(ctx context.Context, system string, history []provider.Message) (string, error) {
		seenSystem = system
		return "refactoring complete", nil
	}}
	loop, guard := newTestLoop(t, stub)

	if _, err := loop.Run(context.Background(), TaskInstruction("architecture")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"read_file", "analyze_project_structure", guard.Root(), "coupling"} {
		if !strings.Contains(seenSystem, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

type stubProviderFunc struct {
	fn func(ctx context.Context, system string, history []provider.Message) (string, error)
}

func (s *stubProviderFunc) Name() string { return "stub-func" }

func (s *stubProviderFunc) Send(ctx context.Context, system string, history []provider.Message) (string, error) {
	return s.fn(ctx, system, history)
}

func TestTaskInstructionUnknownType(t *testing.T) {
	instruction := TaskInstruction("alchemy")
	if !strings.Contains(instruction, "alchemy") {
		t.Errorf("generic instruction should name the requested type: %q", instruction)
	}
}

func TestTaskTypesCoversBuiltins(t *testing.T) {
	types := TaskTypes()
	if len(types) != 8 {
		t.Fatalf("TaskTypes() = %v, want 8 entries", types)
	}
	for _, want := range []string{"architecture", "performance", "code_smells", "idiomatic",
		"error_handling", "testing", "understandability", "duplication"} {
		if !IsKnownTaskType(want) {
			t.Errorf("%s should be a known task type", want)
		}
	}
}

func TestIsCompleteCaseInsensitive(t *testing.T) {
	if !isComplete("MISSION ACCOMPLISHED!") {
		t.Error("uppercase phrase should complete")
	}
	if isComplete("still working on it") {
		t.Error("non-completion reply should not complete")
	}
}
