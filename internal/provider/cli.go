package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// CLIProvider drives a local claude CLI binary in non-interactive print
// mode. It exists for environments where no API key is configured but the
// CLI is already authenticated.
type CLIProvider struct {
	binaryPath string
}

// NewCLIProvider creates a provider that shells out to the claude CLI.
// An empty path uses "claude" from PATH.
func NewCLIProvider(binaryPath string) *CLIProvider {
	if binaryPath == "" {
		binaryPath = "claude"
	}
	return &CLIProvider{binaryPath: binaryPath}
}

// Name implements Provider.
func (p *CLIProvider) Name() string { return "claude-cli" }

// cliOutput is the JSON envelope printed by the CLI.
type cliOutput struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Send implements Provider. The CLI has no native multi-turn API in print
// mode, so the history is flattened into a single prompt transcript.
func (p *CLIProvider) Send(ctx context.Context, system string, history []Message) (string, error) {
	prompt := flattenConversation(system, history)

	cmd := exec.CommandContext(ctx, p.binaryPath,
		"-p", prompt,
		"--output-format", "json",
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &Error{
			Provider: p.Name(),
			Message:  fmt.Sprintf("invoke %s", p.binaryPath),
			Err:      fmt.Errorf("%w: %s", err, output),
		}
	}

	return parseCLIOutput(string(output)), nil
}

// parseCLIOutput extracts the reply from the CLI's JSON envelope, falling
// back to the raw output when it isn't JSON.
func parseCLIOutput(output string) string {
	var co cliOutput
	if err := json.Unmarshal([]byte(output), &co); err != nil {
		return output
	}
	if co.Result != "" {
		return co.Result
	}
	return output
}

// flattenConversation renders the system prompt and history as one prompt.
func flattenConversation(system string, history []Message) string {
	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	for _, msg := range history {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", msg.Role, msg.Content)
	}
	sb.WriteString("[assistant]\n")
	return sb.String()
}
