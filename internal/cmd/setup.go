package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/refactory/internal/config"
)

// NewSetupCommand creates the setup command
func NewSetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup <provider>",
		Short: "Configure an LLM provider",
		Long: `Store credentials and model settings for a provider and make it
the current one.

Examples:
  refactory setup anthropic --api-key sk-ant-...
  refactory setup openrouter --api-key sk-or-... --model anthropic/claude-3-sonnet
  refactory setup claude-cli`,
		Args: cobra.ExactArgs(1),
		RunE: setupCommand,
	}

	cmd.Flags().String("api-key", "", "API key for the provider")
	cmd.Flags().String("model", "", "Model identifier")
	cmd.Flags().String("base-url", "", "API base URL override")
	cmd.Flags().Int("max-tokens", 0, "Maximum tokens per reply")

	return cmd
}

func setupCommand(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.Providers[name]; !ok {
		return fmt.Errorf("unknown provider %q (known: %v)", name, cfg.ProviderNames())
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	baseURL, _ := cmd.Flags().GetString("base-url")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	cfg.Set(name, config.ProviderSettings{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
	})
	if err := cfg.Use(name); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Provider %s configured and selected.\n", name)
	return nil
}
