package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewProvidersCommand creates the providers command
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured LLM providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range cfg.ProviderNames() {
				settings := cfg.Providers[name]

				marker := " "
				if name == cfg.CurrentProvider {
					marker = "*"
				}
				keyState := "no key"
				if _, effective, err := cfg.Resolve(name); err == nil && effective.APIKey != "" {
					keyState = "key set"
				}
				model := settings.Model
				if model == "" {
					model = "-"
				}
				fmt.Fprintf(out, "%s %-12s model=%s (%s)\n", marker, name, model, keyState)
			}
			return nil
		},
	}
}

// NewUseCommand creates the use command
func NewUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <provider>",
		Short: "Switch the current LLM provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Use(args[0]); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current provider: %s\n", args[0])
			return nil
		},
	}
}
