package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/harrison/refactory/internal/config"
	"github.com/harrison/refactory/internal/logger"
	"github.com/harrison/refactory/internal/provider"
	"github.com/harrison/refactory/internal/tools"
	"github.com/harrison/refactory/internal/workspace"
)

// loadConfig loads the provider config from the refactory home.
func loadConfig() (*config.Config, string, error) {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// buildProvider resolves and validates a provider by name (empty means the
// configured current provider) and constructs it.
func buildProvider(cfg *config.Config, name string) (provider.Provider, string, error) {
	resolved, settings, err := cfg.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(resolved); err != nil {
		return nil, "", err
	}

	switch resolved {
	case config.ProviderAnthropic:
		return provider.NewAnthropicProvider(settings.APIKey, settings.Model, settings.MaxTokens), resolved, nil
	case config.ProviderOpenRouter:
		return provider.NewOpenRouterProvider(settings.APIKey, settings.Model, settings.BaseURL, settings.MaxTokens), resolved, nil
	case config.ProviderCLI:
		return provider.NewCLIProvider("claude"), resolved, nil
	default:
		return nil, "", fmt.Errorf("provider %q has no implementation", resolved)
	}
}

// newWorkspaceTools validates the workspace and builds the tool dispatcher
// for it.
func newWorkspaceTools(workspacePath string) (*workspace.Guard, *tools.Dispatcher, error) {
	guard, err := workspace.NewGuard(workspacePath)
	if err != nil {
		return nil, nil, fmt.Errorf("workspace: %w", err)
	}
	return guard, tools.NewDispatcher(guard), nil
}

// newRunLogger builds the console logger plus a file logger writing under
// $REFACTORY_HOME/logs. The file logger may be nil when the home directory
// is unavailable; runs proceed with console output only.
func newRunLogger(verbose bool) (logger.Logger, *logger.FileLogger) {
	level := "info"
	if verbose {
		level = "debug"
	}
	console := logger.NewConsoleLogger(os.Stdout, level)

	home, err := config.Home()
	if err != nil {
		console.LogWarn(fmt.Sprintf("run log disabled: %v", err))
		return console, nil
	}
	file, err := logger.NewFileLogger(filepath.Join(home, "logs"), "debug")
	if err != nil {
		console.LogWarn(fmt.Sprintf("run log disabled: %v", err))
		return console, nil
	}
	return logger.NewMultiLogger(console, file), file
}

// stdoutIsTerminal reports whether summary tables should be colorized.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
