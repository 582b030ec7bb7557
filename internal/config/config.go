// Package config holds provider configuration for the refactory CLI. The
// config lives as YAML in the refactory home and carries API keys, so it is
// written with 0600 permissions.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Known provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderCLI        = "claude-cli"
)

// Environment variables consulted when a provider has no stored API key.
var apiKeyEnvVars = map[string]string{
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// ProviderSettings configures one LLM provider.
type ProviderSettings struct {
	APIKey    string `yaml:"api_key,omitempty"`
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// Config is the persisted provider configuration.
type Config struct {
	CurrentProvider string                      `yaml:"current_provider"`
	Providers       map[string]ProviderSettings `yaml:"providers"`
}

// DefaultConfig returns a Config with the built-in provider defaults.
func DefaultConfig() *Config {
	return &Config{
		CurrentProvider: ProviderAnthropic,
		Providers: map[string]ProviderSettings{
			ProviderAnthropic: {
				Model: "claude-3-sonnet-20240229",
			},
			ProviderOpenRouter: {
				Model:   "anthropic/claude-3-sonnet",
				BaseURL: "https://openrouter.ai/api/v1",
			},
			ProviderCLI: {},
		},
	}
}

// Load reads the config file at path, merging it over the defaults. A missing
// file is not an error and yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if loaded.CurrentProvider != "" {
		cfg.CurrentProvider = loaded.CurrentProvider
	}
	for name, settings := range loaded.Providers {
		merged := cfg.Providers[name]
		if settings.APIKey != "" {
			merged.APIKey = settings.APIKey
		}
		if settings.Model != "" {
			merged.Model = settings.Model
		}
		if settings.BaseURL != "" {
			merged.BaseURL = settings.BaseURL
		}
		if settings.MaxTokens != 0 {
			merged.MaxTokens = settings.MaxTokens
		}
		cfg.Providers[name] = merged
	}
	return cfg, nil
}

// Save writes the config as YAML with owner-only permissions.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Use switches the current provider. The provider must be known.
func (c *Config) Use(name string) error {
	if _, ok := c.Providers[name]; !ok {
		return fmt.Errorf("unknown provider %q (known: %v)", name, c.ProviderNames())
	}
	c.CurrentProvider = name
	return nil
}

// Set stores settings for a provider, merging over anything already stored.
func (c *Config) Set(name string, settings ProviderSettings) {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderSettings)
	}
	merged := c.Providers[name]
	if settings.APIKey != "" {
		merged.APIKey = settings.APIKey
	}
	if settings.Model != "" {
		merged.Model = settings.Model
	}
	if settings.BaseURL != "" {
		merged.BaseURL = settings.BaseURL
	}
	if settings.MaxTokens != 0 {
		merged.MaxTokens = settings.MaxTokens
	}
	c.Providers[name] = merged
}

// Resolve returns the effective settings for a provider. An empty name means
// the current provider. Missing API keys fall back to the provider's
// environment variable.
func (c *Config) Resolve(name string) (string, ProviderSettings, error) {
	if name == "" {
		name = c.CurrentProvider
	}
	settings, ok := c.Providers[name]
	if !ok {
		return "", ProviderSettings{}, fmt.Errorf("unknown provider %q (known: %v)", name, c.ProviderNames())
	}

	if settings.APIKey == "" {
		if envVar, ok := apiKeyEnvVars[name]; ok {
			settings.APIKey = os.Getenv(envVar)
		}
	}
	return name, settings, nil
}

// Validate checks that the provider is usable: HTTP providers need an API key
// from config or environment.
func (c *Config) Validate(name string) error {
	resolved, settings, err := c.Resolve(name)
	if err != nil {
		return err
	}

	if envVar, ok := apiKeyEnvVars[resolved]; ok && settings.APIKey == "" {
		return fmt.Errorf("provider %s has no API key: run 'refactory setup %s --api-key ...' or set %s", resolved, resolved, envVar)
	}
	return nil
}

// ProviderNames returns the configured provider names, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
