package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Home returns the refactory home directory, creating it if needed.
// Priority order:
//  1. REFACTORY_HOME environment variable (if set)
//  2. ~/.refactory
func Home() (string, error) {
	dir := os.Getenv("REFACTORY_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".refactory")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create refactory home: %w", err)
	}
	return dir, nil
}

// DefaultConfigPath returns the path of the provider config file inside the
// refactory home.
func DefaultConfigPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// DefaultHistoryDBPath returns the path of the run history database inside
// the refactory home.
func DefaultHistoryDBPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
