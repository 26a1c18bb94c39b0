// Package config provides repository configuration management,
// including reading and writing sapling configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultTrunk is the trunk branch assumed when none is configured.
const DefaultTrunk = "main"

// RepoConfig represents the repository configuration
type RepoConfig struct {
	Trunk *string `json:"trunk,omitempty"`

	// Export limits. Zero or absent means unlimited.
	MaxCommits *int64 `json:"maxCommits,omitempty"`
	MaxFiles   *int64 `json:"maxFiles,omitempty"`
	MaxBytes   *int64 `json:"maxBytes,omitempty"`
}

// ExportLimits holds the effective resource thresholds for an export session.
// A zero value means the corresponding limit is not enforced.
type ExportLimits struct {
	MaxCommits int64
	MaxFiles   int64
	MaxBytes   int64
}

// GetRepoConfig reads the repository configuration
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	configPath := filepath.Join(repoRoot, ".git", ".sapling_config")

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config doesn't exist - return default
		return &RepoConfig{}, nil
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}

	return &config, nil
}

// WriteRepoConfig writes the repository configuration
func WriteRepoConfig(repoRoot string, config *RepoConfig) error {
	configPath := filepath.Join(repoRoot, ".git", ".sapling_config")

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repo config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write repo config: %w", err)
	}

	return nil
}

// GetTrunk returns the trunk branch name, or "main" as default
func GetTrunk(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}

	if config.Trunk != nil && *config.Trunk != "" {
		return *config.Trunk, nil
	}

	return DefaultTrunk, nil
}

// GetExportLimits returns the effective export limits for the repository.
// Precedence, lowest to highest: config file, then SAPLING_MAX_COMMITS,
// SAPLING_MAX_FILES and SAPLING_MAX_BYTES environment variables.
func GetExportLimits(repoRoot string) (ExportLimits, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return ExportLimits{}, err
	}

	limits := ExportLimits{}
	if config.MaxCommits != nil {
		limits.MaxCommits = *config.MaxCommits
	}
	if config.MaxFiles != nil {
		limits.MaxFiles = *config.MaxFiles
	}
	if config.MaxBytes != nil {
		limits.MaxBytes = *config.MaxBytes
	}

	limits.MaxCommits = envLimit("SAPLING_MAX_COMMITS", limits.MaxCommits)
	limits.MaxFiles = envLimit("SAPLING_MAX_FILES", limits.MaxFiles)
	limits.MaxBytes = envLimit("SAPLING_MAX_BYTES", limits.MaxBytes)

	return limits, nil
}

// envLimit returns the numeric value of the named environment variable,
// or fallback if the variable is unset or not a non-negative integer.
func envLimit(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
