// Package config provides configuration management for tabflow.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
)

// DefaultConfigPath returns ~/.config/tabflow/config.toml, whether or not it exists.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "tabflow", "config.toml")
}

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
//
// Search order:
// 1. $XDG_CONFIG_HOME/tabflow/config.toml
// 2. ~/.config/tabflow/config.toml
func DetectConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configPath := filepath.Join(xdg, "tabflow", "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	configPath := DefaultConfigPath()
	if configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &tferrors.ConfigError{Path: path, Err: tferrors.ErrNotFound}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tferrors.ConfigError{Path: path, Err: fmt.Errorf("failed to read: %w", err)}
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &tferrors.ConfigError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &tferrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %s", tferrors.ErrInvalid, err)}
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a config with all default values.
// If a config file is found but fails to load/validate, returns an error.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &tferrors.ConfigError{Err: fmt.Errorf("%w: %s", tferrors.ErrInvalid, err)}
		}
		return cfg, nil
	}

	return Load(configPath)
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: TABFLOW_<SECTION>_<FIELD>
//
// Examples:
// - TABFLOW_STORAGE_BACKEND overrides [storage].backend
// - TABFLOW_RUNNER_STEP_DELAY overrides [runner].step_delay ("750ms")
// - TABFLOW_AI_ENABLED overrides [ai].enabled
//
// Boolean fields: use "true"/"false" strings
// Duration fields: Go duration strings
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	applyDuration := func(key string, target *time.Duration) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*target = d
			}
		}
	}

	// Storage section
	applyString("TABFLOW_STORAGE_BACKEND", &c.Storage.Backend)
	applyString("TABFLOW_STORAGE_PATH", &c.Storage.Path)
	applyString("TABFLOW_STORAGE_DSN", &c.Storage.DSN)

	// Runner section
	applyString("TABFLOW_RUNNER_OPENER", &c.Runner.Opener)
	applyDuration("TABFLOW_RUNNER_STEP_DELAY", &c.Runner.StepDelay)
	applyDuration("TABFLOW_RUNNER_RESET_DELAY", &c.Runner.ResetDelay)
	applyString("TABFLOW_RUNNER_DEBUGGER_URL", &c.Runner.DebuggerURL)
	applyBool("TABFLOW_RUNNER_HEADLESS", &c.Runner.Headless)

	// Enrich section
	applyBool("TABFLOW_ENRICH_ENABLED", &c.Enrich.Enabled)
	applyDuration("TABFLOW_ENRICH_DEBOUNCE", &c.Enrich.Debounce)
	applyDuration("TABFLOW_ENRICH_TIMEOUT", &c.Enrich.Timeout)
	applyString("TABFLOW_ENRICH_FALLBACK_SERVICE", &c.Enrich.FallbackService)

	// AI section
	applyBool("TABFLOW_AI_ENABLED", &c.AI.Enabled)
	applyString("TABFLOW_AI_PROVIDER", &c.AI.Provider)
	applyString("TABFLOW_AI_BASE_URL", &c.AI.BaseURL)
	applyString("TABFLOW_AI_MODEL", &c.AI.Model)
	applyString("TABFLOW_AI_API_KEY_ENV", &c.AI.APIKeyEnv)
	applyDuration("TABFLOW_AI_TIMEOUT", &c.AI.Timeout)
	applyString("TABFLOW_AI_REDACT", &c.AI.Redact)

	// Log section
	applyString("TABFLOW_LOG_LEVEL", &c.Log.Level)
	applyString("TABFLOW_LOG_FORMAT", &c.Log.Format)
}

// expandPath expands ~ to the home directory in the storage path.
func expandPath(c *Config) {
	c.Storage.Path = ExpandHome(c.Storage.Path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if strings.HasPrefix(p, "~/") || p == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(strings.TrimPrefix(p, "~"), "/"))
		}
	}
	return p
}
