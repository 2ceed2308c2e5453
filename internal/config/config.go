// Package config provides configuration management for tabflow.
//
// The configuration is stored in TOML format and supports validation
// and default values for all fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration struct for tabflow.
// It contains all configuration sections as embedded structs.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Runner  RunnerConfig  `toml:"runner"`
	Enrich  EnrichConfig  `toml:"enrich"`
	AI      AIConfig      `toml:"ai"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects and configures the workflow store.
type StorageConfig struct {
	// Backend is the store implementation.
	// Valid values: "file", "sqlite", "postgres", "mysql".
	Backend string `toml:"backend"`

	// Path is the data file for the file and sqlite backends.
	Path string `toml:"path"`

	// DSN is the connection string for the postgres and mysql backends.
	DSN string `toml:"dsn"`
}

// RunnerConfig contains workflow runner settings.
type RunnerConfig struct {
	// Opener selects how tabs are opened.
	// Valid values: "chromedp", "playwright", "print".
	Opener string `toml:"opener"`

	// StepDelay is the pause between two opened tabs.
	StepDelay time.Duration `toml:"step_delay"`

	// ResetDelay is how long progress stays visible after a run.
	ResetDelay time.Duration `toml:"reset_delay"`

	// DebuggerURL is the Chrome remote debugging endpoint used by chromedp.
	DebuggerURL string `toml:"debugger_url"`

	// Headless launches the playwright browser without a window.
	Headless bool `toml:"headless"`
}

// EnrichConfig controls favicon and title resolution for step URLs.
type EnrichConfig struct {
	// Enabled turns automatic resolution on.
	Enabled bool `toml:"enabled"`

	// Debounce is the quiet period after a URL edit before resolving.
	Debounce time.Duration `toml:"debounce"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `toml:"timeout"`

	// FallbackService is the favicon service used when a site declares none.
	// The host name is substituted for %s.
	FallbackService string `toml:"fallback_service"`
}

// AIConfig contains AI search settings.
type AIConfig struct {
	// Enabled enables AI search (must be explicitly enabled).
	Enabled bool `toml:"enabled"`

	// Provider is the AI provider name.
	Provider string `toml:"provider"`

	// BaseURL is the base URL of the OpenAI-compatible endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the AI model identifier.
	Model string `toml:"model"`

	// APIKeyEnv is the environment variable name containing the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// Timeout bounds a single ranking request.
	Timeout time.Duration `toml:"timeout"`

	// Redact controls the level of redaction for privacy.
	// Valid values: "none", "basic".
	Redact string `toml:"redact"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum level written.
	// Valid values: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format selects the handler.
	// Valid values: "text", "json".
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Path:    DefaultDataPath(),
		},
		Runner: RunnerConfig{
			Opener:      "chromedp",
			StepDelay:   500 * time.Millisecond,
			ResetDelay:  10 * time.Second,
			DebuggerURL: "http://127.0.0.1:9222",
		},
		Enrich: EnrichConfig{
			Enabled:         true,
			Debounce:        800 * time.Millisecond,
			Timeout:         5 * time.Second,
			FallbackService: "https://www.google.com/s2/favicons?domain=%s&sz=64",
		},
		AI: AIConfig{
			Enabled:   false,
			Provider:  "openai",
			BaseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:     "qwen-max-latest",
			APIKeyEnv: "DASHSCOPE_API_KEY",
			Timeout:   30 * time.Second,
			Redact:    "basic",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDataPath returns the default location of the workflow file.
func DefaultDataPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tabflow", "workflows.json")
	}
	return filepath.Join(homeDir, ".local", "share", "tabflow", "workflows.json")
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
func (c *Config) Validate() error {
	// Storage section
	validBackends := map[string]bool{
		"file":     true,
		"sqlite":   true,
		"postgres": true,
		"mysql":    true,
	}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("storage.backend must be one of: file, sqlite, postgres, mysql; got %q", c.Storage.Backend)
	}
	switch c.Storage.Backend {
	case "file", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path cannot be empty for backend %q", c.Storage.Backend)
		}
	case "postgres", "mysql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn cannot be empty for backend %q", c.Storage.Backend)
		}
	}

	// Runner section
	validOpeners := map[string]bool{
		"chromedp":   true,
		"playwright": true,
		"print":      true,
	}
	if !validOpeners[c.Runner.Opener] {
		return fmt.Errorf("runner.opener must be one of: chromedp, playwright, print; got %q", c.Runner.Opener)
	}
	if c.Runner.StepDelay <= 0 {
		return fmt.Errorf("runner.step_delay must be positive; got %s", c.Runner.StepDelay)
	}
	if c.Runner.ResetDelay <= 0 {
		return fmt.Errorf("runner.reset_delay must be positive; got %s", c.Runner.ResetDelay)
	}
	if c.Runner.Opener == "chromedp" && c.Runner.DebuggerURL == "" {
		return fmt.Errorf("runner.debugger_url cannot be empty when runner.opener is chromedp")
	}

	// Enrich section
	if c.Enrich.Debounce <= 0 {
		return fmt.Errorf("enrich.debounce must be positive; got %s", c.Enrich.Debounce)
	}
	if c.Enrich.Timeout <= 0 {
		return fmt.Errorf("enrich.timeout must be positive; got %s", c.Enrich.Timeout)
	}

	// AI section
	if c.AI.Enabled {
		if c.AI.Provider == "" {
			return fmt.Errorf("ai.provider cannot be empty when AI is enabled")
		}
		if c.AI.Model == "" {
			return fmt.Errorf("ai.model cannot be empty when AI is enabled")
		}
		if c.AI.Timeout <= 0 {
			return fmt.Errorf("ai.timeout must be positive; got %s", c.AI.Timeout)
		}
	}
	validRedact := map[string]bool{
		"none":  true,
		"basic": true,
	}
	if !validRedact[c.AI.Redact] {
		return fmt.Errorf("ai.redact must be one of: none, basic; got %q", c.AI.Redact)
	}

	// Log section
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: text, json; got %q", c.Log.Format)
	}

	return nil
}
