// Package ai provides the remote ranking providers used by AI search.
package ai

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/chazuruo/tabflow/internal/config"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// Ranker orders workflows by relevance to a free-text query.
type Ranker interface {
	// Name returns the provider name.
	Name() string

	// Rank returns workflow ids ordered from most to least relevant.
	// The ids are whatever the provider answered; callers must drop
	// unknown ids and duplicates.
	Rank(ctx context.Context, req RankRequest) ([]string, error)
}

// RankRequest contains parameters for a ranking call.
type RankRequest struct {
	// Query is the user's search text.
	Query string

	// Workflows is the projection of the collection sent to the provider.
	Workflows []Candidate
}

// Candidate is the searchable projection of one workflow.
type Candidate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Steps       []CandidateStep `json:"steps"`
}

// CandidateStep is the searchable projection of one step.
type CandidateStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Memo        string `json:"memo,omitempty"`
}

// Project builds the ranking projection of wfs. URLs and favicons are
// never sent.
func Project(wfs []*workflows.Workflow) []Candidate {
	out := make([]Candidate, 0, len(wfs))
	for _, wf := range wfs {
		c := Candidate{
			ID:          wf.ID,
			Name:        wf.Name,
			Description: wf.Description,
			Steps:       make([]CandidateStep, 0, len(wf.Steps)),
		}
		for _, s := range wf.Steps {
			c.Steps = append(c.Steps, CandidateStep{Title: s.Title, Description: s.Description, Memo: s.Memo})
		}
		out = append(out, c)
	}
	return out
}

// Config contains provider configuration.
type Config struct {
	// Provider is the provider name (openai).
	Provider string

	// APIKey is the API key for the provider.
	APIKey string

	// BaseURL is the base URL of the OpenAI-compatible endpoint.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout bounds a single ranking call.
	Timeout time.Duration

	// Redact masks secrets in the projection before it leaves the machine.
	Redact bool
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	d := config.DefaultConfig().AI
	return &Config{
		Provider: d.Provider,
		BaseURL:  d.BaseURL,
		Model:    d.Model,
		Timeout:  d.Timeout,
		Redact:   d.Redact == "basic",
	}
}

// ConfigFromSettings builds a provider configuration from the [ai] section,
// reading the API key from the configured environment variable.
func ConfigFromSettings(s config.AIConfig) *Config {
	return &Config{
		Provider: s.Provider,
		APIKey:   os.Getenv(s.APIKeyEnv),
		BaseURL:  s.BaseURL,
		Model:    s.Model,
		Timeout:  s.Timeout,
		Redact:   s.Redact == "basic",
	}
}

// Factory creates a ranker from configuration.
type Factory func(cfg *Config) (Ranker, error)

var providers = make(map[string]Factory)

// RegisterProvider registers a provider factory.
func RegisterProvider(name string, factory Factory) {
	providers[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRanker creates a ranker from configuration.
func NewRanker(cfg *Config) (Ranker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	return factory(cfg)
}

var redactPatterns = []*regexp.Regexp{
	// API keys
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)["']?\s*[:=]\s*["']?[a-zA-Z0-9_\-]{20,}["']?`),
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)pk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Passwords
	regexp.MustCompile(`(?i)(password|passwd|pass)["']?\s*[:=]\s*["']?[^\s"']+["']?`),
	// Tokens
	regexp.MustCompile(`(?i)(token|access[_-]?token|refresh[_-]?token)["']?\s*[:=]\s*["']?[a-zA-Z0-9_\-\.~=]{20,}["']?`),
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.~=]+`),
	// Email
	regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
}

// Redact masks credentials and email addresses in s. Memos are free text
// and regularly hold login hints.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, "<REDACTED>")
	}
	return s
}

// RedactCandidates returns a copy of cs with every text field redacted.
func RedactCandidates(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	for i, c := range cs {
		rc := Candidate{
			ID:          c.ID,
			Name:        Redact(c.Name),
			Description: Redact(c.Description),
			Steps:       make([]CandidateStep, len(c.Steps)),
		}
		for j, s := range c.Steps {
			rc.Steps[j] = CandidateStep{Title: Redact(s.Title), Description: Redact(s.Description), Memo: Redact(s.Memo)}
		}
		out[i] = rc
	}
	return out
}
