// Package openai provides an OpenAI-compatible ranking provider.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/chazuruo/tabflow/internal/ai"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
)

const systemPrompt = `You are a search assistant. Find the workflows most relevant to the user's search text.
Workflow data: %s
Work out what the user is looking for and answer with the ids of the relevant workflows, most relevant first.
Answer with a JSON array of ids only and nothing else, for example: ["id1", "id2", "id3"]`

// Provider is an OpenAI-compatible ranking provider.
type Provider struct {
	config *ai.Config
	client openaisdk.Client
}

// Option configures a Provider.
type Option func(*[]option.RequestOption)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithHTTPClient(c))
	}
}

// NewProvider creates a new OpenAI-compatible provider. Calls are made
// exactly once: the client never retries.
func NewProvider(cfg *ai.Config, opts ...Option) (*Provider, error) {
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is not set", cfg.Provider)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	for _, opt := range opts {
		opt(&reqOpts)
	}

	return &Provider{
		config: cfg,
		client: openaisdk.NewClient(reqOpts...),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	if p.config.BaseURL != "" && !strings.Contains(p.config.BaseURL, "api.openai.com") {
		return "openai-compatible"
	}
	return "openai"
}

// Rank asks the model for the ids of the workflows relevant to req.Query.
func (p *Provider) Rank(ctx context.Context, req ai.RankRequest) ([]string, error) {
	candidates := req.Workflows
	query := req.Query
	if p.config.Redact {
		candidates = ai.RedactCandidates(candidates)
		query = ai.Redact(query)
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return nil, p.fail(fmt.Errorf("failed to encode workflows: %w", err))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(p.config.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(fmt.Sprintf(systemPrompt, data)),
			openaisdk.UserMessage(query),
		},
	})
	if err != nil {
		return nil, p.fail(err)
	}
	if len(resp.Choices) == 0 {
		return nil, p.fail(fmt.Errorf("no choices in response"))
	}

	ids, err := ParseIDs(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, p.fail(err)
	}
	return ids, nil
}

func (p *Provider) fail(err error) error {
	return &tferrors.RemoteSearchError{Provider: p.Name(), Err: err}
}

// ParseIDs decodes a model answer as a JSON array of strings. A single
// fenced code block around the array is accepted.
func ParseIDs(content string) ([]string, error) {
	body := strings.TrimSpace(content)
	if block := extractCodeBlock(body); block != "" {
		body = block
	}

	var ids []string
	if err := json.Unmarshal([]byte(body), &ids); err != nil {
		return nil, fmt.Errorf("answer is not a JSON array of ids: %w", err)
	}
	return ids, nil
}

// extractCodeBlock returns the contents of the first ``` block in s.
func extractCodeBlock(s string) string {
	inBlock := false
	var block strings.Builder

	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				return strings.TrimSpace(block.String())
			}
			inBlock = true
			continue
		}
		if inBlock {
			block.WriteString(line)
			block.WriteString("\n")
		}
	}
	return ""
}

func init() {
	ai.RegisterProvider("openai", func(cfg *ai.Config) (ai.Ranker, error) {
		return NewProvider(cfg)
	})
}
