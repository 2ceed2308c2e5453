package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/ai"
	// Register the OpenAI-compatible ranking provider.
	_ "github.com/chazuruo/tabflow/internal/ai/openai"
	"github.com/chazuruo/tabflow/internal/config"
	"github.com/chazuruo/tabflow/internal/editor"
	"github.com/chazuruo/tabflow/internal/enrich"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/workflows"
	"github.com/chazuruo/tabflow/internal/workflows/store"
)

// appEnv bundles what most commands need: config, logger and an open store.
type appEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
}

// loadConfig loads --config if given, otherwise the detected config or defaults.
func loadConfig() (*config.Config, error) {
	if path := globalConfigPath(); path != "" {
		return config.Load(config.ExpandHome(path))
	}
	return config.LoadWithDefaults()
}

// newLogger builds the command logger. Logs go to stderr.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logCfg := cfg.Log
	if lvl := globalLogLevel(); lvl != "" {
		logCfg.Level = lvl
	}
	return logging.New(logCfg, w)
}

// openEnv loads config, builds the logger and opens the configured store.
func openEnv(cmd *cobra.Command) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &appEnv{cfg: cfg, logger: logger, store: st}, nil
}

func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close store", "error", err)
	}
}

// sessionOptions returns the editor options derived from config.
func (e *appEnv) sessionOptions() []editor.Option {
	opts := []editor.Option{editor.WithLogger(e.logger)}
	if e.cfg.Enrich.Enabled {
		opts = append(opts,
			editor.WithResolver(enrich.NewResolver(
				enrich.WithTimeout(e.cfg.Enrich.Timeout),
				enrich.WithFallbackService(e.cfg.Enrich.FallbackService),
				enrich.WithLogger(e.logger),
			)),
			editor.WithDebounce(e.cfg.Enrich.Debounce),
		)
	}
	return opts
}

// ranker builds the AI ranker, or returns nil with a warning when AI
// search is not usable.
func (e *appEnv) ranker(force bool) ai.Ranker {
	if !e.cfg.AI.Enabled && !force {
		return nil
	}
	r, err := ai.NewRanker(ai.ConfigFromSettings(e.cfg.AI))
	if err != nil {
		e.logger.Warn("AI search unavailable, using local search", "error", err)
		return nil
	}
	return r
}

// findWorkflow resolves ref as a workflow id, then as a unique name.
func findWorkflow(ctx context.Context, st store.Store, ref string) (*workflows.Workflow, error) {
	wf, err := st.Get(ctx, ref)
	if err == nil {
		return wf, nil
	}
	if !tferrors.IsNotFound(err) {
		return nil, err
	}

	all, err := st.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*workflows.Workflow
	for _, wf := range all {
		if strings.EqualFold(wf.Name, ref) || strings.HasPrefix(wf.ID, ref) {
			matches = append(matches, wf)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &tferrors.WorkflowError{Op: "find", Err: tferrors.ErrNotFound, ID: ref}
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d workflows; use the full id", ref, len(matches))
	}
}

// parsePair splits "key=value". Only the first '=' separates.
func parsePair(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: expected key=value, got %q", tferrors.ErrInvalid, s)
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), nil
}

// formatTimeAgo formats a time as a relative "time ago" string.
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	if diff < 30*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	if diff < 365*24*time.Hour {
		return fmt.Sprintf("%dmo ago", int(diff.Hours()/24/30))
	}
	return fmt.Sprintf("%dy ago", int(diff.Hours()/24/365))
}
