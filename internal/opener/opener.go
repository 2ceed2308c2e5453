// Package opener provides the browser backends the runner opens tabs with.
package opener

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/chazuruo/tabflow/internal/config"
	"github.com/chazuruo/tabflow/internal/runner"
)

// Browser is a runner.Opener holding a browser connection that must be
// released when the command finishes.
type Browser interface {
	runner.Opener
	io.Closer
}

// Names lists the supported opener names.
var Names = []string{"chromedp", "playwright", "print"}

// New connects the opener selected by cfg.Opener. Output of the print
// opener goes to w.
func New(ctx context.Context, cfg config.RunnerConfig, w io.Writer, logger *slog.Logger) (Browser, error) {
	switch cfg.Opener {
	case "chromedp":
		return NewChromeDP(ctx, cfg.DebuggerURL, logger)
	case "playwright":
		return NewPlaywright(ctx, cfg.Headless, logger)
	case "print":
		return NewPrint(w), nil
	default:
		return nil, fmt.Errorf("unknown opener: %s", cfg.Opener)
	}
}
