package opener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/runner"
)

// ChromeDP opens tabs in an already running Chrome through its DevTools
// endpoint (chrome --remote-debugging-port=9222). Tabs are created in the
// background and stay open when tabflow exits.
type ChromeDP struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	logger     *slog.Logger
}

// NewChromeDP attaches to the browser at debuggerURL without creating a tab.
func NewChromeDP(ctx context.Context, debuggerURL string, logger *slog.Logger) (*ChromeDP, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), debuggerURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	connected := make(chan error, 1)
	go func() {
		// Targets allocates the browser connection but does not open a page.
		_, err := chromedp.Targets(browserCtx)
		connected <- err
	}()

	select {
	case err := <-connected:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to browser at %s: %w", debuggerURL, err)
		}
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	return &ChromeDP{
		browserCtx: browserCtx,
		cancel:     cancel,
		logger:     logging.OrDiscard(logger),
	}, nil
}

func (c *ChromeDP) executor(ctx context.Context) (context.Context, error) {
	cc := chromedp.FromContext(c.browserCtx)
	if cc == nil || cc.Browser == nil {
		return nil, chromedp.ErrInvalidContext
	}
	return cdp.WithExecutor(ctx, cc.Browser), nil
}

// Open creates a background tab navigated to url.
func (c *ChromeDP) Open(ctx context.Context, url string) (runner.TabID, error) {
	ectx, err := c.executor(ctx)
	if err != nil {
		return "", err
	}

	id, err := target.CreateTarget(url).WithBackground(true).Do(ectx)
	if err != nil {
		return "", fmt.Errorf("create target: %w", err)
	}
	c.logger.Debug("created target", "target", id, "url", url)
	return runner.TabID(id), nil
}

// Focus activates the tab.
func (c *ChromeDP) Focus(ctx context.Context, tab runner.TabID) error {
	ectx, err := c.executor(ctx)
	if err != nil {
		return err
	}
	if err := target.ActivateTarget(target.ID(tab)).Do(ectx); err != nil {
		return fmt.Errorf("activate target: %w", err)
	}
	return nil
}

// Close drops the DevTools connection. The browser and its tabs stay up.
func (c *ChromeDP) Close() error {
	c.cancel()
	return nil
}
