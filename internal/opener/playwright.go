package opener

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/runner"
)

// Playwright launches its own Chromium and opens one page per tab. The
// browser is closed with the opener, so it suits demos and headless checks
// more than daily use.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	logger  *slog.Logger

	mu    sync.Mutex
	pages map[runner.TabID]playwright.Page
	next  int
}

// NewPlaywright installs the Chromium driver if needed and launches it.
func NewPlaywright(ctx context.Context, headless bool, logger *slog.Logger) (*Playwright, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Keep driver output away from the progress view.
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	return &Playwright{
		pw:      pw,
		browser: browser,
		context: bctx,
		logger:  logging.OrDiscard(logger),
		pages:   make(map[runner.TabID]playwright.Page),
	}, nil
}

// Open creates a page and starts navigating it to url. It returns once
// the navigation is committed, not when the page finished loading.
func (p *Playwright) Open(ctx context.Context, url string) (runner.TabID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := p.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateCommit}); err != nil {
		_ = page.Close()
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	id := runner.TabID("page-" + strconv.Itoa(p.next))
	p.pages[id] = page
	p.logger.Debug("opened page", "tab", id, "url", url)
	return id, nil
}

// Focus brings the page to the front.
func (p *Playwright) Focus(ctx context.Context, tab runner.TabID) error {
	p.mu.Lock()
	page, ok := p.pages[tab]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown tab %s", tab)
	}
	return page.BringToFront()
}

// Close shuts the browser and the driver down.
func (p *Playwright) Close() error {
	if err := p.browser.Close(); err != nil {
		p.logger.Warn("failed to close browser", "error", err)
	}
	return p.pw.Stop()
}
