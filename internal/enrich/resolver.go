// Package enrich resolves a display title and favicon for a step URL.
//
// Resolution is best effort: Resolve never returns an error, it degrades to
// a declared icon, a well-known icon path, a third-party favicon service and
// finally the host name as title.
package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
)

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 5 * time.Second

	// DefaultFallbackService is used when a site exposes no icon. %s is the host.
	DefaultFallbackService = "https://www.google.com/s2/favicons?domain=%s&sz=64"

	maxPageBytes = 1 << 20
)

// wellKnownIcons are tried in order when the page declares no icon.
var wellKnownIcons = []string{"/favicon.ico", "/favicon.png", "/apple-touch-icon.png"}

// SiteInfo is what a URL resolves to.
type SiteInfo struct {
	Title   string
	Favicon string
}

// Resolver fetches pages and checks icon locations.
type Resolver struct {
	client   *http.Client
	timeout  time.Duration
	fallback string
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithFallbackService sets the favicon service format string.
// An empty string disables the service fallback.
func WithFallbackService(format string) Option {
	return func(r *Resolver) { r.fallback = format }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:   http.DefaultClient,
		timeout:  DefaultTimeout,
		fallback: DefaultFallbackService,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDiscard(r.logger)
	return r
}

// Resolve returns the best title and favicon it can find for rawURL.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) SiteInfo {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return SiteInfo{Title: rawURL}
	}

	info := SiteInfo{}
	page, base, err := r.fetchPage(ctx, u)
	if err != nil {
		r.logger.Debug("page fetch failed", "url", u.String(), "error", err)
	} else {
		info.Title = page.Title
		if page.Icon != "" {
			if icon, err := base.Parse(page.Icon); err == nil {
				info.Favicon = icon.String()
			}
		}
	}

	if info.Favicon == "" {
		info.Favicon = r.findWellKnownIcon(ctx, u)
	}
	if info.Favicon == "" && r.fallback != "" {
		info.Favicon = fmt.Sprintf(r.fallback, url.QueryEscape(u.Hostname()))
	}
	if info.Title == "" {
		info.Title = u.Hostname()
	}
	return info
}

// fetchPage downloads u and extracts its title and declared icon. Every
// failure wraps ErrEnrichment.
func (r *Resolver) fetchPage(ctx context.Context, u *url.URL) (pageInfo, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return pageInfo{}, nil, fetchError(u, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return pageInfo{}, nil, fetchError(u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pageInfo{}, nil, fetchError(u, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	page, err := parsePage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return pageInfo{}, nil, fetchError(u, err)
	}

	// Relative icon hrefs resolve against the final URL after redirects.
	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return page, base, nil
}

func fetchError(u *url.URL, err error) error {
	return tferrors.Wrap(fmt.Errorf("%w: %w", tferrors.ErrEnrichment, err), "fetch "+u.Host)
}

func (r *Resolver) findWellKnownIcon(ctx context.Context, u *url.URL) string {
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}
	for _, p := range wellKnownIcons {
		candidate := origin.JoinPath(p).String()
		if r.exists(ctx, candidate) {
			return candidate
		}
	}
	return ""
}

func (r *Resolver) exists(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("icon check failed", "url", target, "error", err)
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
