package runner

import (
	"net/url"
	"strings"
)

// blockedSchemes are never opened by the runner: they execute code or
// embed content instead of navigating to a site.
var blockedSchemes = []struct {
	scheme string
	name   string
	risk   string
}{
	{
		scheme: "javascript",
		name:   "Script URL",
		risk:   "Runs script in the context of the current page",
	},
	{
		scheme: "vbscript",
		name:   "Script URL",
		risk:   "Runs script in the context of the current page",
	},
	{
		scheme: "data",
		name:   "Inline document",
		risk:   "Renders attacker-controllable content without an origin",
	},
}

// DangerInfo describes why a step URL is refused.
type DangerInfo struct {
	URL  string
	Name string
	Risk string
}

// CheckURL reports whether a step URL must not be opened.
// Returns the danger info if blocked, nil otherwise.
func CheckURL(rawURL string) *DangerInfo {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil
	}

	scheme := ""
	if u, err := url.Parse(trimmed); err == nil {
		scheme = strings.ToLower(u.Scheme)
	} else if i := strings.IndexByte(trimmed, ':'); i > 0 {
		scheme = strings.ToLower(trimmed[:i])
	}

	for _, b := range blockedSchemes {
		if scheme == b.scheme {
			return &DangerInfo{URL: rawURL, Name: b.name, Risk: b.risk}
		}
	}
	return nil
}

// Error implements error so a refused step can carry it as its failure reason.
func (d *DangerInfo) Error() string {
	return d.Name + ": " + d.Risk
}
