package transfer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// slugRegex matches characters that should be replaced with hyphens
	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)
	// multiHyphenRegex matches multiple consecutive hyphens
	multiHyphenRegex = regexp.MustCompile(`-+`)
)

// Slugify converts a workflow name into a file-name friendly slug.
//
// Examples:
//
//	"Morning Standup" -> "morning-standup"
//	"Deploy: prod #2!" -> "deploy-prod-2"
func Slugify(name string) string {
	if name == "" {
		return ""
	}

	result := cases.Lower(language.Und).String(strings.TrimSpace(name))
	result = slugRegex.ReplaceAllString(result, "-")
	result = multiHyphenRegex.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	// Max 50 chars, cut at a word boundary when possible.
	if len(result) > 50 {
		cutoff := 50
		if idx := strings.LastIndex(result[:cutoff], "-"); idx > 0 {
			cutoff = idx
		}
		result = result[:cutoff]
	}

	return result
}
