// Package search filters workflow collections locally and through a
// remote ranking provider.
package search

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/chazuruo/tabflow/internal/ai"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// Filter returns the workflows whose name or description contains term,
// compared with Unicode case folding. Input order is kept. An empty term
// matches everything.
func Filter(term string, wfs []*workflows.Workflow) []*workflows.Workflow {
	if term == "" {
		return wfs
	}

	fold := cases.Fold()
	needle := fold.String(term)

	var results []*workflows.Workflow
	for _, wf := range wfs {
		if strings.Contains(fold.String(wf.Name), needle) ||
			strings.Contains(fold.String(wf.Description), needle) {
			results = append(results, wf)
		}
	}
	return results
}

// FilterByColor keeps workflows whose color is one of colors. Hex values
// compare case-insensitively. An empty set disables the filter.
func FilterByColor(colors []string, wfs []*workflows.Workflow) []*workflows.Workflow {
	if len(colors) == 0 {
		return wfs
	}

	want := make(map[string]bool, len(colors))
	for _, c := range colors {
		want[strings.ToUpper(c)] = true
	}

	var results []*workflows.Workflow
	for _, wf := range wfs {
		if wf.Color != "" && want[strings.ToUpper(wf.Color)] {
			results = append(results, wf)
		}
	}
	return results
}

// Remote ranks wfs against term with ranker. Ids the provider answers
// with are mapped back to workflows; unknown ids are dropped and repeated
// ids keep their first position.
func Remote(ctx context.Context, ranker ai.Ranker, term string, wfs []*workflows.Workflow) ([]*workflows.Workflow, error) {
	ids, err := ranker.Rank(ctx, ai.RankRequest{Query: term, Workflows: ai.Project(wfs)})
	if err != nil {
		if tferrors.IsRemoteSearch(err) {
			return nil, err
		}
		return nil, &tferrors.RemoteSearchError{Provider: ranker.Name(), Err: err}
	}

	byID := make(map[string]*workflows.Workflow, len(wfs))
	for _, wf := range wfs {
		byID[wf.ID] = wf
	}

	seen := make(map[string]bool, len(ids))
	results := make([]*workflows.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		results = append(results, wf)
	}
	return results, nil
}

// Search uses Remote when a ranker is configured and term is not empty,
// and falls back to Filter when the remote call fails.
func Search(ctx context.Context, ranker ai.Ranker, term string, wfs []*workflows.Workflow, logger *slog.Logger) []*workflows.Workflow {
	if ranker == nil || term == "" {
		return Filter(term, wfs)
	}

	results, err := Remote(ctx, ranker, term, wfs)
	if err != nil {
		logging.OrDiscard(logger).Debug("remote search failed, using local filter", "provider", ranker.Name(), "error", err)
		return Filter(term, wfs)
	}
	return results
}

// State is the filter state of one list view. The caller owns it.
type State struct {
	// Term is the search text.
	Term string

	// Colors restricts results to these colors (hex).
	Colors []string

	// AI enables remote ranking when Ranker is set.
	AI bool

	// Ranker is the remote ranking provider (optional).
	Ranker ai.Ranker

	// Logger receives fallback diagnostics (optional).
	Logger *slog.Logger
}

// Apply runs the text search then the color filter over wfs.
func (s *State) Apply(ctx context.Context, wfs []*workflows.Workflow) []*workflows.Workflow {
	var ranker ai.Ranker
	if s.AI {
		ranker = s.Ranker
	}
	return FilterByColor(s.Colors, Search(ctx, ranker, s.Term, wfs, s.Logger))
}

// Active reports whether any filter is set.
func (s *State) Active() bool {
	return s.Term != "" || len(s.Colors) > 0
}

// ToggleColor adds color to the filter set, or removes it if present.
func (s *State) ToggleColor(color string) {
	for i, c := range s.Colors {
		if strings.EqualFold(c, color) {
			s.Colors = append(s.Colors[:i], s.Colors[i+1:]...)
			return
		}
	}
	s.Colors = append(s.Colors, color)
}

// Clear resets the term and the color set.
func (s *State) Clear() {
	s.Term = ""
	s.Colors = nil
}
