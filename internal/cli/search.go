package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/search"
)

// SearchOptions contains the options for the search command.
type SearchOptions struct {
	AI     bool
	JSON   bool
	Colors []string
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search workflows",
		Long: `Search workflows by name and description.

With --ai (or ai.enabled in the config) the query is sent to the configured
AI provider together with workflow names, descriptions and step titles, and
results come back in relevance order. URLs are never sent. If the AI call
fails the local match is shown instead.

Examples:
  tabflow search deploy
  tabflow search "where do I check the build" --ai
  tabflow search report --color green --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&opts.AI, "ai", false, "rank results with the AI provider")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output results as JSON")
	cmd.Flags().StringArrayVar(&opts.Colors, "color", nil, "filter by color name or hex (repeatable)")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *SearchOptions, query string) error {
	ctx := cmd.Context()

	colors, err := resolveColors(opts.Colors)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	all, err := env.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	state := &search.State{
		Term:   query,
		Colors: colors,
		AI:     opts.AI || env.cfg.AI.Enabled,
		Logger: env.logger,
	}
	if state.AI {
		state.Ranker = env.ranker(opts.AI)
	}
	results := state.Apply(ctx, all)

	out := cmd.OutOrStdout()
	if opts.JSON {
		return printJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No workflows match %q.\n", query)
		return nil
	}
	for i, wf := range results {
		line := fmt.Sprintf("%d. %s [%s]", i+1, wf.Name, wf.ID)
		if wf.Color != "" {
			line += " " + colorSwatch(wf.Color)
		}
		fmt.Fprintln(out, line)
		if wf.Description != "" {
			fmt.Fprintf(out, "   %s\n", wf.Description)
		}
	}
	return nil
}
