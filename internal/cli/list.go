// Package cli provides Cobra command definitions for tabflow.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/search"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// OutputFormat defines the output format for the list command.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatPlain OutputFormat = "plain"
)

// ListOptions contains the options for the list command.
type ListOptions struct {
	Colors []string
	Query  string
	AI     bool
	Format string
}

// NewListCommand creates the list command for listing workflows.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows with optional filtering",
		Long: `List all workflows in storage order.

Workflows can be filtered by:
- --color: Only show workflows tagged with this color (repeatable, name or hex)
- --query: Case-insensitive match against name and description
- --ai: Rank --query results with the configured AI provider
- --format: Output format (table, json, plain)

Examples:
  tabflow list                       # List all workflows in table format
  tabflow list --color red --color blue
  tabflow list --query deploy --ai   # AI-ranked search, local match on failure
  tabflow list --format json         # Full workflows as a JSON array`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Colors, "color", nil, "filter by color name or hex (repeatable)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "filter by name or description")
	cmd.Flags().BoolVar(&opts.AI, "ai", false, "rank --query results with the AI provider")
	cmd.Flags().StringVar(&opts.Format, "format", "table", "output format (table, json, plain)")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	ctx := cmd.Context()

	format := OutputFormat(opts.Format)
	switch format {
	case FormatTable, FormatJSON, FormatPlain:
	default:
		return fmt.Errorf("invalid format: %s (must be table, json, or plain)", opts.Format)
	}

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
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	state := &search.State{
		Term:   opts.Query,
		Colors: colors,
		AI:     opts.AI,
		Logger: env.logger,
	}
	if opts.AI && opts.Query != "" {
		state.Ranker = env.ranker(true)
	}
	wfs := state.Apply(ctx, all)

	out := cmd.OutOrStdout()
	switch format {
	case FormatJSON:
		return printJSON(out, wfs)
	case FormatPlain:
		printPlain(out, wfs)
	default:
		printTable(out, wfs)
	}
	return nil
}

// resolveColors maps color names or hex values to palette hex values.
func resolveColors(in []string) ([]string, error) {
	var out []string
	for _, c := range in {
		hex, err := workflows.ResolveColor(c)
		if err != nil {
			return nil, fmt.Errorf("%w (choose from %s)", err, paletteNames())
		}
		if hex != "" {
			out = append(out, hex)
		}
	}
	return out, nil
}

func paletteNames() string {
	names := make([]string, 0, len(workflows.Palette))
	for _, c := range workflows.Palette {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// colorSwatch renders a colored dot followed by the color name.
func colorSwatch(hex string) string {
	if hex == "" {
		return "-"
	}
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
	return dot + " " + workflows.ColorName(hex)
}

// printTable prints workflows in table format.
func printTable(w io.Writer, wfs []*workflows.Workflow) {
	if len(wfs) == 0 {
		fmt.Fprintln(w, "No workflows found.")
		return
	}

	headerFmt := lipgloss.NewStyle().Bold(true).Underline(true).Render
	tbl := table.New("ID", "NAME", "COLOR", "STEPS", "UPDATED").
		WithWriter(w).
		WithHeaderFormatter(func(format string, vals ...interface{}) string {
			return headerFmt(fmt.Sprintf(format, vals...))
		})

	for _, wf := range wfs {
		tbl.AddRow(wf.ID, wf.Name, colorSwatch(wf.Color), len(wf.Steps), formatTimeAgo(wf.UpdatedAt))
	}
	tbl.Print()

	fmt.Fprintf(w, "\nTotal: %d workflow(s)\n", len(wfs))
}

// printJSON prints the full workflows as a JSON array.
func printJSON(w io.Writer, wfs []*workflows.Workflow) error {
	data, err := workflows.MarshalWorkflows(wfs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printPlain prints workflows in plain text format.
func printPlain(w io.Writer, wfs []*workflows.Workflow) {
	if len(wfs) == 0 {
		fmt.Fprintln(w, "No workflows found.")
		return
	}

	for i, wf := range wfs {
		fmt.Fprintf(w, "%d. %s\n", i+1, wf.Name)
		fmt.Fprintf(w, "   ID: %s\n", wf.ID)
		if wf.Description != "" {
			fmt.Fprintf(w, "   Description: %s\n", wf.Description)
		}
		if wf.Color != "" {
			fmt.Fprintf(w, "   Color: %s\n", workflows.ColorName(wf.Color))
		}
		fmt.Fprintf(w, "   Steps: %d\n", len(wf.Steps))
		if !wf.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "   Updated: %s\n", wf.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d workflow(s)\n", len(wfs))
}
