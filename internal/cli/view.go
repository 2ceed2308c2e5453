package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/workflows"
)

// ViewOptions contains the options for the view command.
type ViewOptions struct {
	JSON bool
}

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view <workflow>",
		Short: "View workflow details",
		Long: `Display a workflow with its steps, URLs and memos.

The workflow can be given as its id, an id prefix, or its exact name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the workflow as JSON")

	return cmd
}

func runView(cmd *cobra.Command, opts *ViewOptions, ref string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	wf, err := findWorkflow(cmd.Context(), env.store, ref)
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), []*workflows.Workflow{wf})
	}
	printWorkflowFormatted(cmd.OutOrStdout(), wf)
	return nil
}

// printWorkflowFormatted prints a human-readable workflow.
func printWorkflowFormatted(w io.Writer, wf *workflows.Workflow) {
	titleStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

	fmt.Fprintln(w, titleStyle.Render(wf.Name))
	fmt.Fprintf(w, "ID: %s\n", wf.ID)
	if wf.Color != "" {
		fmt.Fprintf(w, "Color: %s\n", colorSwatch(wf.Color))
	}
	if wf.Description != "" {
		fmt.Fprintf(w, "\n%s\n", wf.Description)
	}
	if !wf.UpdatedAt.IsZero() {
		fmt.Fprintln(w, dimStyle.Render("Updated "+wf.UpdatedAt.Local().Format(time.DateTime)))
	}

	fmt.Fprintf(w, "\nSteps (%d):\n", len(wf.Steps))
	for i, step := range wf.Steps {
		title := step.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", i+1)
		}
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, title, dimStyle.Render("["+step.ID+"]"))
		if step.URL != "" {
			fmt.Fprintf(w, "     %s\n", step.URL)
		} else {
			fmt.Fprintln(w, dimStyle.Render("     (no url, skipped when run)"))
		}
		if step.Description != "" {
			fmt.Fprintf(w, "     %s\n", step.Description)
		}
		if step.Memo != "" {
			fmt.Fprintf(w, "     memo: %s\n", step.Memo)
		}
	}
}
