package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/editor"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// NewOptions contains the options for the new command.
type NewOptions struct {
	Name        string
	Description string
	Color       string
	Steps       []string
}

// NewNewCommand creates the new command.
func NewNewCommand() *cobra.Command {
	opts := &NewOptions{}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new workflow",
		Long: `Create a new workflow.

In interactive mode a form asks for the name, description, color and steps.
With --no-tui the workflow is built from flags:

  tabflow new --no-tui --name "Morning" --color blue \
    --step "Mail=https://mail.example.com" \
    --step "Calendar=https://calendar.example.com"

A step given as a bare URL gets its title from the page when enrichment
is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "workflow name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "workflow description")
	cmd.Flags().StringVar(&opts.Color, "color", "", "color tag (name or hex)")
	cmd.Flags().StringArrayVar(&opts.Steps, "step", nil, "step as title=url or a bare url (repeatable)")

	return cmd
}

func runNew(cmd *cobra.Command, opts *NewOptions) error {
	if !IsNoTUI() {
		if err := promptNew(opts); err != nil {
			return err
		}
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	var created *workflows.Workflow
	wf := workflows.New(time.Now())
	if len(opts.Steps) > 0 {
		wf.Steps = []workflows.Step{}
	}
	sess, err := editor.Open(wf, true, env.store, func(saved *workflows.Workflow) {
		created = saved
	}, env.sessionOptions()...)
	if err != nil {
		return err
	}
	defer sess.Cancel()

	if err := applyNewOptions(sess, opts); err != nil {
		return err
	}

	sess.Flush()
	if err := sess.Save(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created workflow %q (%s) with %d step(s)\n", created.Name, created.ID, len(created.Steps))
	return nil
}

// applyNewOptions copies the collected values into the session. Empty
// values keep the defaults of a new workflow.
func applyNewOptions(sess *editor.Session, opts *NewOptions) error {
	if opts.Name != "" {
		if err := sess.SetName(opts.Name); err != nil {
			return err
		}
	}
	if opts.Description != "" {
		if err := sess.SetDescription(opts.Description); err != nil {
			return err
		}
	}
	if opts.Color != "" {
		if err := sess.SetColor(opts.Color); err != nil {
			return err
		}
	}

	for _, raw := range opts.Steps {
		title, url := splitStep(raw)
		st, err := sess.AddStep(-1)
		if err != nil {
			return err
		}
		if title != "" {
			if err := sess.SetStepTitle(st.ID, title); err != nil {
				return err
			}
		}
		if err := sess.SetStepURL(st.ID, url); err != nil {
			return err
		}
	}
	return nil
}

// splitStep parses "title=url" or a bare url. A '=' inside the url of a
// bare value is kept because a title never contains "://".
func splitStep(raw string) (title, url string) {
	key, value, err := parsePair(raw)
	if err != nil || strings.Contains(key, "://") {
		return "", raw
	}
	return key, value
}

// colorOptions builds the huh options for the palette, with a leading "none".
func colorOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range workflows.Palette {
		opts = append(opts, huh.NewOption(colorSwatch(c.Hex), c.Hex))
	}
	return opts
}

// promptNew collects the workflow fields interactively.
func promptNew(opts *NewOptions) error {
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&opts.Name).Placeholder("Morning routine"),
			huh.NewText().
				Title("Description").
				Value(&opts.Description),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOptions()...).
				Value(&opts.Color),
		),
	).Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	for {
		var title, url string
		more := true
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Step %d title", len(opts.Steps)+1)).
					Description("Leave empty to use the page title").
					Value(&title),
				huh.NewInput().
					Title("URL").
					Description("Leave empty to finish").
					Value(&url).Placeholder("https://"),
			),
		).Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
		if url == "" {
			return nil
		}
		if title != "" {
			opts.Steps = append(opts.Steps, title+"="+url)
		} else {
			opts.Steps = append(opts.Steps, url)
		}

		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another step?").
					Value(&more),
			),
		).Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
		if !more {
			return nil
		}
	}
}
