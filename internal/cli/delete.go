package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// DeleteOptions contains the options for the delete command.
type DeleteOptions struct {
	Yes bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:     "delete <workflow>",
		Aliases: []string{"rm"},
		Short:   "Delete a workflow",
		Long: `Delete a workflow permanently.

You are asked to confirm unless --yes is given. With --no-tui, --yes is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, opts *DeleteOptions, ref string) error {
	ctx := cmd.Context()

	if IsNoTUI() && !opts.Yes {
		return fmt.Errorf("--yes is required to delete in non-interactive mode")
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	wf, err := findWorkflow(ctx, env.store, ref)
	if err != nil {
		return err
	}

	if !opts.Yes {
		var ok bool
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete workflow %q?", wf.Name)).
					Description(fmt.Sprintf("%d step(s) will be lost.", len(wf.Steps))).
					Affirmative("Delete").
					Negative("Keep").
					Value(&ok),
			),
		).Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
			return nil
		}
	}

	if err := env.store.Delete(ctx, wf.ID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted workflow %q\n", wf.Name)
	return nil
}
