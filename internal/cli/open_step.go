package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/opener"
	"github.com/chazuruo/tabflow/internal/runner"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// OpenStepOptions contains the options for the open-step command.
type OpenStepOptions struct {
	Opener string
}

// NewOpenStepCommand creates the open-step command.
func NewOpenStepCommand() *cobra.Command {
	opts := &OpenStepOptions{}

	cmd := &cobra.Command{
		Use:   "open-step <workflow> <step>",
		Short: "Open a single step in a focused tab",
		Long: `Open one step of a workflow in a new tab and bring it to the front.

The step is given as its id or its 1-based position.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenStep(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Opener, "opener", "", "override the configured opener (chromedp, playwright, print)")

	return cmd
}

func runOpenStep(cmd *cobra.Command, opts *OpenStepOptions, wfRef, stepRef string) error {
	ctx := cmd.Context()

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	wf, err := findWorkflow(ctx, env.store, wfRef)
	if err != nil {
		return err
	}
	step, err := findStep(wf, stepRef)
	if err != nil {
		return err
	}

	runnerCfg := env.cfg.Runner
	if opts.Opener != "" {
		runnerCfg.Opener = opts.Opener
	}
	browser, err := opener.New(ctx, runnerCfg, cmd.OutOrStdout(), env.logger)
	if err != nil {
		return fmt.Errorf("failed to start opener: %w", err)
	}
	defer browser.Close()

	r := runner.NewRunner(browser, runner.WithLogger(env.logger))
	if _, err := r.OpenStep(ctx, step); err != nil {
		return err
	}
	env.logger.Info("opened step", "workflow", wf.ID, "step", step.ID)
	return nil
}

// findStep resolves ref as a step id, then as a 1-based position.
func findStep(wf *workflows.Workflow, ref string) (workflows.Step, error) {
	if st, ok := wf.Step(ref); ok {
		return *st, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(wf.Steps) {
		return wf.Steps[n-1], nil
	}
	return workflows.Step{}, &tferrors.WorkflowError{Op: "find step", Err: tferrors.ErrNotFound, ID: ref}
}
