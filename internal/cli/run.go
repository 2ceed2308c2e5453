package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/opener"
	"github.com/chazuruo/tabflow/internal/runner"
	"github.com/chazuruo/tabflow/internal/tui"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// RunOptions contains the options for the run command.
type RunOptions struct {
	Opener    string
	StepDelay time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Open every step of a workflow as a browser tab",
		Long: `Open the steps of a workflow as background tabs, in order.

Steps without a URL are skipped. A step that fails to open is marked failed
and the run continues. When all steps are done the first opened tab is
brought to the front.

Openers:
  chromedp    - a running Chrome with remote debugging (runner.debugger_url)
  playwright  - a browser launched by Playwright
  print       - print the tabs instead of opening them

Press q to stop a run in progress.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Opener, "opener", "", "override the configured opener (chromedp, playwright, print)")
	cmd.Flags().DurationVar(&opts.StepDelay, "step-delay", 0, "override the pause between tabs")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions, ref string) error {
	ctx := cmd.Context()

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	wf, err := findWorkflow(ctx, env.store, ref)
	if err != nil {
		return err
	}

	runnerCfg := env.cfg.Runner
	if opts.Opener != "" {
		runnerCfg.Opener = opts.Opener
	}
	if opts.StepDelay > 0 {
		runnerCfg.StepDelay = opts.StepDelay
	}

	out := cmd.OutOrStdout()
	browser, err := opener.New(ctx, runnerCfg, out, env.logger)
	if err != nil {
		return fmt.Errorf("failed to start opener: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			env.logger.Warn("failed to close opener", "error", err)
		}
	}()

	runnerOpts := []runner.Option{
		runner.WithStepDelay(runnerCfg.StepDelay),
		runner.WithResetDelay(runnerCfg.ResetDelay),
		runner.WithLogger(env.logger),
	}

	// The print opener writes to stdout, which the progress view would own.
	if IsNoTUI() || runnerCfg.Opener == "print" {
		r := runner.NewRunner(browser, append(runnerOpts, runner.WithSink(runner.NewWriterSink(out)))...)
		result, err := r.Run(ctx, wf)
		return reportRun(out, result, err)
	}

	model, err := tui.RunWithProgress(ctx, wf, func(ctx context.Context, sink runner.ProgressSink) (runner.Result, error) {
		r := runner.NewRunner(browser, append(runnerOpts, runner.WithSink(sink))...)
		return r.Run(ctx, wf)
	})
	if err != nil {
		return err
	}
	return reportRun(out, model.Result, model.Err)
}

// reportRun prints the run summary. A canceled run is not an error.
func reportRun(w io.Writer, result runner.Result, err error) error {
	if err != nil {
		if tferrors.IsCanceled(err) {
			fmt.Fprintf(w, "Run canceled after %d tab(s).\n", result.Opened)
			return nil
		}
		return err
	}

	fmt.Fprintf(w, "\n%d opened", result.Opened)
	if result.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", result.Failed)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", result.Skipped)
	}
	fmt.Fprintf(w, " in %s\n", result.Duration.Round(time.Millisecond))

	for _, sr := range result.StepResults {
		if sr.State == runner.Failed {
			fmt.Fprintf(w, "  ✗ %s: %v\n", stepLabel(sr.Index, sr.Step), sr.Error)
		}
	}
	return nil
}

// stepLabel names a step by title, falling back to its position.
func stepLabel(index int, st workflows.Step) string {
	if st.Title != "" {
		return st.Title
	}
	return fmt.Sprintf("Step %d", index+1)
}
