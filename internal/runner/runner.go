// Package runner opens the steps of a workflow as browser tabs, in order,
// with a fixed pause between tabs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/workflows"
)

const (
	// DefaultStepDelay is the pause between two opened tabs.
	DefaultStepDelay = 500 * time.Millisecond

	// DefaultResetDelay is how long progress stays visible after a run.
	DefaultResetDelay = 10 * time.Second
)

// TabID identifies a tab created by an Opener.
type TabID string

// Opener creates and focuses browser tabs.
type Opener interface {
	// Open creates a background tab for url.
	Open(ctx context.Context, url string) (TabID, error)
	// Focus brings a previously opened tab to the front.
	Focus(ctx context.Context, tab TabID) error
}

// Runner executes workflows.
type Runner interface {
	// Run opens every step with a URL, in order.
	Run(ctx context.Context, wf *workflows.Workflow) (Result, error)
	// OpenStep opens a single step in a focused tab.
	OpenStep(ctx context.Context, step workflows.Step) (TabID, error)
}

// Result contains the result of a workflow run.
type Result struct {
	Opened      int
	Failed      int
	Skipped     int
	FirstTab    TabID
	StepResults []StepResult
	Duration    time.Duration
}

// StepResult contains the result of a single step.
type StepResult struct {
	Index int
	Step  workflows.Step
	State State
	Tab   TabID
	Error error
}

// runner implements Runner.
type runner struct {
	opener     Opener
	stepDelay  time.Duration
	resetDelay time.Duration
	clock      Clock
	sink       ProgressSink
	logger     *slog.Logger
}

// NewRunner creates a new runner that opens tabs through opener.
func NewRunner(opener Opener, opts ...Option) Runner {
	r := &runner{
		opener:     opener,
		stepDelay:  DefaultStepDelay,
		resetDelay: DefaultResetDelay,
		clock:      NewRealClock(),
		sink:       NopSink{},
	}

	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDiscard(r.logger)
	return r
}

// Option configures a runner.
type Option func(*runner)

// WithStepDelay sets the pause between tabs.
func WithStepDelay(d time.Duration) Option {
	return func(r *runner) {
		if d > 0 {
			r.stepDelay = d
		}
	}
}

// WithResetDelay sets how long after completion the sink is reset.
func WithResetDelay(d time.Duration) Option {
	return func(r *runner) {
		if d > 0 {
			r.resetDelay = d
		}
	}
}

// WithClock sets the clock used for all delays.
func WithClock(c Clock) Option {
	return func(r *runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithSink sets the progress sink.
func WithSink(s ProgressSink) Option {
	return func(r *runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// Run opens each step with a non-empty URL as a background tab, pausing
// between tabs, then focuses the first tab. A step that fails to open is
// marked failed and the run continues. Run only returns an error when ctx
// is canceled.
func (r *runner) Run(ctx context.Context, wf *workflows.Workflow) (Result, error) {
	start := r.clock.Now()
	result := Result{StepResults: make([]StepResult, len(wf.Steps))}
	r.sink.Begin(wf)

	attempted := 0
	for i, step := range wf.Steps {
		sr := &result.StepResults[i]
		sr.Index = i
		sr.Step = step

		if step.URL == "" {
			sr.State = Skipped
			result.Skipped++
			r.sink.Update(i, Skipped, nil)
			continue
		}
		if danger := CheckURL(step.URL); danger != nil {
			r.logger.Warn("refusing to open step", "workflow", wf.ID, "step", i, "reason", danger.Name)
			sr.State = Skipped
			sr.Error = danger
			result.Skipped++
			r.sink.Update(i, Skipped, danger)
			continue
		}

		if attempted > 0 {
			if err := r.wait(ctx, r.stepDelay); err != nil {
				result.Duration = r.clock.Now().Sub(start)
				return result, r.canceled(wf, err)
			}
		}
		if err := ctx.Err(); err != nil {
			result.Duration = r.clock.Now().Sub(start)
			return result, r.canceled(wf, err)
		}
		attempted++

		tab, err := r.opener.Open(ctx, step.URL)
		if err != nil {
			r.logger.Warn("failed to open tab", "workflow", wf.ID, "step", i, "url", step.URL, "error", err)
			sr.State = Failed
			sr.Error = err
			result.Failed++
			r.sink.Update(i, Failed, err)
			continue
		}

		r.logger.Debug("opened tab", "workflow", wf.ID, "step", i, "url", step.URL, "tab", tab)
		sr.State = Complete
		sr.Tab = tab
		result.Opened++
		if result.FirstTab == "" {
			result.FirstTab = tab
		}
		r.sink.Update(i, Complete, nil)
	}

	if result.FirstTab != "" {
		if err := r.opener.Focus(ctx, result.FirstTab); err != nil {
			r.logger.Warn("failed to focus first tab", "workflow", wf.ID, "error", err)
		}
	}

	result.Duration = r.clock.Now().Sub(start)
	r.scheduleReset(ctx)
	return result, nil
}

// OpenStep opens one step and focuses its tab.
func (r *runner) OpenStep(ctx context.Context, step workflows.Step) (TabID, error) {
	if step.URL == "" {
		return "", &tferrors.WorkflowError{Op: "open step", Err: fmt.Errorf("%w: step has no url", tferrors.ErrInvalid), ID: step.ID}
	}
	if danger := CheckURL(step.URL); danger != nil {
		return "", &tferrors.WorkflowError{Op: "open step", Err: fmt.Errorf("%w: %s", tferrors.ErrInvalid, danger), ID: step.ID}
	}

	tab, err := r.opener.Open(ctx, step.URL)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", step.URL, err)
	}
	if err := r.opener.Focus(ctx, tab); err != nil {
		r.logger.Warn("failed to focus tab", "step", step.ID, "error", err)
	}
	return tab, nil
}

// scheduleReset clears the sink after the reset delay without blocking Run.
func (r *runner) scheduleReset(ctx context.Context) {
	after := r.clock.After(r.resetDelay)
	go func() {
		select {
		case <-after:
			r.sink.Reset()
		case <-ctx.Done():
		}
	}()
}

func (r *runner) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-r.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *runner) canceled(wf *workflows.Workflow, err error) error {
	return &tferrors.WorkflowError{Op: "run", Err: fmt.Errorf("%w: %w", tferrors.ErrCanceled, err), ID: wf.ID}
}
