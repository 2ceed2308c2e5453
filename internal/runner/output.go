package runner

import (
	"fmt"
	"io"
	"sync"

	"github.com/chazuruo/tabflow/internal/workflows"
)

// State is the progress state of one step.
type State int

const (
	Pending State = iota
	Complete
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ProgressSink receives run progress.
type ProgressSink interface {
	// Begin marks every step of wf as pending.
	Begin(wf *workflows.Workflow)
	// Update reports the new state of the step at index.
	Update(index int, state State, err error)
	// Reset clears the progress display.
	Reset()
}

// NopSink discards progress.
type NopSink struct{}

func (NopSink) Begin(*workflows.Workflow) {}
func (NopSink) Update(int, State, error)  {}
func (NopSink) Reset()                    {}

// WriterSink prints one line per step update.
type WriterSink struct {
	mu    sync.Mutex
	w     io.Writer
	steps []workflows.Step
}

// NewWriterSink creates a sink that writes progress lines to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Begin prints the run header.
func (s *WriterSink) Begin(wf *workflows.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append([]workflows.Step(nil), wf.Steps...)
	fmt.Fprintf(s.w, "Running %s (%d steps)\n", wf.Name, len(wf.Steps))
}

// Update prints the step's new state.
func (s *WriterSink) Update(index int, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := fmt.Sprintf("step %d", index+1)
	if index >= 0 && index < len(s.steps) && s.steps[index].Title != "" {
		title = s.steps[index].Title
	}
	icon := map[State]string{Pending: "·", Complete: "✓", Failed: "✗", Skipped: "-"}[state]
	if err != nil {
		fmt.Fprintf(s.w, "  %s %d. %s (%s): %v\n", icon, index+1, title, state, err)
		return
	}
	fmt.Fprintf(s.w, "  %s %d. %s (%s)\n", icon, index+1, title, state)
}

// Reset is a no-op: printed lines stay on screen.
func (s *WriterSink) Reset() {}
