// Package tui provides Bubble Tea models for tabflow.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chazuruo/tabflow/internal/runner"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// RunnerModel is a Bubble Tea model showing the progress of a workflow run.
type RunnerModel struct {
	// Workflow is the workflow being run.
	Workflow *workflows.Workflow

	// States holds the progress state of each step.
	States []runner.State

	// Errors holds the failure reason of each failed or refused step.
	Errors []error

	// Result is the run result, set once the run returned.
	Result runner.Result

	// Err is the error returned by the run (cancellation only).
	Err error

	// Finished indicates the run returned.
	Finished bool

	// Canceled indicates the user quit before the run finished.
	Canceled bool

	spinner spinner.Model
	cancel  context.CancelFunc

	// styles
	normalStyle  lipgloss.Style
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	runningStyle lipgloss.Style
	pendingStyle lipgloss.Style

	width int
}

// BeginMsg is sent when the runner starts a workflow.
type BeginMsg struct {
	Workflow *workflows.Workflow
}

// StepMsg is sent when a step changes state.
type StepMsg struct {
	Index int
	State runner.State
	Err   error
}

// ResetMsg is sent when the progress display should be cleared.
type ResetMsg struct{}

// DoneMsg is sent when Run returns.
type DoneMsg struct {
	Result runner.Result
	Err    error
}

// NewRunnerModel creates a progress model for wf. cancel is called when
// the user quits before the run finished.
func NewRunnerModel(wf *workflows.Workflow, cancel context.CancelFunc) RunnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))

	return RunnerModel{
		Workflow:     wf,
		States:       make([]runner.State, len(wf.Steps)),
		Errors:       make([]error, len(wf.Steps)),
		spinner:      s,
		cancel:       cancel,
		normalStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("green")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("red")),
		runningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")),
		pendingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

// Init implements tea.Model.
func (m RunnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m RunnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.Finished {
				m.Canceled = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		case "enter":
			if m.Finished {
				return m, tea.Quit
			}
		}

	case BeginMsg:
		// Re-running restarts the progress visuals.
		m.States = make([]runner.State, len(msg.Workflow.Steps))
		m.Errors = make([]error, len(msg.Workflow.Steps))
		m.Finished = false

	case StepMsg:
		if msg.Index >= 0 && msg.Index < len(m.States) {
			m.States[msg.Index] = msg.State
			m.Errors[msg.Index] = msg.Err
		}

	case DoneMsg:
		m.Result = msg.Result
		m.Err = msg.Err
		m.Finished = true
		if msg.Err != nil {
			return m, tea.Quit
		}

	case ResetMsg:
		for i := range m.States {
			m.States[i] = runner.Pending
			m.Errors[i] = nil
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// current returns the index of the first pending step, or -1.
func (m RunnerModel) current() int {
	if m.Finished {
		return -1
	}
	for i, s := range m.States {
		if s == runner.Pending && m.Workflow.Steps[i].URL != "" {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (m RunnerModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, " %s\n\n", lipgloss.NewStyle().Bold(true).Render(m.Workflow.Name))

	current := m.current()
	for i, step := range m.Workflow.Steps {
		title := step.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", i+1)
		}

		var line string
		switch m.States[i] {
		case runner.Complete:
			line = m.successStyle.Render("✓ " + title)
		case runner.Failed:
			line = m.errorStyle.Render(fmt.Sprintf("✗ %s: %v", title, m.Errors[i]))
		case runner.Skipped:
			line = m.pendingStyle.Render("- " + title)
		default:
			if i == current {
				line = m.spinner.View() + m.runningStyle.Render(title)
			} else {
				line = m.pendingStyle.Render("  " + title)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())

	width := 50
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(b.String())
}

// statusLine returns the summary or help line.
func (m RunnerModel) statusLine() string {
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if !m.Finished {
		return help.Render("Opening tabs… [q] Cancel")
	}

	summary := fmt.Sprintf("%d opened", m.Result.Opened)
	if m.Result.Failed > 0 {
		summary += m.errorStyle.Render(fmt.Sprintf(", %d failed", m.Result.Failed))
	}
	if m.Result.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", m.Result.Skipped)
	}
	return summary + "\n" + help.Render("[Enter] Close")
}

// DidCancel returns true if the user canceled.
func (m RunnerModel) DidCancel() bool {
	return m.Canceled
}

// programSink forwards runner progress into a running program.
type programSink struct {
	p *tea.Program
}

func (s programSink) Begin(wf *workflows.Workflow) { s.p.Send(BeginMsg{Workflow: wf}) }
func (s programSink) Update(index int, state runner.State, err error) {
	s.p.Send(StepMsg{Index: index, State: state, Err: err})
}
func (s programSink) Reset() { s.p.Send(ResetMsg{}) }

// RunFunc runs a workflow reporting progress to sink.
type RunFunc func(ctx context.Context, sink runner.ProgressSink) (runner.Result, error)

// RunWithProgress shows the progress view while run executes. The view
// stays up after the run until the progress reset or until the user closes it.
// It returns only after run has returned, so the model always carries the
// run's own result, including when the user quit early.
func RunWithProgress(ctx context.Context, wf *workflows.Workflow, run RunFunc, opts ...tea.ProgramOption) (RunnerModel, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewRunnerModel(wf, cancel), opts...)
	sink := programSink{p: p}

	done := make(chan DoneMsg, 1)
	go func() {
		result, err := run(runCtx, sink)
		msg := DoneMsg{Result: result, Err: err}
		done <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	cancel()
	msg := <-done
	if err != nil {
		return RunnerModel{}, fmt.Errorf("progress view: %w", err)
	}

	m := final.(RunnerModel)
	m.Result = msg.Result
	m.Err = msg.Err
	m.Finished = true
	return m, nil
}
