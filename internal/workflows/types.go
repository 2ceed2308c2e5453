package workflows

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultWorkflowName is the name given to a freshly created workflow.
	DefaultWorkflowName = "New workflow"

	// DefaultStepTitle is the placeholder title of a step added in the editor.
	DefaultStepTitle = "New step"
)

// Workflow represents a named, ordered list of browser steps.
type Workflow struct {
	ID          string    `json:"id" yaml:"id"`                                       // Immutable UUID
	Name        string    `json:"name" yaml:"name"`                                   // Display name, not unique
	Description string    `json:"description,omitempty" yaml:"description,omitempty"` // Optional
	Color       string    `json:"color,omitempty" yaml:"color,omitempty"`             // Palette hex or empty
	Steps       []Step    `json:"steps" yaml:"steps"`                                 // Execution order
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Step represents a single tab to open.
type Step struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"` // Empty URL makes the step inert
	Memo        string `json:"memo,omitempty" yaml:"memo,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Favicon     string `json:"favicon,omitempty" yaml:"favicon,omitempty"`
}

// NewID returns a fresh identifier for a workflow or step.
func NewID() string {
	return uuid.NewString()
}

// New returns a workflow with the default name and two placeholder steps.
func New(now time.Time) *Workflow {
	return &Workflow{
		ID:   NewID(),
		Name: DefaultWorkflowName,
		Steps: []Step{
			{ID: NewID(), Title: "Step 1"},
			{ID: NewID(), Title: "Step 2"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewStep returns an empty step with a fresh id and the placeholder title.
func NewStep() Step {
	return Step{ID: NewID(), Title: DefaultStepTitle}
}

// IsPlaceholderTitle reports whether title is empty or one of the generated
// placeholder titles ("New step", "Step 1", "Step 2", ...).
func IsPlaceholderTitle(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || title == DefaultStepTitle {
		return true
	}
	n, ok := strings.CutPrefix(title, "Step ")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(n)
	return err == nil
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	c := *w
	if w.Steps != nil {
		c.Steps = make([]Step, len(w.Steps))
		copy(c.Steps, w.Steps)
	}
	return &c
}

// Touch refreshes UpdatedAt, and CreatedAt when it was never set.
func (w *Workflow) Touch(now time.Time) {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
}

// StepIndex returns the position of the step with the given id, or -1.
func (w *Workflow) StepIndex(id string) int {
	for i := range w.Steps {
		if w.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Step returns a pointer to the step with the given id inside the workflow.
func (w *Workflow) Step(id string) (*Step, bool) {
	i := w.StepIndex(id)
	if i < 0 {
		return nil, false
	}
	return &w.Steps[i], true
}

// InsertStep inserts s after position after. A negative or out of range
// position appends. It returns the index the step landed at.
func (w *Workflow) InsertStep(after int, s Step) int {
	if after < 0 || after >= len(w.Steps) {
		w.Steps = append(w.Steps, s)
		return len(w.Steps) - 1
	}
	at := after + 1
	w.Steps = append(w.Steps, Step{})
	copy(w.Steps[at+1:], w.Steps[at:])
	w.Steps[at] = s
	return at
}

// RemoveStep removes the step with the given id and reports whether it existed.
func (w *Workflow) RemoveStep(id string) bool {
	i := w.StepIndex(id)
	if i < 0 {
		return false
	}
	w.Steps = append(w.Steps[:i], w.Steps[i+1:]...)
	return true
}

// MoveStep moves the step with the given id to index, clamped into range.
// It returns the final index and whether the step existed.
func (w *Workflow) MoveStep(id string, index int) (int, bool) {
	from := w.StepIndex(id)
	if from < 0 {
		return -1, false
	}
	if index < 0 {
		index = 0
	}
	if index >= len(w.Steps) {
		index = len(w.Steps) - 1
	}
	if index == from {
		return index, true
	}
	s := w.Steps[from]
	w.Steps = append(w.Steps[:from], w.Steps[from+1:]...)
	w.Steps = append(w.Steps, Step{})
	copy(w.Steps[index+1:], w.Steps[index:])
	w.Steps[index] = s
	return index, true
}

// Validate checks the invariants every persisted workflow must hold.
func (w *Workflow) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workflow id is required")
	}
	if w.Color != "" && !IsPaletteColor(w.Color) {
		return fmt.Errorf("color %q is not in the palette", w.Color)
	}
	seen := make(map[string]struct{}, len(w.Steps))
	for i, s := range w.Steps {
		if s.ID == "" {
			return fmt.Errorf("step %d: id is required", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("step %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Normalize repairs a workflow read from outside the store so that it
// passes Validate. Empty or repeated step ids are regenerated, a color
// outside the palette is cleared and missing timestamps are filled.
func (w *Workflow) Normalize(now time.Time) {
	seen := make(map[string]struct{}, len(w.Steps))
	for i := range w.Steps {
		if _, dup := seen[w.Steps[i].ID]; w.Steps[i].ID == "" || dup {
			w.Steps[i].ID = NewID()
		}
		seen[w.Steps[i].ID] = struct{}{}
	}
	if hex, err := ResolveColor(w.Color); err == nil {
		w.Color = hex
	} else {
		w.Color = ""
	}
	if w.Steps == nil {
		w.Steps = []Step{}
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = w.CreatedAt
	}
}
