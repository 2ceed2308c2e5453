// Package editor implements the workflow editing session: a working copy
// that is mutated freely and only reaches the store on Save.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chazuruo/tabflow/internal/enrich"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/workflows"
	"github.com/chazuruo/tabflow/internal/workflows/store"
)

// SiteResolver looks up the title and favicon of a URL.
type SiteResolver interface {
	Resolve(ctx context.Context, rawURL string) enrich.SiteInfo
}

// Session holds a working copy of one workflow.
type Session struct {
	mu     sync.Mutex
	wf     *workflows.Workflow
	isNew  bool
	closed bool
	dirty  bool

	saver  store.Saver
	onSave func(*workflows.Workflow)

	resolver   SiteResolver
	debounce   time.Duration
	debouncers map[string]*enrich.Debouncer
	ctx        context.Context
	cancel     context.CancelFunc

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithResolver enables favicon/title resolution when step URLs change.
func WithResolver(r SiteResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithDebounce sets the quiet period before a URL is resolved.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithNow sets the time source used for UpdatedAt.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Open starts a session on a deep copy of wf. When isNew is true the first
// successful Save adds the workflow; every other save updates it. onSave,
// if non-nil, receives the saved workflow.
func Open(wf *workflows.Workflow, isNew bool, saver store.Saver, onSave func(*workflows.Workflow), opts ...Option) (*Session, error) {
	if wf == nil {
		return nil, fmt.Errorf("workflow cannot be nil")
	}
	if saver == nil {
		return nil, fmt.Errorf("saver cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		wf:         wf.Clone(),
		isNew:      isNew,
		saver:      saver,
		onSave:     onSave,
		debounce:   enrich.DefaultDebounce,
		debouncers: make(map[string]*enrich.Debouncer),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s, nil
}

// Workflow returns a copy of the current working copy.
func (s *Session) Workflow() *workflows.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wf.Clone()
}

// IsNew reports whether the next Save will add rather than update.
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew
}

// IsDirty reports whether there are unsaved edits.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// SetName sets the workflow name. Empty names are allowed.
func (s *Session) SetName(name string) error {
	return s.edit("set name", func(wf *workflows.Workflow) error {
		wf.Name = name
		return nil
	})
}

// SetDescription sets the workflow description.
func (s *Session) SetDescription(desc string) error {
	return s.edit("set description", func(wf *workflows.Workflow) error {
		wf.Description = desc
		return nil
	})
}

// SetColor sets the color tag. color may be a palette name, a palette hex
// value or empty to clear the tag.
func (s *Session) SetColor(color string) error {
	hex, err := workflows.ResolveColor(color)
	if err != nil {
		return &tferrors.WorkflowError{Op: "set color", Err: fmt.Errorf("%w: %s", tferrors.ErrInvalid, err)}
	}
	return s.edit("set color", func(wf *workflows.Workflow) error {
		wf.Color = hex
		return nil
	})
}

// SetStepTitle sets the title of a step.
func (s *Session) SetStepTitle(stepID, title string) error {
	return s.editStep("set step title", stepID, func(st *workflows.Step) {
		st.Title = title
	})
}

// SetStepMemo sets the memo of a step.
func (s *Session) SetStepMemo(stepID, memo string) error {
	return s.editStep("set step memo", stepID, func(st *workflows.Step) {
		st.Memo = memo
	})
}

// SetStepURL sets the URL of a step and, when a resolver is configured,
// schedules a debounced favicon/title lookup for it.
func (s *Session) SetStepURL(stepID, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &tferrors.WorkflowError{Op: "set step url", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	st, ok := s.wf.Step(stepID)
	if !ok {
		return &tferrors.WorkflowError{Op: "set step url", Err: tferrors.ErrNotFound, ID: stepID}
	}
	if st.URL != rawURL {
		// A new address invalidates the cached icon.
		st.Favicon = ""
	}
	st.URL = rawURL
	s.dirty = true

	if s.resolver == nil {
		return nil
	}
	d := s.debouncerLocked(stepID)
	if rawURL == "" {
		d.Cancel()
		return nil
	}
	d.Schedule(s.ctx, func(ctx context.Context) {
		info := s.resolver.Resolve(ctx, rawURL)
		if ctx.Err() != nil {
			return
		}
		s.applySiteInfo(stepID, rawURL, info)
	})
	return nil
}

// AddStep inserts a placeholder step after index after. A negative index
// appends. It returns the new step.
func (s *Session) AddStep(after int) (workflows.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return workflows.Step{}, &tferrors.WorkflowError{Op: "add step", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	st := workflows.NewStep()
	s.wf.InsertStep(after, st)
	s.dirty = true
	return st, nil
}

// DeleteStep removes a step when confirm approves it. A nil confirm
// approves unconditionally. It reports whether the step was removed.
func (s *Session) DeleteStep(stepID string, confirm func(*workflows.Step) bool) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, &tferrors.WorkflowError{Op: "delete step", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	st, ok := s.wf.Step(stepID)
	if !ok {
		s.mu.Unlock()
		return false, &tferrors.WorkflowError{Op: "delete step", Err: tferrors.ErrNotFound, ID: stepID}
	}
	snapshot := *st
	s.mu.Unlock()

	// confirm may block on user input, so it runs without the lock.
	if confirm != nil && !confirm(&snapshot) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, &tferrors.WorkflowError{Op: "delete step", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	if !s.wf.RemoveStep(stepID) {
		return false, &tferrors.WorkflowError{Op: "delete step", Err: tferrors.ErrNotFound, ID: stepID}
	}
	if d, ok := s.debouncers[stepID]; ok {
		d.Cancel()
		delete(s.debouncers, stepID)
	}
	s.dirty = true
	return true, nil
}

// ReorderStep moves a step to newIndex, clamped into range.
func (s *Session) ReorderStep(stepID string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &tferrors.WorkflowError{Op: "reorder step", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	if _, ok := s.wf.MoveStep(stepID, newIndex); !ok {
		return &tferrors.WorkflowError{Op: "reorder step", Err: tferrors.ErrNotFound, ID: stepID}
	}
	s.dirty = true
	return nil
}

// Save persists the whole working copy. On failure the session stays open
// and Save may be retried.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &tferrors.WorkflowError{Op: "save", Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	candidate := s.wf.Clone()
	candidate.Touch(s.now())
	isNew := s.isNew
	s.mu.Unlock()

	op := s.saver.Update
	if isNew {
		op = s.saver.Add
	}
	if err := op(ctx, candidate); err != nil {
		s.logger.Debug("save failed", "workflow", candidate.ID, "new", isNew, "error", err)
		return err
	}

	s.mu.Lock()
	s.wf.CreatedAt = candidate.CreatedAt
	s.wf.UpdatedAt = candidate.UpdatedAt
	s.isNew = false
	s.dirty = false
	s.mu.Unlock()

	s.logger.Debug("workflow saved", "workflow", candidate.ID, "new", isNew, "steps", len(candidate.Steps))
	if s.onSave != nil {
		s.onSave(candidate.Clone())
	}
	return nil
}

// Cancel ends the session. Unsaved edits are discarded and pending
// lookups are canceled; persisted state is untouched.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, d := range s.debouncers {
		d.Cancel()
	}
	s.mu.Unlock()

	s.cancel()
}

// Flush waits until every scheduled favicon/title lookup has finished.
func (s *Session) Flush() {
	s.mu.Lock()
	pending := make([]*enrich.Debouncer, 0, len(s.debouncers))
	for _, d := range s.debouncers {
		pending = append(pending, d)
	}
	s.mu.Unlock()

	for _, d := range pending {
		d.Wait()
	}
}

func (s *Session) edit(op string, fn func(*workflows.Workflow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &tferrors.WorkflowError{Op: op, Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	if err := fn(s.wf); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

func (s *Session) editStep(op, stepID string, fn func(*workflows.Step)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &tferrors.WorkflowError{Op: op, Err: tferrors.ErrClosed, ID: s.wf.ID}
	}
	st, ok := s.wf.Step(stepID)
	if !ok {
		return &tferrors.WorkflowError{Op: op, Err: tferrors.ErrNotFound, ID: stepID}
	}
	fn(st)
	s.dirty = true
	return nil
}

func (s *Session) debouncerLocked(stepID string) *enrich.Debouncer {
	d, ok := s.debouncers[stepID]
	if !ok {
		d = enrich.NewDebouncer(s.debounce)
		s.debouncers[stepID] = d
	}
	return d
}

// applySiteInfo fills the favicon when missing and replaces a placeholder
// title. It does nothing if the step is gone or its URL changed meanwhile.
func (s *Session) applySiteInfo(stepID, rawURL string, info enrich.SiteInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	st, ok := s.wf.Step(stepID)
	if !ok || st.URL != rawURL {
		return
	}
	if st.Favicon == "" && info.Favicon != "" {
		st.Favicon = info.Favicon
	}
	if workflows.IsPlaceholderTitle(st.Title) && info.Title != "" {
		st.Title = info.Title
	}
	s.logger.Debug("step enriched", "step", stepID, "title", st.Title, "favicon", st.Favicon)
}
