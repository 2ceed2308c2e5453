package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/editor"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// EditOptions contains the options for the edit command.
type EditOptions struct {
	Name        string
	Description string
	Color       string
	AddSteps    []string
	DeleteSteps []string
	MoveSteps   []string
	SetURLs     []string
	SetTitles   []string
	SetMemos    []string
}

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	opts := &EditOptions{}

	cmd := &cobra.Command{
		Use:   "edit <workflow>",
		Short: "Edit a workflow",
		Long: `Edit a workflow's details and steps.

Interactive mode opens a menu for editing details and adding, editing,
deleting and moving steps. Nothing is stored until you choose Save.

With --no-tui the edits are given as flags and applied in this order:
details, added steps, deleted steps, moves, then per-step fields.

Examples:
  tabflow edit morning                          # interactive editor
  tabflow edit morning --no-tui --color green
  tabflow edit morning --no-tui --add-step "Docs=https://docs.example.com"
  tabflow edit morning --no-tui --move-step 4f2a=0 --set-memo 4f2a="check CI first"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "new workflow name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new workflow description")
	cmd.Flags().StringVar(&opts.Color, "color", "", "new color tag (name or hex, empty clears)")
	cmd.Flags().StringArrayVar(&opts.AddSteps, "add-step", nil, "append a step as title=url or a bare url (repeatable)")
	cmd.Flags().StringArrayVar(&opts.DeleteSteps, "delete-step", nil, "delete a step by id (repeatable)")
	cmd.Flags().StringArrayVar(&opts.MoveSteps, "move-step", nil, "move a step as id=index (repeatable)")
	cmd.Flags().StringArrayVar(&opts.SetURLs, "set-url", nil, "set a step url as id=url (repeatable)")
	cmd.Flags().StringArrayVar(&opts.SetTitles, "set-title", nil, "set a step title as id=title (repeatable)")
	cmd.Flags().StringArrayVar(&opts.SetMemos, "set-memo", nil, "set a step memo as id=memo (repeatable)")

	return cmd
}

func runEdit(cmd *cobra.Command, opts *EditOptions, ref string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	wf, err := findWorkflow(cmd.Context(), env.store, ref)
	if err != nil {
		return err
	}

	sess, err := editor.Open(wf, false, env.store, nil, env.sessionOptions()...)
	if err != nil {
		return err
	}
	defer sess.Cancel()

	if IsNoTUI() {
		if err := applyEditFlags(cmd, sess, opts); err != nil {
			return err
		}
	} else {
		save, err := editInteractive(sess)
		if err != nil {
			return err
		}
		if !save {
			fmt.Fprintln(cmd.OutOrStdout(), "Edit canceled, nothing saved.")
			return nil
		}
	}

	if !sess.IsDirty() {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
		return nil
	}

	sess.Flush()
	if err := sess.Save(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	saved := sess.Workflow()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved workflow %q (%d step(s))\n", saved.Name, len(saved.Steps))
	return nil
}

// applyEditFlags applies the --no-tui edit flags to the session.
func applyEditFlags(cmd *cobra.Command, sess *editor.Session, opts *EditOptions) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		if err := sess.SetName(opts.Name); err != nil {
			return err
		}
	}
	if flags.Changed("description") {
		if err := sess.SetDescription(opts.Description); err != nil {
			return err
		}
	}
	if flags.Changed("color") {
		if err := sess.SetColor(opts.Color); err != nil {
			return err
		}
	}

	for _, raw := range opts.AddSteps {
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

	for _, id := range opts.DeleteSteps {
		if _, err := sess.DeleteStep(id, nil); err != nil {
			return err
		}
	}

	for _, raw := range opts.MoveSteps {
		id, value, err := parsePair(raw)
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: step index %q is not a number", tferrors.ErrInvalid, value)
		}
		if err := sess.ReorderStep(id, index); err != nil {
			return err
		}
	}

	setters := []struct {
		pairs []string
		set   func(id, value string) error
	}{
		{opts.SetURLs, sess.SetStepURL},
		{opts.SetTitles, sess.SetStepTitle},
		{opts.SetMemos, sess.SetStepMemo},
	}
	for _, s := range setters {
		for _, raw := range s.pairs {
			id, value, err := parsePair(raw)
			if err != nil {
				return err
			}
			if err := s.set(id, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Edit menu actions.
const (
	actionDetails = "details"
	actionAdd     = "add"
	actionStep    = "step"
	actionDelete  = "delete"
	actionMove    = "move"
	actionSave    = "save"
	actionCancel  = "cancel"
)

// editInteractive runs the edit menu until the user saves or cancels.
func editInteractive(sess *editor.Session) (bool, error) {
	for {
		wf := sess.Workflow()
		action := actionSave

		options := []huh.Option[string]{
			huh.NewOption("Edit name, description and color", actionDetails),
			huh.NewOption("Add step", actionAdd),
		}
		if len(wf.Steps) > 0 {
			options = append(options,
				huh.NewOption("Edit step", actionStep),
				huh.NewOption("Delete step", actionDelete),
				huh.NewOption("Move step", actionMove),
			)
		}
		options = append(options,
			huh.NewOption("Save", actionSave),
			huh.NewOption("Cancel", actionCancel),
		)

		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Editing %q (%d steps)", wf.Name, len(wf.Steps))).
					Options(options...).
					Value(&action),
			),
		).Run(); err != nil {
			return false, fmt.Errorf("form error: %w", err)
		}

		var err error
		switch action {
		case actionSave:
			return true, nil
		case actionCancel:
			return false, nil
		case actionDetails:
			err = editDetails(sess, wf)
		case actionAdd:
			err = addStepInteractive(sess, wf)
		case actionStep:
			err = editStepInteractive(sess, wf)
		case actionDelete:
			err = deleteStepInteractive(sess, wf)
		case actionMove:
			err = moveStepInteractive(sess, wf)
		}
		if err != nil {
			return false, err
		}
	}
}

func editDetails(sess *editor.Session, wf *workflows.Workflow) error {
	name, desc, color := wf.Name, wf.Description, wf.Color
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&name),
			huh.NewText().Title("Description").Value(&desc),
			huh.NewSelect[string]().Title("Color").Options(colorOptions()...).Value(&color),
		),
	).Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	if err := sess.SetName(name); err != nil {
		return err
	}
	if err := sess.SetDescription(desc); err != nil {
		return err
	}
	return sess.SetColor(color)
}

// stepOptions lists the steps of wf as huh options keyed by step id.
func stepOptions(wf *workflows.Workflow) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(wf.Steps))
	for i, st := range wf.Steps {
		label := st.Title
		if label == "" {
			label = st.URL
		}
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d. %s", i+1, label), st.ID))
	}
	return opts
}

func pickStep(wf *workflows.Workflow, title string) (string, error) {
	var id string
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(title).Options(stepOptions(wf)...).Value(&id),
		),
	).Run(); err != nil {
		return "", fmt.Errorf("form error: %w", err)
	}
	return id, nil
}

func addStepInteractive(sess *editor.Session, wf *workflows.Workflow) error {
	after := len(wf.Steps) - 1
	if len(wf.Steps) > 0 {
		positions := []huh.Option[int]{huh.NewOption("At the start", -2)}
		for i, st := range wf.Steps {
			positions = append(positions, huh.NewOption(fmt.Sprintf("After %d. %s", i+1, st.Title), i))
		}
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[int]().Title("Insert position").Options(positions...).Value(&after),
			),
		).Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
	}

	st, err := insertStep(sess, after)
	if err != nil {
		return err
	}
	return editStepFields(sess, st)
}

// insertStep adds a step after index after; -2 inserts at the start.
func insertStep(sess *editor.Session, after int) (workflows.Step, error) {
	if after != -2 {
		return sess.AddStep(after)
	}
	st, err := sess.AddStep(-1)
	if err != nil {
		return st, err
	}
	return st, sess.ReorderStep(st.ID, 0)
}

func editStepInteractive(sess *editor.Session, wf *workflows.Workflow) error {
	id, err := pickStep(wf, "Step to edit")
	if err != nil {
		return err
	}
	st, ok := wf.Step(id)
	if !ok {
		return &tferrors.WorkflowError{Op: "edit step", Err: tferrors.ErrNotFound, ID: id}
	}
	return editStepFields(sess, *st)
}

func editStepFields(sess *editor.Session, st workflows.Step) error {
	title, url, memo := st.Title, st.URL, st.Memo
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&title),
			huh.NewInput().Title("URL").Value(&url).Placeholder("https://"),
			huh.NewText().Title("Memo").Value(&memo),
		),
	).Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	if err := sess.SetStepTitle(st.ID, title); err != nil {
		return err
	}
	if err := sess.SetStepURL(st.ID, url); err != nil {
		return err
	}
	return sess.SetStepMemo(st.ID, memo)
}

func deleteStepInteractive(sess *editor.Session, wf *workflows.Workflow) error {
	id, err := pickStep(wf, "Step to delete")
	if err != nil {
		return err
	}
	_, err = sess.DeleteStep(id, confirmStepDelete)
	return err
}

// confirmStepDelete asks before deleting a step. Declining keeps it.
func confirmStepDelete(st *workflows.Step) bool {
	label := st.Title
	if label == "" {
		label = "this step"
	}
	var ok bool
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", label)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).Run(); err != nil {
		return false
	}
	return ok
}

func moveStepInteractive(sess *editor.Session, wf *workflows.Workflow) error {
	id, err := pickStep(wf, "Step to move")
	if err != nil {
		return err
	}

	index := wf.StepIndex(id)
	positions := make([]huh.Option[int], 0, len(wf.Steps))
	for i := range wf.Steps {
		positions = append(positions, huh.NewOption(fmt.Sprintf("Position %d", i+1), i))
	}
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("Move to").Options(positions...).Value(&index),
		),
	).Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}
	return sess.ReorderStep(id, index)
}
