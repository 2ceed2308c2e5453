// Package transfer moves workflow collections in and out of a store as
// files: a top-level array of workflow objects.
package transfer

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// Format represents the export format.
type Format string

const (
	// FormatJSON exports as an indented JSON array. Only JSON can be imported.
	FormatJSON Format = "json"
	// FormatYAML exports as a YAML sequence, for reading.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q (use json or yaml)", tferrors.ErrInvalid, s)
	}
}

// Options contains export options.
type Options struct {
	// IDs selects workflows to export. Empty exports the whole collection.
	IDs []string

	// Format is the output format (default JSON).
	Format Format
}

// Select returns the workflows named by ids in collection order. An id
// that is not in the collection fails with ErrNotFound.
func Select(wfs []*workflows.Workflow, ids []string) ([]*workflows.Workflow, error) {
	if len(ids) == 0 {
		return wfs, nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	selected := make([]*workflows.Workflow, 0, len(ids))
	for _, wf := range wfs {
		if want[wf.ID] {
			selected = append(selected, wf)
			delete(want, wf.ID)
		}
	}

	for _, id := range ids {
		if want[id] {
			return nil, &tferrors.WorkflowError{Op: "export", Err: tferrors.ErrNotFound, ID: id}
		}
	}
	return selected, nil
}

// Export writes wfs, or the subset named by opts.IDs, to w.
func Export(w io.Writer, wfs []*workflows.Workflow, opts Options) error {
	selected, err := Select(wfs, opts.IDs)
	if err != nil {
		return err
	}

	var data []byte
	switch opts.Format {
	case "", FormatJSON:
		data, err = workflows.MarshalWorkflows(selected)
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML:
		if selected == nil {
			selected = []*workflows.Workflow{}
		}
		data, err = yaml.Marshal(selected)
	default:
		return fmt.Errorf("%w: unsupported format %q", tferrors.ErrInvalid, opts.Format)
	}
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// DefaultExportName returns the file name used when no output path is
// given, for example "workflows_2024-05-01T09:30:00Z.json".
func DefaultExportName(now time.Time, format Format) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("workflows_%s.%s", now.UTC().Format(time.RFC3339), ext)
}

// WorkflowFileName returns a file name for exporting a single workflow.
func WorkflowFileName(wf *workflows.Workflow, format Format) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	slug := Slugify(wf.Name)
	if slug == "" {
		slug = "workflow"
	}
	return slug + "." + ext
}
