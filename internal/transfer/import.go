package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/workflows"
	"github.com/chazuruo/tabflow/internal/workflows/store"
)

// Result reports what an import did.
type Result struct {
	// Imported is the number of workflows added to the store.
	Imported int

	// Skipped is the number of workflows whose id or name was already taken.
	Skipped int

	// SkippedIDs lists the skipped workflow ids in file order.
	SkippedIDs []string
}

// Option configures an import.
type Option func(*importer)

type importer struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithNow sets the clock used to stamp workflows without timestamps.
func WithNow(now func() time.Time) Option {
	return func(im *importer) {
		if now != nil {
			im.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(im *importer) {
		im.logger = l
	}
}

// Validate checks that data is a JSON array of objects that each carry a
// non-empty string id and name and a steps array.
func Validate(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &tferrors.ValidationError{Index: -1, Reason: "not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return &tferrors.ValidationError{Index: -1, Reason: "top-level value must be an array"}
	}

	for i, el := range root.Array() {
		if !el.IsObject() {
			return &tferrors.ValidationError{Index: i, Reason: "not an object"}
		}
		if id := el.Get("id"); id.Type != gjson.String || id.Str == "" {
			return &tferrors.ValidationError{Index: i, Field: "id", Reason: "must be a non-empty string"}
		}
		if name := el.Get("name"); name.Type != gjson.String || name.Str == "" {
			return &tferrors.ValidationError{Index: i, Field: "name", Reason: "must be a non-empty string"}
		}
		steps := el.Get("steps")
		if !steps.IsArray() {
			return &tferrors.ValidationError{Index: i, Field: "steps", Reason: "must be an array"}
		}
		for _, s := range steps.Array() {
			if !s.IsObject() {
				return &tferrors.ValidationError{Index: i, Field: "steps", Reason: "must contain objects"}
			}
		}
	}
	return nil
}

// Import reads a workflow array from r and adds each workflow to st.
//
// The whole payload is validated first; a malformed payload imports
// nothing. Each workflow is then normalized: an unknown color is cleared
// and empty or repeated step ids are regenerated. Workflows whose id or name is already in the store, or earlier
// in the same payload, are skipped. A storage failure aborts the import;
// workflows added before it stay added.
func Import(ctx context.Context, st store.Store, r io.Reader, opts ...Option) (Result, error) {
	im := &importer{now: time.Now}
	for _, opt := range opts {
		opt(im)
	}
	logger := logging.OrDiscard(im.logger)

	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading import: %w", err)
	}
	if err := Validate(data); err != nil {
		return Result{}, err
	}

	incoming, err := workflows.UnmarshalWorkflows(data)
	if err != nil {
		return Result{}, &tferrors.ValidationError{Index: -1, Reason: err.Error()}
	}

	now := im.now()
	for i, wf := range incoming {
		wf.Normalize(now)
		if err := wf.Validate(); err != nil {
			return Result{}, &tferrors.ValidationError{Index: i, Reason: err.Error()}
		}
	}

	existing, err := st.GetAll(ctx)
	if err != nil {
		return Result{}, err
	}
	ids := make(map[string]bool, len(existing)+len(incoming))
	names := make(map[string]bool, len(existing)+len(incoming))
	for _, wf := range existing {
		ids[wf.ID] = true
		names[wf.Name] = true
	}

	var result Result
	for _, wf := range incoming {
		if ids[wf.ID] || names[wf.Name] {
			logger.Debug("skipping duplicate workflow", "id", wf.ID, "name", wf.Name)
			result.Skipped++
			result.SkippedIDs = append(result.SkippedIDs, wf.ID)
			continue
		}

		if err := st.Add(ctx, wf); err != nil {
			if tferrors.IsAlreadyExists(err) {
				result.Skipped++
				result.SkippedIDs = append(result.SkippedIDs, wf.ID)
				continue
			}
			return result, err
		}
		ids[wf.ID] = true
		names[wf.Name] = true
		result.Imported++
	}

	logger.Info("import finished", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}
