package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(w *Workflow) []string {
	ids := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		ids[i] = s.ID
	}
	return ids
}

func fixture() *Workflow {
	return &Workflow{
		ID:   "wf",
		Name: "Morning",
		Steps: []Step{
			{ID: "a", Title: "A", URL: "https://a.example"},
			{ID: "b", Title: "B"},
			{ID: "c", Title: "C", URL: "https://c.example"},
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	wf := New(now)

	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, DefaultWorkflowName, wf.Name)
	assert.Empty(t, wf.Description)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "Step 1", wf.Steps[0].Title)
	assert.Equal(t, "Step 2", wf.Steps[1].Title)
	assert.Empty(t, wf.Steps[0].URL)
	assert.NotEqual(t, wf.Steps[0].ID, wf.Steps[1].ID)
	assert.Equal(t, now, wf.CreatedAt)
	assert.NoError(t, wf.Validate())
}

func TestClone_IsDeep(t *testing.T) {
	orig := fixture()
	c := orig.Clone()
	c.Steps[0].Title = "changed"
	c.Name = "other"

	assert.Equal(t, "A", orig.Steps[0].Title)
	assert.Equal(t, "Morning", orig.Name)
	assert.Nil(t, (*Workflow)(nil).Clone())
}

func TestInsertStep(t *testing.T) {
	tests := []struct {
		name  string
		after int
		want  []string
		at    int
	}{
		{"append on negative", -1, []string{"a", "b", "c", "n"}, 3},
		{"after first", 0, []string{"a", "n", "b", "c"}, 1},
		{"after last", 2, []string{"a", "b", "c", "n"}, 3},
		{"out of range appends", 10, []string{"a", "b", "c", "n"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := fixture()
			at := wf.InsertStep(tt.after, Step{ID: "n"})
			assert.Equal(t, tt.at, at)
			assert.Equal(t, tt.want, stepIDs(wf))
		})
	}
}

func TestMoveStep(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		index int
		want  []string
		final int
	}{
		{"to front", "c", 0, []string{"c", "a", "b"}, 0},
		{"to back", "a", 2, []string{"b", "c", "a"}, 2},
		{"clamped high", "a", 99, []string{"b", "c", "a"}, 2},
		{"clamped low", "c", -5, []string{"c", "a", "b"}, 0},
		{"same place", "b", 1, []string{"a", "b", "c"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := fixture()
			final, ok := wf.MoveStep(tt.id, tt.index)
			require.True(t, ok)
			assert.Equal(t, tt.final, final)
			assert.Equal(t, tt.want, stepIDs(wf))
		})
	}

	_, ok := fixture().MoveStep("missing", 0)
	assert.False(t, ok)
}

func TestRemoveStep(t *testing.T) {
	wf := fixture()
	assert.True(t, wf.RemoveStep("b"))
	assert.Equal(t, []string{"a", "c"}, stepIDs(wf))
	assert.False(t, wf.RemoveStep("b"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Workflow)
		wantErr string
	}{
		{"valid", func(*Workflow) {}, ""},
		{"missing id", func(w *Workflow) { w.ID = "" }, "workflow id is required"},
		{"bad color", func(w *Workflow) { w.Color = "#123456" }, "not in the palette"},
		{"palette color", func(w *Workflow) { w.Color = "#34C759" }, ""},
		{"missing step id", func(w *Workflow) { w.Steps[1].ID = "" }, "step 1: id is required"},
		{"duplicate step id", func(w *Workflow) { w.Steps[2].ID = "a" }, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := fixture()
			tt.mutate(wf)
			err := wf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	wf := &Workflow{ID: "x", Name: "n", Steps: []Step{{Title: "t"}}}
	wf.Normalize(now)

	assert.NotEmpty(t, wf.Steps[0].ID)
	assert.Equal(t, now, wf.CreatedAt)
	assert.Equal(t, now, wf.UpdatedAt)

	empty := &Workflow{ID: "y"}
	empty.Normalize(now)
	assert.NotNil(t, empty.Steps)
}

func TestNormalize_RepairsForValidate(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name      string
		mutate    func(*Workflow)
		wantColor string
	}{
		{"unknown color cleared", func(w *Workflow) { w.Color = "#123456" }, ""},
		{"color name canonicalized", func(w *Workflow) { w.Color = "green" }, "#34C759"},
		{"lowercase hex canonicalized", func(w *Workflow) { w.Color = "#34c759" }, "#34C759"},
		{"duplicate step id", func(w *Workflow) { w.Steps[2].ID = "a" }, ""},
		{"empty step id", func(w *Workflow) { w.Steps[1].ID = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := fixture()
			tt.mutate(wf)
			wf.Normalize(now)

			require.NoError(t, wf.Validate())
			assert.Equal(t, tt.wantColor, wf.Color)
			require.Len(t, wf.Steps, 3)
			assert.Equal(t, "a", wf.Steps[0].ID)
		})
	}
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"red", "#FF3B30", false},
		{"Blue", "#007AFF", false},
		{"#af52de", "#AF52DE", false},
		{"magenta", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "green", ColorName("#34C759"))
	assert.Equal(t, "#000000", ColorName("#000000"))
}

func TestMarshalWorkflows_RoundTrip(t *testing.T) {
	in := []*Workflow{fixture()}
	data, err := MarshalWorkflows(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"steps": [`)
	assert.NotContains(t, string(data), "created_at")

	out, err := UnmarshalWorkflows(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := MarshalWorkflows(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestIsPlaceholderTitle(t *testing.T) {
	tests := map[string]bool{
		"":           true,
		"  ":         true,
		"New step":   true,
		"Step 1":     true,
		"Step 12":    true,
		"Step one":   false,
		"Stepping 1": false,
		"GitHub":     false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsPlaceholderTitle(in), "IsPlaceholderTitle(%q)", in)
	}
}
