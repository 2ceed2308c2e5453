// Package cli provides tests for CLI commands.
package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/tabflow/internal/config"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/testutil"
	"github.com/chazuruo/tabflow/internal/transfer"
	"github.com/chazuruo/tabflow/internal/workflows"
)

// testConfig writes a config using the file backend and the print opener
// and returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[storage]
backend = "file"
path = "` + filepath.ToSlash(filepath.Join(dir, "workflows.json")) + `"

[runner]
opener = "print"
step_delay = "1ms"
reset_delay = "1s"

[enrich]
enabled = false

[log]
level = "error"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command non-interactively against configPath.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand("1.2.3", "abc123", "2024-05-01", "test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", configPath, "--no-tui"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := execute(t, configPath, args...)
	require.NoError(t, err, "tabflow %s", strings.Join(args, " "))
	return out
}

func listJSON(t *testing.T, configPath string) []*workflows.Workflow {
	t.Helper()
	wfs, err := workflows.UnmarshalWorkflows([]byte(mustExecute(t, configPath, "list", "--format", "json")))
	require.NoError(t, err)
	return wfs
}

func TestVersion(t *testing.T) {
	cfg := testConfig(t)

	out := mustExecute(t, cfg, "version", "--short")
	assert.Equal(t, "1.2.3\n", out)

	out = mustExecute(t, cfg, "version")
	assert.Contains(t, out, "tabflow version 1.2.3")
	assert.Contains(t, out, "commit: abc123")
}

func TestNew_ThenList(t *testing.T) {
	cfg := testConfig(t)

	out := mustExecute(t, cfg, "new",
		"--name", "Morning",
		"--description", "daily start",
		"--color", "blue",
		"--step", "Mail=https://mail.example.com",
		"--step", "https://calendar.example.com/?view=week",
	)
	assert.Contains(t, out, `Created workflow "Morning"`)

	wfs := listJSON(t, cfg)
	require.Len(t, wfs, 1)
	wf := wfs[0]
	assert.Equal(t, "Morning", wf.Name)
	assert.Equal(t, "daily start", wf.Description)
	assert.Equal(t, "#007AFF", wf.Color)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "Mail", wf.Steps[0].Title)
	assert.Equal(t, "https://mail.example.com", wf.Steps[0].URL)
	assert.Equal(t, "https://calendar.example.com/?view=week", wf.Steps[1].URL)
	assert.False(t, wf.UpdatedAt.IsZero())

	table := mustExecute(t, cfg, "list")
	assert.Contains(t, table, "Morning")
	assert.Contains(t, table, "Total: 1 workflow(s)")
}

func TestNew_StepsWithoutName(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSteps []string
	}{
		{"one step", []string{"--step", "One=https://one.example.com"}, []string{"https://one.example.com"}},
		{"bare url", []string{"--step", "https://two.example.com"}, []string{"https://two.example.com"}},
		{"no steps keeps placeholders", nil, []string{"", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			out := mustExecute(t, cfg, append([]string{"new"}, tt.args...)...)
			assert.Contains(t, out, `Created workflow "`+workflows.DefaultWorkflowName+`"`)

			wfs := listJSON(t, cfg)
			require.Len(t, wfs, 1)
			assert.Equal(t, workflows.DefaultWorkflowName, wfs[0].Name)
			assert.Empty(t, wfs[0].Color)
			urls := make([]string, len(wfs[0].Steps))
			for i, s := range wfs[0].Steps {
				urls[i] = s.URL
			}
			assert.Equal(t, tt.wantSteps, urls)
		})
	}
}

func TestNew_InvalidColor(t *testing.T) {
	cfg := testConfig(t)

	_, err := execute(t, cfg, "new", "--name", "x", "--color", "teal")
	require.Error(t, err)
	assert.Empty(t, listJSON(t, cfg))
}

func TestList_Filters(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Deploy", "--description", "release checklist", "--color", "red")
	mustExecute(t, cfg, "new", "--name", "Reading", "--color", "green")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"no filter", nil, []string{"Deploy", "Reading"}},
		{"query on description", []string{"--query", "CHECKLIST"}, []string{"Deploy"}},
		{"color", []string{"--color", "green"}, []string{"Reading"}},
		{"two colors", []string{"--color", "green", "--color", "#ff3b30"}, []string{"Deploy", "Reading"}},
		{"no match", []string{"--query", "nothing"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"list", "--format", "plain"}, tt.args...)
			out := mustExecute(t, cfg, args...)
			for _, name := range []string{"Deploy", "Reading"} {
				want := false
				for _, w := range tt.want {
					want = want || w == name
				}
				assert.Equal(t, want, strings.Contains(out, name), "%s in output", name)
			}
		})
	}
}

func TestList_InvalidFormat(t *testing.T) {
	_, err := execute(t, testConfig(t), "list", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestView(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Research", "--step", "Paper=https://arxiv.example.org/abs/1")

	out := mustExecute(t, cfg, "view", "research")
	assert.Contains(t, out, "Research")
	assert.Contains(t, out, "1. Paper")
	assert.Contains(t, out, "https://arxiv.example.org/abs/1")

	_, err := execute(t, cfg, "view", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEdit_NonInteractive(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Ops",
		"--step", "A=https://a.example.com",
		"--step", "B=https://b.example.com")

	wf := listJSON(t, cfg)[0]
	stepB := wf.Steps[1].ID

	out := mustExecute(t, cfg, "edit", wf.ID,
		"--name", "Operations",
		"--color", "purple",
		"--add-step", "C=https://c.example.com",
		"--move-step", stepB+"=0",
		"--set-memo", stepB+"=check alerts first",
	)
	assert.Contains(t, out, `Saved workflow "Operations" (3 step(s))`)

	got := listJSON(t, cfg)[0]
	assert.Equal(t, wf.ID, got.ID)
	assert.Equal(t, "Operations", got.Name)
	assert.Equal(t, "#AF52DE", got.Color)
	require.Len(t, got.Steps, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{got.Steps[0].Title, got.Steps[1].Title, got.Steps[2].Title})
	assert.Equal(t, "check alerts first", got.Steps[0].Memo)
}

func TestEdit_NoChanges(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Still")

	out := mustExecute(t, cfg, "edit", "Still")
	assert.Contains(t, out, "No changes.")
}

func TestEdit_UnknownStepSavesNothing(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Keep", "--step", "A=https://a.example.com")

	_, err := execute(t, cfg, "edit", "Keep", "--name", "Changed", "--delete-step", "nope")
	require.Error(t, err)
	assert.Equal(t, "Keep", listJSON(t, cfg)[0].Name)
}

func TestDelete(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Temp")

	_, err := execute(t, cfg, "delete", "Temp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	require.Len(t, listJSON(t, cfg), 1)

	out := mustExecute(t, cfg, "delete", "Temp", "--yes")
	assert.Contains(t, out, `Deleted workflow "Temp"`)
	assert.Empty(t, listJSON(t, cfg))
}

func TestRun_PrintOpener(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Tabs",
		"--step", "One=https://one.example.com",
		"--step", "Two=https://two.example.com")

	// A step without a URL is skipped.
	wf := listJSON(t, cfg)[0]
	mustExecute(t, cfg, "edit", wf.ID, "--add-step", "Empty=")

	out := mustExecute(t, cfg, "run", "Tabs")
	assert.Contains(t, out, "open tab-1 https://one.example.com")
	assert.Contains(t, out, "open tab-2 https://two.example.com")
	assert.Contains(t, out, "focus tab-1")
	assert.Contains(t, out, "2 opened, 1 skipped")
	assert.Less(t, strings.Index(out, "tab-1 https://one"), strings.Index(out, "tab-2 https://two"))
}

func TestRun_UnknownOpener(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Tabs", "--step", "https://one.example.com")

	_, err := execute(t, cfg, "run", "Tabs", "--opener", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opener")
}

func TestOpenStep(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Pair",
		"--step", "One=https://one.example.com",
		"--step", "Two=https://two.example.com")

	out := mustExecute(t, cfg, "open-step", "Pair", "2")
	assert.Equal(t, "open tab-1 https://two.example.com\nfocus tab-1\n", out)

	_, err := execute(t, cfg, "open-step", "Pair", "3")
	require.Error(t, err)
}

func TestSearch_Local(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Inbox zero", "--description", "mail triage")
	mustExecute(t, cfg, "new", "--name", "Standup")

	out := mustExecute(t, cfg, "search", "MAIL")
	assert.Contains(t, out, "Inbox zero")
	assert.NotContains(t, out, "Standup")

	out = mustExecute(t, cfg, "search", "nothing", "here")
	assert.Contains(t, out, `No workflows match "nothing here".`)
}

func TestExportImport(t *testing.T) {
	src := testConfig(t)
	mustExecute(t, src, "new", "--name", "First", "--step", "https://one.example.com")
	mustExecute(t, src, "new", "--name", "Second", "--color", "yellow")

	exported := mustExecute(t, src, "export")
	exportPath := testutil.WriteFile(t, "backup.json", exported)

	dst := testConfig(t)
	out := mustExecute(t, dst, "import", exportPath)
	assert.Contains(t, out, "Imported 2 workflow(s)")

	assert.Equal(t, listJSON(t, src), listJSON(t, dst))

	out = mustExecute(t, dst, "import", exportPath)
	assert.Contains(t, out, "Imported 0 workflow(s), skipped 2 duplicate(s)")
}

func TestExport_ToDirectory(t *testing.T) {
	cfg := testConfig(t)
	mustExecute(t, cfg, "new", "--name", "Weekly Review")
	mustExecute(t, cfg, "new", "--name", "Other")

	dir := t.TempDir()
	out := mustExecute(t, cfg, "export", "--id", "Weekly Review", "--out", dir)
	path := filepath.Join(dir, "weekly-review.json")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	wfs, err := workflows.UnmarshalWorkflows(data)
	require.NoError(t, err)
	require.Len(t, wfs, 1)
	assert.Equal(t, "Weekly Review", wfs[0].Name)
}

func TestImport_InvalidFile(t *testing.T) {
	cfg := testConfig(t)
	path := testutil.WriteFile(t, "bad.json", `{"id":"x"}`)

	_, err := execute(t, cfg, "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-level value must be an array")
	assert.Contains(t, err.Error(), path+" is not a valid workflow export")
	assert.Empty(t, listJSON(t, cfg))
}

func TestImportError(t *testing.T) {
	diskFull := &tferrors.StorageError{Backend: "sqlite", Op: "add", Err: errors.New("disk full")}
	tests := []struct {
		name   string
		path   string
		result transfer.Result
		err    error
		want   string
		is     error
	}{
		{
			name: "rejected file",
			path: "bad.json",
			err:  &tferrors.ValidationError{Index: 2, Field: "name", Reason: "must be a non-empty string"},
			want: "bad.json is not a valid workflow export, nothing imported: invalid workflow at index 2: name must be a non-empty string",
			is:   tferrors.ErrInvalid,
		},
		{
			name: "rejected stdin",
			path: "-",
			err:  &tferrors.ValidationError{Index: -1, Reason: "not valid JSON"},
			want: "stdin is not a valid workflow export, nothing imported: invalid payload: not valid JSON",
			is:   tferrors.ErrInvalid,
		},
		{
			name:   "storage failure",
			path:   "ok.json",
			result: transfer.Result{Imported: 3},
			err:    diskFull,
			want:   "import stopped after 3 workflow(s) on sqlite backend: sqlite store add: disk full",
			is:     tferrors.ErrStorage,
		},
		{
			name: "other",
			path: "ok.json",
			err:  context.Canceled,
			want: "import failed: context canceled",
			is:   context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := importError(tt.path, tt.result, tt.err)
			assert.EqualError(t, err, tt.want)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestConfigInit_NonInteractive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tabflow", "config.toml")
	dataPath := filepath.Join(dir, "data.db")

	out := mustExecute(t, path, "config", "init",
		"--backend", "sqlite",
		"--path", dataPath,
		"--opener", "print",
		"--no-enrich",
	)
	assert.Contains(t, out, "Configuration written to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, dataPath, cfg.Storage.Path)
	assert.Equal(t, "print", cfg.Runner.Opener)
	assert.False(t, cfg.Enrich.Enabled)

	_, err = execute(t, path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	shown := mustExecute(t, path, "config", "show")
	assert.Contains(t, shown, `backend = "sqlite"`)
}

func TestConfigInit_InvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, path, "config", "init", "--backend", "redis")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestSplitStep(t *testing.T) {
	tests := []struct {
		raw       string
		wantTitle string
		wantURL   string
	}{
		{"Mail=https://mail.example.com", "Mail", "https://mail.example.com"},
		{"https://example.com/?a=b", "", "https://example.com/?a=b"},
		{"Query=https://example.com/?a=b", "Query", "https://example.com/?a=b"},
		{"https://example.com", "", "https://example.com"},
		{"Empty=", "Empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			title, url := splitStep(tt.raw)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestFindStep(t *testing.T) {
	wf := &workflows.Workflow{Steps: []workflows.Step{
		{ID: "s1", Title: "one"},
		{ID: "s2", Title: "two"},
	}}

	st, err := findStep(wf, "s2")
	require.NoError(t, err)
	assert.Equal(t, "two", st.Title)

	st, err = findStep(wf, "1")
	require.NoError(t, err)
	assert.Equal(t, "one", st.Title)

	for _, ref := range []string{"0", "3", "s9"} {
		_, err := findStep(wf, ref)
		assert.Error(t, err, ref)
	}
}
