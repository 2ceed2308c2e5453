// Package testutil provides helper functions for testing.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/chazuruo/tabflow/internal/workflows"
)

// TempDir creates a temporary directory and registers a cleanup function.
// The directory is automatically deleted when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "tabflow-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("failed to cleanup temp dir %s: %v", dir, err)
		}
	})

	return dir
}

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(TempDir(t), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}

	return path
}

// Workflow builds a workflow with one step per URL. Step ids are
// "<id>-1", "<id>-2", ... and timestamps are fixed.
func Workflow(id, name string, urls ...string) *workflows.Workflow {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wf := &workflows.Workflow{
		ID:        id,
		Name:      name,
		Steps:     make([]workflows.Step, 0, len(urls)),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for i, u := range urls {
		wf.Steps = append(wf.Steps, workflows.Step{
			ID:    id + "-" + strconv.Itoa(i+1),
			Title: name + " " + strconv.Itoa(i+1),
			URL:   u,
		})
	}
	return wf
}
