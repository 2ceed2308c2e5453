package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazuruo/tabflow/internal/transfer"
)

// ExportOptions contains the options for the export command.
type ExportOptions struct {
	Workflows []string
	Format    string
	Output    string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export workflows to a file",
		Long: `Export workflows as a JSON array that import can read back.

By default every workflow is written to standard output. --id selects
workflows by id or name; the output keeps storage order. When --out is a
directory a file name is chosen: the workflow's name for a single workflow,
otherwise workflows_<timestamp>.json.

Examples:
  tabflow export > backup.json
  tabflow export --id morning --out ~/Desktop
  tabflow export --format yaml --out workflows.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Workflows, "id", nil, "workflow id or name to export (repeatable)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "output format: json or yaml (default json, or from the output extension)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file or directory (default stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	ctx := cmd.Context()

	formatName := opts.Format
	if formatName == "" {
		formatName = strings.TrimPrefix(filepath.Ext(opts.Output), ".")
		if formatName != "yaml" && formatName != "yml" {
			formatName = ""
		}
	}
	format, err := transfer.ParseFormat(formatName)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	all, err := env.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	ids := make([]string, 0, len(opts.Workflows))
	seen := make(map[string]bool, len(opts.Workflows))
	for _, ref := range opts.Workflows {
		wf, err := findWorkflow(ctx, env.store, ref)
		if err != nil {
			return err
		}
		if !seen[wf.ID] {
			seen[wf.ID] = true
			ids = append(ids, wf.ID)
		}
	}

	var buf bytes.Buffer
	if err := transfer.Export(&buf, all, transfer.Options{IDs: ids, Format: format}); err != nil {
		return err
	}

	if opts.Output == "" || opts.Output == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	path := opts.Output
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := transfer.DefaultExportName(time.Now(), format)
		if len(ids) == 1 {
			selected, _ := transfer.Select(all, ids)
			name = transfer.WorkflowFileName(selected[0], format)
		}
		path = filepath.Join(path, name)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	count := len(ids)
	if count == 0 {
		count = len(all)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d workflow(s) to %s\n", count, path)
	return nil
}
