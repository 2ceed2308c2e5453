package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/transfer"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import workflows from a JSON file",
		Long: `Import workflows from a JSON array produced by export.

The whole file is validated first; a malformed file imports nothing.
Workflows whose id or name already exists are skipped. Use "-" to read
from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}

	return cmd
}

func runImport(cmd *cobra.Command, path string) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := transfer.Import(cmd.Context(), env.store, r, transfer.WithLogger(env.logger))
	if err != nil {
		return importError(path, result, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Imported %d workflow(s)", result.Imported)
	if result.Skipped > 0 {
		fmt.Fprintf(out, ", skipped %d duplicate(s)", result.Skipped)
	}
	fmt.Fprintln(out)
	for _, id := range result.SkippedIDs {
		env.logger.Debug("skipped duplicate", "workflow", id)
	}
	return nil
}

// importError describes a failed import. A rejected file names the source;
// a storage failure reports how many workflows were already added.
func importError(path string, result transfer.Result, err error) error {
	if path == "-" {
		path = "stdin"
	}
	if _, ok := tferrors.AsValidationError(err); ok {
		return fmt.Errorf("%s is not a valid workflow export, nothing imported: %w", path, err)
	}
	if se, ok := tferrors.AsStorageError(err); ok {
		return fmt.Errorf("import stopped after %d workflow(s) on %s backend: %w", result.Imported, se.Backend, err)
	}
	return fmt.Errorf("import failed: %w", err)
}
