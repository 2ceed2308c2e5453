package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the tabflow command tree.
func NewRootCommand(version, commit, date, builtBy string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabflow",
		Short: "Open sets of browser tabs as workflows",
		Long: `tabflow keeps named, color-tagged workflows: ordered lists of web pages
with notes. Running a workflow opens its pages as browser tabs, one after
another, and brings the first one to the front.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewViewCommand())
	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewEditCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewOpenStepCommand())
	rootCmd.AddCommand(NewSearchCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand(version, commit, date, builtBy))

	return rootCmd
}
