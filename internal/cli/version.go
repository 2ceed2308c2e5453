package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	BuiltBy  string `json:"built_by"`
	Go       string `json:"go_version"`
	Platform string `json:"platform"`
}

func newVersionInfo(version, commit, date, builtBy string) VersionInfo {
	return VersionInfo{
		Version:  version,
		Commit:   commit,
		Date:     date,
		BuiltBy:  builtBy,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the multi-line human readable form.
func (v VersionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tabflow version %s\n", v.Version)
	fmt.Fprintf(&b, "commit: %s\n", v.Commit)
	fmt.Fprintf(&b, "built at: %s\n", v.Date)
	if v.BuiltBy != "" && v.BuiltBy != "unknown" {
		fmt.Fprintf(&b, "built by: %s\n", v.BuiltBy)
	}
	fmt.Fprintf(&b, "go version: %s (%s)\n", v.Go, v.Platform)
	return b.String()
}

// VersionOptions contains the options for the version command.
type VersionOptions struct {
	Short bool
	JSON  bool
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date, builtBy string) *cobra.Command {
	opts := &VersionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(cmd.OutOrStdout(), opts, newVersionInfo(version, commit, date, builtBy))
		},
	}

	cmd.Flags().BoolVar(&opts.Short, "short", false, "print only the version number")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func writeVersion(w io.Writer, opts *VersionOptions, info VersionInfo) error {
	switch {
	case opts.JSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(info); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case opts.Short:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	default:
		_, err := fmt.Fprint(w, info.String())
		return err
	}
}
