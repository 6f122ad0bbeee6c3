package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
	Go      string
}

// readBuildInfo merges ldflags values with the module and VCS data the Go
// toolchain embeds. ldflags win.
func readBuildInfo() buildInfo {
	bi := buildInfo{
		Version: "(devel)",
		Commit:  "unknown",
		Date:    "unknown",
		Go:      runtime.Version(),
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" {
			bi.Version = v
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				bi.Commit = s.Value
				if len(bi.Commit) > 7 {
					bi.Commit = bi.Commit[:7]
				}
			case "vcs.time":
				bi.Date = s.Value
			}
		}
	}

	if version != "" {
		bi.Version = version
	}
	if commit != "" {
		bi.Commit = commit
	}
	if date != "" {
		bi.Date = date
	}
	return bi
}

// appVersion is the version reported in envelopes, watch outputs and --version.
func appVersion() string {
	return readBuildInfo().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of incapscan.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			bi := readBuildInfo()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, bi.Version)
				return nil
			}
			fmt.Fprintf(out, "incapscan version %s\n", bi.Version)
			fmt.Fprintf(out, "  commit: %s\n  built:  %s\n  go:     %s\n", bi.Commit, bi.Date, bi.Go)
			return nil
		},
	}
	cmd.Flags().BoolP("short", "s", false, "Print only the version number")
	return cmd
}
