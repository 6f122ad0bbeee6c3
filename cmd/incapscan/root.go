package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for incapscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incapscan",
		Short: "Forensic analyzer for medical-leave certificates",
		Long: `incapscan analyzes medical-leave certificates (incapacidades) for signs of fraud.

It extracts the document text (PDF text layer, OCR for scans and images,
Word documents), inspects the file metadata for editing tools, verifies the
treating physician and checks that the granted rest days are congruent with
the CIE-10 diagnosis. The result is a verdict (LEGITIMA, SOSPECHOSA or
FRAUDULENTA) with a veracity score from 0 to 100.

Documents are never stored: only a digest-only audit ledger is kept when
--audit is enabled.`,
		Version:       appVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Log debug messages (sensitive values stay masked)")
	pf.StringP("config", "c", "", "Configuration file (default: .incapscan in the current, home or XDG config directory)")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewServeCmd(),
		NewWatchCmd(),
		NewHistoryCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits with exitCode(err).
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "incapscan:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps an error to a process exit status. An interrupted run
// exits with 130 like a shell job killed by SIGINT.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
