package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List analyses recorded in the audit ledger",
		Long: `History lists the most recent entries of the audit ledger.

The ledger only holds the document digest, the verdict and the verification
statuses. Document text and claims are never stored.

Examples:
  # Show the last 50 analyses
  incapscan history

  # Show every analysis of one document
  incapscan history --digest 3a7bd3e2360a3d...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", database.DefaultListLimit,
		"Maximum number of entries to list")
	cmd.Flags().StringP("digest", "d", "",
		"Only list analyses of the document with this SHA3-256 digest")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	digest, err := cmd.Flags().GetString("digest")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No analyses recorded yet (enable the ledger with --audit).")
			return nil
		}
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	defer db.Close()

	return printHistory(cmd.Context(), db, digest, limit, cmd.OutOrStdout())
}

// printHistory writes one line per ledger entry.
func printHistory(ctx context.Context, db *database.AuditDB, digest string, limit int, out io.Writer) error {
	var (
		records []database.AnalysisRecord
		err     error
	)
	if digest != "" {
		records, err = db.FindByDigest(ctx, digest)
	} else {
		records, err = db.ListAnalyses(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read audit database: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No analyses recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-20s  %-12s  %5s  %-10s  %-20s  %s\n",
		"ANALYZED", "VERDICT", "SCORE", "REGISTRY", "CONGRUENCE", "DIGEST")
	for _, r := range records {
		verdict := string(r.Verdict)
		if r.Fallback {
			verdict += "*"
		}
		fmt.Fprintf(out, "%-20s  %-12s  %5d  %-10s  %-20s  %s\n",
			r.AnalyzedAt.Local().Format(time.DateTime),
			verdict,
			r.Score,
			orDash(string(r.RegistryStatus)),
			orDash(string(r.CongruenceStatus)),
			shortDigest(r.Digest),
		)
	}
	fmt.Fprintln(out, "\n* conservative fallback applied")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortDigest(d string) string {
	if len(d) > 16 {
		return d[:16]
	}
	return d
}
