package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
	"github.com/nao1215/incapscan/internal/watch"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <inbox>",
		Short: "Analyze certificates dropped into an inbox directory",
		Long: `Watch monitors an inbox directory and analyzes every supported document
that appears in it once the file has stopped changing.

A report is written to the output directory for each document and the
source file is deleted from the inbox afterwards, whatever the outcome.

Examples:
  # Watch ./inbox and write JSON reports to ./reports
  incapscan watch inbox --out reports

  # Only PDFs, Markdown reports, longer settle period
  incapscan watch inbox --out reports --pattern '**/*.pdf' --format markdown --settle 5s`,
		Args: cobra.ExactArgs(1),
		RunE: runWatchCmd,
	}

	cmd.Flags().StringP("out", "o", "",
		"Directory for the generated reports (required)")
	cmd.Flags().StringP("format", "f", watch.FormatJSON,
		"Report format: json or markdown")
	cmd.Flags().StringSliceP("pattern", "p", []string{watch.DefaultPattern},
		"Glob patterns, relative to the inbox, selecting documents to analyze")
	cmd.Flags().Duration("settle", config.DefaultWatchSettle,
		"Quiet period after the last write before a document is analyzed")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Upper bound for each document analysis")
	cmd.Flags().String("roster", "",
		"YAML roster of registered physicians")
	cmd.Flags().Bool("no-enrich", false,
		"Disable the online lookup for codes without a local reference")
	cmd.Flags().Bool("llm", false,
		"Use the language model engine (API key from INCAPSCAN_LLM_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().Bool("audit", false,
		"Record a digest-only entry for each analysis in the audit ledger")

	_ = cmd.MarkFlagRequired("out") //nolint:errcheck // The flag is defined above

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyEngineFlags(cmd, cfg); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("settle") {
		if cfg.WatchSettle, err = flags.GetDuration("settle"); err != nil {
			return err
		}
	}
	outDir, err := flags.GetString("out")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	patterns, err := flags.GetStringSlice("pattern")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	analyzer, err := newAnalyzer(cfg, nil, logger)
	if err != nil {
		return err
	}

	opts := []watch.Option{
		watch.WithPatterns(patterns...),
		watch.WithSettle(cfg.WatchSettle),
		watch.WithFormat(format),
		watch.WithVersion(appVersion()),
		watch.WithLogger(logger),
	}

	db, err := openAuditDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, watch.WithAuditRecorder(db))
	}

	w, err := watch.New(args[0], outDir, analyzer, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (reports in %s)\n", args[0], outDir)
	return w.Run(ctx)
}
