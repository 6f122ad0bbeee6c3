package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/pipeline"
	"github.com/nao1215/incapscan/internal/report"
)

// errNoDocumentsMatched is returned when every target was a glob that
// matched nothing.
var errNoDocumentsMatched = errors.New("no documents matched the given targets")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [document...]",
		Short: "Analyze medical-leave certificates for signs of fraud",
		Long: `Analyze runs the forensic pipeline on one or more certificates.

Each document goes through:
- Text extraction (PDF text layer, OCR for scans and images, Word documents)
- Metadata inspection (editing tools, creation and modification dates)
- Physician registry verification
- Diagnosis/duration congruence against the CIE-10 reference table
- Verdict synthesis (rule engine, or a language model with --llm)

Supported formats: PDF, JPG, JPEG, PNG, DOCX and DOC.

Examples:
  # Analyze a single certificate
  incapscan analyze incapacidad.pdf

  # Analyze every PDF below a directory
  incapscan analyze 'inbox/**/*.pdf'

  # Read document paths from a file, one per line
  incapscan analyze --list pending.txt

  # Print only the boundary envelope as JSON
  incapscan analyze --json --envelope incapacidad.pdf

  # Write a Markdown report and record the verdict in the audit ledger
  incapscan analyze --markdown --audit -o reports/incapacidad.md incapacidad.pdf`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"File with one document path or glob pattern per line")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Upper bound for each document analysis")
	cmd.Flags().IntP("batch-size", "b", config.DefaultBatchSize,
		"Number of documents analyzed concurrently")
	cmd.Flags().Float64("tolerance", config.DefaultTolerance,
		"Multiplier applied to the reference duration before flagging")
	cmd.Flags().String("roster", "",
		"YAML roster of registered physicians")
	cmd.Flags().String("ocr-lang", config.DefaultOCRLanguage,
		"Tesseract language pack")
	cmd.Flags().Bool("no-enrich", false,
		"Disable the online lookup for codes without a local reference")
	cmd.Flags().Bool("llm", false,
		"Use the language model engine (API key from INCAPSCAN_LLM_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().Bool("audit", false,
		"Record a digest-only entry for each analysis in the audit ledger")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().BoolP("envelope", "e", false,
		"With --json, output only {\"status\":\"success\",\"report\":{...}}")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnalyzeConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateTargets(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	analyzer, err := newAnalyzer(cfg, nil, logger)
	if err != nil {
		return err
	}

	db, err := openAuditDB(cfg, logger)
	if err != nil {
		return err
	}
	var recorder AuditRecorder
	if db != nil {
		defer db.Close()
		recorder = db
	}

	return withOutput(cfg.ReportFile, cmd.OutOrStdout(), func(out io.Writer) error {
		return runAnalyze(ctx, cfg, analyzer, recorder, out, cmd.ErrOrStderr(), logger)
	})
}

// buildAnalyzeConfig creates a Config from the configuration file and the
// analyze flags. Flags only override the file when set explicitly.
func buildAnalyzeConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyEngineFlags(cmd, cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.EnvelopeOnly, err = flags.GetBool("envelope"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	listFile, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets, err = expandTargets(args, listFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandTargets merges positional arguments with the list file and expands
// glob patterns. Literal paths are kept even if they do not exist so the
// report can describe the missing document.
func expandTargets(args []string, listFile string) ([]string, error) {
	patterns := append([]string(nil), args...)
	if listFile != "" {
		listed, err := readListFile(listFile)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, listed...)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var targets []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			targets = append(targets, path)
		}
	}

	for _, p := range patterns {
		if !isGlob(p) {
			add(p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	if len(targets) == 0 {
		return nil, errNoDocumentsMatched
	}
	return targets, nil
}

// readListFile reads one target per line. Blank lines and lines starting
// with '#' are ignored.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return lines, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// AuditRecorder stores a digest-only record of each analysis.
type AuditRecorder interface {
	SaveAnalysis(ctx context.Context, report *model.ForensicReport) (int64, error)
}

// runAnalyze analyzes every target and writes the reports to out in input
// order. Progress lines go to progress.
func runAnalyze(
	ctx context.Context,
	cfg *config.Config,
	analyzer pipeline.DocumentAnalyzer,
	recorder AuditRecorder,
	out, progress io.Writer,
	logger *slog.Logger,
) error {
	logger.Info("starting analysis",
		"documents", len(cfg.Targets),
		"batch_size", cfg.BatchSize,
		"audit", recorder != nil,
	)

	writer := newReportWriter(cfg, out)
	startTime := time.Now()

	var reports []*model.ForensicReport
	var batchErr error
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		fmt.Fprintf(progress, "Analyzing %d documents (concurrency: %d)...\n",
			len(cfg.Targets), cfg.BatchSize)
		bp := pipeline.NewBatchProcessor(analyzer,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
		)
		reports, batchErr = bp.ProcessBatch(ctx, cfg.Targets)
	} else {
		for _, target := range cfg.Targets {
			if err := ctx.Err(); err != nil {
				batchErr = err
				break
			}
			fmt.Fprintf(progress, "Analyzing %s...\n", filepath.Base(target))
			reports = append(reports, analyzer.Analyze(ctx, target))
		}
	}

	var writeErr error
	for _, r := range reports {
		if r == nil {
			continue
		}
		if recorder != nil {
			if _, err := recorder.SaveAnalysis(ctx, r); err != nil {
				logger.Error("failed to record analysis", "request_id", r.RequestID, "error", err)
			}
		}
		if _, err := writer.Write(r); err != nil {
			writeErr = fmt.Errorf("failed to write report: %w", err)
			break
		}
	}

	fmt.Fprintf(progress, "Analysis completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return errors.Join(writeErr, batchErr)
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport && cfg.EnvelopeOnly:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithEnvelopeOnly())
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, appVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// withOutput calls fn with the report file, or with stdout when path is
// empty. The file is created with 0600 permissions because reports carry
// health data.
func withOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		_ = f.Close() //nolint:errcheck // The write error takes precedence
		return err
	}
	return f.Close()
}
