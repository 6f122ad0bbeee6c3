package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
	applog "github.com/nao1215/incapscan/internal/log"
	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forensic analysis HTTP service",
		Long: `Serve exposes the forensic pipeline over HTTP.

Endpoints:
  GET  /                 health check
  POST /api/v1/analyze   multipart upload, field "file" (PDF, JPG or PNG)
  GET  /metrics          Prometheus metrics

Uploads are written to a private scratch directory that is removed as soon
as the response is produced. Logs are written as JSON to stderr.

Examples:
  # Listen on the default address (:8000)
  incapscan serve

  # Listen on localhost only and keep the audit ledger
  incapscan serve --addr 127.0.0.1:9000 --audit

  # Upload a certificate
  curl -F file=@incapacidad.pdf http://localhost:8000/api/v1/analyze`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().Int64("max-upload", config.DefaultMaxUploadSize,
		"Maximum accepted upload in bytes")
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

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	analyzer, err := newAnalyzer(cfg, m, logger)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(m, reg),
		server.WithMaxUploadSize(cfg.MaxUploadSize),
		server.WithAnalysisTimeout(cfg.Timeout),
	}

	db, err := openAuditDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, server.WithAuditRecorder(db))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", cfg.ListenAddress)
	return server.New(analyzer, opts...).ListenAndServe(ctx, cfg.ListenAddress)
}

// buildServeConfig creates a Config from the configuration file and the
// serve flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		if cfg.ListenAddress, err = flags.GetString("addr"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-upload") {
		if cfg.MaxUploadSize, err = flags.GetInt64("max-upload"); err != nil {
			return nil, err
		}
	}
	if err := applyEngineFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
