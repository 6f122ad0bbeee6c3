package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
	"github.com/nao1215/incapscan/internal/congruence"
	"github.com/nao1215/incapscan/internal/database"
	"github.com/nao1215/incapscan/internal/extract"
	applog "github.com/nao1215/incapscan/internal/log"
	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/pipeline"
	"github.com/nao1215/incapscan/internal/reasoning"
	"github.com/nao1215/incapscan/internal/registry"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig creates a Config from the defaults and the configuration file.
// Command flags are applied afterwards by each command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.LLMAPIKey = config.APIKeyFromEnv()
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}
	return cfg, nil
}

// setupLogger creates a redacting text logger on stderr.
func setupLogger(verbose bool) *slog.Logger {
	return applog.NewSecureLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newAnalyzer wires the forensic pipeline from cfg.
func newAnalyzer(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*pipeline.Analyzer, error) {
	components, err := newComponents(cfg, m, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDefaultAnalyzer(components, pipeline.WithAnalysisTimeout(cfg.Timeout)), nil
}

// newComponents builds the pipeline collaborators.
func newComponents(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (pipeline.Components, error) {
	extractor := extract.New(
		extract.WithLogger(logger),
		extract.WithOCRLanguage(cfg.OCRLanguage),
		extract.WithTessdataDir(cfg.TessdataDir),
		extract.WithPDFToText(cfg.PDFToTextPath),
		extract.WithPDFToPPM(cfg.PDFToPPMPath),
		extract.WithTesseract(cfg.TesseractPath),
		extract.WithCommandTimeout(cfg.CommandTimeout),
	)

	registryOpts := []registry.Option{
		registry.WithReportingBody(cfg.ReportingBody),
		registry.WithProfession(cfg.Profession),
		registry.WithLogger(logger),
	}
	if cfg.RosterFile != "" {
		roster, err := registry.LoadRoster(cfg.RosterFile)
		if err != nil {
			return pipeline.Components{}, err
		}
		logger.Info("physician roster loaded", "entries", roster.Len())
		registryOpts = append(registryOpts, registry.WithDirectory(roster))
	}

	congruenceOpts := []congruence.Option{
		congruence.WithReferences(cfg.References),
		congruence.WithTolerance(cfg.Tolerance),
		congruence.WithEnrichmentTimeout(cfg.EnrichmentTimeout),
		congruence.WithEnrichmentObserver(m.IncrementEnrichment),
		congruence.WithLogger(logger),
	}
	if cfg.EnrichmentEnabled {
		enricher, err := newEnricher(cfg)
		if err != nil {
			return pipeline.Components{}, err
		}
		congruenceOpts = append(congruenceOpts, congruence.WithEnricher(enricher))
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return pipeline.Components{}, err
	}

	return pipeline.Components{
		Extractor:   extractor,
		Locator:     engine,
		Registry:    registry.NewChecker(registryOpts...),
		Congruence:  congruence.NewChecker(congruenceOpts...),
		Synthesizer: engine,
		Metrics:     m,
		Logger:      logger,
	}, nil
}

// newEnricher creates the online lookup, routed through the egress proxy
// when one is configured.
func newEnricher(cfg *config.Config) (*congruence.DuckDuckGoEnricher, error) {
	client := &http.Client{}
	if cfg.EnrichmentProxy != "" {
		var err error
		client, err = congruence.NewProxyHTTPClient(cfg.EnrichmentProxy)
		if err != nil {
			return nil, fmt.Errorf("enrichment proxy %q: %w", cfg.EnrichmentProxy, err)
		}
	}
	return congruence.NewDuckDuckGoEnricher(
		congruence.WithHTTPClient(client),
		congruence.WithSearchURL(cfg.EnrichmentURL),
		congruence.WithUserAgent(cfg.UserAgent),
	), nil
}

// newEngine selects the language model engine or the rule engine.
func newEngine(cfg *config.Config, logger *slog.Logger) (reasoning.Engine, error) {
	if !cfg.UseLLM {
		return reasoning.NewRuleEngine(reasoning.WithRuleLogger(logger)), nil
	}
	engine, err := reasoning.NewLLMEngine(
		reasoning.WithBaseURL(cfg.LLMBaseURL),
		reasoning.WithModel(cfg.LLMModel),
		reasoning.WithAPIKey(cfg.LLMAPIKey),
		reasoning.WithLLMTimeout(cfg.LLMTimeout),
		reasoning.WithLLMLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create language model engine: %w", err)
	}
	return engine, nil
}

// openAuditDB opens the ledger when auditing is enabled.
// It returns nil without error when auditing is disabled.
func openAuditDB(cfg *config.Config, logger *slog.Logger) (*database.AuditDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	logger.Info("audit database opened", "path", db.Path())
	return db, nil
}

// applyEngineFlags overlays the analysis flags a command defines on cfg.
// Flags only override the configuration file when set explicitly.
func applyEngineFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	var err error
	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("batch-size") {
		if cfg.BatchSize, err = flags.GetInt("batch-size"); err != nil {
			return err
		}
	}
	if changed("tolerance") {
		if cfg.Tolerance, err = flags.GetFloat64("tolerance"); err != nil {
			return err
		}
	}
	if changed("roster") {
		if cfg.RosterFile, err = flags.GetString("roster"); err != nil {
			return err
		}
	}
	if changed("ocr-lang") {
		if cfg.OCRLanguage, err = flags.GetString("ocr-lang"); err != nil {
			return err
		}
	}
	if changed("no-enrich") {
		noEnrich, err := flags.GetBool("no-enrich")
		if err != nil {
			return err
		}
		cfg.EnrichmentEnabled = !noEnrich
	}
	if changed("llm") {
		if cfg.UseLLM, err = flags.GetBool("llm"); err != nil {
			return err
		}
	}
	if changed("audit") {
		if cfg.SaveToDB, err = flags.GetBool("audit"); err != nil {
			return err
		}
	}
	return nil
}
