package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
	"github.com/nao1215/incapscan/internal/congruence"
	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/reasoning"
)

// commandWithConfig returns a command whose --config flag points at path.
func commandWithConfig(path string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", path, "")
	cmd.Flags().Bool("verbose", true, "")
	return cmd
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := loadConfig(commandWithConfig(filepath.Join(t.TempDir(), "missing.yaml")))
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		writeFile(t, path, "analysis: [unclosed")
		if _, err := loadConfig(commandWithConfig(path)); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("file, verbose flag and API key", func(t *testing.T) {
		t.Setenv("INCAPSCAN_LLM_API_KEY", "sk-test")
		path := filepath.Join(t.TempDir(), "incapscan.yaml")
		writeFile(t, path, "llm:\n  enabled: true\n  model: llama3\n")

		cfg, err := loadConfig(commandWithConfig(path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Verbose {
			t.Error("expected verbose from the flag")
		}
		if !cfg.UseLLM || cfg.LLMModel != "llama3" {
			t.Errorf("expected LLM settings from file, got %v %q", cfg.UseLLM, cfg.LLMModel)
		}
		if cfg.LLMAPIKey != "sk-test" {
			t.Error("expected the API key from the environment")
		}
		if cfg.DBDir != config.XDGDataDir() {
			t.Errorf("expected XDG data dir, got %q", cfg.DBDir)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})
}

func TestApplyEngineFlags(t *testing.T) {
	t.Parallel()

	t.Run("unset flags keep config values", func(t *testing.T) {
		t.Parallel()
		cmd := NewServeCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg := config.NewConfig()
		cfg.SaveToDB = true
		cfg.RosterFile = "roster.yaml"
		if err := applyEngineFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.SaveToDB || cfg.RosterFile != "roster.yaml" || !cfg.EnrichmentEnabled {
			t.Errorf("expected config values untouched, got %+v", cfg)
		}
	})

	t.Run("flags the command lacks are ignored", func(t *testing.T) {
		t.Parallel()
		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--llm", "--audit=false", "--no-enrich"}); err != nil {
			t.Fatal(err)
		}
		cfg := config.NewConfig()
		cfg.SaveToDB = true
		if err := applyEngineFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.UseLLM || cfg.SaveToDB || cfg.EnrichmentEnabled {
			t.Errorf("expected flags applied, got llm=%v audit=%v enrich=%v", cfg.UseLLM, cfg.SaveToDB, cfg.EnrichmentEnabled)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected default batch size, got %d", cfg.BatchSize)
		}
	})
}

func TestNewComponents(t *testing.T) {
	t.Parallel()

	t.Run("rule engine by default", func(t *testing.T) {
		t.Parallel()
		c, err := newComponents(config.NewConfig(), metrics.New(metrics.NewRegistry()), discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.Locator.(*reasoning.RuleEngine); !ok {
			t.Errorf("expected the rule engine, got %T", c.Locator)
		}
		if c.Extractor == nil || c.Registry == nil || c.Congruence == nil || c.Synthesizer == nil {
			t.Errorf("expected every component wired, got %+v", c)
		}
	})

	t.Run("language model engine", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.UseLLM = true
		cfg.LLMAPIKey = "sk-test"
		c, err := newComponents(cfg, nil, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.Synthesizer.(*reasoning.LLMEngine); !ok {
			t.Errorf("expected the LLM engine, got %T", c.Synthesizer)
		}
	})

	t.Run("language model engine without key", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.UseLLM = true
		_, err := newComponents(cfg, nil, discardLogger())
		if !errors.Is(err, reasoning.ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("roster file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		roster := filepath.Join(dir, "roster.yaml")
		writeFile(t, roster, "professionals:\n  - name: Juan Pérez\n")

		cfg := config.NewConfig()
		cfg.RosterFile = roster
		if _, err := newComponents(cfg, nil, discardLogger()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		cfg.RosterFile = filepath.Join(dir, "missing.yaml")
		if _, err := newComponents(cfg, nil, discardLogger()); err == nil {
			t.Error("expected error for a missing roster")
		}
	})

	t.Run("invalid enrichment proxy", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.EnrichmentProxy = "not-a-proxy"
		_, err := newComponents(cfg, nil, discardLogger())
		if !errors.Is(err, congruence.ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("proxy ignored when enrichment is off", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.EnrichmentEnabled = false
		cfg.EnrichmentProxy = "not-a-proxy"
		if _, err := newComponents(cfg, nil, discardLogger()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
