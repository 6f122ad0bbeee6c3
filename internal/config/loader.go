package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/incapscan/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".incapscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .incapscan configuration file.
// Every field is optional; zero values leave the defaults untouched.
type File struct {
	Analysis   AnalysisSection   `yaml:"analysis,omitempty"`
	OCR        OCRSection        `yaml:"ocr,omitempty"`
	Registry   RegistrySection   `yaml:"registry,omitempty"`
	Congruence CongruenceSection `yaml:"congruence,omitempty"`
	Enrichment EnrichmentSection `yaml:"enrichment,omitempty"`
	LLM        LLMSection        `yaml:"llm,omitempty"`
	Server     ServerSection     `yaml:"server,omitempty"`
	Audit      AuditSection      `yaml:"audit,omitempty"`
}

// AnalysisSection configures the pipeline.
type AnalysisSection struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	BatchSize int           `yaml:"batchSize,omitempty"`
}

// OCRSection configures text extraction commands.
type OCRSection struct {
	Language       string        `yaml:"language,omitempty"`
	TessdataDir    string        `yaml:"tessdataDir,omitempty"`
	PDFToText      string        `yaml:"pdftotext,omitempty"`
	PDFToPPM       string        `yaml:"pdftoppm,omitempty"`
	Tesseract      string        `yaml:"tesseract,omitempty"`
	CommandTimeout time.Duration `yaml:"commandTimeout,omitempty"`
}

// RegistrySection configures the physician check.
type RegistrySection struct {
	ReportingBody string `yaml:"reportingBody,omitempty"`
	Profession    string `yaml:"profession,omitempty"`
	Roster        string `yaml:"roster,omitempty"`
}

// CongruenceSection configures the diagnosis/duration check.
type CongruenceSection struct {
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// ReplaceDefaults discards the built-in table instead of extending it.
	ReplaceDefaults bool `yaml:"replaceDefaults,omitempty"`

	// References are merged into the table by prefix.
	References []model.DiagnosisReference `yaml:"references,omitempty"`
}

// EnrichmentSection configures the online lookup for unknown codes.
type EnrichmentSection struct {
	// Enabled is a pointer so an explicit false can disable the default.
	Enabled   *bool         `yaml:"enabled,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	URL       string        `yaml:"url,omitempty"`
	Proxy     string        `yaml:"proxy,omitempty"`
	UserAgent string        `yaml:"userAgent,omitempty"`
}

// LLMSection configures the optional language model engine.
// The API key is intentionally not read from the file; use the
// INCAPSCAN_LLM_API_KEY or OPENAI_API_KEY environment variables.
type LLMSection struct {
	Enabled bool          `yaml:"enabled,omitempty"`
	BaseURL string        `yaml:"baseURL,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerSection configures the HTTP service.
type ServerSection struct {
	Address        string `yaml:"address,omitempty"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes,omitempty"`
}

// AuditSection configures the digest-only audit ledger.
type AuditSection struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// LoadConfigFile loads configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply overlays the file values on cfg. Zero values are ignored.
func (cf *File) Apply(cfg *Config) {
	if cf.Analysis.Timeout > 0 {
		cfg.Timeout = cf.Analysis.Timeout
	}
	if cf.Analysis.BatchSize > 0 {
		cfg.BatchSize = cf.Analysis.BatchSize
	}

	if cf.OCR.Language != "" {
		cfg.OCRLanguage = cf.OCR.Language
	}
	if cf.OCR.TessdataDir != "" {
		cfg.TessdataDir = cf.OCR.TessdataDir
	}
	if cf.OCR.PDFToText != "" {
		cfg.PDFToTextPath = cf.OCR.PDFToText
	}
	if cf.OCR.PDFToPPM != "" {
		cfg.PDFToPPMPath = cf.OCR.PDFToPPM
	}
	if cf.OCR.Tesseract != "" {
		cfg.TesseractPath = cf.OCR.Tesseract
	}
	if cf.OCR.CommandTimeout > 0 {
		cfg.CommandTimeout = cf.OCR.CommandTimeout
	}

	if cf.Registry.ReportingBody != "" {
		cfg.ReportingBody = cf.Registry.ReportingBody
	}
	if cf.Registry.Profession != "" {
		cfg.Profession = cf.Registry.Profession
	}
	if cf.Registry.Roster != "" {
		cfg.RosterFile = cf.Registry.Roster
	}

	if cf.Congruence.Tolerance != 0 {
		cfg.Tolerance = cf.Congruence.Tolerance
	}
	if cf.Congruence.ReplaceDefaults {
		cfg.References = nil
	}
	cfg.References = MergeReferences(cfg.References, cf.Congruence.References)

	if cf.Enrichment.Enabled != nil {
		cfg.EnrichmentEnabled = *cf.Enrichment.Enabled
	}
	if cf.Enrichment.Timeout > 0 {
		cfg.EnrichmentTimeout = cf.Enrichment.Timeout
	}
	if cf.Enrichment.URL != "" {
		cfg.EnrichmentURL = cf.Enrichment.URL
	}
	if cf.Enrichment.Proxy != "" {
		cfg.EnrichmentProxy = cf.Enrichment.Proxy
	}
	if cf.Enrichment.UserAgent != "" {
		cfg.UserAgent = cf.Enrichment.UserAgent
	}

	if cf.LLM.Enabled {
		cfg.UseLLM = true
	}
	if cf.LLM.BaseURL != "" {
		cfg.LLMBaseURL = cf.LLM.BaseURL
	}
	if cf.LLM.Model != "" {
		cfg.LLMModel = cf.LLM.Model
	}
	if cf.LLM.Timeout > 0 {
		cfg.LLMTimeout = cf.LLM.Timeout
	}

	if cf.Server.Address != "" {
		cfg.ListenAddress = cf.Server.Address
	}
	if cf.Server.MaxUploadBytes > 0 {
		cfg.MaxUploadSize = cf.Server.MaxUploadBytes
	}

	if cf.Audit.Enabled {
		cfg.SaveToDB = true
	}
	if cf.Audit.Dir != "" {
		cfg.DBDir = cf.Audit.Dir
	}
}

// MergeReferences returns base with overrides applied by prefix.
// A matching prefix replaces the row in place; new prefixes are appended.
// The returned slice never aliases base.
func MergeReferences(base, overrides []model.DiagnosisReference) []model.DiagnosisReference {
	merged := make([]model.DiagnosisReference, len(base), len(base)+len(overrides))
	copy(merged, base)

	for _, o := range overrides {
		o.Prefix = model.NormalizeCode(o.Prefix)
		replaced := false
		for i := range merged {
			if model.NormalizeCode(merged[i].Prefix) == o.Prefix {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .incapscan in the current directory
// 3. Look for .incapscan in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// APIKeyFromEnv returns the language model API key from the environment.
// INCAPSCAN_LLM_API_KEY takes precedence over OPENAI_API_KEY.
func APIKeyFromEnv() string {
	if key := os.Getenv("INCAPSCAN_LLM_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}
