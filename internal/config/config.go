package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/incapscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "incapscan"

	// DefaultTimeout bounds one complete analysis. OCR of a multi-page scan
	// is the slowest stage; two minutes covers typical certificates.
	DefaultTimeout = 2 * time.Minute

	// DefaultCommandTimeout bounds each pdftotext or tesseract invocation.
	DefaultCommandTimeout = 60 * time.Second

	// DefaultOCRLanguage is the tesseract language pack. Certificates are
	// issued in Spanish.
	DefaultOCRLanguage = "spa"

	// DefaultPDFToTextPath, DefaultPDFToPPMPath and DefaultTesseractPath are
	// resolved through PATH.
	DefaultPDFToTextPath = "pdftotext"
	DefaultPDFToPPMPath  = "pdftoppm"
	DefaultTesseractPath = "tesseract"

	// DefaultTolerance is the margin granted to the treating physician over
	// the reference average before a duration is flagged.
	DefaultTolerance = 1.5

	// DefaultReportingBody is attributed to physicians that pass the
	// presumption-of-veracity heuristic.
	DefaultReportingBody = "COLEGIO MEDICO COLOMBIANO"

	// DefaultProfession is attributed together with DefaultReportingBody.
	DefaultProfession = "MEDICINA/SALUD"

	// DefaultEnrichmentTimeout bounds the best-effort online lookup of codes
	// that have no local reference.
	DefaultEnrichmentTimeout = 4 * time.Second

	// DefaultEnrichmentURL is the search endpoint used for enrichment.
	// The code is appended as part of the query.
	DefaultEnrichmentURL = "https://html.duckduckgo.com/html/"

	// DefaultUserAgent is sent with enrichment requests. The HTML search
	// endpoint rejects requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultLLMBaseURL is an OpenAI-compatible API root.
	DefaultLLMBaseURL = "https://api.openai.com/v1"

	// DefaultLLMModel is the chat model used when the LLM engine is enabled.
	DefaultLLMModel = "gpt-4o-mini"

	// DefaultLLMTimeout bounds each chat completion request.
	DefaultLLMTimeout = 60 * time.Second

	// DefaultBatchSize is the number of documents analyzed concurrently.
	// OCR is CPU bound, so this stays small.
	DefaultBatchSize = 4

	// DefaultListenAddress is the HTTP service address.
	DefaultListenAddress = ":8000"

	// DefaultMaxUploadSize limits an uploaded document to 20MB.
	DefaultMaxUploadSize = 20 * 1024 * 1024

	// DefaultWatchSettle is how long a file in the inbox must stay unchanged
	// before it is analyzed.
	DefaultWatchSettle = 2 * time.Second
)

// Config holds all configuration options for incapscan.
// This struct is populated from defaults, the config file, and CLI flags,
// then passed through the application via dependency injection rather than
// global state.
//
// Design decision: We keep a single flat struct, like the CLI flags it mirrors.
// The YAML file uses nested sections and is flattened by File.Apply.
type Config struct {
	// Timeout bounds one complete analysis, from extraction to verdict.
	Timeout time.Duration

	// CommandTimeout bounds each external command (pdftotext, tesseract).
	CommandTimeout time.Duration

	// OCRLanguage is the tesseract language pack, e.g. "spa".
	OCRLanguage string

	// TessdataDir overrides the tesseract data directory when set.
	TessdataDir string

	// PDFToTextPath is the pdftotext binary.
	PDFToTextPath string

	// PDFToPPMPath is the pdftoppm binary used to rasterize scanned PDFs
	// that carry no text layer.
	PDFToPPMPath string

	// TesseractPath is the tesseract binary.
	TesseractPath string

	// Tolerance multiplies the reference maximum to get the allowed ceiling.
	Tolerance float64

	// References is the CIE-10 reference table.
	References []model.DiagnosisReference

	// ReportingBody and Profession are attributed to ACTIVE physicians.
	ReportingBody string
	Profession    string

	// RosterFile is an optional YAML list of registered professionals.
	// When set, names absent from the roster are reported as NOT_FOUND.
	RosterFile string

	// EnrichmentEnabled turns the online lookup for unknown codes on or off.
	EnrichmentEnabled bool

	// EnrichmentTimeout bounds the online lookup.
	EnrichmentTimeout time.Duration

	// EnrichmentURL is the HTML search endpoint.
	EnrichmentURL string

	// EnrichmentProxy is an optional SOCKS5 proxy address ("host:port" or a socks5:// URL)
	// for enrichment requests.
	EnrichmentProxy string

	// UserAgent is sent with enrichment requests.
	UserAgent string

	// UseLLM selects the language model engine instead of the rule engine.
	UseLLM bool

	// LLMBaseURL, LLMModel and LLMAPIKey configure the OpenAI-compatible API.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// LLMTimeout bounds each completion request.
	LLMTimeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of documents analyzed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .incapscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// EnvelopeOnly limits JSON output to the boundary envelope
	// ({"status":"success","report":{...}}).
	EnvelopeOnly bool

	// ReportFile is the output file path for the report.
	ReportFile string

	// Targets is the list of document paths or glob patterns to analyze.
	Targets []string

	// SaveToDB enables the digest-only audit ledger.
	SaveToDB bool

	// DBDir is the directory of the audit ledger database.
	// Defaults to the XDG data directory.
	DBDir string

	// ListenAddress is the HTTP service address.
	ListenAddress string

	// MaxUploadSize is the maximum accepted upload in bytes.
	MaxUploadSize int64

	// WatchSettle is the quiet period before an inbox file is analyzed.
	WatchSettle time.Duration
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work offline.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, tolerance,
// the reference table). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		CommandTimeout:    DefaultCommandTimeout,
		OCRLanguage:       DefaultOCRLanguage,
		PDFToTextPath:     DefaultPDFToTextPath,
		PDFToPPMPath:      DefaultPDFToPPMPath,
		TesseractPath:     DefaultTesseractPath,
		Tolerance:         DefaultTolerance,
		References:        model.DefaultDiagnosisReferences(),
		ReportingBody:     DefaultReportingBody,
		Profession:        DefaultProfession,
		EnrichmentEnabled: true,
		EnrichmentTimeout: DefaultEnrichmentTimeout,
		EnrichmentURL:     DefaultEnrichmentURL,
		UserAgent:         DefaultUserAgent,
		LLMBaseURL:        DefaultLLMBaseURL,
		LLMModel:          DefaultLLMModel,
		LLMTimeout:        DefaultLLMTimeout,
		BatchSize:         DefaultBatchSize,
		ListenAddress:     DefaultListenAddress,
		MaxUploadSize:     DefaultMaxUploadSize,
		WatchSettle:       DefaultWatchSettle,
	}
}

// XDGDataDir returns the XDG data directory for incapscan.
// On Linux: ~/.local/share/incapscan
// On macOS: ~/Library/Application Support/incapscan
// On Windows: %LOCALAPPDATA%\incapscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for incapscan.
// On Linux: ~/.config/incapscan
// On macOS: ~/Library/Application Support/incapscan
// On Windows: %APPDATA%\incapscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CommandTimeout <= 0 {
		return ErrInvalidCommandTimeout
	}

	// The enrichment lookup must never block an analysis indefinitely
	if c.EnrichmentEnabled && c.EnrichmentTimeout <= 0 {
		return ErrInvalidEnrichmentTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Tolerance < 1 {
		return ErrInvalidTolerance
	}

	for _, ref := range c.References {
		if strings.TrimSpace(ref.Prefix) == "" || ref.MaxDays <= 0 {
			return ErrInvalidReference
		}
	}

	if c.MaxUploadSize <= 0 {
		return ErrInvalidMaxUploadSize
	}

	if c.UseLLM && c.LLMAPIKey == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// ValidateTargets checks that at least one document was given.
// It is separate from Validate because the service and watch modes
// receive documents at runtime.
func (c *Config) ValidateTargets() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return nil
}
