package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no document path or list file is specified.
	ErrNoTarget = errors.New("no target specified: provide a document path, a glob pattern, or use --list")

	// ErrInvalidTimeout is returned when the analysis timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCommandTimeout is returned when the OCR/PDF command timeout is not positive.
	ErrInvalidCommandTimeout = errors.New("invalid command timeout: must be positive")

	// ErrInvalidEnrichmentTimeout is returned when the enrichment lookup timeout
	// is not positive. The lookup must always be bounded.
	ErrInvalidEnrichmentTimeout = errors.New("invalid enrichment timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidTolerance is returned when the duration tolerance is below 1.
	// A tolerance under 1 would flag durations below the reference average.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be at least 1.0")

	// ErrInvalidReference is returned when a reference table row has an empty
	// prefix or a non-positive maximum.
	ErrInvalidReference = errors.New("invalid diagnosis reference: prefix must be set and maxDays must be positive")

	// ErrInvalidMaxUploadSize is returned when the upload limit is not positive.
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")

	// ErrMissingAPIKey is returned when the language model engine is enabled
	// without an API key.
	ErrMissingAPIKey = errors.New("language model engine enabled but no API key configured")
)
