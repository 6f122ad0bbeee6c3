package watch

import "errors"

var (
	// ErrInboxNotDir is returned when the inbox is missing or not a directory.
	ErrInboxNotDir = errors.New("inbox is not a directory")

	// ErrNoOutputDir is returned when no output directory is configured.
	ErrNoOutputDir = errors.New("output directory is required")

	// ErrInvalidPattern is returned for a malformed doublestar pattern.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrUnknownFormat is returned for an unsupported report format.
	ErrUnknownFormat = errors.New("unknown report format")
)
