package extract

import "errors"

var (
	// ErrUnsupportedFormat is recorded when the extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrFileNotFound is recorded when the path does not exist.
	ErrFileNotFound = errors.New("document not found")

	// ErrNoPagesRendered is returned when pdftoppm produced no images.
	ErrNoPagesRendered = errors.New("no pages rendered")

	// ErrNotOOXML is returned when a Word file is not a zip package,
	// which is the case for legacy binary .doc files.
	ErrNotOOXML = errors.New("not an Office Open XML package")
)
