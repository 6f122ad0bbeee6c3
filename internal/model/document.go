package model

import (
	"errors"
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnsupportedMediaType is returned when an upload declares a MIME type
// that the service boundary does not accept.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// SupportedExtensions lists the document formats the extractor understands.
var SupportedExtensions = []string{"pdf", "docx", "doc", "jpg", "jpeg", "png"}

// boundaryMediaTypes maps the MIME types accepted over HTTP to extensions.
// Word documents are handled by the extractor but are not accepted at the
// boundary in this build.
var boundaryMediaTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// Document is a transient reference to a document under analysis.
// The caller owns the storage behind Path and deletes it after the call.
type Document struct {
	// Path is the location of the file on caller-owned storage.
	Path string `json:"-"`

	// Name is the base file name, kept for reports.
	Name string `json:"name"`

	// Extension is the lowercase extension without the leading dot.
	Extension string `json:"extension"`
}

// DocumentFromPath builds a Document for a file path.
func DocumentFromPath(path string) Document {
	return Document{
		Path:      path,
		Name:      filepath.Base(path),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}
}

// Supported reports whether the extractor can dispatch on this document.
func (d Document) Supported() bool {
	return IsSupportedExtension(d.Extension)
}

// IsSupportedExtension reports whether ext (with or without dot) is supported.
func IsSupportedExtension(ext string) bool {
	return slices.Contains(SupportedExtensions, strings.TrimPrefix(strings.ToLower(ext), "."))
}

// ExtensionForMediaType returns the extension for a MIME type accepted at
// the service boundary. Parameters such as charset are ignored.
func ExtensionForMediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	ext, ok := boundaryMediaTypes[mediaType]
	if !ok {
		return "", ErrUnsupportedMediaType
	}
	return ext, nil
}
