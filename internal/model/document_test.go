package model

import (
	"errors"
	"testing"
)

// TestDocumentFromPath tests extension normalization.
func TestDocumentFromPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path      string
		extension string
		supported bool
	}{
		{"/tmp/a/Incapacidad.PDF", "pdf", true},
		{"scan.jpeg", "jpeg", true},
		{"foto.JPG", "jpg", true},
		{"captura.png", "png", true},
		{"carta.docx", "docx", true},
		{"legacy.doc", "doc", true},
		{"notas.txt", "txt", false},
		{"sin_extension", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			doc := DocumentFromPath(tc.path)
			if doc.Extension != tc.extension {
				t.Errorf("expected extension %q, got %q", tc.extension, doc.Extension)
			}
			if doc.Supported() != tc.supported {
				t.Errorf("expected supported=%v, got %v", tc.supported, doc.Supported())
			}
		})
	}
}

// TestExtensionForMediaType tests the boundary content-type gate.
func TestExtensionForMediaType(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		contentType string
		expected    string
		wantErr     bool
	}{
		{"application/pdf", "pdf", false},
		{"image/jpeg", "jpg", false},
		{"image/png", "png", false},
		{"image/png; charset=binary", "png", false},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", true},
		{"text/plain", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.contentType, func(t *testing.T) {
			t.Parallel()
			ext, err := ExtensionForMediaType(tc.contentType)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedMediaType) {
					t.Errorf("expected ErrUnsupportedMediaType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ext != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, ext)
			}
		})
	}
}
