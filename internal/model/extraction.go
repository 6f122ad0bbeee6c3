package model

import (
	"regexp"
	"strings"
)

// Section markers used when extraction output is rendered as one text.
// Downstream reasoning splits on these labels to separate content from
// forensic signal.
const (
	TextSectionLabel     = "[TEXTO EXTRAÍDO DEL DOCUMENTO]"
	MetadataSectionLabel = "[ANÁLISIS DE METADATOS Y RASTROS DIGITALES]"
)

// sectionMarker matches either label in any case and spacing, as a forged
// document might spell it.
var sectionMarker = regexp.MustCompile(
	`(?i)\[\s*(TEXTO\s+EXTRA[IÍ]DO\s+DEL\s+DOCUMENTO|AN[AÁ]LISIS\s+DE\s+METADATOS\s+Y\s+RASTROS\s+DIGITALES)\s*\]`)

// neutralizeMarkers rewrites section labels found in document content so
// only Render can open a section.
func neutralizeMarkers(s string) string {
	return sectionMarker.ReplaceAllString(s, "($1)")
}

// MetadataEntry is one forensic fact read from a document.
// Entries with an empty Value are rendered as headings.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Line renders the entry as it appears in the metadata section.
func (e MetadataEntry) Line() string {
	if e.Value == "" {
		return e.Key
	}
	return e.Key + " " + e.Value
}

// ExtractionResult is the output of the extractor.
// It is always produced, even when the underlying parser failed: failures
// are carried as text in Text and as a reason in Failure.
type ExtractionResult struct {
	// Format is the extension the extractor dispatched on.
	Format string `json:"format"`

	// Text is the UTF-8 content of the document, possibly empty.
	Text string `json:"-"`

	// Metadata is the ordered list of forensic facts.
	Metadata []MetadataEntry `json:"metadata,omitempty"`

	// PageCount is the number of pages for paged formats, zero otherwise.
	PageCount int `json:"page_count,omitempty"`

	// Failure holds the parser error message when extraction degraded.
	Failure string `json:"failure,omitempty"`

	// Findings are forensic signals noticed while reading metadata.
	Findings []Finding `json:"findings,omitempty"`
}

// AddMetadata appends a metadata line.
func (r *ExtractionResult) AddMetadata(key, value string) {
	r.Metadata = append(r.Metadata, MetadataEntry{Key: key, Value: value})
}

// AddFinding appends a forensic finding.
func (r *ExtractionResult) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Failed reports whether the extractor degraded to an error text.
func (r ExtractionResult) Failed() bool {
	return r.Failure != ""
}

// MetadataText renders the metadata entries one per line.
func (r ExtractionResult) MetadataText() string {
	lines := make([]string, 0, len(r.Metadata))
	for _, e := range r.Metadata {
		lines = append(lines, e.Line())
	}
	return strings.Join(lines, "\n")
}

// Render returns the two labeled sections: extracted text first,
// then the metadata and digital trace analysis. Labels occurring in the
// text or in metadata values are neutralized, so each label appears once.
func (r ExtractionResult) Render() string {
	var b strings.Builder
	b.WriteString(TextSectionLabel)
	b.WriteString("\n")
	b.WriteString(neutralizeMarkers(r.Text))
	b.WriteString("\n\n")
	b.WriteString(MetadataSectionLabel)
	b.WriteString("\n")
	b.WriteString(neutralizeMarkers(r.MetadataText()))
	return b.String()
}

// splitSections separates a rendered extraction back into its text and
// metadata parts. ok is false when the markers are missing or out of order.
func splitSections(rendered string) (text, metadata string, ok bool) {
	textStart := strings.Index(rendered, TextSectionLabel)
	if textStart < 0 {
		return "", "", false
	}
	body := rendered[textStart+len(TextSectionLabel):]
	metaStart := strings.Index(body, MetadataSectionLabel)
	if metaStart < 0 {
		return "", "", false
	}
	return strings.TrimSpace(body[:metaStart]), strings.TrimSpace(body[metaStart+len(MetadataSectionLabel):]), true
}
