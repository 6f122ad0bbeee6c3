package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/incapscan/internal/model"
)

// JSONWriter renders reports as JSON documents, one per call, each followed
// by a newline.
//
// HTML escaping is off: findings quote document text and engine output,
// which must stay readable in the written files.
type JSONWriter struct {
	out      io.Writer
	indent   string
	envelope bool
	// version is set by NewFullJSONWriter; a non-empty value wraps reports
	// in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// WithEnvelopeOnly makes Write render report.Envelope() instead of the full
// report.
func WithEnvelopeOnly() JSONWriterOption {
	return func(w *JSONWriter) {
		w.envelope = true
	}
}

// NewJSONWriter creates a JSONWriter rendering the bare report.
func NewJSONWriter(out io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{out: out}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewFullJSONWriter creates a JSONWriter that wraps every report in a
// JSONReport carrying version and the per-severity summary.
func NewFullJSONWriter(out io.Writer, version string, opts ...JSONWriterOption) *JSONWriter {
	w := NewJSONWriter(out, opts...)
	w.version = version
	if w.version == "" {
		w.version = "(devel)"
	}
	return w
}

// Write renders report according to the writer options.
func (w *JSONWriter) Write(report *model.ForensicReport) (int, error) {
	switch {
	case w.envelope:
		return w.encode(report.Envelope())
	case w.version != "":
		return w.encode(NewJSONReport(report, w.version))
	default:
		return w.encode(report)
	}
}

// WriteEnvelope renders the boundary envelope.
func (w *JSONWriter) WriteEnvelope(envelope model.Envelope) (int, error) {
	return w.encode(envelope)
}

func (w *JSONWriter) encode(v any) (int, error) {
	cw := &countingWriter{w: w.out}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	err := enc.Encode(v)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// JSONReport is the document written by NewFullJSONWriter.
type JSONReport struct {
	Version string                `json:"version"`
	Report  *model.ForensicReport `json:"report"`
	// Summary counts findings per severity label. Every label is present.
	Summary map[string]int `json:"summary"`
}

// NewJSONReport wraps report with version and a per-severity summary.
func NewJSONReport(report *model.ForensicReport, version string) *JSONReport {
	counts := report.CountBySeverity()
	summary := make(map[string]int, len(severityOrder))
	for _, sev := range severityOrder {
		summary[sev.String()] = counts[sev]
	}
	return &JSONReport{Version: version, Report: report, Summary: summary}
}
