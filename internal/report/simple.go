package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/incapscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII rules rather than ANSI colors so the output can be
// piped to files.
type SimpleWriter struct {
	out io.Writer

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose adds finding descriptions, metadata lines and stage errors.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		out: output,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.ForensicReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeAssessment(&sb, report.Assessment, report.Fallback)
	w.writeVerifications(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	if w.verbose {
		w.writeMetadata(&sb, report)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.out, sb.String())
}

// WriteEnvelope outputs only the assessment.
func (w *SimpleWriter) WriteEnvelope(envelope model.Envelope) (int, error) {
	var sb strings.Builder
	w.writeAssessment(&sb, envelope.Report, false)
	return io.WriteString(w.out, sb.String())
}

func writeRule(sb *strings.Builder, char, title string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the document and timing information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ForensicReport) {
	sb.WriteString("\n")
	writeRule(sb, "=", "                    INCAPSCAN FORENSIC REPORT")

	fmt.Fprintf(sb, "Document:       %s\n", report.Document.Name)
	fmt.Fprintf(sb, "Format:         %s\n", orDash(report.Extraction.Format))
	if report.Digest != "" {
		fmt.Fprintf(sb, "SHA3-256:       %s\n", report.Digest)
	}
	if report.RequestID != "" {
		fmt.Fprintf(sb, "Request ID:     %s\n", report.RequestID)
	}
	fmt.Fprintf(sb, "Analyzed:       %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))

	switch {
	case len(report.Errors) > 0:
		fmt.Fprintf(sb, "Status:         Completed with %d stage error(s)\n", len(report.Errors))
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")

	if w.verbose && len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(sb, "  [x] %s\n", e)
		}
		sb.WriteString("\n")
	}
}

// writeAssessment writes the four assessment fields.
func (w *SimpleWriter) writeAssessment(sb *strings.Builder, a model.Assessment, fallback bool) {
	writeRule(sb, "-", "ASSESSMENT")

	fmt.Fprintf(sb, "  Verdict:  %s\n", a.Veredicto)
	fmt.Fprintf(sb, "  Score:    %d/100\n", a.PuntajeVeracidad)
	if fallback {
		sb.WriteString("  Note:     unstructured engine output, conservative fallback applied\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Medical findings:\n    %s\n\n", indent(a.HallazgosMedicos))
	fmt.Fprintf(sb, "  Forensic analysis:\n    %s\n\n", indent(a.AnalisisForense))
}

// writeVerifications writes the located claims and both checker verdicts.
func (w *SimpleWriter) writeVerifications(sb *strings.Builder, report *model.ForensicReport) {
	writeRule(sb, "-", "VERIFICATIONS")

	c := report.Claims
	fmt.Fprintf(sb, "  Physician:  %s\n", orDash(c.Physician.Name))
	fmt.Fprintf(sb, "  CIE-10:     %s\n", orDash(c.Diagnosis.Code))
	fmt.Fprintf(sb, "  Days:       %s\n\n", orDash(c.Diagnosis.RawDays))

	if report.Registry != nil {
		fmt.Fprintf(sb, "  [registry]   %s\n    %s\n", report.Registry.Status, report.Registry.Message)
	} else if w.showEmpty {
		sb.WriteString("  [registry]   not run\n")
	}
	if report.Congruence != nil {
		fmt.Fprintf(sb, "  [congruence] %s\n    %s\n", report.Congruence.Status, report.Congruence.Message)
	} else if w.showEmpty {
		sb.WriteString("  [congruence] not run\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ForensicReport) {
	writeRule(sb, "-", "SEVERITY SUMMARY")

	counts := report.CountBySeverity()
	for _, sev := range severityOrder {
		fmt.Fprintf(sb, "  %-9s %d\n", sev.String()+":", counts[sev])
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n\n", len(report.Findings))
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ForensicReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	writeRule(sb, "-", "FINDINGS")

	for _, severity := range severityOrder {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		fmt.Fprintf(sb, "  * %s\n", finding.Title)
		if finding.Source != "" {
			fmt.Fprintf(sb, "    Source: %s\n", finding.Source)
		}
		if w.verbose && finding.Description != "" {
			fmt.Fprintf(sb, "    Description: %s\n", finding.Description)
		}
		if w.verbose && finding.Recommendation != "" {
			fmt.Fprintf(sb, "    Recommendation: %s\n", finding.Recommendation)
		}
	}
	sb.WriteString("\n")
}

// writeMetadata writes the metadata lines read from the document.
func (w *SimpleWriter) writeMetadata(sb *strings.Builder, report *model.ForensicReport) {
	if len(report.Extraction.Metadata) == 0 {
		return
	}
	writeRule(sb, "-", "METADATA")
	for _, e := range report.Extraction.Metadata {
		fmt.Fprintf(sb, "  %s\n", e.Line())
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by incapscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func indent(s string) string {
	return strings.ReplaceAll(orDash(s), "\n", "\n    ")
}
