package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown with tables,
// alerts and a mermaid chart of finding severities.
type MarkdownWriter struct {
	out io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		out: output,
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ForensicReport) (int, error) {
	md := markdown.NewMarkdown(w.out)

	w.writeHeader(md, report)
	w.writeAssessment(md, report.Assessment)
	w.writeVerifications(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeMetadata(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteEnvelope outputs only the assessment in Markdown format.
func (w *MarkdownWriter) WriteEnvelope(envelope model.Envelope) (int, error) {
	md := markdown.NewMarkdown(w.out)
	w.writeAssessment(md, envelope.Report)
	return len(md.String()), md.Build()
}

// writeHeader writes the document information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ForensicReport) {
	md.H1("Incapacity Forensic Report")
	md.PlainText("")

	rows := [][]string{
		{"Document", "`" + report.Document.Name + "`"},
		{"Format", orDash(report.Extraction.Format)},
		{"Analyzed", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Status", statusText(report)},
	}
	if report.Digest != "" {
		rows = append(rows, []string{"SHA3-256", "`" + report.Digest + "`"})
	}
	if report.RequestID != "" {
		rows = append(rows, []string{"Request ID", "`" + report.RequestID + "`"})
	}
	if report.Extraction.PageCount > 0 {
		rows = append(rows, []string{"Pages", strconv.Itoa(report.Extraction.PageCount)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Fallback {
		md.Importantf("The assessment engine did not return structured data. A conservative fallback verdict of %s was applied.",
			model.VerdictSuspicious)
		md.PlainText("")
	}
}

// statusText returns the status text based on report state.
func statusText(report *model.ForensicReport) string {
	if len(report.Errors) > 0 {
		return "⚠️ Completed with errors: " + strings.Join(report.Errors, "; ")
	}
	return "✅ Complete"
}

// writeAssessment writes the verdict alert and the assessment table.
func (w *MarkdownWriter) writeAssessment(md *markdown.Markdown, a model.Assessment) {
	md.H2("Assessment")
	md.PlainText("")

	switch a.Veredicto {
	case model.VerdictFraudulent:
		md.Cautionf("Verdict %s with a veracity score of %d/100. Do not accept this leave without direct confirmation from the issuer.",
			a.Veredicto, a.PuntajeVeracidad)
	case model.VerdictLegitimate:
		md.Tip("Verdict " + string(a.Veredicto) + " with a veracity score of " + strconv.Itoa(a.PuntajeVeracidad) + "/100.")
	default:
		md.Warningf("Verdict %s with a veracity score of %d/100. Manual review is needed.",
			a.Veredicto, a.PuntajeVeracidad)
	}
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"puntaje_veracidad", strconv.Itoa(a.PuntajeVeracidad)},
			{"veredicto", string(a.Veredicto)},
			{"hallazgos_medicos", cell(a.HallazgosMedicos)},
			{"analisis_forense", cell(a.AnalisisForense)},
		},
	})
	md.PlainText("")
}

// writeVerifications writes the located claims and the checker verdicts.
func (w *MarkdownWriter) writeVerifications(md *markdown.Markdown, report *model.ForensicReport) {
	md.H2("Verifications")
	md.PlainText("")

	c := report.Claims
	md.Table(markdown.TableSet{
		Header: []string{"Claim", "Value"},
		Rows: [][]string{
			{"Physician", orDash(c.Physician.Name)},
			{"CIE-10", orDash(c.Diagnosis.Code)},
			{"Days", orDash(c.Diagnosis.RawDays)},
		},
	})
	md.PlainText("")

	rows := make([][]string, 0, 2)
	if report.Registry != nil {
		rows = append(rows, []string{"Registry", string(report.Registry.Status), cell(report.Registry.Message)})
	}
	if report.Congruence != nil {
		rows = append(rows, []string{"Congruence", string(report.Congruence.Status), cell(report.Congruence.Message)})
	}
	if len(rows) == 0 {
		md.PlainText("No verification ran.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Check", "Status", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the severity summary table and chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ForensicReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := report.CountBySeverity()
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(counts[model.SeverityCritical])},
			{"🟠 High", strconv.Itoa(counts[model.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[model.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[model.SeverityLow])},
			{"⚪ Info", strconv.Itoa(counts[model.SeverityInfo])},
			{"**Total**", "**" + strconv.Itoa(len(report.Findings)) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Findings) > 0 {
		w.writePieChart(md, counts)
	}
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, sev := range severityOrder {
		if n := counts[sev]; n > 0 {
			chart.LabelAndIntValue(sev.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ForensicReport) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No forensic findings.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityCritical: "### 🔴 Critical",
		model.SeverityHigh:     "### 🟠 High",
		model.SeverityMedium:   "### 🟡 Medium",
		model.SeverityLow:      "### 🔵 Low",
		model.SeverityInfo:     "### ⚪ Info",
	}

	for _, sev := range severityOrder {
		findings := report.GetFindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(headers[sev])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			cell(f.Title),
			orDash(f.Source),
			truncateString(orDash(f.Recommendation), 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Source", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeMetadata writes the metadata lines as a list.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, report *model.ForensicReport) {
	if len(report.Extraction.Metadata) == 0 {
		return
	}
	lines := make([]string, len(report.Extraction.Metadata))
	for i, e := range report.Extraction.Metadata {
		lines[i] = "`" + e.Line() + "`"
	}
	md.H2("Metadata")
	md.PlainText("")
	md.BulletList(lines...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by incapscan*")
}

// cell makes free text safe for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(orDash(s), "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
