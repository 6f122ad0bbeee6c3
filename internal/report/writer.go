package report

import (
	"github.com/nao1215/incapscan/internal/model"
)

// Writer renders analysis results.
type Writer interface {
	// Write renders the full forensic report and returns the bytes written.
	Write(report *model.ForensicReport) (int, error)

	// WriteEnvelope renders only the boundary response: the success status
	// and the four assessment fields.
	WriteEnvelope(envelope model.Envelope) (int, error)
}

// severityOrder lists severities from most to least severe.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// orDash keeps empty table cells and fields visible.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString shortens s to maxLen runes, ending in "..." when there is
// room for it.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	switch {
	case len(r) <= maxLen:
		return s
	case maxLen <= 3:
		return string(r[:maxLen])
	default:
		return string(r[:maxLen-3]) + "..."
	}
}
