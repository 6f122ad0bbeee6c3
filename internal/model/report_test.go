package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestNewForensicReport tests the report constructor.
func TestNewForensicReport(t *testing.T) {
	t.Parallel()

	before := time.Now()
	r := NewForensicReport("req-1", DocumentFromPath("/tmp/x/incapacidad.pdf"))

	if r.RequestID != "req-1" {
		t.Errorf("expected request ID req-1, got %q", r.RequestID)
	}
	if r.Document.Extension != "pdf" {
		t.Errorf("expected extension pdf, got %q", r.Document.Extension)
	}
	if r.StartedAt.Before(before) {
		t.Error("expected StartedAt to be set to now")
	}
	if r.Findings == nil {
		t.Error("expected Findings to be initialized")
	}
	if r.Duration() != 0 {
		t.Errorf("expected zero duration before completion, got %v", r.Duration())
	}
}

// TestForensicReportAddFinding tests deduplication of findings.
func TestForensicReportAddFinding(t *testing.T) {
	t.Parallel()

	r := NewForensicReport("req", Document{})
	r.AddFinding(NewFinding(FindingNoExif, "Sin EXIF", "", "extract"))
	r.AddFinding(NewFinding(FindingNoExif, "Sin EXIF", "other description", "extract"))
	r.AddFinding(NewFinding(FindingEditingSoftware, "Editor detectado", "", "extract"))

	if len(r.Findings) != 2 {
		t.Fatalf("expected 2 findings after dedupe, got %d", len(r.Findings))
	}

	counts := r.CountBySeverity()
	if counts[SeverityLow] != 1 || counts[SeverityHigh] != 1 {
		t.Errorf("unexpected severity counts: %v", counts)
	}

	highest, ok := r.HighestSeverity()
	if !ok || highest != SeverityHigh {
		t.Errorf("expected highest severity HIGH, got %v (ok=%v)", highest, ok)
	}

	if got := r.GetFindingsBySeverity(SeverityHigh); len(got) != 1 {
		t.Errorf("expected 1 high finding, got %d", len(got))
	}
}

// TestForensicReportHighestSeverityEmpty tests the empty case.
func TestForensicReportHighestSeverityEmpty(t *testing.T) {
	t.Parallel()

	r := NewForensicReport("req", Document{})
	if _, ok := r.HighestSeverity(); ok {
		t.Error("expected ok=false for report without findings")
	}
}

// TestForensicReportAddError tests that nil errors are ignored.
func TestForensicReportAddError(t *testing.T) {
	t.Parallel()

	r := NewForensicReport("req", Document{})
	r.AddError("locate", nil)
	r.AddError("locate", errors.New("boom"))

	if len(r.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(r.Errors))
	}
	if r.Errors[0] != "locate: boom" {
		t.Errorf("unexpected error text %q", r.Errors[0])
	}
}

// TestForensicReportJSON tests that sensitive fields are not serialized.
func TestForensicReportJSON(t *testing.T) {
	t.Parallel()

	r := NewForensicReport("req", DocumentFromPath("/tmp/secret-dir/doc.png"))
	r.Extraction = ExtractionResult{Format: "png", Text: "PACIENTE: Ana Ruiz"}
	r.RawAssessment = "raw engine output"
	r.Assessment = NewFallbackAssessment("raw engine output")
	r.Complete()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "/tmp/secret-dir") {
		t.Error("document path must not be serialized")
	}
	if strings.Contains(out, "PACIENTE") {
		t.Error("extracted text must not be serialized")
	}
	if !strings.Contains(out, `"puntaje_veracidad":50`) {
		t.Errorf("expected assessment in output, got %s", out)
	}
}
