package model

import (
	"time"
)

// ForensicReport is the aggregate produced by one analysis call.
// It contains everything the pipeline learned about a single document.
//
// Design decision: We use a single struct rather than returning the stage
// outputs separately to simplify serialization and report writing. Registry
// and Congruence are pointers because a stage may be skipped when the
// pipeline is cancelled.
type ForensicReport struct {
	// RequestID correlates log lines, metrics, and audit rows for this call.
	RequestID string `json:"request_id"`

	// Document describes the analyzed file. The path is never serialized.
	Document Document `json:"document"`

	// Digest is the hex SHA3-256 of the document bytes.
	Digest string `json:"digest,omitempty"`

	// StartedAt and CompletedAt bound the analysis.
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Extraction is the extractor output.
	Extraction ExtractionResult `json:"extraction"`

	// Claims are the values located in the extracted text.
	Claims Claims `json:"claims"`

	// Registry is the physician registry verdict.
	Registry *RegistryVerdict `json:"registry,omitempty"`

	// Congruence is the diagnosis/duration verdict.
	Congruence *CongruenceVerdict `json:"congruence,omitempty"`

	// Assessment is the final structured verdict.
	Assessment Assessment `json:"assessment"`

	// Fallback is true when Assessment was synthesized because the engine
	// output was not structured data.
	Fallback bool `json:"fallback"`

	// RawAssessment is the engine output as received.
	RawAssessment string `json:"-"`

	// Findings are the forensic signals collected by every stage.
	Findings []Finding `json:"findings,omitempty"`

	// Errors are stage-local failures that were absorbed into the report.
	Errors []string `json:"errors,omitempty"`

	// CompletedSteps lists the pipeline steps that ran to completion.
	CompletedSteps []string `json:"completed_steps,omitempty"`
}

// Finding represents a single forensic signal.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the weight of the signal.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters.
	Impact string `json:"impact,omitempty"`

	// Recommendation tells the reviewer what to check next.
	Recommendation string `json:"recommendation,omitempty"`

	// Source is the stage that produced the finding.
	Source string `json:"source,omitempty"`
}

// NewForensicReport creates a report for a document.
func NewForensicReport(requestID string, doc Document) *ForensicReport {
	return &ForensicReport{
		RequestID: requestID,
		Document:  doc,
		StartedAt: time.Now(),
		Findings:  make([]Finding, 0),
	}
}

// AddFinding adds a finding, skipping duplicates by type and title.
func (r *ForensicReport) AddFinding(finding Finding) {
	for _, f := range r.Findings {
		if f.Type == finding.Type && f.Title == finding.Title {
			return
		}
	}
	r.Findings = append(r.Findings, finding)
}

// AddError records a stage-local failure.
func (r *ForensicReport) AddError(stage string, err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, stage+": "+err.Error())
}

// MarkStepCompleted records that a pipeline step ran.
func (r *ForensicReport) MarkStepCompleted(name string) {
	r.CompletedSteps = append(r.CompletedSteps, name)
}

// Complete stamps the completion time.
func (r *ForensicReport) Complete() {
	r.CompletedAt = time.Now()
}

// Duration returns how long the analysis took. Zero until Complete is called.
func (r *ForensicReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// GetFindingsBySeverity returns findings filtered by severity.
func (r *ForensicReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// CountBySeverity returns the number of findings per severity.
func (r *ForensicReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// HighestSeverity returns the highest severity among findings and false
// when there are none.
func (r *ForensicReport) HighestSeverity() (Severity, bool) {
	if len(r.Findings) == 0 {
		return SeverityInfo, false
	}
	highest := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest, true
}

// Envelope returns the boundary response for this report.
func (r *ForensicReport) Envelope() Envelope {
	return NewEnvelope(r.Assessment)
}
