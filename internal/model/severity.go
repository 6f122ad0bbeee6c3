package model

// Severity is how strongly a finding points to tampering.
// Higher values are more severe, so severities sort and compare as ints.
type Severity int

// Severities from least to most severe.
const (
	// SeverityInfo carries no fraud signal (page count, capture device).
	SeverityInfo Severity = iota
	// SeverityLow is common in legitimate documents too, e.g. an image
	// without EXIF data.
	SeverityLow
	// SeverityMedium warrants a manual look: a later modification date or a
	// duration above the reference.
	SeverityMedium
	// SeverityHigh signals editing, such as a photo editor recorded as the
	// PDF producer.
	SeverityHigh
	// SeverityCritical suggests forgery on its own, such as a physician name
	// that cannot be a human name.
	SeverityCritical
)

var severityNames = [...]string{
	SeverityInfo:     "INFO",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

// String returns the upper-case label used in reports.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and recommendation for the reviewer.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// Finding types produced by the extractor, the checkers, and the pipeline.
const (
	FindingEditingSoftware     = "editing_software"
	FindingMetadataModified    = "metadata_modified"
	FindingMetadataUnreadable  = "metadata_unreadable"
	FindingNoExif              = "no_exif"
	FindingCaptureDevice       = "capture_device"
	FindingEmptyText           = "empty_text"
	FindingExtractionFailed    = "extraction_failed"
	FindingInvalidPhysician    = "invalid_physician_name"
	FindingPhysicianNotFound   = "physician_not_found"
	FindingMissingPhysician    = "missing_physician"
	FindingDurationAboveRef    = "duration_above_reference"
	FindingUnparseableDays     = "unparseable_days"
	FindingMissingDiagnosis    = "missing_diagnosis"
	FindingUnstructuredVerdict = "unstructured_verdict"
)

// findingInfoMapping holds the weight and reviewer guidance of every
// finding type. Producers only name the type.
var findingInfoMapping = map[string]FindingInfo{
	FindingInvalidPhysician: {
		Severity:       SeverityCritical,
		Impact:         "The physician name contains digits or symbols, which points to OCR corruption or manual alteration.",
		Recommendation: "Compare the name against the original paper document and the issuing institution.",
	},
	FindingEditingSoftware: {
		Severity:       SeverityHigh,
		Impact:         "The document metadata names image or PDF editing software instead of a clinical records system.",
		Recommendation: "Request the certificate directly from the issuing EPS or IPS.",
	},
	FindingPhysicianNotFound: {
		Severity:       SeverityHigh,
		Impact:         "The physician does not appear in the configured professional roster.",
		Recommendation: "Verify the professional license in RETHUS before accepting the leave.",
	},
	FindingMetadataModified: {
		Severity:       SeverityMedium,
		Impact:         "The document was modified after it was created.",
		Recommendation: "Check whether the modification happened after the issue date of the leave.",
	},
	FindingDurationAboveRef: {
		Severity:       SeverityMedium,
		Impact:         "The granted days exceed the tolerated reference duration for the diagnosis.",
		Recommendation: "Ask the treating physician for the clinical justification of the extended leave.",
	},
	FindingUnparseableDays: {
		Severity:       SeverityMedium,
		Impact:         "The number of granted days could not be read.",
		Recommendation: "Review the duration manually.",
	},
	FindingUnstructuredVerdict: {
		Severity:       SeverityMedium,
		Impact:         "The assessment engine did not return a structured verdict; a conservative fallback was used.",
		Recommendation: "Review the raw analysis preserved in the report.",
	},
	FindingNoExif: {
		Severity:       SeverityLow,
		Impact:         "The image carries no EXIF data. It may be a screenshot or a cropped copy sent through a messaging app.",
		Recommendation: "Ask for the original file or the PDF issued by the provider.",
	},
	FindingMetadataUnreadable: {
		Severity:       SeverityLow,
		Impact:         "Document metadata could not be read.",
		Recommendation: "Inspect the file with a dedicated PDF tool.",
	},
	FindingMissingPhysician: {
		Severity:       SeverityLow,
		Impact:         "No physician name could be located in the document text.",
		Recommendation: "Check the signature block manually.",
	},
	FindingMissingDiagnosis: {
		Severity:       SeverityLow,
		Impact:         "No CIE-10 code or leave duration could be located in the document text.",
		Recommendation: "Check the diagnosis section manually.",
	},
	FindingEmptyText: {
		Severity:       SeverityLow,
		Impact:         "No readable text was extracted from the document.",
		Recommendation: "Rescan the document at a higher resolution.",
	},
	FindingExtractionFailed: {
		Severity:       SeverityLow,
		Impact:         "The document parser failed; the analysis ran on partial data.",
		Recommendation: "Retry with a different export of the document.",
	},
	FindingCaptureDevice: {
		Severity:       SeverityInfo,
		Impact:         "The image records the capture device.",
		Recommendation: "No action needed.",
	},
}

// GetSeverity returns the severity of findingType, SeverityInfo when unknown.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the metadata of findingType. Unknown types get an
// informational entry asking for manual review.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}

// NewFinding builds a Finding for the given type, filling severity,
// impact, and recommendation from the central mapping.
func NewFinding(findingType, title, description, source string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Source:         source,
	}
}
