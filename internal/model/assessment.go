package model

import "strings"

// Verdict is the final label of an assessment.
type Verdict string

const (
	// VerdictLegitimate means no relevant fraud signal was found.
	VerdictLegitimate Verdict = "LEGITIMA"

	// VerdictSuspicious means manual review is needed. It is also the
	// conservative label used by the fallback report.
	VerdictSuspicious Verdict = "SOSPECHOSA"

	// VerdictFraudulent means strong signals of forgery were found.
	VerdictFraudulent Verdict = "FRAUDULENTA"
)

// Fallback report values used when the assessment output is not structured data.
const (
	FallbackScore    = 50
	FallbackFindings = "Incapacidad procesada, pero el reporte no pudo ser parseado estructuralmente."
)

// ParseVerdict maps free-form labels to a Verdict. Unknown labels map to
// VerdictSuspicious so that an unrecognized answer never reads as legitimate.
func ParseVerdict(s string) Verdict {
	label := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(label, "LEGIT"), strings.HasPrefix(label, "LEGÍT"), label == "VALIDA", label == "VÁLIDA", label == "AUTENTICA", label == "AUTÉNTICA":
		return VerdictLegitimate
	case strings.HasPrefix(label, "FRAUD"), strings.HasPrefix(label, "FALSA"):
		return VerdictFraudulent
	default:
		return VerdictSuspicious
	}
}

// Assessment is the structured final report. The JSON field names are part
// of the service contract.
type Assessment struct {
	PuntajeVeracidad int     `json:"puntaje_veracidad"`
	HallazgosMedicos string  `json:"hallazgos_medicos"`
	AnalisisForense  string  `json:"analisis_forense"`
	Veredicto        Verdict `json:"veredicto"`
}

// NewFallbackAssessment builds the conservative report used when the
// assessment engine output cannot be parsed. The raw output is preserved
// for audit.
func NewFallbackAssessment(raw string) Assessment {
	return Assessment{
		PuntajeVeracidad: FallbackScore,
		HallazgosMedicos: FallbackFindings,
		AnalisisForense:  raw,
		Veredicto:        VerdictSuspicious,
	}
}

// Envelope is the boundary response for a successful analysis.
type Envelope struct {
	Status string     `json:"status"`
	Report Assessment `json:"report"`
}

// NewEnvelope wraps an assessment in the success envelope.
func NewEnvelope(a Assessment) Envelope {
	return Envelope{Status: "success", Report: a}
}
