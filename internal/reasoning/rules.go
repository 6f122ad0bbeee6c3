package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/incapscan/internal/model"
)

// Score table used by RuleEngine. The score starts at maxScore and each
// signal present in the evidence subtracts its weight once.
var deductions = map[string]int{
	model.FindingInvalidPhysician:   50,
	model.FindingPhysicianNotFound:  35,
	model.FindingEditingSoftware:    35,
	model.FindingEmptyText:          20,
	model.FindingExtractionFailed:   20,
	model.FindingDurationAboveRef:   15,
	model.FindingMissingPhysician:   10,
	model.FindingMissingDiagnosis:   10,
	model.FindingUnparseableDays:    10,
	model.FindingMetadataModified:   10,
	model.FindingMetadataUnreadable: 5,
	model.FindingNoExif:             5,
}

// Verdict thresholds on the final score.
const (
	maxScore            = 100
	legitimateThreshold = 70
	suspiciousThreshold = 40
)

// RuleEngine is the offline engine. It locates claims with regular
// expressions and scores evidence with a fixed table. It is deterministic
// and safe for concurrent use.
type RuleEngine struct {
	logger *slog.Logger
}

// RuleOption configures a RuleEngine.
type RuleOption func(*RuleEngine)

// WithRuleLogger sets the logger.
func WithRuleLogger(logger *slog.Logger) RuleOption {
	return func(e *RuleEngine) {
		e.logger = logger
	}
}

// NewRuleEngine creates a RuleEngine.
func NewRuleEngine(opts ...RuleOption) *RuleEngine {
	e := &RuleEngine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Name returns the engine name.
func (e *RuleEngine) Name() string {
	return "rules"
}

// LocateClaims finds the physician, CIE-10 code and granted days.
func (e *RuleEngine) LocateClaims(ctx context.Context, text string) (model.Claims, error) {
	if err := ctx.Err(); err != nil {
		return model.Claims{}, err
	}
	claims := locateClaims(text)
	e.logger.Debug("claims located",
		"has_physician", !claims.Physician.Empty(),
		"has_code", claims.Diagnosis.Code != "",
		"has_days", claims.Diagnosis.RawDays != "",
	)
	return claims, nil
}

// SynthesizeVerdict scores the evidence and returns the assessment as JSON.
func (e *RuleEngine) SynthesizeVerdict(ctx context.Context, ev Evidence) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	signals := evidenceSignals(ev)
	score := maxScore
	applied := make([]string, 0, len(signals))
	for _, s := range signals {
		w := deductions[s]
		if w == 0 {
			continue
		}
		score -= w
		applied = append(applied, fmt.Sprintf("-%d %s", w, s))
	}
	if score < 0 {
		score = 0
	}

	a := model.Assessment{
		PuntajeVeracidad: score,
		HallazgosMedicos: medicalFindings(ev),
		AnalisisForense:  forensicAnalysis(ev, applied),
		Veredicto:        verdictForScore(score),
	}
	out, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode assessment: %w", err)
	}
	return string(out), nil
}

// evidenceSignals returns the distinct finding types the evidence implies,
// in a stable order.
func evidenceSignals(ev Evidence) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	switch {
	case ev.Registry == nil:
		add(model.FindingMissingPhysician)
	case ev.Registry.Status == model.RegistryInvalidFormat:
		add(model.FindingInvalidPhysician)
	case ev.Registry.Status == model.RegistryNotFound:
		add(model.FindingPhysicianNotFound)
	}

	switch {
	case ev.Congruence == nil:
		add(model.FindingMissingDiagnosis)
	case ev.Congruence.Status == model.CongruenceUnparseableDays:
		add(model.FindingUnparseableDays)
	case ev.Congruence.Status == model.CongruenceMinorAlert:
		add(model.FindingDurationAboveRef)
	}

	for _, f := range ev.Extraction.Findings {
		add(f.Type)
	}
	return out
}

func verdictForScore(score int) model.Verdict {
	switch {
	case score >= legitimateThreshold:
		return model.VerdictLegitimate
	case score >= suspiciousThreshold:
		return model.VerdictSuspicious
	default:
		return model.VerdictFraudulent
	}
}

func medicalFindings(ev Evidence) string {
	parts := make([]string, 0, 2)
	if ev.Registry != nil {
		parts = append(parts, ev.Registry.Message)
	} else {
		parts = append(parts, "No se localizó el nombre del médico tratante en el documento.")
	}
	if ev.Congruence != nil {
		parts = append(parts, ev.Congruence.Message)
	} else {
		parts = append(parts, "No se localizó código CIE-10 ni días de incapacidad en el documento.")
	}
	return strings.Join(parts, " ")
}

func forensicAnalysis(ev Evidence, applied []string) string {
	var b strings.Builder
	if len(ev.Extraction.Findings) == 0 {
		fmt.Fprintf(&b, "Sin rastros de edición digital en los metadatos (%d entradas revisadas).",
			len(ev.Extraction.Metadata))
	} else {
		for i, f := range ev.Extraction.Findings {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(strings.TrimSuffix(f.Title, "."))
			if f.Description != "" {
				b.WriteString(": ")
				b.WriteString(strings.TrimSuffix(f.Description, "."))
			}
			b.WriteString(".")
		}
	}
	if ev.Extraction.Failed() {
		b.WriteString(" Extracción degradada: ")
		b.WriteString(ev.Extraction.Failure)
	}
	if len(applied) > 0 {
		b.WriteString(" Criterios aplicados: ")
		b.WriteString(strings.Join(applied, ", "))
		b.WriteString(".")
	}
	return b.String()
}
