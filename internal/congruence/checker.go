package congruence

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/incapscan/internal/model"
)

// Defaults mirrored by the config package.
const (
	DefaultTolerance         = 1.5
	DefaultEnrichmentTimeout = 4 * time.Second
)

// Enrichment outcomes reported to the observer.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
	OutcomeDisabled = "disabled"
)

// Enricher returns a short plain-text description of a diagnosis code.
type Enricher interface {
	Enrich(ctx context.Context, code string) (string, error)
}

// Checker evaluates diagnosis/duration congruence.
// The reference table is copied at construction; Checker is safe for
// concurrent use.
type Checker struct {
	references        []model.DiagnosisReference
	tolerance         float64
	enricher          Enricher
	enrichmentTimeout time.Duration
	observe           func(outcome string)
	logger            *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithReferences replaces the reference table.
func WithReferences(refs []model.DiagnosisReference) Option {
	return func(c *Checker) {
		c.references = normalizeReferences(refs)
	}
}

// WithTolerance sets the multiplier applied to the reference maximum.
func WithTolerance(tolerance float64) Option {
	return func(c *Checker) {
		if tolerance > 0 {
			c.tolerance = tolerance
		}
	}
}

// WithEnricher enables the online lookup for codes without a reference.
func WithEnricher(e Enricher) Option {
	return func(c *Checker) {
		c.enricher = e
	}
}

// WithEnrichmentTimeout bounds the online lookup.
func WithEnrichmentTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.enrichmentTimeout = d
		}
	}
}

// WithEnrichmentObserver receives one outcome per neutral verdict.
func WithEnrichmentObserver(fn func(outcome string)) Option {
	return func(c *Checker) {
		c.observe = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker with the default table and tolerance and no
// enrichment.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		references:        normalizeReferences(model.DefaultDiagnosisReferences()),
		tolerance:         DefaultTolerance,
		enrichmentTimeout: DefaultEnrichmentTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observe == nil {
		c.observe = func(string) {}
	}
	return c
}

// CheckCongruence evaluates code against rawDays.
func (c *Checker) CheckCongruence(ctx context.Context, code, rawDays string) model.CongruenceVerdict {
	code = model.NormalizeCode(code)

	days, ok := model.ParseDays(rawDays)
	if !ok {
		return model.CongruenceVerdict{
			Status:  model.CongruenceUnparseableDays,
			Code:    code,
			Message: fmt.Sprintf("Error leyendo días: '%s'. Asumiendo revisión manual necesaria.", rawDays),
		}
	}

	ref, found := c.Match(code)
	if !found {
		return c.neutral(ctx, code, days)
	}

	ceiling := float64(ref.MaxDays) * c.tolerance
	verdict := model.CongruenceVerdict{
		Code:             code,
		DaysGranted:      days,
		MatchedPrefix:    ref.Prefix,
		MatchedCondition: ref.Condition,
		ReferenceMaxDays: ref.MaxDays,
		AllowedCeiling:   ceiling,
	}

	if float64(days) <= ceiling {
		verdict.Status = model.CongruenceValidated
		verdict.Message = fmt.Sprintf("CONGRUENCIA MÉDICA VALIDADA: El código %s (%s) justifica %d días de reposo.",
			code, ref.Condition, days)
		return verdict
	}

	verdict.Status = model.CongruenceMinorAlert
	verdict.Message = fmt.Sprintf("ALERTA CLÍNICA MENOR: La incapacidad otorga %d días para %s (%s). "+
		"El promedio sugerido es de %d días (tope tolerado: %s días). Podría ser exageración leve.",
		days, code, ref.Condition, ref.MaxDays, formatDays(ceiling))
	return verdict
}

// Match returns the reference with the longest prefix of code.
// Among equally long prefixes the first in the table wins.
func (c *Checker) Match(code string) (model.DiagnosisReference, bool) {
	code = model.NormalizeCode(code)
	if code == "" {
		return model.DiagnosisReference{}, false
	}

	best := -1
	for i, ref := range c.references {
		if ref.Prefix == "" || !strings.HasPrefix(code, ref.Prefix) {
			continue
		}
		if best < 0 || len(ref.Prefix) > len(c.references[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return model.DiagnosisReference{}, false
	}
	return c.references[best], true
}

func (c *Checker) neutral(ctx context.Context, code string, days int) model.CongruenceVerdict {
	snippet := c.enrich(ctx, code)

	note := ""
	if snippet != "" {
		note = fmt.Sprintf(" (Referencia OSINT: %s)", snippet)
	}
	return model.CongruenceVerdict{
		Status:      model.CongruenceNeutralAssumed,
		Code:        code,
		DaysGranted: days,
		Enrichment:  snippet,
		Message: fmt.Sprintf("REVISIÓN NEUTRAL: Código %s%s detectado con %d días. Al no estar en lista de alto "+
			"riesgo de fraude, SE ASUME VALIDEZ clínica por criterio del médico tratante.", code, note, days),
	}
}

// enrich runs the best-effort lookup. Any failure yields "".
func (c *Checker) enrich(ctx context.Context, code string) string {
	if c.enricher == nil || code == "" {
		c.observe(OutcomeDisabled)
		return ""
	}

	ectx, cancel := context.WithTimeout(ctx, c.enrichmentTimeout)
	defer cancel()

	snippet, err := c.enricher.Enrich(ectx, code)
	switch {
	case err != nil:
		c.logger.Debug("enrichment unavailable", "error", err)
		c.observe(OutcomeError)
		return ""
	case snippet == "":
		c.observe(OutcomeMiss)
		return ""
	default:
		c.observe(OutcomeHit)
		return snippet
	}
}

func normalizeReferences(refs []model.DiagnosisReference) []model.DiagnosisReference {
	out := make([]model.DiagnosisReference, 0, len(refs))
	for _, r := range refs {
		r.Prefix = model.NormalizeCode(r.Prefix)
		out = append(out, r)
	}
	return out
}

func formatDays(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
