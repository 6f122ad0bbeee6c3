package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/reasoning"
)

// Step names.
const (
	StepExtract    = "extract"
	StepLocate     = "locate"
	StepVerify     = "verify"
	StepSynthesize = "synthesize"
)

// Extractor reads text and metadata from a document.
type Extractor interface {
	Extract(ctx context.Context, path string) model.ExtractionResult
}

// RegistryChecker decides whether a physician name is plausible.
type RegistryChecker interface {
	CheckPhysician(ctx context.Context, name string) model.RegistryVerdict
}

// CongruenceChecker compares a diagnosis code against granted days.
type CongruenceChecker interface {
	CheckCongruence(ctx context.Context, code, rawDays string) model.CongruenceVerdict
}

// ExtractStep runs the extractor once and fingerprints the document.
type ExtractStep struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor Extractor, logger *slog.Logger) *ExtractStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{extractor: extractor, logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do executes the extraction step.
func (s *ExtractStep) Do(ctx context.Context, report *model.ForensicReport) error {
	digest, err := digestFile(report.Document.Path)
	if err != nil {
		s.logger.Debug("digest unavailable", "request_id", report.RequestID, "error", err)
	}
	report.Digest = digest

	result := s.extractor.Extract(ctx, report.Document.Path)
	report.Extraction = result
	for _, f := range result.Findings {
		report.AddFinding(f)
	}
	if result.Failed() {
		report.AddError(StepExtract, errors.New(result.Failure))
	}
	return nil
}

// digestFile returns the hex SHA3-256 of the file contents.
func digestFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-owned scratch storage
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LocateStep finds the physician and diagnosis claims in the text.
type LocateStep struct {
	locator reasoning.Locator
	logger  *slog.Logger
}

// NewLocateStep creates a LocateStep.
func NewLocateStep(locator reasoning.Locator, logger *slog.Logger) *LocateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocateStep{locator: locator, logger: logger}
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return StepLocate
}

// Do executes the locate step. A locator failure leaves the claims empty.
func (s *LocateStep) Do(ctx context.Context, report *model.ForensicReport) error {
	claims, err := s.locator.LocateClaims(ctx, report.Extraction.Text)
	if err != nil {
		s.logger.Warn("claim location failed", "request_id", report.RequestID, "error", err)
		report.AddError(StepLocate, err)
		claims = model.Claims{}
	}
	report.Claims = claims

	if claims.Physician.Empty() {
		report.AddFinding(model.NewFinding(model.FindingMissingPhysician,
			"Physician not located",
			"No physician name was found in the document text.",
			StepLocate))
	}
	if claims.Diagnosis.NormalizedCode() == "" {
		report.AddFinding(model.NewFinding(model.FindingMissingDiagnosis,
			"Diagnosis not located",
			"No CIE-10 code was found in the document text.",
			StepLocate))
	}
	return nil
}

// VerifyStep runs the registry and congruence checks concurrently.
// Each check is skipped when its claim is missing.
type VerifyStep struct {
	registry   RegistryChecker
	congruence CongruenceChecker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewVerifyStep creates a VerifyStep. m may be nil.
func NewVerifyStep(registry RegistryChecker, congruence CongruenceChecker, m *metrics.Metrics, logger *slog.Logger) *VerifyStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyStep{registry: registry, congruence: congruence, metrics: m, logger: logger}
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return StepVerify
}

// Do executes both checks. The goroutines share no state: each writes
// only its own result variable, read after Wait.
func (s *VerifyStep) Do(ctx context.Context, report *model.ForensicReport) error {
	claims := report.Claims

	var (
		registry   *model.RegistryVerdict
		congruence *model.CongruenceVerdict
	)

	g, gctx := errgroup.WithContext(ctx)
	if !claims.Physician.Empty() {
		g.Go(func() error {
			v := s.registry.CheckPhysician(gctx, claims.Physician.Name)
			registry = &v
			return nil
		})
	}
	if claims.Diagnosis.NormalizedCode() != "" {
		g.Go(func() error {
			v := s.congruence.CheckCongruence(gctx, claims.Diagnosis.Code, claims.Diagnosis.RawDays)
			congruence = &v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report.Registry = registry
	report.Congruence = congruence

	if registry != nil {
		s.metrics.IncrementRegistry(string(registry.Status))
		switch registry.Status {
		case model.RegistryInvalidFormat:
			report.AddFinding(model.NewFinding(model.FindingInvalidPhysician,
				"Physician name is not a plausible human name", registry.Message, StepVerify))
		case model.RegistryNotFound:
			report.AddFinding(model.NewFinding(model.FindingPhysicianNotFound,
				"Physician not found in roster", registry.Message, StepVerify))
		}
	}
	if congruence != nil {
		s.metrics.IncrementCongruence(string(congruence.Status))
		switch congruence.Status {
		case model.CongruenceMinorAlert:
			report.AddFinding(model.NewFinding(model.FindingDurationAboveRef,
				"Granted days above reference", congruence.Message, StepVerify))
		case model.CongruenceUnparseableDays:
			report.AddFinding(model.NewFinding(model.FindingUnparseableDays,
				"Granted days unreadable", congruence.Message, StepVerify))
		}
	}

	s.logger.Debug("verification done",
		"request_id", report.RequestID,
		"registry_checked", registry != nil,
		"congruence_checked", congruence != nil,
	)
	return nil
}

// SynthesizeStep produces the final assessment and applies the fallback
// when the engine output is not structured data.
type SynthesizeStep struct {
	synthesizer reasoning.Synthesizer
	logger      *slog.Logger
}

// NewSynthesizeStep creates a SynthesizeStep.
func NewSynthesizeStep(synthesizer reasoning.Synthesizer, logger *slog.Logger) *SynthesizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SynthesizeStep{synthesizer: synthesizer, logger: logger}
}

// Name returns the step name.
func (s *SynthesizeStep) Name() string {
	return StepSynthesize
}

// Do executes the synthesis step.
func (s *SynthesizeStep) Do(ctx context.Context, report *model.ForensicReport) error {
	raw, err := s.synthesizer.SynthesizeVerdict(ctx, reasoning.Evidence{
		Extraction: report.Extraction,
		Claims:     report.Claims,
		Registry:   report.Registry,
		Congruence: report.Congruence,
	})
	if err != nil {
		s.logger.Warn("verdict synthesis failed", "request_id", report.RequestID, "error", err)
		report.AddError(StepSynthesize, err)
		applyFallback(report, "Síntesis del veredicto no disponible: "+err.Error())
		return nil
	}

	report.RawAssessment = raw
	assessment, fallback := reasoning.ParseOrFallback(raw)
	if fallback {
		s.logger.Warn("unstructured verdict, using fallback", "request_id", report.RequestID, "bytes", len(raw))
		applyFallback(report, raw)
		return nil
	}
	report.Assessment = assessment
	report.Fallback = false
	return nil
}

// applyFallback substitutes the conservative assessment. analysis is kept
// in the forensic analysis field for audit.
func applyFallback(report *model.ForensicReport, analysis string) {
	report.Assessment = model.NewFallbackAssessment(analysis)
	report.Fallback = true
	report.AddFinding(model.NewFinding(model.FindingUnstructuredVerdict,
		"Fallback verdict applied",
		"The assessment engine output could not be parsed as structured data.",
		StepSynthesize))
}

// Components are the collaborators of the default pipeline.
type Components struct {
	Extractor   Extractor
	Locator     reasoning.Locator
	Registry    RegistryChecker
	Congruence  CongruenceChecker
	Synthesizer reasoning.Synthesizer
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// DefaultPipeline creates the standard analysis pipeline:
// extract, locate, verify, synthesize. Errors never stop it, so synthesis
// always runs.
func DefaultPipeline(c Components, pipelineOpts ...Option) *Pipeline {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	steps := []Step{
		NewExtractStep(c.Extractor, logger),
		NewLocateStep(c.Locator, logger),
		NewVerifyStep(c.Registry, c.Congruence, c.Metrics, logger),
		NewSynthesizeStep(c.Synthesizer, logger),
	}
	opts := append([]Option{
		WithLogger(logger),
		WithMetrics(c.Metrics),
		WithHaltOnError(false),
	}, pipelineOpts...)
	return New(steps, opts...)
}
