package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/incapscan/internal/congruence"
	"github.com/nao1215/incapscan/internal/extract"
	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/reasoning"
	"github.com/nao1215/incapscan/internal/registry"
	"github.com/nao1215/incapscan/internal/workspace"
)

// textRunner answers pdftotext with a fixed page text.
type textRunner struct {
	text string
}

func (r textRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	if name == "pdftotext" {
		return []byte(r.text), nil, nil
	}
	return nil, []byte("unexpected command"), fmt.Errorf("unexpected command %s", name)
}

// certificatePDF is a one-page PDF whose Info dictionary has no author.
func certificatePDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
		"<< /Producer (Sistema de Historia Clinica) /CreationDate (D:20240110090000-05'00') >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestAnalyzeCertificateEndToEnd(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	m := metrics.New(prometheus.NewRegistry())
	engine := reasoning.NewRuleEngine(reasoning.WithRuleLogger(logger))
	analyzer := NewDefaultAnalyzer(Components{
		Extractor: extract.New(
			extract.WithRunner(textRunner{text: "Dr. Juan Gomez, CIE-10 J069, 3 días"}),
			extract.WithLogger(logger),
		),
		Locator:     engine,
		Registry:    registry.NewChecker(registry.WithLogger(logger)),
		Congruence:  congruence.NewChecker(congruence.WithLogger(logger)),
		Synthesizer: engine,
		Metrics:     m,
		Logger:      logger,
	})

	var (
		report  *model.ForensicReport
		scratch string
	)
	ctx := ContextWithRequestID(context.Background(), "req-e2e")
	err := workspace.WithDocument(ctx, "incapacidad.pdf", bytes.NewReader(certificatePDF()), 0, func(path string) error {
		scratch = filepath.Dir(path)
		report = analyzer.Analyze(ctx, path)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("expected scratch storage removed, got %v", err)
	}
	if report.RequestID != "req-e2e" {
		t.Errorf("unexpected request ID %q", report.RequestID)
	}
	if report.Registry == nil || report.Registry.Status != model.RegistryActive {
		t.Fatalf("expected ACTIVE registry verdict, got %+v", report.Registry)
	}
	if report.Congruence == nil || report.Congruence.Status != model.CongruenceValidated {
		t.Fatalf("expected VALIDATED congruence verdict, got %+v", report.Congruence)
	}
	if report.Fallback {
		t.Errorf("expected no fallback, raw output %q", report.RawAssessment)
	}
	if report.Assessment.Veredicto != model.VerdictLegitimate {
		t.Errorf("expected LEGITIMA, got %s (%d)", report.Assessment.Veredicto, report.Assessment.PuntajeVeracidad)
	}
	if report.Digest == "" {
		t.Error("expected a document digest")
	}
	if report.CompletedAt.IsZero() {
		t.Error("expected completion time")
	}
	if len(report.CompletedSteps) != 4 {
		t.Errorf("expected 4 completed steps, got %v", report.CompletedSteps)
	}
}

func TestAnalyzeAlwaysReturnsAnAssessment(t *testing.T) {
	t.Parallel()

	t.Run("panicking collaborator", func(t *testing.T) {
		t.Parallel()

		analyzer := NewDefaultAnalyzer(Components{
			Extractor:   panicExtractor{},
			Locator:     &fakeLocator{},
			Registry:    &fakeRegistry{},
			Congruence:  &fakeCongruence{},
			Synthesizer: &fakeSynthesizer{raw: validAssessment},
			Logger:      discardLogger(),
		})

		report := analyzer.Analyze(context.Background(), "/tmp/x.pdf")
		if !report.Fallback || report.Assessment.Veredicto != model.VerdictSuspicious {
			t.Errorf("expected fallback assessment, got %+v", report.Assessment)
		}
		if len(report.Errors) == 0 {
			t.Error("expected the panic recorded")
		}
	})

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		ext := &fakeExtractor{}
		analyzer := NewDefaultAnalyzer(Components{
			Extractor:   ext,
			Locator:     &fakeLocator{},
			Registry:    &fakeRegistry{},
			Congruence:  &fakeCongruence{},
			Synthesizer: &fakeSynthesizer{raw: validAssessment},
			Logger:      discardLogger(),
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report := analyzer.Analyze(ctx, "/tmp/x.pdf")
		if ext.calls.Load() != 0 {
			t.Error("expected no extraction after cancellation")
		}
		if !report.Fallback || report.Assessment.PuntajeVeracidad != 50 {
			t.Errorf("expected fallback assessment, got %+v", report.Assessment)
		}
		if report.RequestID == "" {
			t.Error("expected a generated request ID")
		}
	})
}

// deadlineExtractor blocks until the analysis context ends.
type deadlineExtractor struct {
	err error
}

func (d *deadlineExtractor) Extract(ctx context.Context, _ string) model.ExtractionResult {
	<-ctx.Done()
	d.err = ctx.Err()
	return model.ExtractionResult{}
}

func TestAnalyzeHonorsAnalysisTimeout(t *testing.T) {
	t.Parallel()

	ext := &deadlineExtractor{}
	analyzer := NewDefaultAnalyzer(Components{
		Extractor:   ext,
		Locator:     &fakeLocator{},
		Registry:    &fakeRegistry{},
		Congruence:  &fakeCongruence{},
		Synthesizer: &fakeSynthesizer{raw: validAssessment},
		Logger:      discardLogger(),
	}, WithAnalysisTimeout(20*time.Millisecond))

	report := analyzer.Analyze(context.Background(), "/tmp/slow.pdf")
	if !errors.Is(ext.err, context.DeadlineExceeded) {
		t.Errorf("expected the extractor to see the deadline, got %v", ext.err)
	}
	if report.Assessment.Veredicto == "" {
		t.Error("expected an assessment even after the deadline")
	}
}
