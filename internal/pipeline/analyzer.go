package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/model"
)

type requestIDKey struct{}

// ContextWithRequestID attaches a request ID used for the next report.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached to ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Analyzer runs a fresh pipeline for each document.
type Analyzer struct {
	pipelineFactory func() *Pipeline
	timeout         time.Duration
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithAnalyzerMetrics records verdicts and analysis durations.
func WithAnalyzerMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithAnalysisTimeout bounds each analysis. Zero leaves the caller's
// context deadline as the only bound.
func WithAnalysisTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAnalyzer creates an Analyzer. pipelineFactory is called once per
// document so no pipeline state leaks between analyses.
func NewAnalyzer(pipelineFactory func() *Pipeline, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{pipelineFactory: pipelineFactory}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// NewDefaultAnalyzer creates an Analyzer running DefaultPipeline.
// Options are applied after the ones derived from c.
func NewDefaultAnalyzer(c Components, opts ...AnalyzerOption) *Analyzer {
	base := []AnalyzerOption{
		WithAnalyzerLogger(c.Logger),
		WithAnalyzerMetrics(c.Metrics),
	}
	return NewAnalyzer(func() *Pipeline { return DefaultPipeline(c) }, append(base, opts...)...)
}

// Analyze runs the forensic analysis of the document at path.
// It never panics and always returns a report with a well-formed
// assessment; the document itself is not modified or deleted.
func (a *Analyzer) Analyze(ctx context.Context, path string) (report *model.ForensicReport) {
	id := RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.New().String()
	}
	report = model.NewForensicReport(id, model.DocumentFromPath(path))

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analysis panicked", "request_id", id, "panic", r)
			report.AddError("pipeline", fmt.Errorf("panic: %v", r))
		}
		a.finalize(report)
	}()

	a.logger.Info("analysis started", "request_id", id, "format", report.Document.Extension)

	if err := a.pipelineFactory().Execute(ctx, report); err != nil {
		a.logger.Warn("analysis incomplete", "request_id", id, "error", err)
	}
	return report
}

// finalize guarantees the assessment invariant and records metrics.
func (a *Analyzer) finalize(report *model.ForensicReport) {
	if report.Assessment.Veredicto == "" {
		applyFallback(report, report.RawAssessment)
	}
	report.Complete()

	a.metrics.IncrementVerdict(string(report.Assessment.Veredicto), report.Fallback)
	a.metrics.ObserveAnalysis(report.Duration())

	a.logger.Info("analysis completed",
		"request_id", report.RequestID,
		"verdict", report.Assessment.Veredicto,
		"score", report.Assessment.PuntajeVeracidad,
		"fallback", report.Fallback,
		"findings", len(report.Findings),
		"duration", report.Duration().Round(time.Millisecond),
	)
}
