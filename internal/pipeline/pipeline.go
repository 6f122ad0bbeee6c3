package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/model"
)

// Step is one stage of the analysis of a document.
type Step interface {
	// Do adds the stage output to report. Problems the report can describe
	// (an unreadable page, a registry miss) are recorded there and Do
	// returns nil. A returned error means the stage produced nothing.
	Do(ctx context.Context, report *model.ForensicReport) error

	// Name identifies the stage in logs, metrics and report.CompletedSteps.
	Name() string
}

// Pipeline runs a fixed sequence of steps against one report.
// The step list is set at construction and never modified.
type Pipeline struct {
	steps       []Step
	haltOnError bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records the duration of every step.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithHaltOnError controls whether a failed step ends the run.
// It is true by default. DefaultPipeline turns it off because the verdict
// must be synthesized even when verification could not finish.
func WithHaltOnError(halt bool) Option {
	return func(p *Pipeline) {
		p.haltOnError = halt
	}
}

// New creates a Pipeline running steps in order.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:       append([]Step(nil), steps...),
		haltOnError: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Execute runs the steps against report.
//
// The context is checked between steps; a step blocked on I/O is expected
// to watch ctx itself. On cancellation the context error is recorded under
// "pipeline" and returned. Step errors are recorded under the step name and
// only returned when the pipeline halts on error.
func (p *Pipeline) Execute(ctx context.Context, report *model.ForensicReport) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("analysis interrupted",
				"request_id", report.RequestID,
				"next_step", step.Name(),
				"reason", err,
			)
			report.AddError("pipeline", err)
			return err
		}

		if err := p.run(ctx, step, report); err != nil && p.haltOnError {
			return err
		}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, step Step, report *model.ForensicReport) error {
	name := step.Name()
	start := time.Now()

	err := step.Do(ctx, report)

	elapsed := time.Since(start)
	p.metrics.ObserveStep(name, elapsed)

	if err != nil {
		p.logger.Error("step failed", "request_id", report.RequestID, "step", name, "error", err)
		report.AddError(name, err)
		return err
	}

	p.logger.Debug("step done", "request_id", report.RequestID, "step", name, "elapsed", elapsed)
	report.MarkStepCompleted(name)
	return nil
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
