package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/incapscan/internal/model"
)

// DefaultConcurrency is the default number of documents analyzed at once.
const DefaultConcurrency = 4

// DocumentAnalyzer analyzes one document. *Analyzer implements it.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, path string) *model.ForensicReport
}

// BatchProcessor handles concurrent analysis of multiple documents.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Analyzer because:
// 1. It keeps the Analyzer focused on single-document execution
// 2. OCR is CPU heavy, so the limit is a property of the batch, not the document
type BatchProcessor struct {
	analyzer    DocumentAnalyzer
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(analyzer DocumentAnalyzer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch analyzes multiple documents concurrently.
// The result has one report per path, in input order. Documents analyzed
// after cancellation still get a report describing the cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) ([]*model.ForensicReport, error) {
	results := make([]*model.ForensicReport, len(paths))
	err := bp.ProcessBatchWithCallback(ctx, paths, func(report *model.ForensicReport, index int) {
		// Each goroutine writes a distinct index.
		results[index] = report
	})
	return results, err
}

// ProcessBatchWithCallback analyzes documents and calls callback for each
// completed report. The callback is called from the goroutine that
// completed the analysis, so it must be safe for concurrent use.
//
// The returned error is the context error when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	paths []string,
	callback func(report *model.ForensicReport, index int),
) error {
	bp.logger.Info("starting batch analysis",
		"total_documents", len(paths),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			report := bp.analyzer.Analyze(ctx, path)
			callback(report, i)
			return nil
		})
	}
	_ = g.Wait()

	bp.logger.Info("batch analysis complete",
		"total_documents", len(paths),
		"elapsed", time.Since(startTime),
	)
	return ctx.Err()
}
