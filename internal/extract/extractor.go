package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/incapscan/internal/model"
)

// Messages returned in place of document text when extraction cannot run.
const (
	unsupportedFormatText = "Formato de archivo no soportado."
	fileNotFoundText      = "Error: No se encontró el archivo en la ruta %s"
	extractionFailedText  = "Error procesando el archivo para extracción profunda: %v"
)

// Default tool settings, mirrored by the config package.
const (
	defaultPDFToText      = "pdftotext"
	defaultPDFToPPM       = "pdftoppm"
	defaultTesseract      = "tesseract"
	defaultLanguage       = "spa"
	defaultDPI            = 300
	defaultCommandTimeout = 60 * time.Second
	defaultMaxOCRPages    = 10
)

// Extractor reads text and metadata from documents.
// It is safe for concurrent use; it holds no per-call state.
type Extractor struct {
	runner         Runner
	logger         *slog.Logger
	pdfToText      string
	pdfToPPM       string
	tesseract      string
	language       string
	tessdataDir    string
	dpi            int
	maxOCRPages    int
	commandTimeout time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner sets the command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		e.runner = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithOCRLanguage sets the tesseract language pack, e.g. "spa".
func WithOCRLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.language = lang
		}
	}
}

// WithTessdataDir overrides the tesseract data directory.
func WithTessdataDir(dir string) Option {
	return func(e *Extractor) {
		e.tessdataDir = dir
	}
}

// WithPDFToText sets the pdftotext binary.
func WithPDFToText(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.pdfToText = path
		}
	}
}

// WithPDFToPPM sets the pdftoppm binary.
func WithPDFToPPM(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.pdfToPPM = path
		}
	}
}

// WithTesseract sets the tesseract binary.
func WithTesseract(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.tesseract = path
		}
	}
}

// WithCommandTimeout bounds each external command.
func WithCommandTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.commandTimeout = d
		}
	}
}

// New creates an Extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		pdfToText:      defaultPDFToText,
		pdfToPPM:       defaultPDFToPPM,
		tesseract:      defaultTesseract,
		language:       defaultLanguage,
		dpi:            defaultDPI,
		maxOCRPages:    defaultMaxOCRPages,
		commandTimeout: defaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.runner == nil {
		e.runner = NewExecRunner(e.logger)
	}
	return e
}

// Extract reads the document at path. It never returns an error: a missing
// file, an unsupported format or a parser failure is reported as text in
// the result with Failure set.
func (e *Extractor) Extract(ctx context.Context, path string) (result model.ExtractionResult) {
	doc := model.DocumentFromPath(path)
	result.Format = doc.Extension

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extractor panic recovered", "format", doc.Extension, "panic", fmt.Sprint(r))
			result = failedResult(result, fmt.Errorf("panic: %v", r))
		}
	}()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ExtractionResult{
				Format:  doc.Extension,
				Text:    fmt.Sprintf(fileNotFoundText, path),
				Failure: ErrFileNotFound.Error(),
			}
		}
		return failedResult(result, err)
	}

	var err error
	switch doc.Extension {
	case "pdf":
		err = e.extractPDF(ctx, path, &result)
	case "docx", "doc":
		err = e.extractWord(path, &result)
	case "jpg", "jpeg", "png":
		err = e.extractImage(ctx, path, &result)
	default:
		return model.ExtractionResult{
			Format:  doc.Extension,
			Text:    unsupportedFormatText,
			Failure: ErrUnsupportedFormat.Error(),
		}
	}

	if err != nil {
		e.logger.Warn("extraction failed", "format", doc.Extension, "error", err)
		return failedResult(result, err)
	}

	if result.Text == "" {
		result.AddFinding(model.NewFinding(model.FindingEmptyText,
			"No text extracted",
			"The document produced no readable text.",
			"extract"))
	}
	return result
}

// failedResult replaces the text of partial with the failure message. The
// metadata and findings gathered before the failure are kept.
func failedResult(partial model.ExtractionResult, err error) model.ExtractionResult {
	r := model.ExtractionResult{
		Format:    partial.Format,
		Text:      fmt.Sprintf(extractionFailedText, err),
		Failure:   err.Error(),
		PageCount: partial.PageCount,
		Metadata:  partial.Metadata,
		Findings:  partial.Findings,
	}
	r.AddFinding(model.NewFinding(model.FindingExtractionFailed,
		"Document parser failed",
		err.Error(),
		"extract"))
	return r
}

// run executes an external command bounded by the command timeout.
func (e *Extractor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, e.commandTimeout)
	defer cancel()

	out, errb, err := e.runner.Run(cctx, name, args...)
	if err != nil {
		if len(errb) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, truncate(string(errb), 512))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
