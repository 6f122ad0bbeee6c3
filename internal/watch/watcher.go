package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/report"
)

// DefaultPattern selects every supported document in the inbox tree.
const DefaultPattern = "**/*.{pdf,jpg,jpeg,png,docx}"

// DefaultSettle is the quiet period after the last write event.
const DefaultSettle = 2 * time.Second

// Report formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Analyzer runs the forensic analysis of a document.
type Analyzer interface {
	Analyze(ctx context.Context, path string) *model.ForensicReport
}

// AuditRecorder stores a digest-only record of each analysis.
type AuditRecorder interface {
	SaveAnalysis(ctx context.Context, report *model.ForensicReport) (int64, error)
}

// Watcher turns inbox files into reports.
type Watcher struct {
	inbox    string
	outDir   string
	patterns []string
	settle   time.Duration
	format   string
	version  string
	analyzer Analyzer
	recorder AuditRecorder
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPatterns replaces the default pattern list.
func WithPatterns(patterns ...string) Option {
	return func(w *Watcher) {
		if len(patterns) > 0 {
			w.patterns = patterns
		}
	}
}

// WithSettle sets the quiet period before a file is analyzed.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithFormat selects FormatJSON or FormatMarkdown.
func WithFormat(format string) Option {
	return func(w *Watcher) {
		w.format = format
	}
}

// WithVersion sets the version recorded in JSON reports.
func WithVersion(version string) Option {
	return func(w *Watcher) {
		w.version = version
	}
}

// WithAuditRecorder enables the audit ledger.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(w *Watcher) {
		w.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a Watcher for inbox that writes reports into outDir.
func New(inbox, outDir string, analyzer Analyzer, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		inbox:    filepath.Clean(inbox),
		patterns: []string{DefaultPattern},
		settle:   DefaultSettle,
		format:   FormatJSON,
		analyzer: analyzer,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	info, err := os.Stat(w.inbox)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInboxNotDir, inbox)
	}
	if outDir == "" {
		return nil, ErrNoOutputDir
	}
	w.outDir = filepath.Clean(outDir)
	for _, p := range w.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	if w.format != FormatJSON && w.format != FormatMarkdown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, w.format)
	}
	return w, nil
}

// Matches reports whether path, inside the inbox, matches a pattern.
// Matching is case-insensitive on the slash-separated relative path.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.inbox, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = strings.ToLower(filepath.ToSlash(rel))
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), rel); ok {
			return true
		}
	}
	return false
}

// Run processes files already in the inbox, then watches for new ones
// until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := os.MkdirAll(w.outDir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ready := make(chan string, 64)
	deb := newDebouncer(w.settle)
	defer deb.stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedule := func(path string) {
		deb.add(path, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	existing, err := w.addTree(fw, w.inbox)
	if err != nil {
		return err
	}
	for _, p := range existing {
		schedule(p)
	}

	w.logger.Info("watching inbox", "inbox", w.inbox, "out", w.outDir, "patterns", w.patterns)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ready:
				if _, err := os.Stat(path); err != nil {
					continue
				}
				if _, err := w.ProcessFile(ctx, path); err != nil {
					w.logger.Error("inbox document failed", "error", err)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, schedule)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, schedule func(string)) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			files, err := w.addTree(fw, ev.Name)
			if err != nil {
				w.logger.Warn("failed to watch new directory", "error", err)
			}
			for _, p := range files {
				schedule(p)
			}
			return
		}
	}
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		if w.Matches(ev.Name) {
			schedule(ev.Name)
		}
	}
}

// addTree watches root and its subdirectories and returns matching files
// already present.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if filepath.Clean(path) == w.outDir {
				return filepath.SkipDir
			}
			return fw.Add(path)
		}
		if w.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return files, nil
}

// ProcessFile analyzes one document, writes its report and deletes the
// document. The document is deleted even when the report cannot be
// written. It returns the report path.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (reportPath string, err error) {
	defer func() {
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("failed to delete source document: %w", rerr)
		}
	}()

	rep := w.analyzer.Analyze(ctx, path)

	if w.recorder != nil {
		if _, err := w.recorder.SaveAnalysis(ctx, rep); err != nil {
			w.logger.Warn("audit record failed", "request_id", rep.RequestID, "error", err)
		}
	}

	reportPath, err = w.writeReport(rep)
	if err != nil {
		return "", err
	}

	w.logger.Info("inbox document analyzed",
		"request_id", rep.RequestID,
		"verdict", rep.Assessment.Veredicto,
		"report", filepath.Base(reportPath),
	)
	return reportPath, nil
}

func (w *Watcher) writeReport(rep *model.ForensicReport) (string, error) {
	if err := os.MkdirAll(w.outDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := ".json"
	if w.format == FormatMarkdown {
		ext = ".md"
	}
	path := filepath.Join(w.outDir, reportName(rep)+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	var writer report.Writer
	if w.format == FormatMarkdown {
		writer = report.NewMarkdownWriter(f)
	} else {
		writer = report.NewFullJSONWriter(f, w.version, report.WithPrettyPrint())
	}

	_, werr := writer.Write(rep)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write report: %w", werr)
	}
	return path, nil
}

// reportName is the document base name plus a request ID prefix, so
// repeated uploads of the same name do not collide.
func reportName(rep *model.ForensicReport) string {
	base := strings.TrimSuffix(rep.Document.Name, filepath.Ext(rep.Document.Name))
	if base == "" {
		base = "document"
	}
	id := rep.RequestID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = time.Now().Format("20060102T150405")
	}
	return base + "-" + id
}
