package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/nao1215/incapscan/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAnalyzer returns a LEGITIMA report for every path.
type fakeAnalyzer struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, path string) *model.ForensicReport {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	base := filepath.Base(path)
	r := model.NewForensicReport("req-"+base, model.DocumentFromPath(path))
	r.Digest = "digest-" + base
	r.Assessment = model.Assessment{
		PuntajeVeracidad: 90,
		HallazgosMedicos: "Diagnóstico congruente con los días otorgados.",
		AnalisisForense:  "Sin señales de edición.",
		Veredicto:        model.VerdictLegitimate,
	}
	r.Complete()
	return r
}

func (f *fakeAnalyzer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// fakeRecorder collects the request IDs it was asked to save.
type fakeRecorder struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeRecorder) SaveAnalysis(_ context.Context, r *model.ForensicReport) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.ids = append(f.ids, r.RequestID)
	return int64(len(f.ids)), nil
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
