package pipeline

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/nao1215/incapscan/internal/model"
	"github.com/nao1215/incapscan/internal/reasoning"
)

type fakeExtractor struct {
	result model.ExtractionResult
	calls  atomic.Int32
}

func (f *fakeExtractor) Extract(context.Context, string) model.ExtractionResult {
	f.calls.Add(1)
	return f.result
}

type fakeLocator struct {
	claims model.Claims
	err    error
	got    string
}

func (f *fakeLocator) LocateClaims(_ context.Context, text string) (model.Claims, error) {
	f.got = text
	return f.claims, f.err
}

type fakeRegistry struct {
	verdict model.RegistryVerdict
	got     atomic.Value
}

func (f *fakeRegistry) CheckPhysician(_ context.Context, name string) model.RegistryVerdict {
	f.got.Store(name)
	return f.verdict
}

type fakeCongruence struct {
	verdict model.CongruenceVerdict
	calls   atomic.Int32
}

func (f *fakeCongruence) CheckCongruence(context.Context, string, string) model.CongruenceVerdict {
	f.calls.Add(1)
	return f.verdict
}

type fakeSynthesizer struct {
	raw string
	err error
	got reasoning.Evidence
}

func (f *fakeSynthesizer) SynthesizeVerdict(_ context.Context, ev reasoning.Evidence) (string, error) {
	f.got = ev
	return f.raw, f.err
}

type panicExtractor struct{}

func (panicExtractor) Extract(context.Context, string) model.ExtractionResult {
	panic("parser exploded")
}

var errEngineDown = errors.New("engine down")

const validAssessment = `{"puntaje_veracidad": 92, "hallazgos_medicos": "ok", "analisis_forense": "sin edición", "veredicto": "LEGITIMA"}`

func hasFindingType(r *model.ForensicReport, findingType string) bool {
	for _, f := range r.Findings {
		if f.Type == findingType {
			return true
		}
	}
	return false
}
