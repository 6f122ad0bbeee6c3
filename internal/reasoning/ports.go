package reasoning

import (
	"context"

	"github.com/nao1215/incapscan/internal/model"
)

// Evidence is everything verdict synthesis may look at.
type Evidence struct {
	Extraction model.ExtractionResult
	Claims     model.Claims
	Registry   *model.RegistryVerdict
	Congruence *model.CongruenceVerdict
}

// Locator finds the physician and diagnosis claims in extracted text.
type Locator interface {
	LocateClaims(ctx context.Context, text string) (model.Claims, error)
}

// Synthesizer produces the raw final assessment from evidence.
// The output is expected to be a JSON assessment but callers must not
// rely on it; see ParseOrFallback.
type Synthesizer interface {
	SynthesizeVerdict(ctx context.Context, ev Evidence) (string, error)
}

// Engine is both a Locator and a Synthesizer.
type Engine interface {
	Locator
	Synthesizer
	Name() string
}

var (
	_ Engine = (*RuleEngine)(nil)
	_ Engine = (*LLMEngine)(nil)
)
