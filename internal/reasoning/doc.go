// Package reasoning locates the claims on a certificate and synthesizes
// the final assessment.
//
// Both capabilities are ports (Locator and Synthesizer) so the pipeline
// does not care whether a deterministic rule engine or a language model
// answers. RuleEngine is the offline default. LLMEngine talks to any
// OpenAI-compatible chat completions endpoint.
//
// Synthesizers return raw text. ParseAssessment turns it into a
// model.Assessment: it unwraps Markdown fences, validates the payload
// against an embedded JSON Schema, clamps the score and normalizes the
// verdict label. ParseOrFallback substitutes the conservative fallback
// report when parsing fails.
package reasoning
