package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/incapscan/internal/model"
)

// LLM engine defaults.
const (
	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 60 * time.Second

	// maxCompletionBody bounds the response read.
	maxCompletionBody = 4 << 20
)

// LLMEngine answers both ports with an OpenAI-compatible chat completions
// endpoint.
type LLMEngine struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	timeout     time.Duration
	client      *http.Client
	logger      *slog.Logger
}

// LLMOption configures an LLMEngine.
type LLMOption func(*LLMEngine)

// WithBaseURL sets the API base URL, e.g. "http://localhost:11434/v1".
func WithBaseURL(u string) LLMOption {
	return func(e *LLMEngine) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel sets the model name.
func WithModel(m string) LLMOption {
	return func(e *LLMEngine) {
		if m != "" {
			e.model = m
		}
	}
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) LLMOption {
	return func(e *LLMEngine) {
		e.apiKey = key
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMOption {
	return func(e *LLMEngine) {
		e.temperature = t
	}
}

// WithLLMHTTPClient sets the HTTP client.
func WithLLMHTTPClient(c *http.Client) LLMOption {
	return func(e *LLMEngine) {
		if c != nil {
			e.client = c
		}
	}
}

// WithLLMTimeout bounds each completion request.
func WithLLMTimeout(d time.Duration) LLMOption {
	return func(e *LLMEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLLMLogger sets the logger.
func WithLLMLogger(logger *slog.Logger) LLMOption {
	return func(e *LLMEngine) {
		e.logger = logger
	}
}

// NewLLMEngine creates an LLMEngine. An API key is required.
func NewLLMEngine(opts ...LLMOption) (*LLMEngine, error) {
	e := &LLMEngine{
		baseURL: DefaultLLMBaseURL,
		model:   DefaultLLMModel,
		timeout: DefaultLLMTimeout,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if strings.TrimSpace(e.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return e, nil
}

// Name returns the engine name.
func (e *LLMEngine) Name() string {
	return "llm"
}

// located is the answer expected from the claim location prompt.
type located struct {
	Medico      string          `json:"medico"`
	CodigoCIE10 string          `json:"codigo_cie10"`
	Dias        json.RawMessage `json:"dias"`
}

// LocateClaims asks the model for the physician, code and days.
func (e *LLMEngine) LocateClaims(ctx context.Context, text string) (model.Claims, error) {
	content, err := e.complete(ctx, "locate", auditorPrompt, locateUserPrompt(text))
	if err != nil {
		return model.Claims{}, err
	}

	var l located
	if err := json.Unmarshal([]byte(UnwrapPayload(content)), &l); err != nil {
		return model.Claims{}, fmt.Errorf("decode located claims: %w", err)
	}
	return model.Claims{
		Physician: model.PhysicianClaim{Name: cleanName(l.Medico)},
		Diagnosis: model.DiagnosisClaim{
			Code:    normalizeCode(l.CodigoCIE10),
			RawDays: rawDaysValue(l.Dias),
		},
	}, nil
}

// SynthesizeVerdict asks the model for the final assessment and returns
// its answer untouched.
func (e *LLMEngine) SynthesizeVerdict(ctx context.Context, ev Evidence) (string, error) {
	return e.complete(ctx, "synthesize", synthesisPrompt, synthesisUserPrompt(ev))
}

// rawDaysValue keeps numbers and strings as text so ParseDays decides.
func rawDaysValue(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(msg)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *LLMEngine) complete(ctx context.Context, op, system, user string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:          e.model,
		Temperature:    e.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", rid)

	e.logger.Info("llm request", "op", op, "req_id", rid, "model", e.model, "content_length", len(body))

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("llm request failed", "op", op, "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCompletionBody))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	e.logger.Info("llm response", "op", op, "req_id", rid, "status", resp.StatusCode,
		"bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}
