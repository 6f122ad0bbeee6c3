package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/incapscan/internal/model"
)

// completionServer answers chat completions with content and records the
// last request.
func completionServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest, *http.Header) {
	t.Helper()

	var got chatRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &headers
}

func newTestLLM(t *testing.T, baseURL string) *LLMEngine {
	t.Helper()

	e, err := NewLLMEngine(
		WithBaseURL(baseURL+"/v1/"),
		WithModel("test-model"),
		WithAPIKey("sk-test"),
		WithLLMTimeout(5*time.Second),
		WithLLMLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewLLMEngine: %v", err)
	}
	return e
}

func TestNewLLMEngine(t *testing.T) {
	t.Parallel()

	t.Run("requires an API key", func(t *testing.T) {
		t.Parallel()

		if _, err := NewLLMEngine(WithAPIKey("  ")); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		e, err := NewLLMEngine(WithAPIKey("k"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.baseURL != DefaultLLMBaseURL || e.model != DefaultLLMModel || e.timeout != DefaultLLMTimeout {
			t.Errorf("unexpected defaults: %s %s %s", e.baseURL, e.model, e.timeout)
		}
		if e.Name() != "llm" {
			t.Errorf("unexpected name %q", e.Name())
		}
	})
}

func TestLLMEngineLocateClaims(t *testing.T) {
	t.Parallel()

	t.Run("decodes numeric days", func(t *testing.T) {
		t.Parallel()

		srv, req, headers := completionServer(t, http.StatusOK,
			"```json\n{\"medico\": \"Dr. Juan Gomez\", \"codigo_cie10\": \"j06.9\", \"dias\": 3}\n```")
		e := newTestLLM(t, srv.URL)

		claims, err := e.LocateClaims(context.Background(), "Dr. Juan Gomez, CIE-10 J069, 3 días")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := model.Claims{
			Physician: model.PhysicianClaim{Name: "Juan Gomez"},
			Diagnosis: model.DiagnosisClaim{Code: "J069", RawDays: "3"},
		}
		if claims != want {
			t.Errorf("got %+v, want %+v", claims, want)
		}

		if got := headers.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if headers.Get("X-Request-ID") == "" {
			t.Error("expected a request ID header")
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected response format %v", req.ResponseFormat)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "J069") {
			t.Error("expected document text in the user message")
		}
	})

	t.Run("keeps textual days for the congruence check", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := completionServer(t, http.StatusOK,
			`{"medico": "", "codigo_cie10": "M545", "dias": "tres"}`)
		claims, err := newTestLLM(t, srv.URL).LocateClaims(context.Background(), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.Diagnosis.RawDays != "tres" || !claims.Physician.Empty() {
			t.Errorf("unexpected claims %+v", claims)
		}
	})

	t.Run("non JSON answer is an error", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := completionServer(t, http.StatusOK, "no sé")
		if _, err := newTestLLM(t, srv.URL).LocateClaims(context.Background(), "x"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestLLMEngineSynthesizeVerdict(t *testing.T) {
	t.Parallel()

	t.Run("returns the raw answer", func(t *testing.T) {
		t.Parallel()

		answer := "```json\n{\"puntaje_veracidad\": 20, \"hallazgos_medicos\": \"a\", \"analisis_forense\": \"b\", \"veredicto\": \"FRAUDULENTA\"}\n```"
		srv, req, _ := completionServer(t, http.StatusOK, answer)

		ev := Evidence{
			Extraction: model.ExtractionResult{Text: "Dr. Juan Gomez"},
			Registry:   &model.RegistryVerdict{Status: model.RegistryActive, Message: "VERIFICACIÓN EXITOSA"},
		}
		raw, err := newTestLLM(t, srv.URL).SynthesizeVerdict(context.Background(), ev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if raw != answer {
			t.Errorf("expected untouched answer, got %q", raw)
		}

		user := req.Messages[1].Content
		for _, want := range []string{model.TextSectionLabel, model.MetadataSectionLabel, "VERIFICACIÓN EXITOSA", "no se localizó código"} {
			if !strings.Contains(user, want) {
				t.Errorf("expected %q in user prompt", want)
			}
		}
	})

	t.Run("status errors", func(t *testing.T) {
		t.Parallel()

		srv, _, _ := completionServer(t, http.StatusTooManyRequests, "")
		_, err := newTestLLM(t, srv.URL).SynthesizeVerdict(context.Background(), Evidence{})
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"choices": []}`)
		}))
		t.Cleanup(srv.Close)

		_, err := newTestLLM(t, srv.URL).SynthesizeVerdict(context.Background(), Evidence{})
		if !errors.Is(err, ErrNoChoices) {
			t.Errorf("expected ErrNoChoices, got %v", err)
		}
	})
}
