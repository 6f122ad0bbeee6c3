package reasoning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nao1215/incapscan/internal/model"
)

//go:embed assessment.schema.json
var assessmentSchemaJSON []byte

var (
	schemaOnce     sync.Once
	assessmentSch  *jsonschema.Schema
	errSchemaSetup error
)

func assessmentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("assessment.schema.json", bytes.NewReader(assessmentSchemaJSON)); err != nil {
			errSchemaSetup = fmt.Errorf("add schema resource: %w", err)
			return
		}
		assessmentSch, errSchemaSetup = compiler.Compile("assessment.schema.json")
	})
	return assessmentSch, errSchemaSetup
}

// rawAssessment accepts the loose shapes engines produce: a numeric or
// string score and text or lists of text.
type rawAssessment struct {
	PuntajeVeracidad json.RawMessage `json:"puntaje_veracidad"`
	HallazgosMedicos json.RawMessage `json:"hallazgos_medicos"`
	AnalisisForense  json.RawMessage `json:"analisis_forense"`
	Veredicto        string          `json:"veredicto"`
}

// ParseAssessment turns engine output into an Assessment.
func ParseAssessment(raw string) (model.Assessment, error) {
	payload := UnwrapPayload(raw)
	if payload == "" {
		return model.Assessment{}, ErrEmptyPayload
	}

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return model.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}

	schema, err := assessmentSchema()
	if err != nil {
		return model.Assessment{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return model.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}

	var ra rawAssessment
	if err := json.Unmarshal([]byte(payload), &ra); err != nil {
		return model.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}

	score, err := parseScore(ra.PuntajeVeracidad)
	if err != nil {
		return model.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}

	return model.Assessment{
		PuntajeVeracidad: score,
		HallazgosMedicos: joinText(ra.HallazgosMedicos),
		AnalisisForense:  joinText(ra.AnalisisForense),
		Veredicto:        model.ParseVerdict(ra.Veredicto),
	}, nil
}

// ParseOrFallback parses raw and substitutes the fallback assessment on
// failure. fallback reports whether the substitution happened.
func ParseOrFallback(raw string) (a model.Assessment, fallback bool) {
	a, err := ParseAssessment(raw)
	if err != nil {
		return model.NewFallbackAssessment(raw), true
	}
	return a, false
}

// parseScore accepts 85, 85.4, "85" and "85%" and clamps to 0-100.
func parseScore(msg json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, errors.New("puntaje_veracidad is neither number nor string")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("puntaje_veracidad: %w", err)
		}
	}
	return clampScore(f), nil
}

func clampScore(f float64) int {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(math.Round(f))
	}
}

// joinText flattens a string or a list of strings.
func joinText(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(msg, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				parts = append(parts, item)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
