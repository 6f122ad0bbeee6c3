package reasoning

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nao1215/incapscan/internal/model"
)

// maxNameTokens bounds a located physician name.
const maxNameTokens = 6

var (
	// physicianLabel matches a labeled signature line. It is anchored at
	// the start of a line so "Tarjeta Profesional: 123" does not match.
	physicianLabel = regexp.MustCompile(`(?im)^[ \t]*(?:m[ée]dico(?:[ \t]+tratante)?|profesional(?:[ \t]+tratante|[ \t]+de[ \t]+la[ \t]+salud)?|nombre[ \t]+del[ \t]+(?:m[ée]dico|profesional)|firmado[ \t]+por)[ \t]*[:\-][ \t]*([^\n,;]+)`)

	// physicianHonorific matches "Dr." style prefixes anywhere in the text.
	physicianHonorific = regexp.MustCompile(`(?:^|[^\p{L}])(?i:dra|dr|doctora|doctor)\.?[ \t]+([^\n,;]+)`)

	// labeledCode matches a code following a CIE or diagnosis label.
	labeledCode = regexp.MustCompile(`(?i)\b(?:cie[ \t\-]*10|cie|diagn[óo]stico(?:[ \t]+principal)?|c[óo]digo(?:[ \t]+diagn[óo]stico)?|dx)[ \t]*[:\-]?[ \t]*(?:cie[ \t\-]*10[ \t]*[:\-]?[ \t]*)?\b([A-Za-z][0-9]{2}(?:\.?[0-9]{1,2})?)\b`)

	// bareCode matches an upper-case code standing on its own.
	bareCode = regexp.MustCompile(`\b([A-Z][0-9]{2}(?:\.?[0-9]{1,2})?)\b`)

	// labeledDays matches "Días: 5" and "Días de incapacidad: 5".
	labeledDays = regexp.MustCompile(`(?i)d[íi]as(?:[ \t]+de[ \t]+(?:incapacidad|reposo))?(?:[ \t]+(?:otorgados|concedidos))?[ \t]*[:\-][ \t]*([0-9]{1,3})\b`)

	// countedDays matches "3 días", "por 3 días" and "03 (tres) días".
	countedDays = regexp.MustCompile(`(?i)\b([0-9]{1,3})[ \t]*(?:\([^)\n]{0,30}\)[ \t]*)?d[íi]as`)

	// wordDays matches "tres días".
	wordDays = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(un|uno|una|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez|quince|veinte|treinta)[ \t]+d[íi]as`)
)

var numberWords = map[string]int{
	"un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "quince": 15,
	"veinte": 20, "treinta": 30,
}

// honorifics are stripped from the start of a located name.
var honorifics = map[string]bool{
	"dr": true, "dra": true, "doctor": true, "doctora": true, "md": true,
}

// nameStops end a located name. They cover the identifiers and labels
// that usually share the signature line.
var (
	nameStopTokens = map[string]bool{
		"cie": true, "cie10": true, "cie-10": true, "rm": true, "r.m": true, "reg": true,
		"tp": true, "t.p": true, "cc": true, "c.c": true, "nit": true, "ips": true, "eps": true,
		"días": true, "dias": true, "fecha": true, "firma": true, "médico": true, "medico": true,
		"cédula": true, "cedula": true,
	}
	nameStopPrefixes = []string{
		"diagn", "código", "codigo", "incapacidad", "especialidad", "registro", "tarjeta",
	}
)

// locateClaims runs the heuristics used by RuleEngine.
func locateClaims(text string) model.Claims {
	return model.Claims{
		Physician: model.PhysicianClaim{Name: locatePhysician(text)},
		Diagnosis: model.DiagnosisClaim{
			Code:    locateCode(text),
			RawDays: locateDays(text),
		},
	}
}

func locatePhysician(text string) string {
	for _, re := range []*regexp.Regexp{physicianLabel, physicianHonorific} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := cleanName(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// cleanName trims honorifics and trailing identifiers. Tokens with digits
// are kept so an OCR-corrupted name still reaches the registry check.
func cleanName(raw string) string {
	tokens := strings.Fields(raw)

	for len(tokens) > 0 && honorifics[strings.ToLower(strings.TrimSuffix(tokens[0], "."))] {
		tokens = tokens[1:]
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isNameStop(tok) || len(out) == maxNameTokens {
			break
		}
		if len(out) > 0 && isDigits(tok) {
			break
		}
		out = append(out, tok)
	}

	return strings.TrimRightFunc(strings.Join(out, " "), func(r rune) bool {
		return r == '.' || r == ':' || r == '-' || unicode.IsSpace(r)
	})
}

func isNameStop(tok string) bool {
	lower := strings.ToLower(strings.TrimRight(tok, ".:,#"))
	if nameStopTokens[lower] {
		return true
	}
	for _, p := range nameStopPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isDigits(tok string) bool {
	tok = strings.Trim(tok, ".:,#-")
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func locateCode(text string) string {
	if m := labeledCode.FindStringSubmatch(text); m != nil {
		return normalizeCode(m[1])
	}
	if m := bareCode.FindStringSubmatch(text); m != nil {
		return normalizeCode(m[1])
	}
	return ""
}

// normalizeCode turns "j06.9" into "J069".
func normalizeCode(code string) string {
	return model.NormalizeCode(strings.ReplaceAll(code, ".", ""))
}

func locateDays(text string) string {
	if m := labeledDays.FindStringSubmatch(text); m != nil {
		return trimLeadingZeros(m[1])
	}
	if m := countedDays.FindStringSubmatch(text); m != nil {
		return trimLeadingZeros(m[1])
	}
	if m := wordDays.FindStringSubmatch(text); m != nil {
		return strconv.Itoa(numberWords[strings.ToLower(m[1])])
	}
	return ""
}

func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
