package reasoning

import (
	"regexp"
	"strings"
)

// fencedBlock matches the first Markdown code fence, with or without a
// language tag. The closing fence is optional because truncated answers
// often lose it.
var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)(?:```|$)")

// UnwrapPayload extracts a structured payload from engine output.
//
// Output that already starts with { or [ is only trimmed. Otherwise the
// content of the first code fence is taken, and if prose still surrounds
// the payload, the span from the first { to the last } is kept.
// UnwrapPayload(UnwrapPayload(s)) == UnwrapPayload(s).
func UnwrapPayload(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if isStructured(s) {
		return s
	}

	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
		if isStructured(s) {
			return s
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}

func isStructured(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
