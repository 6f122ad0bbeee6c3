package log

import (
	"regexp"
	"strings"
)

// MaskValue replaces redacted values.
const MaskValue = "***REDACTED***"

// maskedKeys are attribute keys whose values are never logged, compared in
// lower case.
var maskedKeys = map[string]struct{}{
	// Credentials and transport headers.
	"authorization": {}, "proxy-authorization": {}, "cookie": {}, "set-cookie": {},
	"x-api-key": {}, "x-auth-token": {}, "api_key": {}, "apikey": {}, "api-key": {},
	"token": {}, "access_token": {}, "refresh_token": {}, "password": {}, "passwd": {},
	"secret": {}, "secret_key": {}, "secretkey": {}, "private_key": {}, "privatekey": {},
	"session": {}, "session_id": {}, "sessionid": {}, "sid": {}, "jsessionid": {},
	"credential": {}, "credentials": {}, "auth": {},

	// Document content and engine output.
	"text": {}, "document_text": {}, "raw": {}, "raw_output": {}, "content": {},
	"snippet": {}, "prompt": {}, "completion": {},

	// Health and identity data covered by Ley 1581.
	"patient": {}, "paciente": {}, "physician": {}, "medico": {}, "doctor": {},
	"nombre": {}, "cedula": {}, "documento": {}, "diagnosis": {}, "cie10": {}, "code": {},
}

// maskedKeyFragments mask any key that contains them. A bare "key" is left
// out on purpose: it matches cache_key, sort_key and similar.
var maskedKeyFragments = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
	"patient", "paciente", "physician", "cedula", "diagnos",
}

// secretValues mask the whole value when it matches.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`),
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{16,}$`), // OpenAI-style keys
	regexp.MustCompile(`^[A-Za-z0-9]{32,}$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
	regexp.MustCompile(`^\d{6,10}$`), // bare cédula
}

// personalData spans are masked in place so the rest of a message or error
// stays readable.
var personalData = []*regexp.Regexp{
	regexp.MustCompile(`[^@\s<>()"']+@[^@\s<>()"']+\.[A-Za-z]{2,}`),
	regexp.MustCompile(`\b\d{1,3}(\.\d{3}){2,3}\b`), // cédula with thousands dots
	regexp.MustCompile(`\+?57[\s-]?3\d{2}[\s-]?\d{3}[\s-]?\d{4}\b`),
	regexp.MustCompile(`\b3\d{2}[\s-]\d{3}[\s-]\d{4}\b`),
}

// maskedKey reports whether values logged under key must be masked.
func maskedKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := maskedKeys[key]; ok {
		return true
	}
	for _, fragment := range maskedKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// redactString returns s with secrets and personal data masked.
// changed is false when s is returned as is.
func redactString(s string) (redacted string, changed bool) {
	for _, re := range secretValues {
		if re.MatchString(s) {
			return MaskValue, true
		}
	}
	redacted = s
	for _, re := range personalData {
		redacted = re.ReplaceAllString(redacted, MaskValue)
	}
	return redacted, redacted != s
}
