package model

import (
	"strconv"
	"strings"
)

// PhysicianClaim is the physician name located in the document text.
// It comes from OCR and heuristics and is never trusted as-is.
type PhysicianClaim struct {
	Name string `json:"name,omitempty"`
}

// Empty reports whether no name was located.
func (c PhysicianClaim) Empty() bool {
	return strings.TrimSpace(c.Name) == ""
}

// DiagnosisClaim is the CIE-10 code and the granted days located in the text.
// RawDays keeps the text as found so a parse failure stays observable.
type DiagnosisClaim struct {
	Code    string `json:"code,omitempty"`
	RawDays string `json:"raw_days,omitempty"`
}

// NormalizedCode returns the code upper-cased and trimmed.
func (c DiagnosisClaim) NormalizedCode() string {
	return NormalizeCode(c.Code)
}

// Days parses RawDays. ok is false when the value is not a
// non-negative integer.
func (c DiagnosisClaim) Days() (int, bool) {
	return ParseDays(c.RawDays)
}

// Empty reports whether neither a code nor days were located.
func (c DiagnosisClaim) Empty() bool {
	return strings.TrimSpace(c.Code) == "" && strings.TrimSpace(c.RawDays) == ""
}

// Claims bundles the candidate values located in the extracted text.
type Claims struct {
	Physician PhysicianClaim `json:"physician"`
	Diagnosis DiagnosisClaim `json:"diagnosis"`
}

// NormalizeCode upper-cases and trims a CIE-10 code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseDays parses a granted-days value.
func ParseDays(raw string) (int, bool) {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 0 {
		return 0, false
	}
	return days, true
}
