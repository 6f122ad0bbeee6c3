package model

// RegistryStatus is the outcome of the physician registry check.
type RegistryStatus string

const (
	// RegistryActive means the name is plausible and the professional is
	// considered active.
	RegistryActive RegistryStatus = "ACTIVE"

	// RegistryNotFound means a roster was consulted and the name is absent.
	RegistryNotFound RegistryStatus = "NOT_FOUND"

	// RegistryInvalidFormat means the name is empty or not a human name.
	RegistryInvalidFormat RegistryStatus = "INVALID_FORMAT"
)

// RegistryVerdict is the result of RegistryChecker.CheckPhysician.
type RegistryVerdict struct {
	Status  RegistryStatus `json:"status"`
	Message string         `json:"message"`

	// ReportingBody and Profession are only set when Status is ACTIVE.
	ReportingBody string `json:"reporting_body,omitempty"`
	Profession    string `json:"profession,omitempty"`
}

// CongruenceStatus is the outcome of the diagnosis/duration check.
type CongruenceStatus string

const (
	// CongruenceValidated means the granted days are within the tolerated ceiling.
	CongruenceValidated CongruenceStatus = "VALIDATED"

	// CongruenceMinorAlert means the granted days exceed the tolerated ceiling.
	CongruenceMinorAlert CongruenceStatus = "MINOR_ALERT"

	// CongruenceNeutralAssumed means there is no local reference for the code.
	CongruenceNeutralAssumed CongruenceStatus = "NEUTRAL_ASSUMED"

	// CongruenceUnparseableDays means the granted days could not be read.
	CongruenceUnparseableDays CongruenceStatus = "UNPARSEABLE_DAYS"
)

// CongruenceVerdict is the result of CongruenceChecker.CheckCongruence.
type CongruenceVerdict struct {
	Status CongruenceStatus `json:"status"`

	// Code is the normalized CIE-10 code that was checked.
	Code string `json:"code"`

	// DaysGranted is the parsed duration, zero when unparseable.
	DaysGranted int `json:"days_granted"`

	// MatchedPrefix, MatchedCondition, ReferenceMaxDays and AllowedCeiling
	// are set only when the code matched a reference entry.
	MatchedPrefix    string  `json:"matched_prefix,omitempty"`
	MatchedCondition string  `json:"matched_condition,omitempty"`
	ReferenceMaxDays int     `json:"reference_max_days,omitempty"`
	AllowedCeiling   float64 `json:"allowed_ceiling,omitempty"`

	// Enrichment is the best-effort description found online for codes
	// without a local reference.
	Enrichment string `json:"enrichment,omitempty"`

	Message string `json:"message"`
}

// Matched reports whether the code matched a reference entry.
func (v CongruenceVerdict) Matched() bool {
	return v.MatchedPrefix != ""
}
