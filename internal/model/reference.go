package model

// DiagnosisReference is one row of the CIE-10 reference table: a code prefix,
// the condition it covers, and the average maximum leave in days.
type DiagnosisReference struct {
	Prefix    string `json:"prefix" yaml:"prefix"`
	Condition string `json:"condition" yaml:"condition"`
	MaxDays   int    `json:"max_days" yaml:"maxDays"`
}

// DefaultDiagnosisReferences returns a fresh copy of the built-in table.
// Callers may modify the returned slice.
func DefaultDiagnosisReferences() []DiagnosisReference {
	return []DiagnosisReference{
		{Prefix: "J0", Condition: "Infección aguda vías respiratorias", MaxDays: 4},
		{Prefix: "A0", Condition: "Enfermedades infecciosas intestinales", MaxDays: 3},
		{Prefix: "M5", Condition: "Dorsopatías / Lumbago", MaxDays: 7},
		{Prefix: "F3", Condition: "Trastornos del humor (Depresión)", MaxDays: 30},
		{Prefix: "N3", Condition: "Enfermedades del sistema urinario", MaxDays: 5},
		{Prefix: "O", Condition: "Embarazo, parto y puerperio", MaxDays: 120},
		{Prefix: "S", Condition: "Traumatismos y envenenamientos", MaxDays: 25},
		{Prefix: "U0", Condition: "COVID-19", MaxDays: 7},
	}
}
