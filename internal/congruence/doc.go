// Package congruence compares the leave granted on a certificate with the
// reference duration for its CIE-10 diagnosis.
//
// The reference table is searched by longest prefix, so a specific entry
// such as "J06" wins over a chapter entry such as "J0" regardless of table
// order. Durations up to reference × tolerance are VALIDATED; longer ones
// are a MINOR_ALERT. Codes with no reference are NEUTRAL_ASSUMED: a missing
// reference is not evidence of fraud.
//
// Only on the neutral path, an optional Enricher looks the code up online
// to add a short description to the message. The lookup is bounded by a
// timeout and its failure never changes the verdict.
package congruence
