// Package main provides the entry point for the incapscan CLI.
//
// incapscan is a forensic analyzer for medical-leave certificates
// ("incapacidades"). It extracts the text of a certificate, verifies the
// treating physician and the diagnosis/duration congruence, and produces a
// fraud assessment with a veracity score.
//
// Usage:
//
//	incapscan analyze <document>...
//	incapscan serve --addr :8000
//	incapscan watch <inbox> --out <dir>
//
// See --help for all available options.
package main

// main is the entry point for incapscan.
func main() {
	Execute()
}
