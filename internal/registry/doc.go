// Package registry checks that the physician named on a certificate looks
// like a real, registered professional.
//
// A name first has to pass a format heuristic: letters (including Spanish
// diacritics), spaces and light punctuation, longer than four characters.
// Names that pass are looked up in a Directory. The default directory
// presumes veracity and confirms every well-formed name; a roster loaded
// from YAML can be configured to answer NOT_FOUND for unknown names.
package registry
