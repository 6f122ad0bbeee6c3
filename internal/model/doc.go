// Package model defines the core data structures used throughout incapscan.
//
// This package contains the following main types:
//   - Document: A transient reference to an uploaded medical-leave document
//   - ExtractionResult: Text plus forensic metadata read from a document
//   - RegistryVerdict / CongruenceVerdict: Results of the two plausibility checks
//   - Assessment: The structured final verdict returned to callers
//   - ForensicReport: The aggregate produced by a single analysis call
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The extractor, checkers, reasoning engines, pipeline, and report
// writers all need these types, so centralizing them prevents import cycles.
//
// Every value here is owned by the analysis call that created it. Nothing in
// this package is shared across calls, and none of it is persisted except the
// digest-only audit record built from a ForensicReport.
package model
