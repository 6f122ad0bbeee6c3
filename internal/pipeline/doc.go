// Package pipeline sequences the forensic analysis of one document.
//
// The analysis runs as an ordered list of steps: extraction, claim
// location, verification and verdict synthesis. Each step receives the
// report being built and adds its output to it. Stage-local failures are
// recorded in the report rather than returned, so a caller always gets a
// well-formed report.
//
// Design decision: We keep the step pattern instead of one long function
// because:
// 1. Steps can be tested in isolation with fakes for their collaborators
// 2. Logging, metrics and cancellation checks are applied uniformly
// 3. The order of the stages is visible in one place (DefaultPipeline)
//
// Analyzer runs a fresh pipeline per document and BatchProcessor analyzes
// many documents with bounded concurrency using errgroup.
package pipeline
