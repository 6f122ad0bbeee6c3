// Package server exposes the forensic analyzer over HTTP.
//
// Routes:
//   - GET  /                health check
//   - POST /api/v1/analyze  multipart upload in the "file" field
//   - GET  /metrics         Prometheus metrics
//
// Each upload is staged in a private scratch directory that is removed
// before the response is written, whatever the outcome of the analysis.
package server
