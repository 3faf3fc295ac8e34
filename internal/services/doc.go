// Package services defines shared utilities consumed by the ingest stages,
// the pipeline executor and the archive store.
//
// Key responsibilities:
//   - Context helpers that stamp submission IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (malformed package, not found, wrong type, validation)
//     intact as errors cross package boundaries.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
