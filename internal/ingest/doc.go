// Package ingest provides the pipeline stages applied to every staged
// submission, in the order DefaultStages returns them:
//
//   - assign-identifiers: mints ids for entities submitted without one
//   - package-validation: normalizes paths and checks references
//   - fixity: computes sha256 digests and sizes, checking declared values
//   - characterization: detects file media types
//   - archive-commit: commits the package and its events to the archive
//   - retire: removes the submission from staging
//
// Stages read and write the staged package through staging.Mutate and record
// their own events through the event manager.
package ingest
