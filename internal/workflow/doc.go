// Package workflow runs staged submissions through the configured ingest
// stages.
//
// The Manager hands each submission to an Executor (a fixed-size WorkerPool in
// production, InlineExecutor in tests). For one submission the runner records
// an ingest.start event targeting every staged entity, then calls each stage
// in order and stops at the first failure, which is recorded as an
// ingest.fail event. Different submissions run concurrently, bounded by the
// pool size; stages of one submission never overlap.
//
// Failures are classified into ExpectedFailure (a stage reported a logical
// problem) and UnexpectedFailure (any other error or a panic, captured with a
// diagnostic trace). Neither is retried.
package workflow
