// Package sipstore persists staged submissions and their event histories in
// SQLite.
//
// Each submission (SIP) is stored as one deterministic CBOR blob keyed by a
// store-issued UUID; pipeline stages replace the blob wholesale through
// UpdateSIP. Events live in a separate append-only table ordered by an
// autoincrement sequence and outlive the submission they describe, so a
// front-end can still observe ingest.start and ingest.fail after retirement.
//
// The database runs in WAL mode with a busy timeout, and every write goes
// through retryOnBusy so concurrent workers in one process do not fail on
// transient SQLITE_BUSY. When the schema changes, update schema.sql and bump
// schemaVersion.
package sipstore
