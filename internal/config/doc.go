// Package config loads, normalizes, and validates archive configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SEADVA_ARCHIVE_DIR. The Config type centralizes every knob the ingest engine
// and CLI need: staging database location, worker pool sizing, archive backend
// selection and its content-addressing layout.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
