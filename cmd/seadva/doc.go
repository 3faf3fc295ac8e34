// Package main hosts the seadva operator CLI.
//
// Every command runs in-process against the configured staging database and
// archive directory: ingest stages package descriptions and drives them
// through the pipeline, while the archive, staging and events commands
// inspect what the pipeline left behind.
package main
