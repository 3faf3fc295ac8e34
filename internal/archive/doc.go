// Package archive commits finished packages to durable storage and serves
// entity, minimal-package and closure retrieval.
//
// Every committed entity becomes an immutable entry: a metadata record in a
// MetadataStore and, for extant files, the file bytes in an EntityStore. An
// in-memory relationship index, rebuilt from the metadata records by Load,
// answers listing and closure queries. Backends are chosen by name through
// Open; "memory" keeps everything in process and "fs" uses the
// content-addressable layout from package cas.
package archive
