// Package staging holds submissions while they move through ingest.
//
// Stager is the contract shared by the pipeline workers: individually atomic
// add, get, update and remove operations keyed by an opaque submission id.
// Two backends are registered: "sqlite" (sipstore) and "memory". Stages
// change a staged package only through Mutate, which makes each
// fetch-modify-store step explicit.
package staging
