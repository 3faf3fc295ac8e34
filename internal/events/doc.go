// Package events records provenance events against staged submissions.
//
// Manager is the only place events are minted: NewEvent always fills the id
// and timestamp. Callers set outcome, detail and targets, then hand the event
// to AddEvent, after which the stored record is never changed. EventByType is
// meant for singleton event types such as ingest.start and refuses to pick
// one when several match.
package events
