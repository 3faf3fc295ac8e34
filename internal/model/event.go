package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
)

// Event types recorded by the ingest pipeline.
const (
	EventIngestStart          = "ingest.start"
	EventIngestFail           = "ingest.fail"
	EventIdentifierAssignment = "identifier.assignment"
	EventValidation           = "package.validation"
	EventDigestCalculation    = "digest.calculation"
	EventCharacterization     = "characterization"
	EventArchive              = "archive"
)

// Event records something that happened to one or more target entities.
//
// Targets are held privately: the slice passed to SetTargets or returned from
// Targets is always a copy, so the only way to change an event's targets is
// through its own methods.
type Event struct {
	ID           string
	Type         string
	Date         time.Time
	Outcome      string
	Detail       string
	MetadataRefs []string

	targets []string
}

func (e Event) EntityID() string           { return e.ID }
func (e Event) EntityType() EntityType     { return TypeEvent }
func (e Event) MetadataFileRefs() []string { return cloneStrings(e.MetadataRefs) }

// Targets returns a copy of the target entity ids.
func (e Event) Targets() []string {
	return cloneStrings(e.targets)
}

// HasTarget reports whether id is one of the event's targets.
func (e Event) HasTarget(id string) bool {
	return slices.Contains(e.targets, id)
}

// AddTargets appends ids not already targeted, preserving order.
func (e *Event) AddTargets(ids ...string) {
	for _, id := range ids {
		if id == "" || slices.Contains(e.targets, id) {
			continue
		}
		e.targets = append(e.targets, id)
	}
}

// SetTargets replaces the targets with a copy of ids.
func (e *Event) SetTargets(ids []string) {
	e.targets = nil
	e.AddTargets(ids...)
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	e.MetadataRefs = cloneStrings(e.MetadataRefs)
	e.targets = cloneStrings(e.targets)
	return e
}

type eventWire struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Date         time.Time `json:"date"`
	Outcome      string    `json:"outcome,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	Targets      []string  `json:"targets,omitempty"`
	MetadataRefs []string  `json:"metadata_refs,omitempty"`
}

func (e Event) wire() eventWire {
	return eventWire{
		ID:           e.ID,
		Type:         e.Type,
		Date:         e.Date.UTC(),
		Outcome:      e.Outcome,
		Detail:       e.Detail,
		Targets:      e.targets,
		MetadataRefs: e.MetadataRefs,
	}
}

func (e *Event) fromWire(w eventWire) {
	e.ID = w.ID
	e.Type = w.Type
	e.Date = w.Date.UTC()
	e.Outcome = w.Outcome
	e.Detail = w.Detail
	e.MetadataRefs = cloneStrings(w.MetadataRefs)
	e.SetTargets(w.Targets)
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.fromWire(w)
	return nil
}

// MarshalCBOR implements cbor.Marshaler.
func (e Event) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(e.wire())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (e *Event) UnmarshalCBOR(data []byte) error {
	var w eventWire
	if err := codec.Unmarshal(data, &w); err != nil {
		return err
	}
	e.fromWire(w)
	return nil
}
