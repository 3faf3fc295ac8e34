package model

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
)

// Package aggregates the entities of one submission or one retrieval.
//
// Entities() iterates collections, deliverable units, manifestations, files
// and events, each group in insertion order.
type Package struct {
	Collections      []Collection      `json:"collections,omitempty"`
	DeliverableUnits []DeliverableUnit `json:"deliverable_units,omitempty"`
	Manifestations   []Manifestation   `json:"manifestations,omitempty"`
	Files            []File            `json:"files,omitempty"`
	Events           []Event           `json:"events,omitempty"`
}

// Len returns the number of entities in the package.
func (p *Package) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Collections) + len(p.DeliverableUnits) + len(p.Manifestations) + len(p.Files) + len(p.Events)
}

// Entities returns every entity in stable iteration order.
func (p *Package) Entities() []Entity {
	if p == nil {
		return nil
	}
	out := make([]Entity, 0, p.Len())
	for _, c := range p.Collections {
		out = append(out, c)
	}
	for _, d := range p.DeliverableUnits {
		out = append(out, d)
	}
	for _, m := range p.Manifestations {
		out = append(out, m)
	}
	for _, f := range p.Files {
		out = append(out, f)
	}
	for _, e := range p.Events {
		out = append(out, e)
	}
	return out
}

// EntityIDs returns the non-empty entity ids in iteration order.
func (p *Package) EntityIDs() []string {
	entities := p.Entities()
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		if id := e.EntityID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Find returns the entity with the given id.
func (p *Package) Find(id string) (Entity, bool) {
	if id == "" {
		return nil, false
	}
	for _, e := range p.Entities() {
		if e.EntityID() == id {
			return e, true
		}
	}
	return nil, false
}

// Add appends entities to the package. Pointer and value forms are accepted.
func (p *Package) Add(entities ...Entity) {
	for _, entity := range entities {
		switch e := entity.(type) {
		case Collection:
			p.Collections = append(p.Collections, e)
		case *Collection:
			p.Collections = append(p.Collections, *e)
		case DeliverableUnit:
			p.DeliverableUnits = append(p.DeliverableUnits, e)
		case *DeliverableUnit:
			p.DeliverableUnits = append(p.DeliverableUnits, *e)
		case Manifestation:
			p.Manifestations = append(p.Manifestations, e)
		case *Manifestation:
			p.Manifestations = append(p.Manifestations, *e)
		case File:
			p.Files = append(p.Files, e)
		case *File:
			p.Files = append(p.Files, *e)
		case Event:
			p.Events = append(p.Events, e.Clone())
		case *Event:
			p.Events = append(p.Events, e.Clone())
		}
	}
}

// Clone returns a deep copy of the package.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	out := &Package{}
	for _, c := range p.Collections {
		c.MetadataRefs = cloneStrings(c.MetadataRefs)
		out.Collections = append(out.Collections, c)
	}
	for _, d := range p.DeliverableUnits {
		d.Parents = cloneStrings(d.Parents)
		d.Collections = cloneStrings(d.Collections)
		d.MetadataRefs = cloneStrings(d.MetadataRefs)
		out.DeliverableUnits = append(out.DeliverableUnits, d)
	}
	for _, m := range p.Manifestations {
		if len(m.Files) > 0 {
			m.Files = slices.Clone(m.Files)
		}
		m.MetadataRefs = cloneStrings(m.MetadataRefs)
		out.Manifestations = append(out.Manifestations, m)
	}
	for _, f := range p.Files {
		if len(f.Fixity) > 0 {
			f.Fixity = slices.Clone(f.Fixity)
		}
		f.Formats = cloneStrings(f.Formats)
		f.MetadataRefs = cloneStrings(f.MetadataRefs)
		out.Files = append(out.Files, f)
	}
	for _, e := range p.Events {
		out.Events = append(out.Events, e.Clone())
	}
	return out
}

// Equal reports structural equality: both packages hold the same set of
// entities with identical field values, regardless of order.
func (p *Package) Equal(other *Package) bool {
	if p.Len() != other.Len() {
		return false
	}
	a, err := canonicalEntities(p)
	if err != nil {
		return false
	}
	b, err := canonicalEntities(other)
	if err != nil {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func canonicalEntities(p *Package) ([][]byte, error) {
	entities := p.Entities()
	out := make([][]byte, 0, len(entities))
	for _, e := range entities {
		data, err := codec.Marshal(struct {
			Type   EntityType `json:"type"`
			Entity Entity     `json:"entity"`
		}{e.EntityType(), e})
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", e.EntityType(), e.EntityID(), err)
		}
		out = append(out, data)
	}
	slices.SortFunc(out, bytes.Compare)
	return out, nil
}
