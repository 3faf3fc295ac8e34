// Package model defines the typed records that travel through ingest and into
// the archive: collections, deliverable units, manifestations, files, events,
// and the Package container that aggregates them.
//
// Entities carry identity and relationship fields only. Relationship fields
// hold entity ids; Package.Validate checks that they resolve to entities of
// the expected type.
package model

import "strings"

// EntityType names one of the entity variants.
type EntityType string

const (
	TypeCollection      EntityType = "collection"
	TypeDeliverableUnit EntityType = "deliverable_unit"
	TypeManifestation   EntityType = "manifestation"
	TypeFile            EntityType = "file"
	TypeEvent           EntityType = "event"
)

var allEntityTypes = []EntityType{
	TypeCollection,
	TypeDeliverableUnit,
	TypeManifestation,
	TypeFile,
	TypeEvent,
}

// AllEntityTypes returns the entity types in package iteration order.
func AllEntityTypes() []EntityType {
	cp := make([]EntityType, len(allEntityTypes))
	copy(cp, allEntityTypes)
	return cp
}

// ParseEntityType converts a string into a known EntityType.
func ParseEntityType(value string) (EntityType, bool) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(value)))
	normalized = EntityType(strings.ReplaceAll(string(normalized), "-", "_"))
	for _, t := range allEntityTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// Entity is the capability shared by every entity variant.
type Entity interface {
	EntityID() string
	EntityType() EntityType
	// MetadataFileRefs lists the ids of File entities that serve as metadata
	// for this entity.
	MetadataFileRefs() []string
}

// Collection groups deliverable units.
type Collection struct {
	ID           string   `json:"id"`
	Title        string   `json:"title,omitempty"`
	Parent       string   `json:"parent,omitempty"`
	MetadataRefs []string `json:"metadata_refs,omitempty"`
}

func (c Collection) EntityID() string           { return c.ID }
func (c Collection) EntityType() EntityType     { return TypeCollection }
func (c Collection) MetadataFileRefs() []string { return cloneStrings(c.MetadataRefs) }

// DeliverableUnit is an intellectual unit of content.
type DeliverableUnit struct {
	ID           string   `json:"id"`
	Title        string   `json:"title,omitempty"`
	Parents      []string `json:"parents,omitempty"`
	Collections  []string `json:"collections,omitempty"`
	MetadataRefs []string `json:"metadata_refs,omitempty"`
}

func (d DeliverableUnit) EntityID() string           { return d.ID }
func (d DeliverableUnit) EntityType() EntityType     { return TypeDeliverableUnit }
func (d DeliverableUnit) MetadataFileRefs() []string { return cloneStrings(d.MetadataRefs) }

// ManifestationFile places a File at a path within a Manifestation.
type ManifestationFile struct {
	FileRef string `json:"file"`
	Path    string `json:"path"`
}

// Manifestation is one concrete rendition of a deliverable unit.
type Manifestation struct {
	ID              string              `json:"id"`
	DeliverableUnit string              `json:"deliverable_unit"`
	Files           []ManifestationFile `json:"files,omitempty"`
	MetadataRefs    []string            `json:"metadata_refs,omitempty"`
}

func (m Manifestation) EntityID() string           { return m.ID }
func (m Manifestation) EntityType() EntityType     { return TypeManifestation }
func (m Manifestation) MetadataFileRefs() []string { return cloneStrings(m.MetadataRefs) }

// FileRefs returns the ids of the constituent files in declaration order.
func (m Manifestation) FileRefs() []string {
	refs := make([]string, 0, len(m.Files))
	for _, mf := range m.Files {
		refs = append(refs, mf.FileRef)
	}
	return refs
}

// Fixity records a digest of a file's content.
type Fixity struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// File is a bit stream. Extant files have content reachable at Source.
type File struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Source       string   `json:"source,omitempty"`
	Extant       bool     `json:"extant,omitempty"`
	SizeBytes    int64    `json:"size_bytes,omitempty"`
	Fixity       []Fixity `json:"fixity,omitempty"`
	Formats      []string `json:"formats,omitempty"`
	MetadataRefs []string `json:"metadata_refs,omitempty"`
}

func (f File) EntityID() string           { return f.ID }
func (f File) EntityType() EntityType     { return TypeFile }
func (f File) MetadataFileRefs() []string { return cloneStrings(f.MetadataRefs) }

// FixityValue returns the recorded digest for algorithm, if any.
func (f File) FixityValue(algorithm string) (string, bool) {
	for _, fx := range f.Fixity {
		if strings.EqualFold(fx.Algorithm, algorithm) {
			return fx.Value, true
		}
	}
	return "", false
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return cp
}
