package archive

import (
	"slices"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// index holds entry types and the reverse relationships closure needs.
type index struct {
	types          map[string]model.EntityType
	metadata       map[string][]string
	events         map[string][]string // target id -> event ids
	manifestations map[string][]string // deliverable unit id -> manifestation ids
	files          map[string][]string // manifestation id -> file ids
}

func newIndex() *index {
	return &index{
		types:          make(map[string]model.EntityType),
		metadata:       make(map[string][]string),
		events:         make(map[string][]string),
		manifestations: make(map[string][]string),
		files:          make(map[string][]string),
	}
}

func (ix *index) lookup(id string) (model.EntityType, bool) {
	t, ok := ix.types[id]
	return t, ok
}

func (ix *index) add(e model.Entity) {
	id := e.EntityID()
	ix.types[id] = e.EntityType()
	if refs := e.MetadataFileRefs(); len(refs) > 0 {
		ix.metadata[id] = refs
	}
	switch v := e.(type) {
	case model.Manifestation:
		ix.manifestations[v.DeliverableUnit] = appendUnique(ix.manifestations[v.DeliverableUnit], id)
		ix.files[id] = v.FileRefs()
	case model.Event:
		for _, target := range v.Targets() {
			ix.events[target] = appendUnique(ix.events[target], id)
		}
	}
}

func (ix *index) remove(e model.Entity) {
	id := e.EntityID()
	delete(ix.types, id)
	delete(ix.metadata, id)
	switch v := e.(type) {
	case model.Manifestation:
		ix.manifestations[v.DeliverableUnit] = without(ix.manifestations[v.DeliverableUnit], id)
		delete(ix.files, id)
	case model.Event:
		for _, target := range v.Targets() {
			ix.events[target] = without(ix.events[target], id)
		}
	}
}

// related returns the ids directly pulled into id's closure.
func (ix *index) related(id string) []string {
	out := slices.Clone(ix.metadata[id])
	switch ix.types[id] {
	case model.TypeCollection:
		out = append(out, ix.events[id]...)
	case model.TypeDeliverableUnit:
		out = append(out, ix.events[id]...)
		out = append(out, ix.manifestations[id]...)
	case model.TypeManifestation:
		out = append(out, ix.files[id]...)
	}
	return out
}

func appendUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

func without(list []string, id string) []string {
	out := slices.DeleteFunc(slices.Clone(list), func(v string) bool { return v == id })
	if len(out) == 0 {
		return nil
	}
	return out
}
