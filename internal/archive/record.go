package archive

import (
	"fmt"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// ContentInfo describes the stored bytes of a file entry.
type ContentInfo struct {
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// record is the serialized metadata of one archive entry. Exactly one entity
// field is set, matching Type.
type record struct {
	Type            model.EntityType       `json:"type"`
	Collection      *model.Collection      `json:"collection,omitempty"`
	DeliverableUnit *model.DeliverableUnit `json:"deliverable_unit,omitempty"`
	Manifestation   *model.Manifestation   `json:"manifestation,omitempty"`
	File            *model.File            `json:"file,omitempty"`
	Event           *model.Event           `json:"event,omitempty"`
	Content         *ContentInfo           `json:"content,omitempty"`
}

func newRecord(e model.Entity) (record, error) {
	r := record{Type: e.EntityType()}
	switch v := e.(type) {
	case model.Collection:
		r.Collection = &v
	case model.DeliverableUnit:
		r.DeliverableUnit = &v
	case model.Manifestation:
		r.Manifestation = &v
	case model.File:
		r.File = &v
	case model.Event:
		ev := v.Clone()
		r.Event = &ev
	default:
		return record{}, fmt.Errorf("unsupported entity %T", e)
	}
	return r, nil
}

func (r record) entity() (model.Entity, error) {
	switch {
	case r.Type == model.TypeCollection && r.Collection != nil:
		return *r.Collection, nil
	case r.Type == model.TypeDeliverableUnit && r.DeliverableUnit != nil:
		return *r.DeliverableUnit, nil
	case r.Type == model.TypeManifestation && r.Manifestation != nil:
		return *r.Manifestation, nil
	case r.Type == model.TypeFile && r.File != nil:
		return *r.File, nil
	case r.Type == model.TypeEvent && r.Event != nil:
		return *r.Event, nil
	}
	return nil, fmt.Errorf("corrupt archive record of type %q", r.Type)
}

// body encodes the record without its content info. Two commits of the same
// entity produce equal bodies.
func (r record) body() ([]byte, error) {
	r.Content = nil
	return codec.Marshal(r)
}

func decodeRecord(data []byte) (record, model.Entity, error) {
	var r record
	if err := codec.Unmarshal(data, &r); err != nil {
		return record{}, nil, fmt.Errorf("decode archive record: %w", err)
	}
	e, err := r.entity()
	if err != nil {
		return record{}, nil, err
	}
	return r, e, nil
}
