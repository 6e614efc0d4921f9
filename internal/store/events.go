package store

import (
	"time"

	"github.com/automerge/automerge-go"

	"github.com/medulla-kb/medulla/internal/types"
)

// appendEventLocked pushes an audit-trail record into the entity's nested
// "events" list. This is the supplemented audit-trail feature (§12): a
// per-entity log appended by AddEntity and UpdateEntity and read back
// through Events. Deletes and relation changes append no event.
func (d *Document) appendEventLocked(entityMap *automerge.Map, evt types.EventType, author, detail string) error {
	list, err := entityMap.Path("events").List()
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to access events list", err)
	}
	evtMap, err := list.AppendMap()
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to append event", err)
	}
	if err := evtMap.Set("type", string(evt)); err != nil {
		return wrapSet("events.type", err)
	}
	if err := evtMap.Set("at", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return wrapSet("events.at", err)
	}
	if author != "" {
		if err := evtMap.Set("author", author); err != nil {
			return wrapSet("events.author", err)
		}
	}
	if detail != "" {
		if err := evtMap.Set("detail", detail); err != nil {
			return wrapSet("events.detail", err)
		}
	}
	return nil
}

// Events returns the audit trail for an entity, oldest first.
func (d *Document) Events(t types.EntityType, id string) ([]types.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	container, err := d.typeContainer(t)
	if err != nil {
		return nil, err
	}
	v, err := container.Get(id)
	if err != nil || v.Kind() != automerge.KindMap {
		return nil, types.NewFieldError(types.KindEntityNotFound, "id", "entity not found")
	}
	entityMap, err := v.Map()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to read entity map", err)
	}
	list, err := entityMap.Path("events").List()
	if err != nil {
		return nil, nil
	}
	n, err := list.Len()
	if err != nil {
		return nil, nil
	}
	out := make([]types.Event, 0, n)
	for i := 0; i < n; i++ {
		v, err := list.Get(i)
		if err != nil {
			continue
		}
		m, err := v.Map()
		if err != nil {
			continue
		}
		out = append(out, types.Event{
			Type:   types.EventType(getStr(m, "type")),
			At:     getTime(m, "at"),
			Author: getStr(m, "author"),
			Detail: getStr(m, "detail"),
		})
	}
	return out, nil
}
