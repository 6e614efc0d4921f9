package store

import (
	"fmt"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
	"github.com/medulla-kb/medulla/internal/validation"
)

// AddRelation refuses self-edges and writes the relation under its
// composite key, so an identical triple re-added overwrites the same entry
// (refreshing created_at and author) instead of creating a duplicate.
func (d *Document) AddRelation(r types.Relation, author string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := validation.Relation(&r); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Author == "" {
		r.Author = author
	}

	relations, err := d.relations()
	if err != nil {
		return err
	}
	key := r.Key()
	relMap, err := relations.Path(key).Map()
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to allocate relation map", err)
	}
	if err := relMap.Set("source_id", r.SourceID); err != nil {
		return wrapSet("source_id", err)
	}
	if err := relMap.Set("source_type", string(r.SourceType)); err != nil {
		return wrapSet("source_type", err)
	}
	if err := relMap.Set("target_id", r.TargetID); err != nil {
		return wrapSet("target_id", err)
	}
	if err := relMap.Set("target_type", string(r.TargetType)); err != nil {
		return wrapSet("target_type", err)
	}
	if err := relMap.Set("relation_type", string(r.RelationType)); err != nil {
		return wrapSet("relation_type", err)
	}
	if err := relMap.Set("created_at", r.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return wrapSet("created_at", err)
	}
	if r.Author != "" {
		if err := relMap.Set("author", r.Author); err != nil {
			return wrapSet("author", err)
		}
	}
	for k, v := range r.Properties {
		propMap, err := relMap.Path("properties").Map()
		if err != nil {
			return wrapSet("properties", err)
		}
		if err := propMap.Set(k, v); err != nil {
			return wrapSet("properties."+k, err)
		}
	}
	if err := d.doc.Commit(fmt.Sprintf("add relation %s", key)); err != nil {
		return types.Wrap(types.KindInternal, "failed to commit relation", err)
	}
	return nil
}

// RemoveRelation deletes a relation by its composite key.
func (d *Document) RemoveRelation(sourceID string, relType types.RelationType, targetID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	relations, err := d.relations()
	if err != nil {
		return err
	}
	key := types.Relation{SourceID: sourceID, RelationType: relType, TargetID: targetID}.Key()
	if err := relations.Delete(key); err != nil {
		return types.Wrap(types.KindInternal, "failed to remove relation", err)
	}
	if err := d.doc.Commit(fmt.Sprintf("remove relation %s", key)); err != nil {
		return types.Wrap(types.KindInternal, "failed to commit relation removal", err)
	}
	return nil
}

// ListAllRelations returns every relation in the document, including
// dangling ones (filtering dangling relations is the query engine's job,
// not the store's — §3 invariant 3).
func (d *Document) ListAllRelations() ([]types.Relation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listAllRelationsLocked()
}

func (d *Document) listAllRelationsLocked() ([]types.Relation, error) {
	relations, err := d.relations()
	if err != nil {
		return nil, err
	}
	keys, err := relations.Keys()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to enumerate relations", err)
	}
	out := make([]types.Relation, 0, len(keys))
	for _, key := range keys {
		v, err := relations.Get(key)
		if err != nil {
			continue
		}
		m, err := v.Map()
		if err != nil {
			continue
		}
		r := types.Relation{
			SourceID:     getStr(m, "source_id"),
			SourceType:   types.EntityType(getStr(m, "source_type")),
			TargetID:     getStr(m, "target_id"),
			TargetType:   types.EntityType(getStr(m, "target_type")),
			RelationType: types.RelationType(getStr(m, "relation_type")),
			CreatedAt:    getTime(m, "created_at"),
			Author:       getStr(m, "author"),
		}
		if propMap, err := m.Path("properties").Map(); err == nil {
			if ks, err := propMap.Keys(); err == nil && len(ks) > 0 {
				r.Properties = map[string]string{}
				for _, k := range ks {
					r.Properties[k] = getStr(propMap, k)
				}
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// ListRelations returns relations touching id, filtered by direction.
func (d *Document) ListRelations(id string, direction types.RelationDirection) ([]types.Relation, error) {
	all, err := d.ListAllRelations()
	if err != nil {
		return nil, err
	}
	out := make([]types.Relation, 0)
	for _, r := range all {
		switch direction {
		case types.DirectionFrom:
			if r.SourceID == id {
				out = append(out, r)
			}
		case types.DirectionTo:
			if r.TargetID == id {
				out = append(out, r)
			}
		default:
			if r.SourceID == id || r.TargetID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// SupersedeDecision creates a supersedes relation from newID to oldID,
// sets oldID's status to superseded and its superseded_by to newID. It is
// idempotent: a second call with the same arguments is a no-op (the
// decision-supersede invariant is enforced here procedurally, per §3
// invariant 6, not via a post-merge check).
func (d *Document) SupersedeDecision(oldID, newID, author string) (types.Entity, error) {
	old, err := d.GetEntity(types.TypeDecision, oldID)
	if err != nil {
		return types.Entity{}, err
	}
	if _, err := d.GetEntity(types.TypeDecision, newID); err != nil {
		return types.Entity{}, types.NewFieldError(types.KindRelationTargetNotFound, "new_id", "new decision not found")
	}
	if old.DecisionStatus == types.DecisionSuperseded && old.SupersededBy == newID {
		return old, nil
	}
	if err := d.AddRelation(types.Relation{
		SourceID:     newID,
		SourceType:   types.TypeDecision,
		TargetID:     oldID,
		TargetType:   types.TypeDecision,
		RelationType: types.RelSupersedes,
	}, author); err != nil {
		return types.Entity{}, err
	}
	status := types.DecisionSuperseded
	supersededBy := newID
	return d.UpdateEntity(types.TypeDecision, oldID, types.Patch{
		DecisionStatus: &status,
		SupersededBy:   &supersededBy,
	}, author)
}
