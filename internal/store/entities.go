package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/automerge/automerge-go"

	"github.com/medulla-kb/medulla/internal/types"
	"github.com/medulla-kb/medulla/internal/validation"
)

// AddEntity assigns an id (if unset) and sequence number, validates the
// entity, writes it into its type container, bumps the type's sequence
// counter, and commits. It is the backing operation for entity_create and
// the type-specific convenience constructors.
func (d *Document) AddEntity(e types.Entity, author string) (types.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !types.IsBuiltinType(e.Type) && e.Type == "" {
		return types.Entity{}, types.NewFieldError(types.KindEntityTypeInvalid, "type", "entity type is required")
	}
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = e.CreatedAt
	if e.Author == "" {
		e.Author = author
	}

	if err := validation.ForCreate()(&e); err != nil {
		return types.Entity{}, err
	}

	seq, err := d.nextSequenceLocked(e.Type)
	if err != nil {
		return types.Entity{}, err
	}
	e.Sequence = seq

	container, err := d.typeContainer(e.Type)
	if err != nil {
		return types.Entity{}, err
	}
	entityMap, err := container.Path(e.ID).Map()
	if err != nil {
		return types.Entity{}, types.Wrap(types.KindInternal, "failed to allocate entity map", err)
	}
	if err := writeEntity(entityMap, &e); err != nil {
		return types.Entity{}, err
	}
	if err := d.bumpSequenceLocked(e.Type, seq); err != nil {
		return types.Entity{}, err
	}
	if err := d.appendEventLocked(entityMap, types.EventEntityCreated, e.Author, ""); err != nil {
		return types.Entity{}, err
	}
	if err := d.doc.Commit(fmt.Sprintf("create %s %s", e.Type, e.ID)); err != nil {
		return types.Entity{}, types.Wrap(types.KindInternal, "failed to commit create", err)
	}
	return e, nil
}

// GetEntity looks up an entity by id within a type container.
func (d *Document) GetEntity(t types.EntityType, id string) (types.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getEntityLocked(t, id)
}

func (d *Document) getEntityLocked(t types.EntityType, id string) (types.Entity, error) {
	container, err := d.typeContainer(t)
	if err != nil {
		return types.Entity{}, err
	}
	v, err := container.Get(id)
	if err != nil || v.Kind() != automerge.KindMap {
		return types.Entity{}, types.NewFieldError(types.KindEntityNotFound, "id", fmt.Sprintf("%s %s not found", t, id))
	}
	entityMap, err := v.Map()
	if err != nil {
		return types.Entity{}, types.Wrap(types.KindInternal, "failed to read entity map", err)
	}
	return readEntity(entityMap, t, id)
}

// ListEntities returns every entity of a type, sorted by sequence number.
func (d *Document) ListEntities(t types.EntityType) ([]types.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listEntitiesLocked(t)
}

func (d *Document) listEntitiesLocked(t types.EntityType) ([]types.Entity, error) {
	container, err := d.typeContainer(t)
	if err != nil {
		return nil, err
	}
	keys, err := container.Keys()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to enumerate entity keys", err)
	}
	out := make([]types.Entity, 0, len(keys))
	for _, id := range keys {
		e, err := d.getEntityLocked(t, id)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// ListAllEntities returns every entity across every built-in type,
// grouped by type and sorted by sequence within each group; used by snapshot
// rendering and cross-type queries like graph_orphans.
func (d *Document) ListAllEntities() ([]types.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []types.Entity
	for _, t := range types.BuiltinTypes {
		es, err := d.listEntitiesLocked(t)
		if err != nil {
			return nil, err
		}
		out = append(out, es...)
	}
	return out, nil
}

// UpdateEntity applies a patch to an existing entity: field replacements,
// tag adds/removes (observed-add/observed-remove), advances updated_at,
// validates, and commits.
func (d *Document) UpdateEntity(t types.EntityType, id string, patch types.Patch, author string) (types.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, err := d.getEntityLocked(t, id)
	if err != nil {
		return types.Entity{}, err
	}
	applyPatch(&e, patch)
	now := time.Now().UTC()
	if !now.After(e.UpdatedAt) {
		now = e.UpdatedAt.Add(time.Nanosecond)
	}
	e.UpdatedAt = now

	if err := validation.ForUpdate()(&e); err != nil {
		return types.Entity{}, err
	}

	container, err := d.typeContainer(t)
	if err != nil {
		return types.Entity{}, err
	}
	entityMap, err := container.Path(id).Map()
	if err != nil {
		return types.Entity{}, types.Wrap(types.KindInternal, "failed to access entity map", err)
	}
	if err := writeEntity(entityMap, &e); err != nil {
		return types.Entity{}, err
	}
	detail := ""
	eventType := types.EventEntityUpdated
	if statusChanged(t, patch) {
		eventType = types.EventStatusChanged
	}
	author = firstNonEmpty(author, e.Author)
	if err := d.appendEventLocked(entityMap, eventType, author, detail); err != nil {
		return types.Entity{}, err
	}
	if err := d.doc.Commit(fmt.Sprintf("update %s %s", t, id)); err != nil {
		return types.Entity{}, types.Wrap(types.KindInternal, "failed to commit update", err)
	}
	return e, nil
}

func statusChanged(t types.EntityType, p types.Patch) bool {
	switch t {
	case types.TypeTask:
		return p.TaskStatus != nil
	case types.TypeDecision:
		return p.DecisionStatus != nil
	case types.TypeComponent:
		return p.ComponentStatus != nil
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// DeleteEntity removes an entity from its type container. Relations
// referencing it are not cascaded: they become dangling and are filtered
// at query time (§3 Lifecycle).
func (d *Document) DeleteEntity(t types.EntityType, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	container, err := d.typeContainer(t)
	if err != nil {
		return err
	}
	if _, err := container.Get(id); err != nil {
		return types.NewFieldError(types.KindEntityNotFound, "id", fmt.Sprintf("%s %s not found", t, id))
	}
	if err := container.Delete(id); err != nil {
		return types.Wrap(types.KindInternal, "failed to delete entity", err)
	}
	if err := d.doc.Commit(fmt.Sprintf("delete %s %s", t, id)); err != nil {
		return types.Wrap(types.KindInternal, "failed to commit delete", err)
	}
	return nil
}

func applyPatch(e *types.Entity, p types.Patch) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Author != nil {
		e.Author = *p.Author
	}
	if len(p.AddTags) > 0 || len(p.RemoveTags) > 0 {
		e.Tags = applyTagOps(e.Tags, p.AddTags, p.RemoveTags)
	}
	if p.DecisionStatus != nil {
		e.DecisionStatus = *p.DecisionStatus
	}
	if p.Context != nil {
		e.Context = *p.Context
	}
	if p.Consequences != nil {
		e.Consequences = *p.Consequences
	}
	if p.SupersededBy != nil {
		e.SupersededBy = *p.SupersededBy
	}
	if p.TaskStatus != nil {
		e.TaskStatus = *p.TaskStatus
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.DueDate != nil {
		e.DueDate = *p.DueDate
	}
	if p.Assignee != nil {
		e.Assignee = *p.Assignee
	}
	if p.NoteType != nil {
		e.NoteType = *p.NoteType
	}
	if p.Template != nil {
		e.Template = *p.Template
	}
	if p.Variables != nil {
		e.Variables = *p.Variables
	}
	if p.OutputSchema != nil {
		e.OutputSchema = *p.OutputSchema
	}
	if p.ComponentType != nil {
		e.ComponentType = *p.ComponentType
	}
	if p.ComponentStatus != nil {
		e.ComponentStatus = *p.ComponentStatus
	}
	if p.Owner != nil {
		e.Owner = *p.Owner
	}
	if p.URL != nil {
		e.URL = *p.URL
	}
	if p.LinkType != nil {
		e.LinkType = *p.LinkType
	}
	if p.SetProperties != nil {
		if e.Properties == nil {
			e.Properties = map[string]string{}
		}
		for k, v := range p.SetProperties {
			e.Properties[k] = v
		}
	}
}

// applyTagOps implements the observed-add/observed-remove set semantics
// in memory before writing the tag list back: duplicates collapse, and a
// tag removed then re-added is present (§3 invariant 4).
func applyTagOps(current []string, add, remove []string) []string {
	present := map[string]bool{}
	order := []string{}
	for _, t := range current {
		if !present[t] {
			present[t] = true
			order = append(order, t)
		}
	}
	removeSet := map[string]bool{}
	for _, t := range remove {
		removeSet[t] = true
	}
	filtered := order[:0]
	for _, t := range order {
		if !removeSet[t] {
			filtered = append(filtered, t)
		} else {
			delete(present, t)
		}
	}
	for _, t := range add {
		if !present[t] {
			present[t] = true
			filtered = append(filtered, t)
		}
	}
	return append([]string(nil), filtered...)
}
