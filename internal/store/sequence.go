package store

import (
	"sort"

	"github.com/medulla-kb/medulla/internal/types"
)

// nextSequenceLocked reads the current per-type counter and returns it
// plus one, without writing — the write happens in bumpSequenceLocked once
// the entity itself has been written, so a failed entity write never
// advances the counter.
func (d *Document) nextSequenceLocked(t types.EntityType) (int, error) {
	seqMap, err := d.doc.Path(metaContainer, typeSequencesKey).Map()
	if err != nil {
		return 0, types.Wrap(types.KindInternal, "failed to access type_sequences", err)
	}
	return getInt(seqMap, string(t)) + 1, nil
}

func (d *Document) bumpSequenceLocked(t types.EntityType, seq int) error {
	seqMap, err := d.doc.Path(metaContainer, typeSequencesKey).Map()
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to access type_sequences", err)
	}
	current := getInt(seqMap, string(t))
	if seq > current {
		if err := seqMap.Set(string(t), int64(seq)); err != nil {
			return wrapSet("type_sequences."+string(t), err)
		}
	}
	return nil
}

// NextSequenceNumber exposes the next-would-be sequence number for a type
// without mutating anything (§4.B next_sequence_number).
func (d *Document) NextSequenceNumber(t types.EntityType) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nextSequenceLocked(t)
}

// Reconcile reassigns sequence numbers within each type container to a
// contiguous 1..N range ordered by (created_at, id), per §4.B's
// sequence-number reconciliation. It runs at open time and after explicit
// merges; writing the result is itself a CRDT op so concurrent
// reconciliations converge on the next merge.
func (d *Document) Reconcile() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reconcileLocked()
}

func (d *Document) reconcileLocked() error {
	changed := false
	for _, t := range types.BuiltinTypes {
		container, err := d.typeContainer(t)
		if err != nil {
			return err
		}
		keys, err := container.Keys()
		if err != nil {
			return types.Wrap(types.KindInternal, "failed to enumerate entities for reconciliation", err)
		}
		entities := make([]types.Entity, 0, len(keys))
		for _, id := range keys {
			e, err := d.getEntityLocked(t, id)
			if err != nil {
				continue
			}
			entities = append(entities, e)
		}
		sort.Slice(entities, func(i, j int) bool {
			if !entities[i].CreatedAt.Equal(entities[j].CreatedAt) {
				return entities[i].CreatedAt.Before(entities[j].CreatedAt)
			}
			return entities[i].ID < entities[j].ID
		})
		seqMap, err := d.doc.Path(metaContainer, typeSequencesKey).Map()
		if err != nil {
			return types.Wrap(types.KindInternal, "failed to access type_sequences", err)
		}
		for i, e := range entities {
			want := i + 1
			if e.Sequence != want {
				entityMap, err := container.Path(e.ID).Map()
				if err != nil {
					return types.Wrap(types.KindInternal, "failed to access entity for reconciliation", err)
				}
				if err := entityMap.Set("sequence", int64(want)); err != nil {
					return wrapSet("sequence", err)
				}
				changed = true
			}
		}
		if len(entities) > 0 {
			if err := seqMap.Set(string(t), int64(len(entities))); err != nil {
				return wrapSet("type_sequences."+string(t), err)
			}
		}
	}
	if changed {
		if err := d.doc.Commit("reconcile sequence numbers"); err != nil {
			return types.Wrap(types.KindInternal, "failed to commit reconciliation", err)
		}
	}
	return nil
}
