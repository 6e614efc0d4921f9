package store

import (
	"strconv"
	"strings"

	"github.com/medulla-kb/medulla/internal/types"
)

// Resolve looks up an entity by either its type-scoped sequence number
// (e.g. "42") or an identifier prefix of at least 4 characters, the two
// reference forms entity_get accepts (§4.F).
func (d *Document) Resolve(t types.EntityType, ref string) (types.Entity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Entity{}, types.NewFieldError(types.KindInvalidEntityID, "id", "id is required")
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return d.resolveBySequence(t, seq)
	}
	if len(ref) < 4 {
		return types.Entity{}, types.NewFieldError(types.KindInvalidEntityID, "id", "identifier prefix must be at least 4 characters")
	}
	return d.resolveByPrefix(t, ref)
}

func (d *Document) resolveBySequence(t types.EntityType, seq int) (types.Entity, error) {
	entities, err := d.ListEntities(t)
	if err != nil {
		return types.Entity{}, err
	}
	for _, e := range entities {
		if e.Sequence == seq {
			return e, nil
		}
	}
	return types.Entity{}, types.NewFieldError(types.KindEntityNotFound, "id", "no entity with that sequence number")
}

func (d *Document) resolveByPrefix(t types.EntityType, prefix string) (types.Entity, error) {
	entities, err := d.ListEntities(t)
	if err != nil {
		return types.Entity{}, err
	}
	var match *types.Entity
	for i := range entities {
		if strings.HasPrefix(entities[i].ID, prefix) {
			if match != nil {
				return types.Entity{}, types.NewFieldError(types.KindInvalidEntityID, "id", "identifier prefix is ambiguous")
			}
			match = &entities[i]
		}
	}
	if match == nil {
		return types.Entity{}, types.NewFieldError(types.KindEntityNotFound, "id", "no entity matches that identifier prefix")
	}
	return *match, nil
}
