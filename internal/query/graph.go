package query

import (
	"github.com/medulla-kb/medulla/internal/types"
)

const MaxGraphDepth = 10

type relationEdge struct {
	otherID   string
	otherType types.EntityType
	relType   types.RelationType
}

// relationIndex is the by-source/by-target adjacency built from the
// cache's relations table, mirroring the cache's two relation indexes
// (§4.C) but loaded once per query for BFS traversal.
type relationIndex struct {
	bySource map[string][]relationEdge
	byTarget map[string][]relationEdge
}

func (e *Engine) loadRelationIndex() (*relationIndex, error) {
	rows, err := e.cache.DB().Query(`SELECT source_id, source_type, target_id, target_type, relation_type FROM relations`)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to load relations", err)
	}
	defer rows.Close()

	idx := &relationIndex{bySource: map[string][]relationEdge{}, byTarget: map[string][]relationEdge{}}
	for rows.Next() {
		var srcID, srcType, tgtID, tgtType, relType string
		if err := rows.Scan(&srcID, &srcType, &tgtID, &tgtType, &relType); err != nil {
			return nil, types.Wrap(types.KindInternal, "failed to scan relation row", err)
		}
		idx.bySource[srcID] = append(idx.bySource[srcID], relationEdge{otherID: tgtID, otherType: types.EntityType(tgtType), relType: types.RelationType(relType)})
		idx.byTarget[tgtID] = append(idx.byTarget[tgtID], relationEdge{otherID: srcID, otherType: types.EntityType(srcType), relType: types.RelationType(relType)})
	}
	return idx, rows.Err()
}

// GraphRelation is one edge in a graph_relations response: the related
// entity id/type, the relation's type, and which direction it was found in.
type GraphRelation struct {
	RelationType types.RelationType    `json:"relation_type"`
	Direction    types.RelationDirection `json:"direction"`
	EntityID     string                `json:"entity_id"`
	EntityType   types.EntityType      `json:"entity_type"`
}

// GraphRelations returns the union of an entity's incoming and outgoing
// relations (or just one side, per direction).
func (e *Engine) GraphRelations(id string, direction types.RelationDirection) ([]GraphRelation, error) {
	idx, err := e.loadRelationIndex()
	if err != nil {
		return nil, err
	}
	var out []GraphRelation
	if direction == types.DirectionFrom || direction == types.DirectionBoth || direction == "" {
		for _, edge := range idx.bySource[id] {
			out = append(out, GraphRelation{RelationType: edge.relType, Direction: types.DirectionFrom, EntityID: edge.otherID, EntityType: edge.otherType})
		}
	}
	if direction == types.DirectionTo || direction == types.DirectionBoth || direction == "" {
		for _, edge := range idx.byTarget[id] {
			out = append(out, GraphRelation{RelationType: edge.relType, Direction: types.DirectionTo, EntityID: edge.otherID, EntityType: edge.otherType})
		}
	}
	return out, nil
}

// GraphPath performs a breadth-first search over the undirected closure of
// the relation indexes and returns the first path found, or nil if none
// exists within max_depth (capped at 10). from == to returns [from]
// regardless of max_depth; max_depth <= 0 otherwise means no path is
// allowed and returns nil, it is not a stand-in for "unbounded".
func (e *Engine) GraphPath(from, to string, maxDepth int) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	if maxDepth <= 0 {
		return nil, nil
	}
	if maxDepth > MaxGraphDepth {
		maxDepth = MaxGraphDepth
	}
	idx, err := e.loadRelationIndex()
	if err != nil {
		return nil, err
	}

	type queueItem struct {
		id   string
		path []string
	}
	visited := map[string]bool{from: true}
	queue := []queueItem{{id: from, path: []string{from}}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if len(item.path)-1 >= maxDepth {
			continue
		}
		neighbors := append(append([]relationEdge{}, idx.bySource[item.id]...), idx.byTarget[item.id]...)
		for _, edge := range neighbors {
			if visited[edge.otherID] {
				continue
			}
			nextPath := append(append([]string{}, item.path...), edge.otherID)
			if edge.otherID == to {
				return nextPath, nil
			}
			visited[edge.otherID] = true
			queue = append(queue, queueItem{id: edge.otherID, path: nextPath})
		}
	}
	return nil, nil
}

// GraphOrphans returns entities with neither incoming nor outgoing
// non-dangling relations, optionally filtered by type.
func (e *Engine) GraphOrphans(entityType types.EntityType) ([]types.Entity, error) {
	idx, err := e.loadRelationIndex()
	if err != nil {
		return nil, err
	}
	sqlQuery := `SELECT id, type, sequence, title, content, tags, created_at, updated_at, author FROM entities`
	args := []any{}
	if entityType != "" {
		sqlQuery += ` WHERE type = ?`
		args = append(args, string(entityType))
	}
	rows, err := e.cache.DB().Query(sqlQuery, args...)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "failed to list entities", err)
	}
	defer rows.Close()
	all, err := scanEntities(rows)
	if err != nil {
		return nil, err
	}
	var out []types.Entity
	for _, en := range all {
		if len(idx.bySource[en.ID]) == 0 && len(idx.byTarget[en.ID]) == 0 {
			out = append(out, en)
		}
	}
	return out, nil
}
