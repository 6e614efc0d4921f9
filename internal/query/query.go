// Package query implements the Query Engine (§4.D): composite queries
// over the derived cache — full-text and semantic search, graph
// traversal, orphan detection, and task-readiness.
package query

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/medulla-kb/medulla/internal/cache"
	"github.com/medulla-kb/medulla/internal/embedding"
	"github.com/medulla-kb/medulla/internal/types"
)

type Engine struct {
	cache    *cache.Cache
	embedder embedding.Embedder
}

func New(c *cache.Cache, embedder embedding.Embedder) *Engine {
	return &Engine{cache: c, embedder: embedder}
}

// FullTextSearch runs a ranked FTS5 query over (title, content, tags),
// optionally filtered by type.
func (e *Engine) FullTextSearch(query string, entityType types.EntityType, limit int) ([]types.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	db := e.cache.DB()
	sqlQuery := `
		SELECT en.id, en.type, en.sequence, en.title, en.content, en.tags, en.created_at, en.updated_at, en.author
		FROM entities_fts f
		JOIN entities en ON en.id = f.id
		WHERE entities_fts MATCH ?`
	args := []any{query}
	if entityType != "" {
		sqlQuery += ` AND en.type = ?`
		args = append(args, string(entityType))
	}
	sqlQuery += ` ORDER BY bm25(entities_fts) LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(sqlQuery, args...)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "full-text search failed", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// SemanticSearch embeds the query and returns the k-nearest entities by
// cosine similarity among those with a stored vector.
func (e *Engine) SemanticSearch(query string, entityType types.EntityType, limit int) ([]types.Entity, error) {
	if e.embedder == nil {
		return nil, types.NewError(types.KindEmbeddingUnavailable, "no embedding provider configured")
	}
	if limit <= 0 {
		limit = 50
	}
	qvec, err := e.embedder.Embed(query)
	if err != nil {
		return nil, types.Wrap(types.KindEmbeddingUnavailable, "failed to embed query", err)
	}

	db := e.cache.DB()
	sqlQuery := `SELECT en.id, en.type, en.sequence, en.title, en.content, en.tags, en.created_at, en.updated_at, en.author, em.vector
		FROM embeddings em JOIN entities en ON en.id = em.id`
	args := []any{}
	if entityType != "" {
		sqlQuery += ` WHERE en.type = ?`
		args = append(args, string(entityType))
	}
	rows, err := db.Query(sqlQuery, args...)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, "semantic search failed", err)
	}
	defer rows.Close()

	type scored struct {
		e     types.Entity
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var en types.Entity
		var tags string
		var created, updated string
		var vecBlob []byte
		if err := rows.Scan(&en.ID, &en.Type, &en.Sequence, &en.Title, &en.Content, &tags, &created, &updated, &en.Author, &vecBlob); err != nil {
			continue
		}
		en.Tags = splitTags(tags)
		en.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		en.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		vec := decodeVectorBlob(vecBlob)
		candidates = append(candidates, scored{e: en, score: cosineSimilarity(qvec, vec)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]types.Entity, len(candidates))
	for i, c := range candidates {
		out[i] = c.e
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func decodeVectorBlob(b []byte) []float32 {
	// Mirrors cache.decodeVector's comma-separated encoding without
	// importing the unexported helper: the wire format is an
	// implementation detail shared only by convention.
	var out []float32
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == ',' {
			if i > start {
				var f float64
				fmt.Sscanf(string(b[start:i]), "%g", &f)
				out = append(out, float32(f))
			}
			start = i + 1
		}
	}
	return out
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(joined); i++ {
		if i == len(joined) || joined[i] == ' ' {
			if i > start {
				out = append(out, joined[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func scanEntities(rows *sql.Rows) ([]types.Entity, error) {
	var out []types.Entity
	for rows.Next() {
		var en types.Entity
		var tags, created, updated string
		if err := rows.Scan(&en.ID, &en.Type, &en.Sequence, &en.Title, &en.Content, &tags, &created, &updated, &en.Author); err != nil {
			return nil, types.Wrap(types.KindInternal, "failed to scan entity row", err)
		}
		en.Tags = splitTags(tags)
		en.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		en.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, en)
	}
	return out, rows.Err()
}
