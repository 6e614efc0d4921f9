// Package service wires the store, cache, query engine, renderer, and
// extensibility hooks into the composite operations both the CLI
// (cmd/medulla) and the RPC server (internal/mcpserver) call. Keeping
// this wiring in one place means every entry point applies the same
// write-then-sync-then-hook sequence instead of reimplementing it twice.
package service

import (
	"time"

	"github.com/medulla-kb/medulla/internal/cache"
	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/embedding"
	"github.com/medulla-kb/medulla/internal/hooks"
	"github.com/medulla-kb/medulla/internal/query"
	"github.com/medulla-kb/medulla/internal/render"
	"github.com/medulla-kb/medulla/internal/store"
	"github.com/medulla-kb/medulla/internal/types"
)

// Service is the opened, ready-to-use view of a Medulla workspace.
type Service struct {
	Root   string
	Doc    *store.Document
	Cache  *cache.Cache
	Engine *query.Engine
	Hooks  *hooks.Runner
}

// Open opens an already-initialized workspace at root, wiring the cache's
// embedder from configuration.
func Open(root string) (*Service, error) {
	doc, err := store.Open(root)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(embedding.Config{
		Provider: config.GetString("embedding.provider"),
		Model:    config.GetString("embedding.model"),
		Host:     config.GetString("embedding.host"),
		APIKey:   config.GetString("embedding.api_key"),
	})
	if err != nil {
		embedder = nil // degrade to fulltext-only search rather than fail open
	}
	c, err := cache.Open(root, embedder)
	if err != nil {
		return nil, err
	}
	if err := c.Sync(doc); err != nil {
		return nil, err
	}
	return &Service{
		Root:   root,
		Doc:    doc,
		Cache:  c,
		Engine: query.New(c, embedder),
		Hooks:  hooks.NewRunnerFromWorkspace(root),
	}, nil
}

// Init creates a brand-new workspace at root and opens it.
func Init(root string) (*Service, error) {
	doc, err := store.Init(root)
	if err != nil {
		return nil, err
	}
	if err := doc.Close(); err != nil {
		return nil, err
	}
	return Open(root)
}

func (s *Service) Close() error {
	if err := s.Cache.Close(); err != nil {
		return err
	}
	return s.Doc.Close()
}

func (s *Service) resync() error {
	return s.Cache.Sync(s.Doc)
}

// CreateEntity validates, persists, and re-derives the cache for a new
// entity, then fires the on_create lifecycle hook.
func (s *Service) CreateEntity(e types.Entity, author string) (types.Entity, error) {
	created, err := s.Doc.AddEntity(e, author)
	if err != nil {
		return types.Entity{}, err
	}
	if err := s.Doc.Save(); err != nil {
		return types.Entity{}, err
	}
	if err := s.resync(); err != nil {
		return types.Entity{}, err
	}
	s.Hooks.Run(hooks.EventCreate, &created)
	return created, nil
}

func (s *Service) GetEntity(t types.EntityType, id string) (types.Entity, error) {
	return s.Doc.GetEntity(t, id)
}

func (s *Service) Resolve(t types.EntityType, ref string) (types.Entity, error) {
	return s.Doc.Resolve(t, ref)
}

func (s *Service) ListEntities(t types.EntityType) ([]types.Entity, error) {
	return s.Doc.ListEntities(t)
}

// ListEntitiesFiltered is entity_list's backing implementation (§4.F):
// optional type/status/tag filters, then limit/offset pagination over the
// filtered set, with the pre-pagination total reported alongside the page.
func (s *Service) ListEntitiesFiltered(filter types.ListFilter) (types.ListPage, error) {
	var all []types.Entity
	var err error
	if filter.Type != "" {
		all, err = s.Doc.ListEntities(filter.Type)
	} else {
		all, err = s.Doc.ListAllEntities()
	}
	if err != nil {
		return types.ListPage{}, err
	}

	filtered := make([]types.Entity, 0, len(all))
	for _, e := range all {
		if filter.Status != "" && e.Status() != filter.Status {
			continue
		}
		if filter.Tag != "" && !e.HasTag(filter.Tag) {
			continue
		}
		filtered = append(filtered, e)
	}

	total := len(filtered)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return types.ListPage{Entities: filtered[offset:end], Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) UpdateEntity(t types.EntityType, id string, patch types.Patch, author string) (types.Entity, error) {
	updated, err := s.Doc.UpdateEntity(t, id, patch, author)
	if err != nil {
		return types.Entity{}, err
	}
	if err := s.Doc.Save(); err != nil {
		return types.Entity{}, err
	}
	if err := s.resync(); err != nil {
		return types.Entity{}, err
	}
	s.Hooks.Run(closingEvent(updated), &updated)
	return updated, nil
}

func (s *Service) DeleteEntity(t types.EntityType, id string) error {
	if err := s.Doc.DeleteEntity(t, id); err != nil {
		return err
	}
	if err := s.Doc.Save(); err != nil {
		return err
	}
	return s.resync()
}

func (s *Service) AddRelation(r types.Relation, author string) error {
	if err := s.Doc.AddRelation(r, author); err != nil {
		return err
	}
	if err := s.Doc.Save(); err != nil {
		return err
	}
	return s.resync()
}

func (s *Service) RemoveRelation(sourceID string, relType types.RelationType, targetID string) error {
	if err := s.Doc.RemoveRelation(sourceID, relType, targetID); err != nil {
		return err
	}
	if err := s.Doc.Save(); err != nil {
		return err
	}
	return s.resync()
}

func (s *Service) SupersedeDecision(oldID, newID, author string) (types.Entity, error) {
	old, err := s.Doc.SupersedeDecision(oldID, newID, author)
	if err != nil {
		return types.Entity{}, err
	}
	if err := s.Doc.Save(); err != nil {
		return types.Entity{}, err
	}
	if err := s.resync(); err != nil {
		return types.Entity{}, err
	}
	return old, nil
}

// Sync is the explicit rebuild operation (§12): forces a full cache
// re-derivation regardless of whether the document heads changed.
func (s *Service) Sync() error {
	return s.Cache.Rebuild(s.Doc)
}

// RenderSnapshot regenerates the markdown tree under .medulla/snapshot.
func (s *Service) RenderSnapshot() error {
	return render.Render(s.Doc, s.Root)
}

func (s *Service) ListRelations(id string, direction types.RelationDirection) ([]types.Relation, error) {
	return s.Doc.ListRelations(id, direction)
}

func (s *Service) ListAllRelations() ([]types.Relation, error) {
	return s.Doc.ListAllRelations()
}

func (s *Service) Events(t types.EntityType, id string) ([]types.Event, error) {
	return s.Doc.Events(t, id)
}

func (s *Service) StaleTasks(olderThan time.Duration) ([]types.Entity, error) {
	return s.Engine.StaleTasks(olderThan)
}

// closingEvent picks on_close over on_update when the patch moved an
// entity into a terminal state, so hook authors don't need to inspect
// per-type status fields themselves.
func closingEvent(e types.Entity) string {
	switch {
	case e.Type == types.TypeTask && e.TaskStatus == types.TaskDone:
		return hooks.EventClose
	case e.Type == types.TypeDecision && (e.DecisionStatus == types.DecisionSuperseded || e.DecisionStatus == types.DecisionDeprecated):
		return hooks.EventClose
	case e.Type == types.TypeComponent && e.ComponentStatus == types.ComponentDeprecated:
		return hooks.EventClose
	default:
		return hooks.EventUpdate
	}
}
