package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medulla-kb/medulla/internal/types"
)

func entityTypeURI(t types.EntityType) string { return "medulla://entities/" + string(t) }
func entityURI(t types.EntityType, id string) string {
	return fmt.Sprintf("medulla://entity/%s/%s", t, id)
}

func jsonResult(uri string, v any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{{URI: uri, MIMEType: "application/json", Text: string(data)}},
	}, nil
}

// paginationParams reads limit/offset from a resource URI's query string
// (default 50, max 100), per §4.F's blanket pagination rule for every
// list-shaped resource.
func paginationParams(uri string) (limit, offset int) {
	limit, offset = 50, 0
	u, err := url.Parse(uri)
	if err != nil {
		return limit, offset
	}
	q := u.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	return limit, offset
}

// paginatedResult wraps a list-shaped resource response in {items, total,
// limit, offset}, slicing items down to the requested page.
func paginatedResult[T any](uri string, items []T) (*sdkmcp.ReadResourceResult, error) {
	limit, offset := paginationParams(uri)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return jsonResult(uri, map[string]any{
		"items":  items[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) registerResources() {
	s.static("medulla://schema", "schema", "Entity and relation type definitions", s.resourceSchema)
	s.static("medulla://stats", "stats", "Entity counts by type", s.resourceStats)
	s.static("medulla://entities", "entities", "Every entity, across all types", s.resourceAllEntities)
	s.static("medulla://decisions", "decisions", "All decisions", s.resourceDecisions(false))
	s.static("medulla://decisions/active", "decisions_active", "Non-superseded, non-deprecated decisions", s.resourceDecisions(true))
	s.static("medulla://tasks", "tasks", "All tasks", s.resourceTasks(allTasks))
	s.static("medulla://tasks/active", "tasks_active", "Tasks not yet done", s.resourceTasks(activeTasks))
	s.static("medulla://tasks/ready", "tasks_ready", "Unblocked tasks ready to start", s.resourceTasksReady)
	s.static("medulla://tasks/blocked", "tasks_blocked", "Blocked tasks and their blockers", s.resourceTasksBlocked)
	s.static("medulla://prompts", "prompts", "All reusable prompt templates", s.resourcePrompts)
	s.static("medulla://graph", "graph", "Every relation in the workspace", s.resourceGraph)
	s.static("medulla://logs", "logs", "Log activity signal: subscribers are notified when the server logs a line; reading returns a hint, not the lines", s.resourceLogs)

	s.template("medulla://entities/{type}", "entities_by_type", "Every entity of one type", s.resourceEntitiesByType)
	s.template("medulla://entity/{type}/{id}", "entity_by_id", "A single entity", s.resourceEntityByID)
	s.template("medulla://tasks/due/{date}", "tasks_due", "Tasks due on a given YYYY-MM-DD date", s.resourceTasksDue)
}

type resourceHandler func(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error)

func (s *Server) static(uri, name, description string, h resourceHandler) {
	s.sdk.AddResource(&sdkmcp.Resource{
		URI:         uri,
		Name:        name,
		Description: description,
		MIMEType:    "application/json",
	}, h)
}

func (s *Server) template(uriTemplate, name, description string, h resourceHandler) {
	s.sdk.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriTemplate,
		Name:        name,
		Description: description,
		MIMEType:    "application/json",
	}, h)
}

func (s *Server) resourceSchema(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	schema := map[string]any{
		"entity_types":    types.BuiltinTypes,
		"relation_types":  []types.RelationType{types.RelImplements, types.RelBlocks, types.RelSupersedes, types.RelReferences, types.RelBelongsTo, types.RelDocuments},
		"task_statuses":   []types.TaskStatus{types.TaskTodo, types.TaskInProgress, types.TaskDone, types.TaskBlocked},
		"task_priorities": []types.TaskPriority{types.PriorityUrgent, types.PriorityHigh, types.PriorityNormal, types.PriorityLow},
	}
	return jsonResult(req.Params.URI, schema)
}

func (s *Server) resourceStats(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	counts := map[string]int{}
	for _, t := range types.BuiltinTypes {
		es, err := s.svc.ListEntities(t)
		if err != nil {
			return nil, err
		}
		counts[string(t)] = len(es)
	}
	return jsonResult(req.Params.URI, counts)
}

func (s *Server) resourceAllEntities(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	var all []types.Entity
	for _, t := range types.BuiltinTypes {
		es, err := s.svc.ListEntities(t)
		if err != nil {
			return nil, err
		}
		all = append(all, es...)
	}
	return paginatedResult(req.Params.URI, all)
}

func (s *Server) resourceEntitiesByType(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	t := lastSegment(req.Params.URI)
	es, err := s.svc.ListEntities(types.EntityType(t))
	if err != nil {
		return nil, err
	}
	return paginatedResult(req.Params.URI, es)
}

func (s *Server) resourceEntityByID(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	path := strings.TrimPrefix(req.Params.URI, "medulla://entity/")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return nil, types.NewError(types.KindInvalidResourceURI, "expected medulla://entity/<type>/<id>")
	}
	e, err := s.svc.GetEntity(types.EntityType(parts[0]), parts[1])
	if err != nil {
		return nil, err
	}
	return jsonResult(req.Params.URI, e)
}

func (s *Server) resourceDecisions(activeOnly bool) resourceHandler {
	return func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		ds, err := s.svc.ListEntities(types.TypeDecision)
		if err != nil {
			return nil, err
		}
		if activeOnly {
			var filtered []types.Entity
			for _, d := range ds {
				if d.DecisionStatus != types.DecisionSuperseded && d.DecisionStatus != types.DecisionDeprecated {
					filtered = append(filtered, d)
				}
			}
			ds = filtered
		}
		return paginatedResult(req.Params.URI, ds)
	}
}

type taskFilter func(types.Entity) bool

func allTasks(types.Entity) bool { return true }
func activeTasks(e types.Entity) bool { return e.TaskStatus != types.TaskDone }

func (s *Server) resourceTasks(filter taskFilter) resourceHandler {
	return func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		tasks, err := s.svc.ListEntities(types.TypeTask)
		if err != nil {
			return nil, err
		}
		var out []types.Entity
		for _, t := range tasks {
			if filter(t) {
				out = append(out, t)
			}
		}
		return paginatedResult(req.Params.URI, out)
	}
}

func (s *Server) resourceTasksReady(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	tasks, err := s.svc.Engine.ReadyTasks(0, "")
	if err != nil {
		return nil, err
	}
	return paginatedResult(req.Params.URI, tasks)
}

func (s *Server) resourceTasksBlocked(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	blocked, err := s.svc.Engine.BlockedTasks("")
	if err != nil {
		return nil, err
	}
	return paginatedResult(req.Params.URI, blocked)
}

func (s *Server) resourceTasksDue(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	date := lastSegment(req.Params.URI)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, types.NewFieldError(types.KindInvalidResourceURI, "date", "expected YYYY-MM-DD")
	}
	tasks, err := s.svc.ListEntities(types.TypeTask)
	if err != nil {
		return nil, err
	}
	var due []types.Entity
	for _, t := range tasks {
		if t.DueDate == date {
			due = append(due, t)
		}
	}
	return paginatedResult(req.Params.URI, due)
}

func (s *Server) resourcePrompts(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	ps, err := s.svc.ListEntities(types.TypePrompt)
	if err != nil {
		return nil, err
	}
	return paginatedResult(req.Params.URI, ps)
}

func (s *Server) resourceGraph(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	rels, err := s.svc.ListAllRelations()
	if err != nil {
		return nil, err
	}
	return paginatedResult(req.Params.URI, rels)
}

func (s *Server) resourceLogs(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, map[string]string{"hint": "subscribe to this resource for live log lines"})
}

func lastSegment(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		uri = uri[:idx]
	}
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return uri
	}
	return uri[idx+1:]
}
