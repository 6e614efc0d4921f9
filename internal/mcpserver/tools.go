package mcpserver

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/types"
)

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_create",
		Description: "Create a new entity (decision, task, note, prompt, component, or link).",
	}, s.toolEntityCreate)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_get",
		Description: "Fetch a single entity by id, sequence number, or id prefix.",
	}, s.toolEntityGet)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_list",
		Description: "List entities, optionally filtered by type, status, and tag, paginated by limit (default 50, max 100) and offset, with the total before pagination.",
	}, s.toolEntityList)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_update",
		Description: "Apply a partial update to an entity.",
	}, s.toolEntityUpdate)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_delete",
		Description: "Delete an entity. Relations pointing at it become dangling rather than cascading.",
	}, s.toolEntityDelete)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "entity_batch",
		Description: "Run a sequence of create/update/delete operations in one call. Best-effort: one failing operation does not roll back the rest.",
	}, s.toolEntityBatch)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "relation_add",
		Description: "Create a typed relation between two entities.",
	}, s.toolRelationAdd)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "relation_remove",
		Description: "Remove a typed relation between two entities.",
	}, s.toolRelationRemove)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "search_fulltext",
		Description: "Full-text search over entity titles, content, and tags (FTS5/bm25 ranked).",
	}, s.toolSearchFulltext)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "search_semantic",
		Description: "Semantic search over entity embeddings (cosine similarity).",
	}, s.toolSearchSemantic)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "graph_relations",
		Description: "List an entity's direct relations (incoming, outgoing, or both).",
	}, s.toolGraphRelations)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "graph_path",
		Description: "Find the shortest relation path between two entities (breadth-first, capped depth).",
	}, s.toolGraphPath)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "graph_orphans",
		Description: "List entities of a type with no relations at all.",
	}, s.toolGraphOrphans)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "task_ready",
		Description: "List unblocked tasks ordered by priority, due date, then sequence.",
	}, s.toolTaskReady)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "task_blocked",
		Description: "List blocked tasks and what blocks them, optionally scoped to one task.",
	}, s.toolTaskBlocked)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "task_next",
		Description: "Return the single highest-priority ready task.",
	}, s.toolTaskNext)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "task_complete",
		Description: "Mark a task done.",
	}, s.toolTaskComplete)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "task_reschedule",
		Description: "Change a task's due date.",
	}, s.toolTaskReschedule)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "decision_supersede",
		Description: "Mark an old decision as superseded by a new one, preserving both.",
	}, s.toolDecisionSupersede)

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name:        "sync_snapshot",
		Description: "Force a full cache rebuild and regenerate the markdown snapshot tree.",
	}, s.toolSyncSnapshot)
}

func toolErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", err.Error())
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}}}
}

// --- entity tools -----------------------------------------------------

type entityCreateArgs struct {
	Type    string            `json:"type" jsonschema:"one of decision,task,note,prompt,component,link"`
	Title   string            `json:"title"`
	Content string            `json:"content,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
	Fields  map[string]string `json:"fields,omitempty" jsonschema:"type-specific fields, e.g. due_date, priority, owner, url"`
}

func (s *Server) toolEntityCreate(ctx context.Context, _ *sdkmcp.CallToolRequest, args entityCreateArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	e := types.Entity{
		Type:    types.EntityType(args.Type),
		Title:   args.Title,
		Content: args.Content,
		Tags:    args.Tags,
	}
	applyCreateFields(&e, args.Fields)
	author := config.GetIdentity("")
	created, err := s.svc.CreateEntity(e, author)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(created.Type))
	return textResult(fmt.Sprintf("created %s %s (#%d)", created.Type, created.ID, created.Sequence)), created, nil
}

type entityGetArgs struct {
	Type string `json:"type"`
	Ref  string `json:"ref" jsonschema:"id, id prefix, or sequence number"`
}

func (s *Server) toolEntityGet(_ context.Context, _ *sdkmcp.CallToolRequest, args entityGetArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	e, err := s.svc.Resolve(types.EntityType(args.Type), args.Ref)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	return textResult(e.Title), e, nil
}

type entityListArgs struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func (s *Server) toolEntityList(_ context.Context, _ *sdkmcp.CallToolRequest, args entityListArgs) (*sdkmcp.CallToolResult, types.ListPage, error) {
	page, err := s.svc.ListEntitiesFiltered(types.ListFilter{
		Type:   types.EntityType(args.Type),
		Status: args.Status,
		Tag:    args.Tag,
		Limit:  args.Limit,
		Offset: args.Offset,
	})
	if err != nil {
		return nil, types.ListPage{}, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d of %d entities", len(page.Entities), page.Total)), page, nil
}

type entityUpdateArgs struct {
	Type          string   `json:"type"`
	Ref           string   `json:"ref"`
	Title         *string  `json:"title,omitempty"`
	Content       *string  `json:"content,omitempty"`
	AddTags       []string `json:"add_tags,omitempty"`
	RemoveTags    []string `json:"remove_tags,omitempty"`
	Status        *string  `json:"status,omitempty" jsonschema:"task/decision/component status, type-dependent"`
	DueDate       *string  `json:"due_date,omitempty"`
	Priority      *string  `json:"priority,omitempty"`
}

func (s *Server) toolEntityUpdate(ctx context.Context, _ *sdkmcp.CallToolRequest, args entityUpdateArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	t := types.EntityType(args.Type)
	e, err := s.svc.Resolve(t, args.Ref)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	patch := types.Patch{Title: args.Title, Content: args.Content, AddTags: args.AddTags, RemoveTags: args.RemoveTags}
	applyUpdateStatus(&patch, t, args.Status)
	if args.DueDate != nil {
		patch.DueDate = args.DueDate
	}
	if args.Priority != nil {
		p := types.TaskPriority(*args.Priority)
		patch.Priority = &p
	}
	updated, err := s.svc.UpdateEntity(t, e.ID, patch, config.GetIdentity(""))
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(updated.Type))
	return textResult("updated " + updated.ID), updated, nil
}

type entityDeleteArgs struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
}

func (s *Server) toolEntityDelete(ctx context.Context, _ *sdkmcp.CallToolRequest, args entityDeleteArgs) (*sdkmcp.CallToolResult, any, error) {
	t := types.EntityType(args.Type)
	e, err := s.svc.Resolve(t, args.Ref)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	if err := s.svc.DeleteEntity(t, e.ID); err != nil {
		return nil, nil, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(t))
	return textResult("deleted " + e.ID), nil, nil
}

// batchOperation is one entry in entity_batch's operations array: a
// create, update, or delete, sharing field names with the single-entity
// tools above so a client can build a batch out of the same payloads it
// would otherwise send one at a time.
type batchOperation struct {
	Op         string            `json:"op" jsonschema:"one of create, update, delete"`
	Type       string            `json:"type,omitempty"`
	Ref        string            `json:"ref,omitempty" jsonschema:"id, id prefix, or sequence number; required for update/delete"`
	Title      string            `json:"title,omitempty"`
	Content    string            `json:"content,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	AddTags    []string          `json:"add_tags,omitempty"`
	RemoveTags []string          `json:"remove_tags,omitempty"`
	Status     *string           `json:"status,omitempty"`
	DueDate    *string           `json:"due_date,omitempty"`
	Priority   *string           `json:"priority,omitempty"`
}

type entityBatchArgs struct {
	Operations []batchOperation `json:"operations"`
}

// batchOpResult records one operation's outcome; Results preserves
// operation order so a client can correlate entries with its input.
type batchOpResult struct {
	Index  int           `json:"index"`
	Op     string        `json:"op"`
	OK     bool          `json:"ok"`
	Entity *types.Entity `json:"entity,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type batchResult struct {
	Results   []batchOpResult `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// toolEntityBatch runs each operation sequentially and observably (each
// sees the effects of its predecessors); one failing operation does not
// roll back the others or stop the batch.
func (s *Server) toolEntityBatch(ctx context.Context, _ *sdkmcp.CallToolRequest, args entityBatchArgs) (*sdkmcp.CallToolResult, batchResult, error) {
	maxBatch := config.GetInt("max_batch_size")
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if len(args.Operations) > maxBatch {
		return nil, batchResult{}, toolErr(types.NewFieldError(types.KindInvalidParams, "operations",
			fmt.Sprintf("batch of %d exceeds max_batch_size (%d)", len(args.Operations), maxBatch)))
	}

	res := batchResult{Results: make([]batchOpResult, 0, len(args.Operations))}
	notifyTypes := map[types.EntityType]bool{}
	for i, op := range args.Operations {
		entry := batchOpResult{Index: i, Op: op.Op}
		e, t, err := s.applyBatchOp(op)
		if err != nil {
			entry.Error = err.Error()
			res.Failed++
		} else {
			entry.OK = true
			entry.Entity = e
			notifyTypes[t] = true
			res.Succeeded++
		}
		res.Results = append(res.Results, entry)
	}
	for t := range notifyTypes {
		s.subs.notify(s.sdk, ctx, entityTypeURI(t))
	}
	return textResult(fmt.Sprintf("%d succeeded, %d failed", res.Succeeded, res.Failed)), res, nil
}

func (s *Server) applyBatchOp(op batchOperation) (*types.Entity, types.EntityType, error) {
	t := types.EntityType(op.Type)
	switch op.Op {
	case "create":
		e := types.Entity{Type: t, Title: op.Title, Content: op.Content, Tags: op.Tags}
		applyCreateFields(&e, op.Fields)
		created, err := s.svc.CreateEntity(e, config.GetIdentity(""))
		if err != nil {
			return nil, t, err
		}
		return &created, t, nil
	case "update":
		existing, err := s.svc.Resolve(t, op.Ref)
		if err != nil {
			return nil, t, err
		}
		patch := types.Patch{AddTags: op.AddTags, RemoveTags: op.RemoveTags}
		if op.Title != "" {
			patch.Title = &op.Title
		}
		if op.Content != "" {
			patch.Content = &op.Content
		}
		applyUpdateStatus(&patch, t, op.Status)
		if op.DueDate != nil {
			patch.DueDate = op.DueDate
		}
		if op.Priority != nil {
			p := types.TaskPriority(*op.Priority)
			patch.Priority = &p
		}
		updated, err := s.svc.UpdateEntity(t, existing.ID, patch, config.GetIdentity(""))
		if err != nil {
			return nil, t, err
		}
		return &updated, t, nil
	case "delete":
		existing, err := s.svc.Resolve(t, op.Ref)
		if err != nil {
			return nil, t, err
		}
		if err := s.svc.DeleteEntity(t, existing.ID); err != nil {
			return nil, t, err
		}
		return nil, t, nil
	default:
		return nil, t, types.NewFieldError(types.KindInvalidParams, "op", "must be create, update, or delete")
	}
}

// --- relation tools -----------------------------------------------------

type relationArgs struct {
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref"`
	TargetType string `json:"target_type"`
	TargetRef  string `json:"target_ref"`
	RelType    string `json:"relation_type"`
}

func (s *Server) toolRelationAdd(_ context.Context, _ *sdkmcp.CallToolRequest, args relationArgs) (*sdkmcp.CallToolResult, any, error) {
	src, err := s.svc.Resolve(types.EntityType(args.SourceType), args.SourceRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	tgt, err := s.svc.Resolve(types.EntityType(args.TargetType), args.TargetRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	r := types.Relation{SourceID: src.ID, SourceType: src.Type, TargetID: tgt.ID, TargetType: tgt.Type, RelationType: types.RelationType(args.RelType)}
	if err := s.svc.AddRelation(r, config.GetIdentity("")); err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%s %s %s", src.ID, args.RelType, tgt.ID)), nil, nil
}

func (s *Server) toolRelationRemove(_ context.Context, _ *sdkmcp.CallToolRequest, args relationArgs) (*sdkmcp.CallToolResult, any, error) {
	src, err := s.svc.Resolve(types.EntityType(args.SourceType), args.SourceRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	tgt, err := s.svc.Resolve(types.EntityType(args.TargetType), args.TargetRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	if err := s.svc.RemoveRelation(src.ID, types.RelationType(args.RelType), tgt.ID); err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult("removed relation"), nil, nil
}

// --- search tools -----------------------------------------------------

type searchArgs struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) toolSearchFulltext(_ context.Context, _ *sdkmcp.CallToolRequest, args searchArgs) (*sdkmcp.CallToolResult, []types.Entity, error) {
	res, err := s.svc.Engine.FullTextSearch(args.Query, types.EntityType(args.Type), limitOrDefault(args.Limit))
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d matches", len(res))), res, nil
}

func (s *Server) toolSearchSemantic(_ context.Context, _ *sdkmcp.CallToolRequest, args searchArgs) (*sdkmcp.CallToolResult, []types.Entity, error) {
	res, err := s.svc.Engine.SemanticSearch(args.Query, types.EntityType(args.Type), limitOrDefault(args.Limit))
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d matches", len(res))), res, nil
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}

// --- graph tools -----------------------------------------------------

type graphRelationsArgs struct {
	Type      string `json:"type"`
	Ref       string `json:"ref"`
	Direction string `json:"direction,omitempty" jsonschema:"from, to, or both (default both)"`
}

func (s *Server) toolGraphRelations(_ context.Context, _ *sdkmcp.CallToolRequest, args graphRelationsArgs) (*sdkmcp.CallToolResult, any, error) {
	e, err := s.svc.Resolve(types.EntityType(args.Type), args.Ref)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	dir := types.DirectionBoth
	if args.Direction != "" {
		dir = types.RelationDirection(args.Direction)
	}
	rels, err := s.svc.Engine.GraphRelations(e.ID, dir)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d relations", len(rels))), rels, nil
}

type graphPathArgs struct {
	FromType string `json:"from_type"`
	FromRef  string `json:"from_ref"`
	ToType   string `json:"to_type"`
	ToRef    string `json:"to_ref"`
	// MaxDepth is a pointer so an omitted field (use the default of 10)
	// is distinguishable from an explicit 0, which per the traversal
	// contract means "no path allowed" rather than "unbounded".
	MaxDepth *int `json:"max_depth,omitempty"`
}

func (s *Server) toolGraphPath(_ context.Context, _ *sdkmcp.CallToolRequest, args graphPathArgs) (*sdkmcp.CallToolResult, []string, error) {
	from, err := s.svc.Resolve(types.EntityType(args.FromType), args.FromRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	to, err := s.svc.Resolve(types.EntityType(args.ToType), args.ToRef)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	depth := 10
	if args.MaxDepth != nil {
		depth = *args.MaxDepth
	}
	if depth > 10 {
		depth = 10
	}
	path, err := s.svc.Engine.GraphPath(from.ID, to.ID, depth)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d hops", max(0, len(path)-1))), path, nil
}

type graphOrphansArgs struct {
	Type string `json:"type"`
}

func (s *Server) toolGraphOrphans(_ context.Context, _ *sdkmcp.CallToolRequest, args graphOrphansArgs) (*sdkmcp.CallToolResult, []types.Entity, error) {
	es, err := s.svc.Engine.GraphOrphans(types.EntityType(args.Type))
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d orphans", len(es))), es, nil
}

// --- task tools -----------------------------------------------------

type taskReadyArgs struct {
	Limit    int    `json:"limit,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (s *Server) toolTaskReady(_ context.Context, _ *sdkmcp.CallToolRequest, args taskReadyArgs) (*sdkmcp.CallToolResult, []types.Entity, error) {
	tasks, err := s.svc.Engine.ReadyTasks(limitOrDefault(args.Limit), types.TaskPriority(args.Priority))
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d ready tasks", len(tasks))), tasks, nil
}

type taskBlockedArgs struct {
	Ref string `json:"ref,omitempty" jsonschema:"omit to list every blocked task"`
}

func (s *Server) toolTaskBlocked(_ context.Context, _ *sdkmcp.CallToolRequest, args taskBlockedArgs) (*sdkmcp.CallToolResult, any, error) {
	id := args.Ref
	if id != "" {
		e, err := s.svc.Resolve(types.TypeTask, args.Ref)
		if err != nil {
			return nil, nil, toolErr(err)
		}
		id = e.ID
	}
	blocked, err := s.svc.Engine.BlockedTasks(id)
	if err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult(fmt.Sprintf("%d blocked tasks", len(blocked))), blocked, nil
}

func (s *Server) toolTaskNext(_ context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, *types.Entity, error) {
	next, err := s.svc.Engine.NextTask()
	if err != nil {
		return nil, nil, toolErr(err)
	}
	if next == nil {
		return textResult("no ready tasks"), nil, nil
	}
	return textResult(next.Title), next, nil
}

type taskCompleteArgs struct {
	Ref string `json:"ref"`
}

func (s *Server) toolTaskComplete(ctx context.Context, _ *sdkmcp.CallToolRequest, args taskCompleteArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	e, err := s.svc.Resolve(types.TypeTask, args.Ref)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	done := types.TaskDone
	updated, err := s.svc.UpdateEntity(types.TypeTask, e.ID, types.Patch{TaskStatus: &done}, config.GetIdentity(""))
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(types.TypeTask))
	return textResult("completed " + updated.ID), updated, nil
}

type taskRescheduleArgs struct {
	Ref     string `json:"ref"`
	DueDate string `json:"due_date"`
}

func (s *Server) toolTaskReschedule(ctx context.Context, _ *sdkmcp.CallToolRequest, args taskRescheduleArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	e, err := s.svc.Resolve(types.TypeTask, args.Ref)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	updated, err := s.svc.UpdateEntity(types.TypeTask, e.ID, types.Patch{DueDate: &args.DueDate}, config.GetIdentity(""))
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(types.TypeTask))
	return textResult("rescheduled " + updated.ID), updated, nil
}

// --- decision & maintenance tools --------------------------------------

type decisionSupersedeArgs struct {
	OldRef string `json:"old_ref"`
	NewRef string `json:"new_ref"`
}

func (s *Server) toolDecisionSupersede(ctx context.Context, _ *sdkmcp.CallToolRequest, args decisionSupersedeArgs) (*sdkmcp.CallToolResult, types.Entity, error) {
	oldD, err := s.svc.Resolve(types.TypeDecision, args.OldRef)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	newD, err := s.svc.Resolve(types.TypeDecision, args.NewRef)
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	updated, err := s.svc.SupersedeDecision(oldD.ID, newD.ID, config.GetIdentity(""))
	if err != nil {
		return nil, types.Entity{}, toolErr(err)
	}
	s.subs.notify(s.sdk, ctx, entityTypeURI(types.TypeDecision))
	return textResult(updated.ID + " superseded by " + newD.ID), updated, nil
}

func (s *Server) toolSyncSnapshot(_ context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, any, error) {
	if err := s.svc.Sync(); err != nil {
		return nil, nil, toolErr(err)
	}
	if err := s.svc.RenderSnapshot(); err != nil {
		return nil, nil, toolErr(err)
	}
	return textResult("cache rebuilt, snapshot regenerated"), nil, nil
}

func applyCreateFields(e *types.Entity, fields map[string]string) {
	if fields == nil {
		return
	}
	if v, ok := fields["due_date"]; ok {
		e.DueDate = v
	}
	if v, ok := fields["priority"]; ok {
		e.Priority = types.TaskPriority(v)
	}
	if v, ok := fields["owner"]; ok {
		e.Owner = v
	}
	if v, ok := fields["url"]; ok {
		e.URL = v
	}
	if v, ok := fields["context"]; ok {
		e.Context = v
	}
	if v, ok := fields["consequences"]; ok {
		e.Consequences = append(e.Consequences, v)
	}
	if v, ok := fields["template"]; ok {
		e.Template = v
	}
}

func applyUpdateStatus(patch *types.Patch, t types.EntityType, status *string) {
	if status == nil {
		return
	}
	switch t {
	case types.TypeTask:
		v := types.TaskStatus(*status)
		patch.TaskStatus = &v
	case types.TypeDecision:
		v := types.DecisionStatus(*status)
		patch.DecisionStatus = &v
	case types.TypeComponent:
		v := types.ComponentStatus(*status)
		patch.ComponentStatus = &v
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
