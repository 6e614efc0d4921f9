package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/service"
	"github.com/medulla-kb/medulla/internal/types"
)

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Create, inspect, and mutate entities (decision, task, note, prompt, component, link)",
	}
	cmd.AddCommand(newEntityCreateCmd(), newEntityGetCmd(), newEntityListCmd(), newEntityUpdateCmd(), newEntityDeleteCmd(), newEntityBatchCmd())
	return cmd
}

// entityBatchOp mirrors the entity_batch MCP tool's operation shape so a
// file of operations can be replayed through either surface unchanged.
type entityBatchOp struct {
	Op         string            `json:"op"`
	Type       string            `json:"type,omitempty"`
	Ref        string            `json:"ref,omitempty"`
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

type entityBatchOpResult struct {
	Index  int           `json:"index"`
	Op     string        `json:"op"`
	OK     bool          `json:"ok"`
	Entity *types.Entity `json:"entity,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type entityBatchResult struct {
	Results   []entityBatchOpResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

func newEntityBatchCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a sequence of create/update/delete operations read as a JSON array (default: stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()

			var r io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var ops []entityBatchOp
			if err := json.NewDecoder(r).Decode(&ops); err != nil {
				return fmt.Errorf("decoding batch operations: %w", err)
			}

			maxBatch := config.GetInt("max_batch_size")
			if maxBatch <= 0 {
				maxBatch = 100
			}
			if len(ops) > maxBatch {
				return fmt.Errorf("batch of %d exceeds max_batch_size (%d)", len(ops), maxBatch)
			}

			res := entityBatchResult{Results: make([]entityBatchOpResult, 0, len(ops))}
			for i, op := range ops {
				entry := entityBatchOpResult{Index: i, Op: op.Op}
				e, err := applyEntityBatchOp(svc, op)
				if err != nil {
					entry.Error = err.Error()
					res.Failed++
				} else {
					entry.OK = true
					entry.Entity = e
					res.Succeeded++
				}
				res.Results = append(res.Results, entry)
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read operations from this file instead of stdin")
	return cmd
}

func applyEntityBatchOp(svc *service.Service, op entityBatchOp) (*types.Entity, error) {
	t := types.EntityType(op.Type)
	switch op.Op {
	case "create":
		e := types.Entity{Type: t, Title: op.Title, Content: op.Content, Tags: op.Tags}
		applyBatchCreateFields(&e, op.Fields)
		created, err := svc.CreateEntity(e, config.GetIdentity(actorFlag))
		if err != nil {
			return nil, err
		}
		return &created, nil
	case "update":
		existing, err := svc.Resolve(t, op.Ref)
		if err != nil {
			return nil, err
		}
		patch := types.Patch{AddTags: op.AddTags, RemoveTags: op.RemoveTags}
		if op.Title != "" {
			patch.Title = &op.Title
		}
		if op.Content != "" {
			patch.Content = &op.Content
		}
		if op.Status != nil {
			applyStatusFlag(&patch, t, *op.Status)
		}
		if op.DueDate != nil {
			patch.DueDate = op.DueDate
		}
		if op.Priority != nil {
			p := types.TaskPriority(*op.Priority)
			patch.Priority = &p
		}
		updated, err := svc.UpdateEntity(t, existing.ID, patch, config.GetIdentity(actorFlag))
		if err != nil {
			return nil, err
		}
		return &updated, nil
	case "delete":
		existing, err := svc.Resolve(t, op.Ref)
		if err != nil {
			return nil, err
		}
		if err := svc.DeleteEntity(t, existing.ID); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("op must be create, update, or delete, got %q", op.Op)
	}
}

// applyBatchCreateFields maps entity_batch's free-form fields map onto the
// type-specific attributes, the same set newEntityCreateCmd's flags cover.
func applyBatchCreateFields(e *types.Entity, fields map[string]string) {
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
}

func newEntityCreateCmd() *cobra.Command {
	var title, content, tags, dueDate, priority, owner, url, context string
	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()

			e := types.Entity{
				Type:     types.EntityType(args[0]),
				Title:    title,
				Content:  content,
				Tags:     splitCSV(tags),
				DueDate:  dueDate,
				Priority: types.TaskPriority(priority),
				Owner:    owner,
				URL:      url,
				Context:  context,
			}
			created, err := svc.CreateEntity(e, config.GetIdentity(actorFlag))
			if err != nil {
				return err
			}
			return printEntity(cmd, created)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "entity title (required)")
	cmd.Flags().StringVar(&content, "content", "", "entity body")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "task due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&priority, "priority", "", "task priority: low, normal, high, urgent")
	cmd.Flags().StringVar(&owner, "owner", "", "component owner")
	cmd.Flags().StringVar(&url, "url", "", "link URL")
	cmd.Flags().StringVar(&context, "context", "", "decision context")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newEntityGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <ref>",
		Short: "Fetch one entity by id, id prefix, or sequence number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			e, err := svc.Resolve(types.EntityType(args[0]), args[1])
			if err != nil {
				return err
			}
			return printEntity(cmd, e)
		},
	}
}

func newEntityListCmd() *cobra.Command {
	var status, tag string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list [type]",
		Short: "List entities, optionally filtered by status/tag and paginated",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			var t types.EntityType
			if len(args) == 1 {
				t = types.EntityType(args[0])
			}
			page, err := svc.ListEntitiesFiltered(types.ListFilter{
				Type: t, Status: status, Tag: tag, Limit: limit, Offset: offset,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (task/decision/component status)")
	cmd.Flags().StringVar(&tag, "tag", "", "filter by exact tag")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default 50, max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newEntityUpdateCmd() *cobra.Command {
	var title, content, addTags, removeTags, status, dueDate, priority string
	cmd := &cobra.Command{
		Use:   "update <type> <ref>",
		Short: "Apply a partial update to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			t := types.EntityType(args[0])
			e, err := svc.Resolve(t, args[1])
			if err != nil {
				return err
			}
			patch := types.Patch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			patch.AddTags = splitCSV(addTags)
			patch.RemoveTags = splitCSV(removeTags)
			if cmd.Flags().Changed("due-date") {
				patch.DueDate = &dueDate
			}
			if cmd.Flags().Changed("priority") {
				p := types.TaskPriority(priority)
				patch.Priority = &p
			}
			if cmd.Flags().Changed("status") {
				applyStatusFlag(&patch, t, status)
			}
			updated, err := svc.UpdateEntity(t, e.ID, patch, config.GetIdentity(actorFlag))
			if err != nil {
				return err
			}
			return printEntity(cmd, updated)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&addTags, "add-tags", "", "comma-separated tags to add")
	cmd.Flags().StringVar(&removeTags, "remove-tags", "", "comma-separated tags to remove")
	cmd.Flags().StringVar(&status, "status", "", "new status (type-dependent: task/decision/component)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "new due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	return cmd
}

func newEntityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <ref>",
		Short: "Delete an entity (relations pointing at it become dangling, not cascaded)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			t := types.EntityType(args[0])
			e, err := svc.Resolve(t, args[1])
			if err != nil {
				return err
			}
			if err := svc.DeleteEntity(t, e.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted "+e.ID)
			return nil
		},
	}
}

func applyStatusFlag(patch *types.Patch, t types.EntityType, status string) {
	switch t {
	case types.TypeTask:
		v := types.TaskStatus(status)
		patch.TaskStatus = &v
	case types.TypeDecision:
		v := types.DecisionStatus(status)
		patch.DecisionStatus = &v
	case types.TypeComponent:
		v := types.ComponentStatus(status)
		patch.ComponentStatus = &v
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printEntity(cmd *cobra.Command, e types.Entity) error {
	return printJSON(cmd, e)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
