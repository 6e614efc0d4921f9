package store

import (
	"time"

	"github.com/automerge/automerge-go"

	"github.com/medulla-kb/medulla/internal/types"
)

// writeEntity serializes every field of e into entityMap as CRDT-native
// values: scalars as map entries, Tags/Consequences/Variables as nested
// CRDT lists (mergeable lists per §4.B's document layout).
func writeEntity(entityMap *automerge.Map, e *types.Entity) error {
	setStr := func(key, val string) error {
		return entityMap.Set(key, val)
	}
	if err := entityMap.Set("id", e.ID); err != nil {
		return wrapSet("id", err)
	}
	if err := entityMap.Set("type", string(e.Type)); err != nil {
		return wrapSet("type", err)
	}
	if err := entityMap.Set("sequence", int64(e.Sequence)); err != nil {
		return wrapSet("sequence", err)
	}
	if err := entityMap.Set("title", e.Title); err != nil {
		return wrapSet("title", err)
	}
	if err := setStr("content", e.Content); err != nil {
		return wrapSet("content", err)
	}
	if err := entityMap.Set("created_at", e.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return wrapSet("created_at", err)
	}
	if err := entityMap.Set("updated_at", e.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return wrapSet("updated_at", err)
	}
	if err := setStr("author", e.Author); err != nil {
		return wrapSet("author", err)
	}
	if err := writeStringList(entityMap, "tags", e.Tags); err != nil {
		return wrapSet("tags", err)
	}

	if err := setStr("decision_status", string(e.DecisionStatus)); err != nil {
		return wrapSet("decision_status", err)
	}
	if err := setStr("context", e.Context); err != nil {
		return wrapSet("context", err)
	}
	if err := writeStringList(entityMap, "consequences", e.Consequences); err != nil {
		return wrapSet("consequences", err)
	}
	if err := setStr("superseded_by", e.SupersededBy); err != nil {
		return wrapSet("superseded_by", err)
	}

	if err := setStr("task_status", string(e.TaskStatus)); err != nil {
		return wrapSet("task_status", err)
	}
	if err := setStr("priority", string(e.Priority)); err != nil {
		return wrapSet("priority", err)
	}
	if err := setStr("due_date", e.DueDate); err != nil {
		return wrapSet("due_date", err)
	}
	if err := setStr("assignee", e.Assignee); err != nil {
		return wrapSet("assignee", err)
	}

	if err := setStr("note_type", e.NoteType); err != nil {
		return wrapSet("note_type", err)
	}

	if err := setStr("template", e.Template); err != nil {
		return wrapSet("template", err)
	}
	if err := writeStringList(entityMap, "variables", e.Variables); err != nil {
		return wrapSet("variables", err)
	}
	if err := setStr("output_schema", e.OutputSchema); err != nil {
		return wrapSet("output_schema", err)
	}

	if err := setStr("component_type", e.ComponentType); err != nil {
		return wrapSet("component_type", err)
	}
	if err := setStr("component_status", string(e.ComponentStatus)); err != nil {
		return wrapSet("component_status", err)
	}
	if err := setStr("owner", e.Owner); err != nil {
		return wrapSet("owner", err)
	}

	if err := setStr("url", e.URL); err != nil {
		return wrapSet("url", err)
	}
	if err := setStr("link_type", e.LinkType); err != nil {
		return wrapSet("link_type", err)
	}

	if len(e.Properties) > 0 {
		propMap, err := entityMap.Path("properties").Map()
		if err != nil {
			return wrapSet("properties", err)
		}
		for k, v := range e.Properties {
			if err := propMap.Set(k, v); err != nil {
				return wrapSet("properties."+k, err)
			}
		}
	}
	return nil
}

func wrapSet(field string, err error) error {
	return types.Wrap(types.KindInternal, "failed to write field "+field, err)
}

func writeStringList(parent *automerge.Map, key string, values []string) error {
	list, err := parent.Path(key).List()
	if err != nil {
		return err
	}
	n, err := list.Len()
	if err != nil {
		return err
	}
	for i := n - 1; i >= 0; i-- {
		if err := list.Delete(i); err != nil {
			return err
		}
	}
	for _, v := range values {
		if err := list.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func readStringList(parent *automerge.Map, key string) []string {
	list, err := parent.Path(key).List()
	if err != nil {
		return nil
	}
	n, err := list.Len()
	if err != nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, err := list.Get(i)
		if err != nil {
			continue
		}
		s, err := v.ToString()
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func getStr(m *automerge.Map, key string) string {
	v, err := m.Get(key)
	if err != nil {
		return ""
	}
	s, err := v.ToString()
	if err != nil {
		return ""
	}
	return s
}

func getInt(m *automerge.Map, key string) int {
	v, err := m.Get(key)
	if err != nil {
		return 0
	}
	i, err := v.ToInt64()
	if err != nil {
		return 0
	}
	return int(i)
}

func getTime(m *automerge.Map, key string) time.Time {
	s := getStr(m, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// readEntity deserializes entityMap back into a types.Entity. t and id are
// passed explicitly rather than re-read, since callers already know the
// container and key they fetched the map from.
func readEntity(m *automerge.Map, t types.EntityType, id string) (types.Entity, error) {
	e := types.Entity{
		ID:        id,
		Type:      t,
		Sequence:  getInt(m, "sequence"),
		Title:     getStr(m, "title"),
		Content:   getStr(m, "content"),
		CreatedAt: getTime(m, "created_at"),
		UpdatedAt: getTime(m, "updated_at"),
		Author:    getStr(m, "author"),
		Tags:      readStringList(m, "tags"),

		DecisionStatus: types.DecisionStatus(getStr(m, "decision_status")),
		Context:        getStr(m, "context"),
		Consequences:   readStringList(m, "consequences"),
		SupersededBy:   getStr(m, "superseded_by"),

		TaskStatus: types.TaskStatus(getStr(m, "task_status")),
		Priority:   types.TaskPriority(getStr(m, "priority")),
		DueDate:    getStr(m, "due_date"),
		Assignee:   getStr(m, "assignee"),

		NoteType: getStr(m, "note_type"),

		Template:     getStr(m, "template"),
		Variables:    readStringList(m, "variables"),
		OutputSchema: getStr(m, "output_schema"),

		ComponentType:   getStr(m, "component_type"),
		ComponentStatus: types.ComponentStatus(getStr(m, "component_status")),
		Owner:           getStr(m, "owner"),

		URL:      getStr(m, "url"),
		LinkType: getStr(m, "link_type"),
	}
	if propMap, err := m.Path("properties").Map(); err == nil {
		if keys, err := propMap.Keys(); err == nil && len(keys) > 0 {
			e.Properties = map[string]string{}
			for _, k := range keys {
				e.Properties[k] = getStr(propMap, k)
			}
		}
	}
	if e.TaskStatus == "" && t == types.TypeTask {
		e.TaskStatus = types.TaskTodo
	}
	if e.Priority == "" && t == types.TypeTask {
		e.Priority = types.PriorityNormal
	}
	if e.DecisionStatus == "" && t == types.TypeDecision {
		e.DecisionStatus = types.DecisionProposed
	}
	if e.ComponentStatus == "" && t == types.TypeComponent {
		e.ComponentStatus = types.ComponentActive
	}
	return e, nil
}
