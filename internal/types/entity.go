// Package types defines the entity and relation records shared by every
// Medulla component: the CRDT store, the derived cache, the query engine,
// the snapshot renderer, and the RPC server.
package types

import "time"

// EntityType is the closed set of built-in entity kinds, plus an open
// extension case for runtime-registered types (see §9 of the design notes:
// "Dynamic entity-type extension").
type EntityType string

const (
	TypeDecision  EntityType = "decision"
	TypeTask      EntityType = "task"
	TypeNote      EntityType = "note"
	TypePrompt    EntityType = "prompt"
	TypeComponent EntityType = "component"
	TypeLink      EntityType = "link"
)

// BuiltinTypes lists the six closed-set kinds, in the order they are
// rendered into the snapshot tree.
var BuiltinTypes = []EntityType{TypeDecision, TypeTask, TypeNote, TypePrompt, TypeComponent, TypeLink}

func IsBuiltinType(t EntityType) bool {
	for _, b := range BuiltinTypes {
		if b == t {
			return true
		}
	}
	return false
}

type DecisionStatus string

const (
	DecisionProposed   DecisionStatus = "proposed"
	DecisionAccepted   DecisionStatus = "accepted"
	DecisionDeprecated DecisionStatus = "deprecated"
	DecisionSuperseded DecisionStatus = "superseded"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// priorityRank orders priorities for ready_tasks/blocked_tasks sorting:
// urgent > high > normal > low.
var priorityRank = map[TaskPriority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

func PriorityRank(p TaskPriority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[PriorityNormal]
}

type ComponentStatus string

const (
	ComponentActive     ComponentStatus = "active"
	ComponentDeprecated ComponentStatus = "deprecated"
	ComponentPlanned    ComponentStatus = "planned"
)

type RelationType string

const (
	RelImplements RelationType = "implements"
	RelBlocks     RelationType = "blocks"
	RelSupersedes RelationType = "supersedes"
	RelReferences RelationType = "references"
	RelBelongsTo  RelationType = "belongs_to"
	RelDocuments  RelationType = "documents"
)

// Entity is the common-attribute record (§3) flattened with every
// type-specific attribute as an optional field. Dispatch on Type selects
// which of the type-specific fields are meaningful; this models the
// "tagged variant over six built-in kinds plus an extension case" from the
// design notes without a class hierarchy.
type Entity struct {
	ID        string     `json:"id"`
	Type      EntityType `json:"type"`
	Sequence  int        `json:"sequence"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Author    string     `json:"author,omitempty"`

	// Decision
	DecisionStatus DecisionStatus `json:"decision_status,omitempty"`
	Context        string         `json:"context,omitempty"`
	Consequences   []string       `json:"consequences,omitempty"`
	SupersededBy   string         `json:"superseded_by,omitempty"`

	// Task
	TaskStatus TaskStatus   `json:"task_status,omitempty"`
	Priority   TaskPriority `json:"priority,omitempty"`
	DueDate    string       `json:"due_date,omitempty"`
	Assignee   string       `json:"assignee,omitempty"`

	// Note
	NoteType string `json:"note_type,omitempty"`

	// Prompt
	Template     string   `json:"template,omitempty"`
	Variables    []string `json:"variables,omitempty"`
	OutputSchema string   `json:"output_schema,omitempty"`

	// Component
	ComponentType   string          `json:"component_type,omitempty"`
	ComponentStatus ComponentStatus `json:"component_status,omitempty"`
	Owner           string          `json:"owner,omitempty"`

	// Link
	URL      string `json:"url,omitempty"`
	LinkType string `json:"link_type,omitempty"`

	// Properties carries any unrecognized submitted fields. Forward
	// compatible: unknown properties are accepted and echoed back, never
	// rejected.
	Properties map[string]string `json:"properties,omitempty"`
}

// Status returns the type-appropriate status string (decision, task, or
// component), or "" for types with no status field. Used by entity_list's
// status filter, which is a single string regardless of entity type.
func (e Entity) Status() string {
	switch e.Type {
	case TypeDecision:
		return string(e.DecisionStatus)
	case TypeTask:
		return string(e.TaskStatus)
	case TypeComponent:
		return string(e.ComponentStatus)
	default:
		return ""
	}
}

// HasTag reports whether tag appears verbatim among e.Tags.
func (e Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListFilter narrows entity_list/entity listing results (§4.F): optional
// type/status/tag filters plus limit (default 50, max 100) and offset.
type ListFilter struct {
	Type   EntityType
	Status string
	Tag    string
	Limit  int
	Offset int
}

// ListPage is a filtered, paginated slice of entities plus the total
// count before pagination was applied.
type ListPage struct {
	Entities []Entity `json:"entities"`
	Total    int      `json:"total"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
}

// Relation is a directed edge keyed uniquely by (SourceID, RelationType,
// TargetID). SourceType/TargetType are denormalized for index construction
// in the derived cache.
type Relation struct {
	SourceID     string            `json:"source_id"`
	SourceType   EntityType        `json:"source_type"`
	TargetID     string            `json:"target_id"`
	TargetType   EntityType        `json:"target_type"`
	RelationType RelationType      `json:"relation_type"`
	CreatedAt    time.Time         `json:"created_at"`
	Author       string            `json:"author,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// Key returns the composite string key "<src>:<reltype>:<tgt>" relations
// are stored under in the CRDT document.
func (r Relation) Key() string {
	return r.SourceID + ":" + string(r.RelationType) + ":" + r.TargetID
}

// RelationDirection selects which end of a relation to filter on for
// graph_relations and list_relations.
type RelationDirection string

const (
	DirectionFrom RelationDirection = "from"
	DirectionTo   RelationDirection = "to"
	DirectionBoth RelationDirection = "both"
)

// EventType enumerates the audit-trail entry kinds of an entity's event log
// (§12 Supplemented Features). The store appends entity_created,
// entity_updated and status_changed; the deleted and relation kinds are
// declared but no store operation appends them.
type EventType string

const (
	EventEntityCreated   EventType = "entity_created"
	EventEntityUpdated   EventType = "entity_updated"
	EventStatusChanged   EventType = "status_changed"
	EventEntityDeleted   EventType = "entity_deleted"
	EventRelationAdded   EventType = "relation_added"
	EventRelationRemoved EventType = "relation_removed"
)

// Event is a single audit-trail record attached to an entity.
type Event struct {
	Type      EventType `json:"type"`
	At        time.Time `json:"at"`
	Author    string    `json:"author,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Patch carries optional field replacements plus add/remove tag lists for
// update_<type> operations. Nil pointer fields are left untouched; this
// lets a patch represent "no change" for any given attribute.
type Patch struct {
	Title   *string
	Content *string
	Author  *string

	AddTags    []string
	RemoveTags []string

	DecisionStatus *DecisionStatus
	Context        *string
	Consequences   *[]string
	SupersededBy   *string

	TaskStatus *TaskStatus
	Priority   *TaskPriority
	DueDate    *string
	Assignee   *string

	NoteType *string

	Template     *string
	Variables    *[]string
	OutputSchema *string

	ComponentType   *string
	ComponentStatus *ComponentStatus
	Owner           *string

	URL      *string
	LinkType *string

	SetProperties map[string]string
}
