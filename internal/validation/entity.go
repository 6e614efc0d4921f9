// Package validation holds the pure, composable field validators for
// entities and relations. Validators are chained the way the teacher's
// issue validators are (internal/validation/issue.go in BeadsLog): small
// predicates composed with Chain, each returning a tagged *types.Error
// naming the offending field.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
)

const (
	MaxTitleBytes        = 500
	MaxContentBytes      = 100 * 1024
	MaxTagBytes          = 100
	MaxTags              = 50
	MaxContextBytes      = 50 * 1024
	MaxConsequenceBytes  = 1024
	MaxTemplateBytes     = 50 * 1024
	MaxOutputSchemaBytes = 10 * 1024
	MaxURLBytes          = 2 * 1024
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// EntityValidator validates an entity and returns an error if validation
// fails. Compose with Chain for multi-rule checks.
type EntityValidator func(e *types.Entity) error

// Chain composes validators in order; the first failure stops the chain.
func Chain(validators ...EntityValidator) EntityValidator {
	return func(e *types.Entity) error {
		for _, v := range validators {
			if err := v(e); err != nil {
				return err
			}
		}
		return nil
	}
}

func Title() EntityValidator {
	return func(e *types.Entity) error {
		title := strings.TrimSpace(e.Title)
		if len(title) == 0 {
			return types.NewFieldError(types.KindValidationFailed, "title", "title is required")
		}
		if len(title) > MaxTitleBytes {
			return types.NewFieldError(types.KindValidationFailed, "title", "title exceeds 500 bytes")
		}
		return nil
	}
}

func Content() EntityValidator {
	return func(e *types.Entity) error {
		if len(e.Content) > MaxContentBytes {
			return types.NewFieldError(types.KindValidationFailed, "content", "content exceeds 100 KiB")
		}
		return nil
	}
}

func Tags() EntityValidator {
	return func(e *types.Entity) error {
		if len(e.Tags) > MaxTags {
			return types.NewFieldError(types.KindValidationFailed, "tags", "too many tags (max 50)")
		}
		for _, t := range e.Tags {
			if len(t) == 0 || len(t) > MaxTagBytes {
				return types.NewFieldError(types.KindValidationFailed, "tags", "tag must be 1-100 bytes")
			}
		}
		return nil
	}
}

func EntityType() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type == "" {
			return types.NewFieldError(types.KindEntityTypeInvalid, "type", "entity type is required")
		}
		return nil
	}
}

func DecisionFields() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type != types.TypeDecision {
			return nil
		}
		switch e.DecisionStatus {
		case "", types.DecisionProposed, types.DecisionAccepted, types.DecisionDeprecated, types.DecisionSuperseded:
		default:
			return types.NewFieldError(types.KindValidationFailed, "decision_status", "invalid decision status")
		}
		if e.DecisionStatus == types.DecisionSuperseded && e.SupersededBy == "" {
			return types.NewFieldError(types.KindValidationFailed, "superseded_by", "superseded decisions require superseded_by")
		}
		if len(e.Context) > MaxContextBytes {
			return types.NewFieldError(types.KindValidationFailed, "context", "context exceeds 50 KiB")
		}
		for _, c := range e.Consequences {
			if len(c) > MaxConsequenceBytes {
				return types.NewFieldError(types.KindValidationFailed, "consequences", "consequence exceeds 1 KiB")
			}
		}
		return nil
	}
}

func TaskFields() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type != types.TypeTask {
			return nil
		}
		switch e.TaskStatus {
		case "", types.TaskTodo, types.TaskInProgress, types.TaskDone, types.TaskBlocked:
		default:
			return types.NewFieldError(types.KindValidationFailed, "task_status", "invalid task status")
		}
		switch e.Priority {
		case "", types.PriorityLow, types.PriorityNormal, types.PriorityHigh, types.PriorityUrgent:
		default:
			return types.NewFieldError(types.KindValidationFailed, "priority", "invalid task priority")
		}
		if e.DueDate != "" {
			if !dateFormat.MatchString(e.DueDate) {
				return types.NewFieldError(types.KindValidationFailed, "due_date", "due_date must be YYYY-MM-DD")
			}
			if _, err := time.Parse("2006-01-02", e.DueDate); err != nil {
				return types.NewFieldError(types.KindValidationFailed, "due_date", "due_date must be YYYY-MM-DD")
			}
		}
		return nil
	}
}

func PromptFields() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type != types.TypePrompt {
			return nil
		}
		if len(e.Template) > MaxTemplateBytes {
			return types.NewFieldError(types.KindValidationFailed, "template", "template exceeds 50 KiB")
		}
		if len(e.OutputSchema) > MaxOutputSchemaBytes {
			return types.NewFieldError(types.KindValidationFailed, "output_schema", "output_schema exceeds 10 KiB")
		}
		return nil
	}
}

func ComponentFields() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type != types.TypeComponent {
			return nil
		}
		switch e.ComponentStatus {
		case "", types.ComponentActive, types.ComponentDeprecated, types.ComponentPlanned:
		default:
			return types.NewFieldError(types.KindValidationFailed, "component_status", "invalid component status")
		}
		return nil
	}
}

func LinkFields() EntityValidator {
	return func(e *types.Entity) error {
		if e.Type != types.TypeLink {
			return nil
		}
		if strings.TrimSpace(e.URL) == "" {
			return types.NewFieldError(types.KindValidationFailed, "url", "url is required for link entities")
		}
		if len(e.URL) > MaxURLBytes {
			return types.NewFieldError(types.KindValidationFailed, "url", "url exceeds 2 KiB")
		}
		u, err := url.Parse(e.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return types.NewFieldError(types.KindValidationFailed, "url", "url is not syntactically valid")
		}
		return nil
	}
}

// ForCreate validates a freshly constructed entity prior to the CRDT store
// committing it. Unknown-type entities (extensions, §9) skip the
// type-specific validators — only built-in types have closed-set rules.
func ForCreate() EntityValidator {
	return Chain(
		EntityType(),
		Title(),
		Content(),
		Tags(),
		DecisionFields(),
		TaskFields(),
		PromptFields(),
		ComponentFields(),
		LinkFields(),
	)
}

// ForUpdate validates an entity after a patch has been applied in memory,
// before the store commits it.
func ForUpdate() EntityValidator {
	return Chain(
		Title(),
		Content(),
		Tags(),
		DecisionFields(),
		TaskFields(),
		PromptFields(),
		ComponentFields(),
		LinkFields(),
	)
}

// Relation validates a relation prior to add_relation committing it.
func Relation(r *types.Relation) error {
	if r.SourceID == r.TargetID {
		return types.NewError(types.KindSelfReferentialRelation, "relation source and target must differ")
	}
	switch r.RelationType {
	case types.RelImplements, types.RelBlocks, types.RelSupersedes, types.RelReferences, types.RelBelongsTo, types.RelDocuments:
	case "":
		return types.NewFieldError(types.KindRelationTypeInvalid, "relation_type", "relation_type is required")
	}
	return nil
}
