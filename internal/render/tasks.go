package render

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/medulla-kb/medulla/internal/types"
)

var priorityOrder = []types.TaskPriority{types.PriorityUrgent, types.PriorityHigh, types.PriorityNormal, types.PriorityLow}

// renderTasks writes tasks/active.md (grouped by priority, blocked tasks
// annotated) and tasks/completed.md (chronological), per §4.E step 3.
func renderTasks(dir string, tasks []types.Entity, relations []types.Relation) error {
	byID := map[string]types.Entity{}
	for _, t := range tasks {
		byID[t.ID] = t
	}
	blockedBy := map[string][]string{}
	for _, r := range relations {
		if r.RelationType == types.RelBlocks {
			blockedBy[r.TargetID] = append(blockedBy[r.TargetID], r.SourceID)
		}
	}
	isBlocked := func(id string) bool {
		for _, blockerID := range blockedBy[id] {
			if blocker, ok := byID[blockerID]; ok && blocker.TaskStatus != types.TaskDone {
				return true
			}
		}
		return false
	}

	var active, completed []types.Entity
	for _, t := range tasks {
		if t.TaskStatus == types.TaskDone {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}

	var activeBody strings.Builder
	activeBody.WriteString("# Active Tasks\n\n")
	for _, p := range priorityOrder {
		group := filterPriority(active, p)
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].DueDate != group[j].DueDate {
				if group[i].DueDate == "" {
					return false
				}
				if group[j].DueDate == "" {
					return true
				}
				return group[i].DueDate < group[j].DueDate
			}
			return group[i].Sequence < group[j].Sequence
		})
		activeBody.WriteString("## " + titleCase(string(p)) + "\n\n")
		for _, t := range group {
			line := "- **" + t.Title + "**"
			if t.DueDate != "" {
				line += " (due " + t.DueDate + ")"
			}
			if isBlocked(t.ID) {
				line += " _blocked_"
			}
			activeBody.WriteString(line + "\n")
		}
		activeBody.WriteString("\n")
	}
	if err := writeFile(filepath.Join(dir, "tasks", "active.md"), activeBody.String()); err != nil {
		return err
	}

	sort.Slice(completed, func(i, j int) bool { return completed[i].UpdatedAt.Before(completed[j].UpdatedAt) })
	var completedBody strings.Builder
	completedBody.WriteString("# Completed Tasks\n\n")
	for _, t := range completed {
		completedBody.WriteString("- **" + t.Title + "** (completed " + formatDate(t.UpdatedAt) + ")\n")
	}
	return writeFile(filepath.Join(dir, "tasks", "completed.md"), completedBody.String())
}

func titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func filterPriority(tasks []types.Entity, p types.TaskPriority) []types.Entity {
	var out []types.Entity
	for _, t := range tasks {
		priority := t.Priority
		if priority == "" {
			priority = types.PriorityNormal
		}
		if priority == p {
			out = append(out, t)
		}
	}
	return out
}
