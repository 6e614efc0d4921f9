package query

import (
	"sort"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
)

// ReadyTasks returns tasks whose status != done and which have no
// incoming blocks relation from a task whose status != done. Ordering:
// priority descending, then due date ascending (nulls last), then
// sequence number ascending (§4.D).
func (e *Engine) ReadyTasks(limit int, priority types.TaskPriority) ([]types.Entity, error) {
	tasks, blockedBy, err := e.loadTasksAndBlockers()
	if err != nil {
		return nil, err
	}
	var ready []types.Entity
	for _, t := range tasks {
		if t.TaskStatus == types.TaskDone {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		blocked := false
		for _, blockerID := range blockedBy[t.ID] {
			if blocker, ok := tasks[blockerID]; ok && blocker.TaskStatus != types.TaskDone {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, *t)
		}
	}
	sortTasksForReadiness(ready)
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}
	return ready, nil
}

// NextTask is the head of ReadyTasks(limit=1).
func (e *Engine) NextTask() (*types.Entity, error) {
	ready, err := e.ReadyTasks(1, "")
	if err != nil {
		return nil, err
	}
	if len(ready) == 0 {
		return nil, nil
	}
	return &ready[0], nil
}

// BlockedTask pairs a task with its current (non-done) blockers.
type BlockedTask struct {
	Task     types.Entity   `json:"task"`
	Blockers []types.Entity `json:"blockers"`
}

// BlockedTasks lists the given task's blockers, or every blocked task with
// its blockers if id is empty.
func (e *Engine) BlockedTasks(id string) ([]BlockedTask, error) {
	tasks, blockedBy, err := e.loadTasksAndBlockers()
	if err != nil {
		return nil, err
	}
	var out []BlockedTask
	consider := func(t *types.Entity) {
		if t.TaskStatus == types.TaskDone {
			return
		}
		var blockers []types.Entity
		for _, blockerID := range blockedBy[t.ID] {
			if blocker, ok := tasks[blockerID]; ok && blocker.TaskStatus != types.TaskDone {
				blockers = append(blockers, *blocker)
			}
		}
		if len(blockers) > 0 {
			out = append(out, BlockedTask{Task: *t, Blockers: blockers})
		}
	}
	if id != "" {
		if t, ok := tasks[id]; ok {
			consider(t)
		}
		return out, nil
	}
	for _, t := range tasks {
		consider(t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task.Sequence < out[j].Task.Sequence })
	return out, nil
}

// StaleTasks surfaces tasks whose updated_at has not advanced in
// olderThan and whose status is not done (§12 Supplemented Features,
// grounded on the teacher's GetStaleIssues/StaleFilter).
func (e *Engine) StaleTasks(olderThan time.Duration) ([]types.Entity, error) {
	tasks, _, err := e.loadTasksAndBlockers()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-olderThan)
	var out []types.Entity
	for _, t := range tasks {
		if t.TaskStatus != types.TaskDone && t.UpdatedAt.Before(cutoff) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// loadTasksAndBlockers returns every task keyed by id, and a map from task
// id to the ids of tasks with a `blocks` relation targeting it.
func (e *Engine) loadTasksAndBlockers() (map[string]*types.Entity, map[string][]string, error) {
	rows, err := e.cache.DB().Query(`
		SELECT en.id, en.type, en.sequence, en.title, en.content, en.tags, en.created_at, en.updated_at, en.author,
		       t.status, t.priority, t.due_date, t.assignee
		FROM tasks t JOIN entities en ON en.id = t.id`)
	if err != nil {
		return nil, nil, types.Wrap(types.KindInternal, "failed to load tasks", err)
	}
	defer rows.Close()

	tasks := map[string]*types.Entity{}
	for rows.Next() {
		var en types.Entity
		var tags, created, updated, status, priority, due, assignee string
		if err := rows.Scan(&en.ID, &en.Type, &en.Sequence, &en.Title, &en.Content, &tags, &created, &updated, &en.Author,
			&status, &priority, &due, &assignee); err != nil {
			return nil, nil, types.Wrap(types.KindInternal, "failed to scan task row", err)
		}
		en.Tags = splitTags(tags)
		en.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		en.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		en.TaskStatus = types.TaskStatus(status)
		en.Priority = types.TaskPriority(priority)
		en.DueDate = due
		en.Assignee = assignee
		e := en
		tasks[e.ID] = &e
	}
	if err := rows.Err(); err != nil {
		return nil, nil, types.Wrap(types.KindInternal, "failed to iterate task rows", err)
	}

	relRows, err := e.cache.DB().Query(`SELECT source_id, target_id FROM relations WHERE relation_type = ?`, string(types.RelBlocks))
	if err != nil {
		return nil, nil, types.Wrap(types.KindInternal, "failed to load blocks relations", err)
	}
	defer relRows.Close()
	blockedBy := map[string][]string{}
	for relRows.Next() {
		var src, tgt string
		if err := relRows.Scan(&src, &tgt); err != nil {
			continue
		}
		blockedBy[tgt] = append(blockedBy[tgt], src)
	}
	return tasks, blockedBy, relRows.Err()
}

func sortTasksForReadiness(tasks []types.Entity) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if types.PriorityRank(a.Priority) != types.PriorityRank(b.Priority) {
			return types.PriorityRank(a.Priority) < types.PriorityRank(b.Priority)
		}
		ad, bd := a.DueDate, b.DueDate
		if ad != bd {
			if ad == "" {
				return false
			}
			if bd == "" {
				return true
			}
			return ad < bd
		}
		return a.Sequence < b.Sequence
	})
}
