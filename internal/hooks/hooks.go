// Package hooks provides user-extensibility event hooks: executable
// scripts under .medulla/hooks/ that run after entity lifecycle events.
// This is a supplemented feature (§12): Medulla's own spec only requires
// the git pre-commit coherency hook (internal/hook), but the teacher
// treats post-mutation extensibility hooks as a first-class concern, and
// the pattern generalizes cleanly onto entity create/update/close.
package hooks

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
)

const (
	EventCreate = "create"
	EventUpdate = "update"
	EventClose  = "close"
)

const (
	HookOnCreate = "on_create"
	HookOnUpdate = "on_update"
	HookOnClose  = "on_close"
)

// Runner executes lifecycle hooks found in .medulla/hooks/.
type Runner struct {
	hooksDir string
	timeout  time.Duration
}

func NewRunner(hooksDir string) *Runner {
	return &Runner{hooksDir: hooksDir, timeout: 10 * time.Second}
}

func NewRunnerFromWorkspace(workspaceRoot string) *Runner {
	return NewRunner(filepath.Join(workspaceRoot, ".medulla", "hooks"))
}

// Run executes a hook asynchronously, fire-and-forget, if it exists and
// is executable.
func (r *Runner) Run(event string, e *types.Entity) {
	hookName := eventToHook(event)
	if hookName == "" {
		return
	}
	hookPath := filepath.Join(r.hooksDir, hookName)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
		return
	}
	go func() {
		_ = r.runHook(hookPath, event, e)
	}()
}

// RunSync executes a hook synchronously and returns any error.
func (r *Runner) RunSync(event string, e *types.Entity) error {
	hookName := eventToHook(event)
	if hookName == "" {
		return nil
	}
	hookPath := filepath.Join(r.hooksDir, hookName)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() {
		return nil
	}
	if info.Mode()&0111 == 0 {
		return nil
	}
	return r.runHook(hookPath, event, e)
}

func (r *Runner) HookExists(event string) bool {
	hookName := eventToHook(event)
	if hookName == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(r.hooksDir, hookName))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

func (r *Runner) runHook(hookPath, event string, e *types.Entity) error {
	cmd := exec.Command(hookPath)
	cmd.Env = append(os.Environ(),
		"MEDULLA_EVENT="+event,
		"MEDULLA_ENTITY_ID="+e.ID,
		"MEDULLA_ENTITY_TYPE="+string(e.Type),
		"MEDULLA_ENTITY_TITLE="+e.Title,
	)
	return cmd.Run()
}

func eventToHook(event string) string {
	switch event {
	case EventCreate:
		return HookOnCreate
	case EventUpdate:
		return HookOnUpdate
	case EventClose:
		return HookOnClose
	default:
		return ""
	}
}
