// Package hook implements the Git Hook component (§4.G): a pre-commit
// hook that regenerates the snapshot iff the CRDT file is staged.
// Install/status/uninstall behavior is grounded on the teacher's
// cmd/bd/init_git_hooks.go: a signature-comment marker identifies hooks
// this tool owns, installation refuses to overwrite a foreign hook
// without force, and uninstall verifies ownership before removing.
package hook

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
)

const signature = "# medulla pre-commit hook (auto-generated, do not edit)"

type Status string

const (
	StatusInstalled    Status = "installed"
	StatusNotInstalled Status = "not_installed"
	StatusCustom       Status = "custom"
)

// gitHooksDir asks git for its hooks directory rather than assuming
// ".git/hooks", so it works inside worktrees too.
func gitHooksDir(root string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--git-path", "hooks")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", types.Wrap(types.KindInternal, "failed to resolve git hooks directory", err)
	}
	path := strings.TrimSpace(string(out))
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path, nil
}

func hookPath(root string) (string, error) {
	dir, err := gitHooksDir(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pre-commit"), nil
}

// CheckStatus reports installed / not_installed / custom for the given
// repository root.
func CheckStatus(root string) (Status, error) {
	path, err := hookPath(root)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusNotInstalled, nil
		}
		return "", types.Wrap(types.KindInternal, "failed to read existing hook", err)
	}
	if strings.Contains(string(data), signature) {
		return StatusInstalled, nil
	}
	return StatusCustom, nil
}

// Install writes the pre-commit hook. It refuses to overwrite a non-Medulla
// hook unless force is true, in which case the existing hook is backed up
// with a timestamp suffix rather than discarded.
func Install(root string, force bool) error {
	status, err := CheckStatus(root)
	if err != nil {
		return err
	}
	path, err := hookPath(root)
	if err != nil {
		return err
	}
	if status == StatusCustom && !force {
		return types.NewError(types.KindInternal, "a non-medulla pre-commit hook already exists (use --force to overwrite)")
	}
	if status == StatusCustom && force {
		backup := fmt.Sprintf("%s.backup-%s", path, time.Now().UTC().Format("20060102-150405"))
		if err := os.Rename(path, backup); err != nil {
			return types.Wrap(types.KindInternal, "failed to back up existing hook", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Wrap(types.KindInternal, "failed to create hooks directory", err)
	}
	if err := os.WriteFile(path, []byte(preCommitBody()), 0o700); err != nil {
		return types.Wrap(types.KindInternal, "failed to write pre-commit hook", err)
	}
	return configureMergeDriver(root)
}

// Uninstall removes the hook only if its signature confirms Medulla owns it.
func Uninstall(root string) error {
	status, err := CheckStatus(root)
	if err != nil {
		return err
	}
	if status != StatusInstalled {
		return types.NewError(types.KindInternal, "no medulla-owned pre-commit hook is installed")
	}
	path, err := hookPath(root)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return types.Wrap(types.KindInternal, "failed to remove pre-commit hook", err)
	}
	return removeMergeDriver(root)
}

// configureMergeDriver registers `medulla merge-driver` as the git merge
// driver for the CRDT snapshot (§4.B/§8 scenario 4: divergent branches
// merging the document file itself) and marks the path in .gitattributes.
// Both steps are best-effort idempotent: re-running install just
// overwrites the same lines.
func configureMergeDriver(root string) error {
	if err := exec.Command("git", "-C", root, "config", "merge.medulla.name", "medulla CRDT document merge driver").Run(); err != nil {
		return types.Wrap(types.KindInternal, "failed to configure merge driver name", err)
	}
	if err := exec.Command("git", "-C", root, "config", "merge.medulla.driver", "medulla merge-driver %O %A %B").Run(); err != nil {
		return types.Wrap(types.KindInternal, "failed to configure merge driver command", err)
	}
	return addGitattributesLine(root, ".medulla/loro.db merge=medulla")
}

func removeMergeDriver(root string) error {
	_ = exec.Command("git", "-C", root, "config", "--remove-section", "merge.medulla").Run()
	return nil
}

// addGitattributesLine appends line to the repo root's .gitattributes if
// it isn't already present, creating the file if needed.
func addGitattributesLine(root, line string) error {
	path := filepath.Join(root, ".gitattributes")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return types.Wrap(types.KindInternal, "failed to read .gitattributes", err)
	}
	if strings.Contains(string(data), line) {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return types.Wrap(types.KindInternal, "failed to open .gitattributes", err)
	}
	defer f.Close()
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return types.Wrap(types.KindInternal, "failed to append to .gitattributes", err)
		}
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return types.Wrap(types.KindInternal, "failed to append to .gitattributes", err)
	}
	return nil
}

// preCommitBody is the POSIX shell script installed at .git/hooks/pre-commit.
// It implements §4.G's contract: fast-exit if the CRDT file isn't staged,
// regenerate, fail loudly (mentioning the bypass flag) on error, or stage
// the snapshot and succeed.
func preCommitBody() string {
	return signature + `
set -e

DOC_FILE=".medulla/loro.db"

if ! git diff --cached --name-only | grep -qF "$DOC_FILE"; then
	exit 0
fi

if ! medulla snapshot render; then
	echo "medulla: snapshot regeneration failed (bypass with 'git commit --no-verify')" >&2
	exit 1
fi

git add .medulla/snapshot
exit 0
`
}
