// Package render implements the Snapshot Renderer (§4.E): a deterministic
// directory tree of markdown files rendered from the store into
// .medulla/snapshot/.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/medulla-kb/medulla/internal/store"
	"github.com/medulla-kb/medulla/internal/types"
)

const SnapshotDir = "snapshot"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := strings.ToLower(title)
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	if s == "" {
		s = "untitled"
	}
	return s
}

// Render clears and regenerates the snapshot directory from doc. Output is
// a pure function of the store: running twice on identical input produces
// byte-identical output except for the README generation-timestamp line.
func Render(doc *store.Document, root string) error {
	dir := filepath.Join(root, ".medulla", SnapshotDir)
	if err := os.RemoveAll(dir); err != nil {
		return types.Wrap(types.KindInternal, "failed to clear snapshot directory", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Wrap(types.KindInternal, "failed to create snapshot directory", err)
	}

	decisions, err := doc.ListEntities(types.TypeDecision)
	if err != nil {
		return err
	}
	tasks, err := doc.ListEntities(types.TypeTask)
	if err != nil {
		return err
	}
	notes, err := doc.ListEntities(types.TypeNote)
	if err != nil {
		return err
	}
	prompts, err := doc.ListEntities(types.TypePrompt)
	if err != nil {
		return err
	}
	components, err := doc.ListEntities(types.TypeComponent)
	if err != nil {
		return err
	}
	links, err := doc.ListEntities(types.TypeLink)
	if err != nil {
		return err
	}
	relations, err := doc.ListAllRelations()
	if err != nil {
		return err
	}

	if err := renderDecisions(dir, decisions); err != nil {
		return err
	}
	if err := renderTasks(dir, tasks, relations); err != nil {
		return err
	}
	if err := renderSimple(dir, "notes", notes, renderNoteBody); err != nil {
		return err
	}
	if err := renderSimple(dir, "prompts", prompts, renderPromptBody); err != nil {
		return err
	}
	if err := renderComponents(dir, components, relations); err != nil {
		return err
	}
	if err := renderSimple(dir, "links", links, renderLinkBody); err != nil {
		return err
	}

	all := concatAll(decisions, tasks, notes, prompts, components, links)
	return renderReadme(dir, all)
}

// disambiguate resolves slug collisions within a type directory by
// suffixing the sequence number.
func disambiguate(used map[string]bool, slug string, sequence int) string {
	if !used[slug] {
		used[slug] = true
		return slug
	}
	withSeq := fmt.Sprintf("%s-%d", slug, sequence)
	used[withSeq] = true
	return withSeq
}

func frontmatter(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", types.Wrap(types.KindInternal, "failed to marshal frontmatter", err)
	}
	return "---\n" + string(b) + "---\n\n", nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Wrap(types.KindInternal, "failed to create directory for "+path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return types.Wrap(types.KindInternal, "failed to write "+path, err)
	}
	return nil
}

func concatAll(groups ...[]types.Entity) []types.Entity {
	var out []types.Entity
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func sortBySequence(es []types.Entity) {
	sort.Slice(es, func(i, j int) bool { return es[i].Sequence < es[j].Sequence })
}
