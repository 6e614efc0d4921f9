package render

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/medulla-kb/medulla/internal/types"
)

// renderReadme writes README.md last: summary counts, recent activity,
// and quick links (§4.E step 5). The generation timestamp is isolated on
// its own line so diffs against it are trivial to ignore.
func renderReadme(dir string, all []types.Entity) error {
	counts := map[types.EntityType]int{}
	for _, e := range all {
		counts[e.Type]++
	}

	var b strings.Builder
	b.WriteString("# Medulla Snapshot\n\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339)))

	b.WriteString("## Counts\n\n")
	b.WriteString("| Type | Count |\n|---|---|\n")
	for _, t := range types.BuiltinTypes {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", t, counts[t]))
	}
	b.WriteString("\n")

	recent := append([]types.Entity(nil), all...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].UpdatedAt.After(recent[j].UpdatedAt) })
	if len(recent) > 5 {
		recent = recent[:5]
	}
	b.WriteString("## Recent Activity\n\n")
	for _, e := range recent {
		b.WriteString(fmt.Sprintf("- [%s] %s (updated %s)\n", e.Type, e.Title, formatDate(e.UpdatedAt)))
	}
	b.WriteString("\n")

	b.WriteString("## Quick Links\n\n")
	for _, t := range types.BuiltinTypes {
		if counts[t] == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("- [%s](%s/)\n", t, dirFor(t)))
	}

	return writeFile(filepath.Join(dir, "README.md"), b.String())
}

func dirFor(t types.EntityType) string {
	switch t {
	case types.TypeDecision:
		return "decisions"
	case types.TypeTask:
		return "tasks"
	case types.TypeNote:
		return "notes"
	case types.TypePrompt:
		return "prompts"
	case types.TypeComponent:
		return "components"
	case types.TypeLink:
		return "links"
	}
	return string(t)
}
