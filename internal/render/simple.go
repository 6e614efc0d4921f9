package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/medulla-kb/medulla/internal/types"
)

type simpleFrontmatter struct {
	ID        string   `yaml:"id"`
	Sequence  int      `yaml:"sequence"`
	Title     string   `yaml:"title"`
	CreatedAt string   `yaml:"created_at"`
	UpdatedAt string   `yaml:"updated_at"`
	Author    string   `yaml:"author,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

// renderSimple writes one file per entity under dir/<typeDir>/NNN-<slug>.md
// using bodyFn to render the type-specific body, per §4.E step 4.
func renderSimple(dir, typeDir string, entities []types.Entity, bodyFn func(types.Entity) string) error {
	sortBySequence(entities)
	used := map[string]bool{}
	for _, e := range entities {
		slug := disambiguate(used, slugify(e.Title), e.Sequence)
		filename := fmt.Sprintf("%03d-%s.md", e.Sequence, slug)
		fm, err := frontmatter(simpleFrontmatter{
			ID: e.ID, Sequence: e.Sequence, Title: e.Title,
			CreatedAt: formatDate(e.CreatedAt), UpdatedAt: formatDate(e.UpdatedAt),
			Author: e.Author, Tags: e.Tags,
		})
		if err != nil {
			return err
		}
		body := fm + "# " + e.Title + "\n\n" + bodyFn(e)
		if err := writeFile(filepath.Join(dir, typeDir, filename), body); err != nil {
			return err
		}
	}
	return nil
}

func renderNoteBody(e types.Entity) string {
	return e.Content + "\n"
}

func renderPromptBody(e types.Entity) string {
	var b strings.Builder
	if e.Template != "" {
		b.WriteString("## Template\n\n```\n" + e.Template + "\n```\n\n")
	}
	if len(e.Variables) > 0 {
		b.WriteString("Variables: " + strings.Join(e.Variables, ", ") + "\n\n")
	}
	if e.OutputSchema != "" {
		b.WriteString("## Output Schema\n\n```\n" + e.OutputSchema + "\n```\n\n")
	}
	return b.String()
}

func renderLinkBody(e types.Entity) string {
	var b strings.Builder
	b.WriteString(e.URL + "\n\n")
	if e.Content != "" {
		b.WriteString(e.Content + "\n")
	}
	return b.String()
}

// renderComponents writes components/NNN-<slug>.md files with a Related
// section resolved through the relation indexes, per §4.E step 4.
func renderComponents(dir string, components []types.Entity, relations []types.Relation) error {
	related := map[string][]string{}
	for _, r := range relations {
		if r.SourceType == types.TypeComponent {
			related[r.SourceID] = append(related[r.SourceID], r.TargetID)
		}
		if r.TargetType == types.TypeComponent {
			related[r.TargetID] = append(related[r.TargetID], r.SourceID)
		}
	}
	return renderSimple(dir, "components", components, func(e types.Entity) string {
		var b strings.Builder
		if e.Owner != "" {
			b.WriteString("Owner: " + e.Owner + "\n\n")
		}
		if e.Content != "" {
			b.WriteString(e.Content + "\n\n")
		}
		if ids := related[e.ID]; len(ids) > 0 {
			b.WriteString("## Related\n\n")
			for _, id := range ids {
				b.WriteString("- " + id + "\n")
			}
		}
		return b.String()
	})
}
