package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/medulla-kb/medulla/internal/types"
)

type decisionFrontmatter struct {
	ID           string   `yaml:"id"`
	Sequence     int      `yaml:"sequence"`
	Title        string   `yaml:"title"`
	Status       string   `yaml:"status"`
	CreatedAt    string   `yaml:"created_at"`
	UpdatedAt    string   `yaml:"updated_at"`
	Author       string   `yaml:"author,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	SupersededBy string   `yaml:"superseded_by,omitempty"`
}

// renderDecisions writes decisions/NNN-<slug>.md per §4.E step 2.
func renderDecisions(dir string, decisions []types.Entity) error {
	sortBySequence(decisions)
	used := map[string]bool{}
	for _, d := range decisions {
		width := 3
		for len(fmt.Sprintf("%d", d.Sequence)) > width {
			width++
		}
		slug := disambiguate(used, slugify(d.Title), d.Sequence)
		filename := fmt.Sprintf("%0*d-%s.md", width, d.Sequence, slug)

		fm, err := frontmatter(decisionFrontmatter{
			ID: d.ID, Sequence: d.Sequence, Title: d.Title, Status: string(d.DecisionStatus),
			CreatedAt: formatDate(d.CreatedAt), UpdatedAt: formatDate(d.UpdatedAt),
			Author: d.Author, Tags: d.Tags, SupersededBy: d.SupersededBy,
		})
		if err != nil {
			return err
		}

		var body strings.Builder
		body.WriteString(fm)
		body.WriteString("# " + d.Title + "\n\n")
		if d.Context != "" {
			body.WriteString("## Context\n\n" + d.Context + "\n\n")
		}
		if d.Content != "" {
			body.WriteString(d.Content + "\n\n")
		}
		if len(d.Consequences) > 0 {
			body.WriteString("## Consequences\n\n")
			for _, c := range d.Consequences {
				body.WriteString("- " + c + "\n")
			}
			body.WriteString("\n")
		}
		if err := writeFile(filepath.Join(dir, "decisions", filename), body.String()); err != nil {
			return err
		}
	}
	return nil
}
