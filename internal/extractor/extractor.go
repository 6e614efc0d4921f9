// Package extractor implements auto-linking (§12 supplemented feature):
// scanning a newly created or updated entity's title/content for mentions
// of other known components and technologies, suggesting "references"
// relations instead of requiring the author to wire every link by hand.
// Grounded on a draft regex+Ollama extraction pipeline found in the
// teacher tree; the draft's two extractors disagreed on signature (the
// Ollama extractor returned entities AND relationships, the interface
// only declared entities), so this rewrites both against one interface
// rather than repairing the draft in place.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Suggestion is a candidate mention of another entity found in text.
type Suggestion struct {
	Name       string
	Confidence float64
	Source     string // "regex" or "ollama"
}

// Extractor finds candidate entity mentions in free text.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) ([]Suggestion, error)
}

// Pipeline runs every configured extractor and merges results by name,
// keeping the higher-confidence suggestion on collision.
type Pipeline struct {
	extractors []Extractor
}

// NewPipeline always includes the regex extractor. If model is non-empty
// and an Ollama client can be constructed, an LLM-backed extractor is
// added too; reachability is not probed here. Run skips an extractor that
// fails, so an unreachable Ollama leaves regex-only results rather than an
// error.
func NewPipeline(model string) *Pipeline {
	p := &Pipeline{extractors: []Extractor{NewRegexExtractor()}}
	if model != "" {
		if oe, err := NewOllamaExtractor(model); err == nil {
			p.extractors = append(p.extractors, oe)
		}
	}
	return p
}

func (p *Pipeline) Run(ctx context.Context, text string) ([]Suggestion, error) {
	merged := make(map[string]Suggestion)
	for _, ext := range p.extractors {
		found, err := ext.Extract(ctx, text)
		if err != nil {
			continue // one extractor's failure shouldn't block the others
		}
		for _, s := range found {
			key := strings.ToLower(s.Name)
			if existing, ok := merged[key]; !ok || s.Confidence > existing.Confidence {
				merged[key] = s
			}
		}
	}
	out := make([]Suggestion, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	return out, nil
}

var mentionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]+)+`), // CamelCase
	regexp.MustCompile(`\b[a-z]+-[a-z][a-z-]*\b`),            // kebab-case
	regexp.MustCompile(`\buse[A-Z]\w*\b`),                    // React-style hooks
}

type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor { return &RegexExtractor{} }

func (r *RegexExtractor) Name() string { return "regex" }

func (r *RegexExtractor) Extract(_ context.Context, text string) ([]Suggestion, error) {
	seen := make(map[string]bool)
	var out []Suggestion
	for _, pat := range mentionPatterns {
		for _, match := range pat.FindAllString(text, -1) {
			key := strings.ToLower(match)
			if seen[key] || len(match) < 3 {
				continue
			}
			seen[key] = true
			out = append(out, Suggestion{Name: match, Confidence: 0.6, Source: "regex"})
		}
	}
	return out, nil
}

// OllamaExtractor asks a local model to name entities mentioned in text,
// for callers willing to trade latency for recall beyond naming
// conventions regex can match.
type OllamaExtractor struct {
	client *api.Client
	model  string
}

func NewOllamaExtractor(model string) (*OllamaExtractor, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("extractor: create ollama client: %w", err)
	}
	return &OllamaExtractor{client: client, model: model}, nil
}

func (o *OllamaExtractor) Name() string { return "ollama" }

func (o *OllamaExtractor) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := o.client.List(ctx)
	return err == nil
}

type ollamaMentions struct {
	Entities []string `json:"entities"`
}

func (o *OllamaExtractor) Extract(ctx context.Context, text string) ([]Suggestion, error) {
	if !o.Available(ctx) {
		return nil, fmt.Errorf("extractor: ollama not available")
	}
	prompt := fmt.Sprintf(`List distinct named components, services, or technologies mentioned below.
Output ONLY JSON: {"entities": ["name1", "name2"]}

Text:
%s`, text)

	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
	}

	var respText string
	if err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		respText += resp.Response
		return nil
	}); err != nil {
		return nil, fmt.Errorf("extractor: ollama generate: %w", err)
	}

	var parsed ollamaMentions
	if err := json.Unmarshal([]byte(cleanJSON(respText)), &parsed); err != nil {
		return nil, fmt.Errorf("extractor: parse ollama response: %w", err)
	}

	out := make([]Suggestion, 0, len(parsed.Entities))
	for _, name := range parsed.Entities {
		if name == "" {
			continue
		}
		out = append(out, Suggestion{Name: name, Confidence: 0.9, Source: "ollama"})
	}
	return out, nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
