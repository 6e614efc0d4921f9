// Package embedding provides the fixed-dimension text-to-vector providers
// wired behind the derived cache's embedding column. The embedding model
// itself is specified as a black box returning fixed-dimension float
// vectors from text (§1); this package adapts that contract onto the two
// concrete providers named in the domain stack: a local Ollama model
// (default) and Anthropic as a remote opt-in (§9 Open Questions: "local
// by default, remote opt-in by config, no silent cloud dispatch").
package embedding

// Embedder returns a fixed-dimension vector for a piece of text.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Config selects and parameterizes an Embedder. An empty Provider selects
// the local Ollama provider; the remote provider is used only when named
// explicitly, and an unknown name is an error.
type Config struct {
	Provider string // "ollama" (default/local) or "anthropic" (remote opt-in)
	Model    string
	Host     string // ollama host override
	APIKey   string // anthropic API key, read from env by the caller
}

func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(cfg.Host, model), nil
	case "anthropic":
		return NewAnthropicEmbedder(cfg.APIKey, cfg.Model), nil
	default:
		return nil, UnknownProviderError{Provider: cfg.Provider}
	}
}

type UnknownProviderError struct{ Provider string }

func (e UnknownProviderError) Error() string {
	return "unknown embedding provider: " + e.Provider
}
