package embedding

import (
	"context"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder is the default, local embedding provider: a small model
// served by a local Ollama daemon. This satisfies the "local-only by
// default" half of the embedding Open Question without any network egress.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

func NewOllamaEmbedder(host, model string) *OllamaEmbedder {
	client, err := api.ClientFromEnvironment()
	if err != nil || host != "" {
		if u, perr := url.Parse(host); perr == nil && host != "" {
			client = api.NewClient(u, nil)
		}
	}
	return &OllamaEmbedder{client: client, model: model}
}

func (o *OllamaEmbedder) Embed(text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: text,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, errEmptyEmbedding
	}
	return resp.Embeddings[0], nil
}

var errEmptyEmbedding = embedErr("ollama returned no embeddings")

type embedErr string

func (e embedErr) Error() string { return string(e) }
