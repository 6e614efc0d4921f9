package embedding

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicEmbedder is the remote, opt-in embedding provider (§9: "remote
// opt-in by config, no silent cloud dispatch" — this provider is only
// constructed when config.json explicitly names it).
//
// Anthropic's API does not expose a dedicated embeddings endpoint, so this
// asks the model, via the Messages API, to project text onto a small,
// fixed-length numeric feature vector suitable for cosine-similarity
// search, and parses the JSON array out of the response. This is a
// materially different mechanism than the local provider's native
// embedding call, and is slower and costs tokens; it exists purely to
// exercise the opt-in remote path without introducing a second SDK.
type AnthropicEmbedder struct {
	client *anthropic.Client
	model  anthropic.Model
	dims   int
}

const defaultAnthropicEmbedDims = 256

func NewAnthropicEmbedder(apiKey, model string) *AnthropicEmbedder {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5HaikuLatest
	}
	return &AnthropicEmbedder{client: client, model: m, dims: defaultAnthropicEmbedDims}
}

var floatArray = regexp.MustCompile(`\[[\s\S]*\]`)

func (a *AnthropicEmbedder) Embed(text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	prompt := "Return ONLY a JSON array of exactly " + itoa(a.dims) + " floating point numbers between -1 and 1 " +
		"that represent a semantic embedding of the following text. No prose, no markdown fence.\n\n" + text

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(a.dims) * 8,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, err
	}
	var raw string
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}
	match := floatArray.FindString(raw)
	if match == "" {
		return nil, embedErr("anthropic response did not contain a JSON array")
	}
	var floats []float32
	if err := json.Unmarshal([]byte(match), &floats); err != nil {
		return nil, err
	}
	return floats, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
