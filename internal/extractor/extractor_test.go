package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegexExtractorFindsMentions(t *testing.T) {
	text := "Fixed a bug in ManageColumnsModal caused by useSortable and nginx-proxy."
	suggestions, err := NewRegexExtractor().Extract(context.Background(), text)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range suggestions {
		names[s.Name] = true
	}
	require.True(t, names["ManageColumnsModal"])
	require.True(t, names["useSortable"])
	require.True(t, names["nginx-proxy"])
}

func TestPipelineRunDedupesByName(t *testing.T) {
	p := NewPipeline("")
	out, err := p.Run(context.Background(), "The AuthService calls AuthService again.")
	require.NoError(t, err)
	require.Len(t, out, 1)
}
