package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policybot/internal/llm"
)

func countingRegistry(builds map[string]int, embedCap int) *Registry {
	embed := func(_ context.Context, model string) (llm.Embedder, error) {
		builds[model]++
		if model == "broken" {
			return nil, errors.New("no such model")
		}
		return llm.NewHashEmbedder(model, 8), nil
	}
	summarize := func(_ context.Context, model string) (llm.Summarizer, error) {
		builds["sum:"+model]++
		return llm.NewExtractiveSummarizer(), nil
	}
	return NewRegistry(embed, summarize, embedCap, DefaultSummarizerCapacity)
}

func TestRegistry_Embedder_CachesHandles(t *testing.T) {
	ctx := context.Background()
	builds := map[string]int{}
	r := countingRegistry(builds, 2)

	first, err := r.Embedder(ctx, "a")
	require.NoError(t, err)
	again, err := r.Embedder(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, builds["a"])

	_, err = r.Embedder(ctx, "b")
	require.NoError(t, err)
	_, err = r.Embedder(ctx, "c") // evicts a
	require.NoError(t, err)

	_, err = r.Embedder(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, builds["a"])
	assert.Equal(t, 2, r.embedders.Len())
}

func TestRegistry_Embedder_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	builds := map[string]int{}
	r := countingRegistry(builds, 2)

	_, err := r.Embedder(ctx, "broken")
	assert.ErrorContains(t, err, "no such model")
	_, err = r.Embedder(ctx, "broken")
	assert.Error(t, err)

	assert.Equal(t, 2, builds["broken"])
	assert.Equal(t, 0, r.embedders.Len())
}

func TestRegistry_Summarizer(t *testing.T) {
	ctx := context.Background()
	builds := map[string]int{}
	r := countingRegistry(builds, 2)

	for _, model := range []string{"x", "x", "y", "z", "x"} {
		_, err := r.Summarizer(ctx, model)
		require.NoError(t, err)
	}

	// x, y, z fills capacity 2 and pushes x out before its last use
	assert.Equal(t, 2, builds["sum:x"])
	assert.Equal(t, 1, builds["sum:y"])
	assert.Equal(t, 2, r.summarizers.Len())
}

func TestFactories(t *testing.T) {
	ctx := context.Background()

	embed, err := NewEmbedderFactory(FactoryConfig{EmbeddingProvider: ProviderLocal, EmbeddingDimension: 12})
	require.NoError(t, err)
	e, err := embed(ctx, "m")
	require.NoError(t, err)
	assert.IsType(t, &llm.HashEmbedder{}, e)
	assert.Equal(t, 12, e.Dimension())

	embed, err = NewEmbedderFactory(FactoryConfig{EmbeddingProvider: ProviderHTTP, EmbeddingBaseURL: "http://localhost:1", EmbeddingDimension: 768})
	require.NoError(t, err)
	e, err = embed(ctx, "granite")
	require.NoError(t, err)
	assert.IsType(t, &llm.EmbeddingsClient{}, e)
	assert.Equal(t, 768, e.Dimension())

	sum, err := NewSummarizerFactory(FactoryConfig{})
	require.NoError(t, err)
	s, err := sum(ctx, "bart")
	require.NoError(t, err)
	assert.IsType(t, &llm.ExtractiveSummarizer{}, s)

	sum, err = NewSummarizerFactory(FactoryConfig{SummarizerProvider: ProviderHTTP, LLMBaseURL: "http://localhost:1"})
	require.NoError(t, err)
	s, err = sum(ctx, "bart")
	require.NoError(t, err)
	assert.IsType(t, &llm.ChatSummarizer{}, s)

	_, err = NewEmbedderFactory(FactoryConfig{EmbeddingProvider: "onnx"})
	assert.Error(t, err)
	_, err = NewSummarizerFactory(FactoryConfig{SummarizerProvider: "onnx"})
	assert.Error(t, err)
}
