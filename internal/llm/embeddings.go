package llm

import (
	"context"
	"fmt"
)

// EmbeddingsClient calls an OpenAI-compatible /v1/embeddings endpoint.
type EmbeddingsClient struct {
	Model        string
	ExpectedSize int // every returned vector must have this size
	api          *Client
}

// NewEmbeddingsClient creates a new embeddings client.
// All embeddings returned by EmbedTexts are validated against expectedSize.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		Model:        model,
		ExpectedSize: expectedSize,
		api:          NewClient(baseURL, apiKey, model),
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// Dimension returns the expected vector size.
func (c *EmbeddingsClient) Dimension() int {
	return c.ExpectedSize
}

// EmbedTexts generates embeddings for the given texts, one float32 vector per text.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	var embeddingsResp EmbeddingsResponse
	err := c.api.post(ctx, "/v1/embeddings", EmbeddingsRequest{Model: c.Model, Input: texts}, &embeddingsResp)
	if err != nil {
		return nil, err
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	positions := responseOrder(embeddingsResp.Data)
	result := make([][]float32, len(texts))
	for i, data := range embeddingsResp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[positions[i]] = vec
	}

	return result, nil
}

// responseOrder maps each returned item to its input position. Indices are used
// when they form a permutation of the inputs; otherwise the response order is kept.
func responseOrder(data []EmbeddingData) []int {
	positions := make([]int, len(data))
	seen := make([]bool, len(data))
	for i, d := range data {
		if d.Index < 0 || d.Index >= len(data) || seen[d.Index] {
			for j := range positions {
				positions[j] = j
			}
			return positions
		}
		seen[d.Index] = true
		positions[i] = d.Index
	}
	return positions
}
