package rag

import (
	"context"

	"policybot/internal/llm"
	"policybot/internal/service"
)

// RetrieveRequest and RetrievedChunk are shared with the service layer, which consumes Engine.
type (
	RetrieveRequest = service.RetrieveRequest
	RetrievedChunk  = service.RetrievedChunk
)

// EmbedderSource hands out embedding models by id.
type EmbedderSource interface {
	Embedder(ctx context.Context, model string) (llm.Embedder, error)
}
