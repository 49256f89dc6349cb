package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks policybot/internal/service Retriever,SummarizerSource
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_policy_service.go -package=mocks -mock_names=PolicyService=MockPolicyService policybot/internal/service PolicyService

import (
	"context"
	"fmt"
	"strings"

	"policybot/internal/contextutil"
	"policybot/internal/llm"
)

// NoPoliciesFound is the summary returned when retrieval finds nothing.
const NoPoliciesFound = "No relevant policies found."

// RetrieveRequest asks for the chunks most similar to Query.
type RetrieveRequest struct {
	Query          string
	TopK           int
	IndexPath      string
	EmbeddingModel string
}

// RetrievedChunk is one search hit. Rank starts at 1.
type RetrievedChunk struct {
	ChunkID string
	Source  string
	Text    string
	Score   float32
	Rank    int
}

// Retriever finds the chunks of an index closest to a query.
// This interface is defined from the service layer's perspective (consumer-first).
type Retriever interface {
	Retrieve(ctx context.Context, req RetrieveRequest) ([]RetrievedChunk, error)
}

// SummarizerSource hands out summarization models by id.
type SummarizerSource interface {
	Summarizer(ctx context.Context, model string) (llm.Summarizer, error)
}

// AskRequest represents a policy question in the domain layer.
type AskRequest struct {
	Query           string
	TopK            int
	IndexPath       string // empty uses Defaults.IndexPath
	EmbeddingModel  string // empty uses Defaults.EmbeddingModel
	SummarizerModel string // empty uses Defaults.SummarizerModel
}

// Answer is the result of a policy question.
type Answer struct {
	Query   string   `json:"query"`
	Summary string   `json:"summary"`
	TopK    []string `json:"top_k"`
}

// Defaults fill the optional fields of an AskRequest.
type Defaults struct {
	IndexPath       string
	EmbeddingModel  string
	SummarizerModel string
}

// PolicyService answers questions about the indexed policies.
type PolicyService interface {
	// Ask retrieves the policy chunks closest to the query and summarizes the best one.
	Ask(ctx context.Context, req AskRequest) (Answer, error)
}

// policyService implements PolicyService.
type policyService struct {
	retriever   Retriever
	summarizers SummarizerSource
	defaults    Defaults
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(retriever Retriever, summarizers SummarizerSource, defaults Defaults) PolicyService {
	return &policyService{
		retriever:   retriever,
		summarizers: summarizers,
		defaults:    defaults,
	}
}

// Ask answers a policy question.
func (s *policyService) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query in ask request")
		return Answer{}, &ValidationError{Field: "query", Message: ErrInvalidQuery.Error(), Err: ErrInvalidQuery}
	}
	if req.TopK < 1 {
		logger.WarnContext(ctx, "invalid top_k in ask request", "top_k", req.TopK)
		return Answer{}, &ValidationError{Field: "top_k", Message: ErrInvalidTopK.Error(), Err: ErrInvalidTopK}
	}

	chunks, err := s.retriever.Retrieve(ctx, RetrieveRequest{
		Query:          req.Query,
		TopK:           req.TopK,
		IndexPath:      orDefault(req.IndexPath, s.defaults.IndexPath),
		EmbeddingModel: orDefault(req.EmbeddingModel, s.defaults.EmbeddingModel),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to retrieve policies", "error", err)
		return Answer{}, WrapError(err, "failed to retrieve policies")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no policies retrieved", "top_k", req.TopK)
		return Answer{Query: req.Query, Summary: NoPoliciesFound, TopK: texts}, nil
	}

	model := orDefault(req.SummarizerModel, s.defaults.SummarizerModel)
	summarizer, err := s.summarizers.Summarizer(ctx, model)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load summarizer", "model", model, "error", err)
		return Answer{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	summary, err := summarizer.Summarize(ctx, chunks[0].Text, llm.DefaultSummaryOptions)
	if err != nil {
		logger.ErrorContext(ctx, "failed to summarize policy", "chunk_id", chunks[0].ChunkID, "error", err)
		return Answer{}, fmt.Errorf("%w: failed to summarize policy: %w", ErrExternalService, err)
	}

	logger.InfoContext(ctx, "ask request processed successfully",
		"query_length", len(req.Query), "retrieved", len(chunks), "top_score", chunks[0].Score, "summary_length", len(summary))
	return Answer{
		Query:   req.Query,
		Summary: strings.TrimSpace(summary),
		TopK:    texts,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
