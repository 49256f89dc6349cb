package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_capabilities.go -package=mocks policybot/internal/llm Embedder,Summarizer

import "context"

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the size of every vector EmbedTexts returns.
	Dimension() int
}

// Summarizer condenses a passage of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error)
}

// SummaryOptions bounds the length of a summary, measured in tokens.
type SummaryOptions struct {
	MinTokens int
	MaxTokens int
}

// DefaultSummaryOptions are the bounds used for policy answers.
var DefaultSummaryOptions = SummaryOptions{MinTokens: 30, MaxTokens: 120}

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature is always sent; 0 asks for greedy decoding.
	Temperature float32
}
