package llm

import (
	"context"
	"fmt"
	"strings"
)

// ChatSummarizer summarizes text through a chat completions model.
type ChatSummarizer struct {
	client *Client
	model  string
}

// NewChatSummarizer creates a summarizer that uses model on client.
func NewChatSummarizer(client *Client, model string) *ChatSummarizer {
	return &ChatSummarizer{client: client, model: model}
}

// Summarize asks the model for a summary bounded by opts, with greedy decoding.
func (s *ChatSummarizer) Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("nothing to summarize")
	}

	messages := []Message{
		{
			Role: "system",
			Content: fmt.Sprintf(
				"You summarize company policy excerpts. Reply with the summary only, in plain prose, "+
					"using at most %d words and aiming for at least %d when the text allows it. "+
					"Do not add anything that is not stated in the excerpt.",
				opts.MaxTokens, opts.MinTokens),
		},
		{Role: "user", Content: text},
	}

	summary, err := s.client.ChatWithMessages(ctx, messages, ChatParams{
		Model:       s.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("model %s returned an empty summary", s.model)
	}
	return summary, nil
}
