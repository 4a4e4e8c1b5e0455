package summary

import (
	"context"
	"errors"
	"strings"
	"time"

	"scribeflow/internal/upstream/openai"
)

const SystemPrompt = `You summarize transcripts. Read the text and write a concise summary of its key points in the same language as the text.

Output rules:
- Return ONLY the summary, without a title, preamble or closing remarks.
- Do not add facts that are not in the text.`

var (
	ErrNotConfigured = errors.New("summary service not configured")
	ErrEmptySummary  = errors.New("model returned an empty summary")
	ErrEmptyText     = errors.New("text to summarize is empty")
)

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Service struct {
	client     ChatClient
	model      string
	timeout    time.Duration
	configured bool
}

// New returns a summarizer. When configured is false every call fails with
// ErrNotConfigured without touching the client.
func New(client ChatClient, model string, timeout time.Duration, configured bool) *Service {
	return &Service{
		client:     client,
		model:      strings.TrimSpace(model),
		timeout:    timeout,
		configured: configured && client != nil && strings.TrimSpace(model) != "",
	}
}

func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.3,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}
