package transcription

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	ErrNotConfigured   = errors.New("speech-to-text service not configured")
	ErrEmptyTranscript = errors.New("speech-to-text service returned no text")
)

type Client interface {
	Transcribe(ctx context.Context, file io.Reader, fileName, model string) (string, error)
}

type Service struct {
	client  Client
	model   string
	timeout time.Duration
	problem string
}

// New returns a transcriber. A non-empty problem marks the service as
// unusable; Transcribe then fails with ErrNotConfigured.
func New(client Client, model string, timeout time.Duration, problem string) *Service {
	return &Service{
		client:  client,
		model:   strings.TrimSpace(model),
		timeout: timeout,
		problem: strings.TrimSpace(problem),
	}
}

// Problem describes why the service is not configured, or "".
func (s *Service) Problem() string {
	return s.problem
}

func (s *Service) Transcribe(ctx context.Context, file io.Reader, fileName string) (string, error) {
	if s.problem != "" {
		return "", ErrNotConfigured
	}
	if fileName == "" {
		fileName = "audio.wav"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Transcribe(ctx, file, fileName, s.model)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
