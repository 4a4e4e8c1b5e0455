package calibration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scribeflow/internal/upstream/openai"
)

const SystemPrompt = `You are a transcript calibration expert. You turn raw speech-to-text output into clean written text.

Speech recognition often produces wrong characters, homophone mistakes and misheard words because of accents or speaking speed. Spoken language also carries pauses, repetitions and filler words that hurt readability.

Your job:
1. Remove pauses, repetitions and filler words.
2. Fix wrong characters, misheard words and homophone mistakes.
3. Keep every detail of the original; never drop information.
4. Produce fluent, high quality written text.

Rules:
1. Calibrate only. Do not rewrite, summarize or shorten the content.
2. Corrections must keep the meaning accurate and coherent.
3. Never change what the speaker meant.
4. Output only the calibrated text, without explanations or notes.`

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Outcome string

const (
	OutcomeCalibrated Outcome = "calibrated"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Result always carries usable text: the calibrated text on success, the
// input otherwise.
type Result struct {
	Text    string
	Outcome Outcome
	Reason  string
}

func (r Result) Calibrated() bool {
	return r.Outcome == OutcomeCalibrated
}

type Options struct {
	Model string
	// ChunkSize is the target chunk length in runes.
	ChunkSize int
	// Threshold is the longest text, in runes, sent as a single request.
	Threshold int
	Workers   int
	Attempts  int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	// Timeout bounds each chat request.
	Timeout time.Duration
	// SkipReason disables calibration when non-empty.
	SkipReason string
	OnOutcome  func(Outcome)
}

type Service struct {
	client ChatClient
	opts   Options
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

func New(client ChatClient, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 5000
	}
	if opts.Threshold < opts.ChunkSize {
		opts.Threshold = opts.ChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Service{
		client: client,
		opts:   opts,
		logger: logger,
		sleep:  sleepContext,
	}
}

func (s *Service) Calibrate(ctx context.Context, raw string) Result {
	result := s.calibrate(ctx, raw)
	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(result.Outcome)
	}
	return result
}

func (s *Service) calibrate(ctx context.Context, raw string) Result {
	if s.opts.SkipReason != "" {
		s.logger.Info("calibration skipped", "reason", s.opts.SkipReason)
		return Result{Text: raw, Outcome: OutcomeSkipped, Reason: s.opts.SkipReason}
	}
	if strings.TrimSpace(raw) == "" {
		return Result{Text: raw, Outcome: OutcomeFailed, Reason: "text is empty"}
	}

	if len([]rune(raw)) <= s.opts.Threshold {
		text, err := s.calibrateChunk(ctx, raw, "")
		if err != nil {
			s.logger.Warn("calibration failed", "error", err)
			return Result{Text: raw, Outcome: OutcomeFailed, Reason: err.Error()}
		}
		return Result{Text: text, Outcome: OutcomeCalibrated}
	}

	chunks := splitText(raw, s.opts.ChunkSize)
	if len(chunks) == 0 {
		return Result{Text: raw, Outcome: OutcomeFailed, Reason: "text is empty after splitting"}
	}
	s.logger.Info("calibrating in chunks", "runes", len([]rune(raw)), "chunks", len(chunks), "workers", s.opts.Workers)

	calibrated := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, chunk := range chunks {
		previous := ""
		if i > 0 {
			previous = lastSentence(chunks[i-1])
		}
		g.Go(func() error {
			text, err := s.calibrateChunk(gctx, chunk, previous)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			calibrated[i] = keepSpacing(chunk, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("chunked calibration failed, falling back to raw text", "error", err)
		return Result{Text: raw, Outcome: OutcomeFailed, Reason: reason(err)}
	}

	return Result{Text: strings.Join(calibrated, ""), Outcome: OutcomeCalibrated}
}

// calibrateChunk sends one chunk, retrying transient failures.
func (s *Service) calibrateChunk(ctx context.Context, chunk, previous string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		Temperature: 0.1,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userMessage(chunk, previous)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.Attempts; attempt++ {
		text, err := s.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) || attempt == s.opts.Attempts {
			break
		}

		wait := s.opts.Backoff * time.Duration(attempt)
		s.logger.Warn("calibration request failed, retrying", "attempt", attempt, "attempts", s.opts.Attempts, "wait", wait, "error", err)
		if err := s.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

var errEmptyContent = errors.New("model returned empty content")

func (s *Service) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := s.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", describe(err)
	}
	if resp.Usage != nil {
		s.logger.Debug("calibration request finished",
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", errEmptyContent
	}
	return text, nil
}

func userMessage(chunk, previous string) string {
	if previous == "" {
		return chunk
	}
	return fmt.Sprintf(`For continuity, this is the last sentence right before the current text:
---CONTEXT---
%s
---END CONTEXT---

Calibrate and return only the following new text. Do not repeat the context in your answer:
---TEXT TO CALIBRATE---
%s
---END TEXT---`, previous, chunk)
}

type upstreamError struct {
	reason    string
	retryable bool
	err       error
}

func (e *upstreamError) Error() string { return e.reason }
func (e *upstreamError) Unwrap() error { return e.err }

func describe(err error) error {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		return &upstreamError{
			reason:    fmt.Sprintf("API error %d: %s", apiErr.StatusCode, apiErr.Message()),
			retryable: apiErr.Retryable(),
			err:       err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &upstreamError{reason: "request timed out", retryable: true, err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &upstreamError{reason: "network error: " + err.Error(), retryable: true, err: err}
	}
}

func retryable(err error) bool {
	var uErr *upstreamError
	return errors.As(err, &uErr) && uErr.retryable
}

func reason(err error) string {
	var uErr *upstreamError
	if errors.As(err, &uErr) {
		return uErr.reason
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
