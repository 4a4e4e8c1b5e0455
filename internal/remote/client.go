package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"scribeflow/internal/domain"
	"scribeflow/internal/model"
)

const (
	// TransportMessage is reported when no response was received at all.
	TransportMessage = "Cannot reach server, check network or service status."
	// MalformedMessage is reported when a success response lacks its result.
	MalformedMessage = "Result missing or malformed."

	maxErrorBodyRunes = 200
)

type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Option func(*Client)

func WithObserver(observer ObserverFunc) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// Client calls the backend's transcribe, recalibrate and summarize endpoints
// and normalizes every failure into a *RemoteError or *TransportError.
// It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   ObserverFunc
}

// RemoteError is a non-success response or a success response without the
// expected result.
type RemoteError struct {
	StatusCode int
	Message    string
	Malformed  bool
}

func (e *RemoteError) Error() string {
	return e.Message
}

// TransportError means the request never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return TransportMessage
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Transcribe uploads the document's audio and returns the transcription.
func (c *Client) Transcribe(ctx context.Context, doc domain.Document) (domain.Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileName := doc.Name
	if fileName == "" {
		fileName = "audio.wav"
	}
	part, err := writer.CreateFormFile("audio_file", fileName)
	if err != nil {
		return domain.Result{}, err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return domain.Result{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Result{}, err
	}

	data, err := c.post(ctx, "transcribe", &body, writer.FormDataContentType())
	if err != nil {
		return domain.Result{}, err
	}
	return parseTranscription(data)
}

// Recalibrate runs the calibration pass again over a raw transcription.
func (c *Client) Recalibrate(ctx context.Context, rawText string) (domain.Result, error) {
	payload, err := json.Marshal(model.RecalibrateRequest{RawTranscription: rawText})
	if err != nil {
		return domain.Result{}, err
	}
	data, err := c.post(ctx, "recalibrate", bytes.NewReader(payload), "application/json")
	if err != nil {
		return domain.Result{}, err
	}
	return parseTranscription(data)
}

// Summarize returns a condensed summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(model.SummarizeRequest{TextToSummarize: text})
	if err != nil {
		return "", err
	}
	data, err := c.post(ctx, "summarize", bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", err
	}

	var parsed model.SummarizeResponse
	if err := json.Unmarshal(data, &parsed); err != nil || strings.TrimSpace(parsed.Summary) == "" {
		return "", &RemoteError{StatusCode: http.StatusOK, Message: MalformedMessage, Malformed: true}
	}
	return strings.TrimSpace(parsed.Summary), nil
}

func (c *Client) post(ctx context.Context, endpoint string, body io.Reader, contentType string) (data []byte, err error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe(endpoint, statusCode, time.Since(started)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	return data, nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(endpoint, status, duration)
	}
}

func parseTranscription(data []byte) (domain.Result, error) {
	var parsed model.TranscriptionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return domain.Result{}, &RemoteError{StatusCode: http.StatusOK, Message: MalformedMessage, Malformed: true}
	}
	if parsed.Status != "" && parsed.Status != model.StatusSuccess {
		return domain.Result{}, &RemoteError{StatusCode: http.StatusOK, Message: MalformedMessage, Malformed: true}
	}
	text := strings.TrimSpace(parsed.Transcription)
	if text == "" {
		return domain.Result{}, &RemoteError{StatusCode: http.StatusOK, Message: MalformedMessage, Malformed: true}
	}
	return domain.Result{
		RawText:        strings.TrimSpace(parsed.RawTranscription),
		CalibratedText: text,
		IsCalibrated:   parsed.IsCalibrated,
		Message:        strings.TrimSpace(parsed.CalibrationMessage),
	}, nil
}

// errorMessage picks the most specific message a failed response carries.
func errorMessage(status int, body []byte) string {
	if msg := structuredMessage(body); msg != "" {
		return msg
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("Request failed (status %d).", status)
	}
	return truncate(text, maxErrorBodyRunes)
}

func structuredMessage(body []byte) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail"} {
		raw, ok := parsed[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
			return strings.TrimSpace(nested.Message)
		}
	}
	return ""
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
