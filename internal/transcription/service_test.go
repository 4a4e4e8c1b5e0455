package transcription

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeClient struct {
	fileName string
	model    string
	body     string
	deadline bool
	text     string
	err      error
}

func (f *fakeClient) Transcribe(ctx context.Context, file io.Reader, fileName, model string) (string, error) {
	data, _ := io.ReadAll(file)
	f.body = string(data)
	f.fileName = fileName
	f.model = model
	_, f.deadline = ctx.Deadline()
	return f.text, f.err
}

func TestTranscribeTrimsAndForwards(t *testing.T) {
	client := &fakeClient{text: "  hello world \n"}
	svc := New(client, " sense-voice ", time.Second, "")

	got, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "hello world" {
		t.Fatalf("unexpected text: %q", got)
	}
	if client.fileName != "audio.wav" || client.model != "sense-voice" || client.body != "audio" {
		t.Fatalf("unexpected forwarded call: %+v", client)
	}
	if !client.deadline {
		t.Fatal("expected the upstream call to carry a deadline")
	}
}

func TestTranscribeRejectsBlankResult(t *testing.T) {
	svc := New(&fakeClient{text: "   "}, "m", time.Second, "")
	if _, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.mp3"); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestTranscribeNotConfigured(t *testing.T) {
	client := &fakeClient{text: "hello"}
	svc := New(client, "m", time.Second, "missing S2T API key")
	if svc.Problem() != "missing S2T API key" {
		t.Fatalf("unexpected problem: %q", svc.Problem())
	}
	if _, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.mp3"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if client.fileName != "" {
		t.Fatal("client must not be called when not configured")
	}
}

func TestTranscribePassesUpstreamErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&fakeClient{err: boom}, "m", time.Second, "")
	if _, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "a.mp3"); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
