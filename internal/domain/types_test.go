package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayedTextFollowsViewMode(t *testing.T) {
	s := TranscriptionState{CalibratedText: "hello", SummaryText: "brief", ViewMode: ViewCalibrated}
	if got := s.DisplayedText(); got != "hello" {
		t.Fatalf("unexpected displayed text: %q", got)
	}
	s.ViewMode = ViewSummary
	if got := s.DisplayedText(); got != "brief" {
		t.Fatalf("unexpected displayed text: %q", got)
	}
	if got := EmptyState().DisplayedText(); got != "" {
		t.Fatalf("expected empty displayed text, got %q", got)
	}
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if doc.Name != "a.wav" || string(doc.Data) != "RIFF" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.ID == "" {
		t.Fatal("expected document id")
	}

	other := NewDocument("a.wav", nil)
	if other.ID == doc.ID {
		t.Fatal("expected distinct ids for distinct documents")
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error")
	}
}
