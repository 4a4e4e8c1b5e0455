package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Document is one audio input selected by the user. The payload is opaque.
type Document struct {
	ID   string
	Name string
	Data []byte
}

// NewDocument wraps an in-memory payload under a fresh identity.
func NewDocument(name string, data []byte) Document {
	return Document{
		ID:   uuid.NewString(),
		Name: name,
		Data: data,
	}
}

// LoadDocument reads path into a Document named after the file.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read audio file: %w", err)
	}
	return NewDocument(filepath.Base(path), data), nil
}
