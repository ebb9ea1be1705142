package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the ingestion status of a document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusIndexing DocumentStatus = "indexing"
	DocumentStatusReady    DocumentStatus = "ready"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// Document represents an uploaded reference document. Its extracted text is
// chunked and embedded by the ingest worker; once ready it is never mutated,
// only deleted as a unit together with its chunks.
type Document struct {
	ID        string
	Title     string
	Content   string
	Status    DocumentStatus
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a bounded span of a document's text paired with its embedding
// vector. Text and vector are persisted together; a chunk without a vector is
// unrepresentable.
type Chunk struct {
	ID         int64
	DocumentID string
	Index      int
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// NewDocument creates a new Document pending ingestion
func NewDocument(id, title, content string, createdAt time.Time) *Document {
	return &Document{
		ID:        id,
		Title:     title,
		Content:   content,
		Status:    DocumentStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Title == "" {
		return fmt.Errorf("document Title is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusIndexing,
		DocumentStatusReady, DocumentStatusFailed:
		return true
	}
	return false
}
