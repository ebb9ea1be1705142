package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillbase/quillbase/internal/domain"
)

// DocumentRepositoryInterface defines the repository interface for document
// persistence.
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]*domain.Document, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// IngestJobRepositoryInterface defines the repository interface the upload
// path uses to enqueue indexing work.
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
}

// UUIDGenerator generates unique identifiers
type UUIDGenerator interface {
	New() string
}

// DefaultUUIDGenerator generates real UUIDs
type DefaultUUIDGenerator struct{}

func (DefaultUUIDGenerator) New() string {
	return uuid.NewString()
}

// IngestError tags a pipeline failure with the stage it occurred in, so a
// failed document records whether parsing, embedding, or storage broke.
type IngestError struct {
	Stage domain.IngestStage
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// DocumentService owns the document lifecycle: upload with text extraction,
// async indexing into chunks, listing and deletion.
type DocumentService struct {
	docs         DocumentRepositoryInterface
	jobs         IngestJobRepositoryInterface
	embedding    EmbeddingClient
	chunkCfg     ChunkConfig
	embedTimeout time.Duration
	uuidGen      UUIDGenerator
}

// NewDocumentService creates a new DocumentService with default configuration
func NewDocumentService(docs DocumentRepositoryInterface, jobs IngestJobRepositoryInterface, embedding EmbeddingClient) *DocumentService {
	return NewDocumentServiceWithConfig(docs, jobs, embedding, DefaultChunkConfig(), 30*time.Second)
}

// NewDocumentServiceWithConfig creates a new DocumentService with explicit configuration
func NewDocumentServiceWithConfig(docs DocumentRepositoryInterface, jobs IngestJobRepositoryInterface, embedding EmbeddingClient, chunkCfg ChunkConfig, embedTimeout time.Duration) *DocumentService {
	return &DocumentService{
		docs:         docs,
		jobs:         jobs,
		embedding:    embedding,
		chunkCfg:     chunkCfg,
		embedTimeout: embedTimeout,
		uuidGen:      DefaultUUIDGenerator{},
	}
}

// WithUUIDGenerator overrides ID generation, used by tests for deterministic IDs.
func (s *DocumentService) WithUUIDGenerator(gen UUIDGenerator) *DocumentService {
	s.uuidGen = gen
	return s
}

// UploadInput carries one uploaded file through validation and extraction.
type UploadInput struct {
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload validates and extracts the file, persists the document as pending,
// and enqueues an ingest job. The heavy work (chunking, embedding) happens
// asynchronously in the worker; the caller gets the document back immediately.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	if len(in.Data) == 0 {
		return nil, domain.ErrNoFile
	}

	text, err := ExtractText(in.Filename, in.ContentType, in.Data)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyFile
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.Filename
	}

	now := time.Now().UTC()
	doc := domain.NewDocument(s.uuidGen.New(), title, text, now)

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, domain.NewStorageError("failed to create document", err)
	}

	job := domain.NewIngestJob(s.uuidGen.New(), doc.ID, now)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, domain.NewStorageError("failed to enqueue ingest job", err)
	}

	return doc, nil
}

// IndexDocument runs the indexing pipeline for one document: chunk its text,
// embed every chunk, replace its stored chunks. The document's status tracks
// the outcome; a failure records the stage it happened in.
func (s *DocumentService) IndexDocument(ctx context.Context, documentID string) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.docs.UpdateStatus(ctx, doc.ID, domain.DocumentStatusIndexing, ""); err != nil {
		return domain.NewStorageError("failed to mark document indexing", err)
	}

	if err := s.indexChunks(ctx, doc); err != nil {
		msg := err.Error()
		var ingestErr *IngestError
		if !errors.As(err, &ingestErr) {
			msg = fmt.Sprintf("%s: %v", domain.IngestStageChunk, err)
		}
		if updErr := s.docs.UpdateStatus(ctx, doc.ID, domain.DocumentStatusFailed, msg); updErr != nil {
			return domain.NewStorageError("failed to mark document failed", updErr)
		}
		return err
	}

	if err := s.docs.UpdateStatus(ctx, doc.ID, domain.DocumentStatusReady, ""); err != nil {
		return domain.NewStorageError("failed to mark document ready", err)
	}

	return nil
}

func (s *DocumentService) indexChunks(ctx context.Context, doc *domain.Document) error {
	spans, err := ChunkText(doc.Content, s.chunkCfg.Size, s.chunkCfg.Overlap)
	if err != nil {
		return &IngestError{Stage: domain.IngestStageChunk, Err: err}
	}
	spans = FilterChunks(spans, s.chunkCfg.MinChars)

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		vec, err := s.embedChunk(ctx, span)
		if err != nil {
			return &IngestError{Stage: domain.IngestStageEmbed, Err: err}
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Text:       span,
			Embedding:  vec,
			CreatedAt:  now,
		})
	}

	if err := s.docs.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return &IngestError{Stage: domain.IngestStageStore, Err: err}
	}

	return nil
}

func (s *DocumentService) embedChunk(ctx context.Context, text string) ([]float32, error) {
	embedCtx := ctx
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	return s.embedding.GenerateEmbedding(embedCtx, text)
}

// List returns all documents without content, newest first.
func (s *DocumentService) List(ctx context.Context) ([]*domain.Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, domain.NewStorageError("failed to list documents", err)
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return docs, nil
}

// Delete removes a document and its chunks. Deleting a missing document is
// not an error; the end state is the same.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return domain.NewStorageError("failed to delete document", err)
	}
	return nil
}
