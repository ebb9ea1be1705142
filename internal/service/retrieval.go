package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/quillbase/quillbase/internal/domain"
)

const (
	// DefaultTopK is the number of chunks assembled into the context when the
	// caller does not specify one.
	DefaultTopK = 5

	// contextSeparator delimits chunk texts in the assembled context so the
	// downstream prompt can visually tell sources apart.
	contextSeparator = "\n\n---\n\n"
)

// EmptyCorpusContext is returned by Retrieve when no chunks exist at all.
// It is a designed outcome, not an error, and the chat orchestrator treats it
// differently from a normal low-relevance context.
const EmptyCorpusContext = "No knowledge base documents found. Please upload some documents first."

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkSource defines the repository interface retrieval reads chunks from.
// AllChunks returns every stored chunk in insertion order.
type ChunkSource interface {
	AllChunks(ctx context.Context) ([]domain.Chunk, error)
}

// RetrievalConfig controls retrieval behavior.
type RetrievalConfig struct {
	TopK         int
	EmbedTimeout time.Duration
}

// DefaultRetrievalConfig returns the default retrieval configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:         DefaultTopK,
		EmbedTimeout: 30 * time.Second,
	}
}

// RetrievalService ranks stored chunks against a query embedding and
// assembles the top-K chunk texts into a bounded context.
//
// Every query performs a linear scan over all stored chunks. That is fine at
// small corpus scale and is an explicit scalability limit; swapping in an ANN
// index would keep the same observable contract.
type RetrievalService struct {
	chunks    ChunkSource
	embedding EmbeddingClient
	cfg       RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService with default configuration
func NewRetrievalService(chunks ChunkSource, embedding EmbeddingClient) *RetrievalService {
	return NewRetrievalServiceWithConfig(chunks, embedding, DefaultRetrievalConfig())
}

// NewRetrievalServiceWithConfig creates a new RetrievalService with explicit configuration
func NewRetrievalServiceWithConfig(chunks ChunkSource, embedding EmbeddingClient, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &RetrievalService{
		chunks:    chunks,
		embedding: embedding,
		cfg:       cfg,
	}
}

// scoredChunk pairs a chunk with its similarity to the query.
type scoredChunk struct {
	chunk domain.Chunk
	score float64
}

// Retrieve embeds the query, ranks all stored chunks by cosine similarity,
// and returns the top k chunk texts joined by a separator. k <= 0 uses the
// configured default. An empty corpus returns EmptyCorpusContext without
// calling the embedding provider.
//
// Provider and storage failures propagate unchanged; retries are the
// caller's concern.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = s.cfg.TopK
	}

	all, err := s.chunks.AllChunks(ctx)
	if err != nil {
		return "", domain.NewStorageError("failed to load chunks", err)
	}

	if len(all) == 0 {
		return EmptyCorpusContext, nil
	}

	embedCtx := ctx
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}

	queryVec, err := s.embedding.GenerateEmbedding(embedCtx, query)
	if err != nil {
		return "", domain.NewProviderError("failed to embed query", err)
	}

	ranked := rankChunks(queryVec, all)
	if k > len(ranked) {
		k = len(ranked)
	}

	parts := make([]string, 0, k)
	for _, sc := range ranked[:k] {
		parts = append(parts, sc.chunk.Text)
	}

	return strings.Join(parts, contextSeparator), nil
}

// rankChunks scores every chunk against the query vector and sorts by
// similarity descending. The sort is stable so ties keep storage insertion
// order and identical inputs rank identically.
func rankChunks(query []float32, chunks []domain.Chunk) []scoredChunk {
	scored := make([]scoredChunk, len(chunks))
	for i, c := range chunks {
		scored[i] = scoredChunk{
			chunk: c,
			score: cosineSimilarity(query, c.Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	return scored
}

// cosineSimilarity returns dot(a, b) / (|a| * |b|). A zero-magnitude vector
// on either side yields 0 rather than dividing by zero, so a degenerate
// embedding never crashes retrieval.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
