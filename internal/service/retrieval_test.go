package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quillbase/quillbase/internal/domain"
)

// MockChunkSource is a mock implementation of ChunkSource
type MockChunkSource struct {
	mock.Mock
}

func (m *MockChunkSource) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// scaling either vector does not change the score
	assert.InDelta(t,
		cosineSimilarity([]float32{1, 2, 3}, []float32{4, 5, 6}),
		cosineSimilarity([]float32{10, 20, 30}, []float32{4, 5, 6}),
		1e-9,
	)
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 2.5, 0.7}
	b := []float32{1.1, 0.4, -0.8, 2.0}
	assert.InDelta(t, cosineSimilarity(a, b), cosineSimilarity(b, a), 1e-9)

	// unequal lengths truncate to the shorter vector on both sides
	short := []float32{0.5, -0.9}
	assert.InDelta(t, cosineSimilarity(a, short), cosineSimilarity(short, a), 1e-9)
	assert.InDelta(t,
		cosineSimilarity(a[:2], short),
		cosineSimilarity(a, short),
		1e-9,
	)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2, 3}, []float32{0, 0, 0}))
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	mockChunks.On("AllChunks", mock.Anything).Return([]domain.Chunk{}, nil)

	svc := NewRetrievalService(mockChunks, mockEmbed)
	out, err := svc.Retrieve(context.Background(), "anything", 5)

	require.NoError(t, err)
	assert.Equal(t, EmptyCorpusContext, out)
	mockEmbed.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	chunks := []domain.Chunk{
		{ID: 1, Text: "rocks and minerals", Embedding: []float32{0, 0, 1}},
		{ID: 2, Text: "cats are mammals", Embedding: []float32{1, 0, 0}},
		{ID: 3, Text: "dogs are loyal", Embedding: []float32{0.9, 0.1, 0}},
	}

	mockChunks.On("AllChunks", mock.Anything).Return(chunks, nil)
	mockEmbed.On("GenerateEmbedding", mock.Anything, "tell me about cats").Return([]float32{1, 0, 0}, nil)

	svc := NewRetrievalService(mockChunks, mockEmbed)
	out, err := svc.Retrieve(context.Background(), "tell me about cats", 2)

	require.NoError(t, err)
	parts := strings.Split(out, "\n\n---\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "cats are mammals", parts[0])
	assert.Equal(t, "dogs are loyal", parts[1])
}

func TestRetrieve_KLargerThanCorpus(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	chunks := []domain.Chunk{
		{ID: 1, Text: "alpha", Embedding: []float32{1, 0}},
		{ID: 2, Text: "beta", Embedding: []float32{0, 1}},
	}

	mockChunks.On("AllChunks", mock.Anything).Return(chunks, nil)
	mockEmbed.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1, 0}, nil)

	svc := NewRetrievalService(mockChunks, mockEmbed)
	out, err := svc.Retrieve(context.Background(), "q", 50)

	require.NoError(t, err)
	parts := strings.Split(out, "\n\n---\n\n")
	assert.Len(t, parts, 2)
}

func TestRetrieve_TiesKeepInsertionOrder(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	// identical embeddings, so all scores tie
	chunks := []domain.Chunk{
		{ID: 1, Text: "first", Embedding: []float32{1, 0}},
		{ID: 2, Text: "second", Embedding: []float32{1, 0}},
		{ID: 3, Text: "third", Embedding: []float32{1, 0}},
	}

	mockChunks.On("AllChunks", mock.Anything).Return(chunks, nil)
	mockEmbed.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1, 0}, nil)

	svc := NewRetrievalService(mockChunks, mockEmbed)
	out, err := svc.Retrieve(context.Background(), "q", 3)

	require.NoError(t, err)
	assert.Equal(t, "first\n\n---\n\nsecond\n\n---\n\nthird", out)
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	chunks := make([]domain.Chunk, 10)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: int64(i + 1), Text: "chunk", Embedding: []float32{1, 0}}
	}

	mockChunks.On("AllChunks", mock.Anything).Return(chunks, nil)
	mockEmbed.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1, 0}, nil)

	svc := NewRetrievalService(mockChunks, mockEmbed)
	out, err := svc.Retrieve(context.Background(), "q", 0)

	require.NoError(t, err)
	parts := strings.Split(out, "\n\n---\n\n")
	assert.Len(t, parts, DefaultTopK)
}

func TestRetrieve_StorageError(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	mockChunks.On("AllChunks", mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewRetrievalService(mockChunks, mockEmbed)
	_, err := svc.Retrieve(context.Background(), "q", 5)

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStorage, domainErr.Code)
}

func TestRetrieve_ProviderError(t *testing.T) {
	mockChunks := new(MockChunkSource)
	mockEmbed := new(MockEmbeddingClient)

	chunks := []domain.Chunk{{ID: 1, Text: "chunk", Embedding: []float32{1, 0}}}
	mockChunks.On("AllChunks", mock.Anything).Return(chunks, nil)
	mockEmbed.On("GenerateEmbedding", mock.Anything, "q").Return(nil, errors.New("rate limited"))

	svc := NewRetrievalService(mockChunks, mockEmbed)
	_, err := svc.Retrieve(context.Background(), "q", 5)

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProvider, domainErr.Code)
}
