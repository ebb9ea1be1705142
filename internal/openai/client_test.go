package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	embedding     []float32
	embeddingErr  error
	completion    string
	completionErr error

	lastSystemPrompt string
	lastUserMessage  string
}

func (f *fakeAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	return f.embedding, nil
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.lastSystemPrompt = systemPrompt
	f.lastUserMessage = userMessage
	if f.completionErr != nil {
		return "", f.completionErr
	}
	return f.completion, nil
}

func TestGenerateEmbedding(t *testing.T) {
	vec := make([]float32, DefaultEmbeddingDimensions)
	vec[0] = 0.5

	client := &Client{api: &fakeAPI{embedding: vec}, dimensions: DefaultEmbeddingDimensions}

	got, err := client.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	client := &Client{api: &fakeAPI{}, dimensions: DefaultEmbeddingDimensions}

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbedding_WrongDimensions(t *testing.T) {
	client := &Client{api: &fakeAPI{embedding: []float32{1, 2, 3}}, dimensions: DefaultEmbeddingDimensions}

	_, err := client.GenerateEmbedding(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbedding_APIError(t *testing.T) {
	apiErr := errors.New("rate limited")
	client := &Client{api: &fakeAPI{embeddingErr: apiErr}, dimensions: DefaultEmbeddingDimensions}

	_, err := client.GenerateEmbedding(context.Background(), "hello")
	assert.ErrorIs(t, err, apiErr)
}

func TestGenerateCompletion(t *testing.T) {
	api := &fakeAPI{completion: "the answer"}
	client := &Client{api: api, dimensions: DefaultEmbeddingDimensions}

	got, err := client.GenerateCompletion(context.Background(), "system prompt", "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)
	assert.Equal(t, "system prompt", api.lastSystemPrompt)
	assert.Equal(t, "question", api.lastUserMessage)
}

func TestGenerateCompletion_EmptyMessage(t *testing.T) {
	client := &Client{api: &fakeAPI{}, dimensions: DefaultEmbeddingDimensions}

	_, err := client.GenerateCompletion(context.Background(), "system", "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "key"})
	assert.Equal(t, DefaultEmbeddingDimensions, client.dimensions)
}
