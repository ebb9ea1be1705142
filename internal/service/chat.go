package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillbase/quillbase/internal/domain"
)

// systemPromptTemplate constrains the model to the retrieved context. The
// context block is injected verbatim; the user's message travels as its own
// turn.
const systemPromptTemplate = `You are a helpful assistant. Answer ONLY using the provided context. If the answer is not in the context, say you don't know based on the knowledge base.

Context:
%s`

// CompletionClient defines the interface for generating chat completions
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Retriever defines the interface the chat orchestrator uses to obtain
// context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (string, error)
}

// SessionRepositoryInterface defines the repository interface for chat
// history persistence. AppendMessages must be atomic per user: two concurrent
// appends may interleave but must never lose each other's messages.
type SessionRepositoryInterface interface {
	AppendMessages(ctx context.Context, userID string, msgs []domain.Message) ([]domain.Message, error)
	GetHistory(ctx context.Context, userID string) ([]domain.Message, error)
}

// ChatConfig controls chat orchestration behavior.
type ChatConfig struct {
	TopK              int
	CompletionTimeout time.Duration
}

// DefaultChatConfig returns the default chat configuration.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		TopK:              DefaultTopK,
		CompletionTimeout: 60 * time.Second,
	}
}

// ChatService orchestrates a single question-answer exchange: retrieve
// context, call the completion provider, append the exchange to the user's
// history. Each Respond call is independent; there is no conversation-level
// state machine.
type ChatService struct {
	retriever  Retriever
	completion CompletionClient
	sessions   SessionRepositoryInterface
	cfg        ChatConfig
}

// NewChatService creates a new ChatService with default configuration
func NewChatService(retriever Retriever, completion CompletionClient, sessions SessionRepositoryInterface) *ChatService {
	return NewChatServiceWithConfig(retriever, completion, sessions, DefaultChatConfig())
}

// NewChatServiceWithConfig creates a new ChatService with explicit configuration
func NewChatServiceWithConfig(retriever Retriever, completion CompletionClient, sessions SessionRepositoryInterface, cfg ChatConfig) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &ChatService{
		retriever:  retriever,
		completion: completion,
		sessions:   sessions,
		cfg:        cfg,
	}
}

// Respond answers a user message from the indexed corpus and appends the
// exchange to the user's history. The steps are strictly sequential: the
// context must reflect this query, and history is only written after the
// completion succeeds.
func (s *ChatService) Respond(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.ErrEmptyMessage
	}

	contextBlock, err := s.retriever.Retrieve(ctx, message, s.cfg.TopK)
	if err != nil {
		return "", err
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, contextBlock)

	completionCtx := ctx
	if s.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		completionCtx, cancel = context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
	}

	reply, err := s.completion.GenerateCompletion(completionCtx, systemPrompt, message)
	if err != nil {
		return "", domain.NewProviderError("failed to generate completion", err)
	}

	now := time.Now().UTC()
	exchange := []domain.Message{
		domain.NewMessage(domain.RoleUser, message, now),
		domain.NewMessage(domain.RoleAssistant, reply, now),
	}

	if _, err := s.sessions.AppendMessages(ctx, userID, exchange); err != nil {
		return "", domain.NewStorageError("failed to append chat history", err)
	}

	return reply, nil
}

// History returns the user's full ordered message sequence. A user who has
// never chatted gets an empty slice, not an error.
func (s *ChatService) History(ctx context.Context, userID string) ([]domain.Message, error) {
	msgs, err := s.sessions.GetHistory(ctx, userID)
	if err != nil {
		return nil, domain.NewStorageError("failed to load chat history", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}
