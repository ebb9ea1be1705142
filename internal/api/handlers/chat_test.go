package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quillbase/quillbase/internal/api"
	"github.com/quillbase/quillbase/internal/api/middleware"
	"github.com/quillbase/quillbase/internal/domain"
)

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Respond(ctx context.Context, userID, message string) (string, error) {
	args := m.Called(ctx, userID, message)
	return args.String(0), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, userID string) ([]domain.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func authenticatedRequest(method, target string, body *strings.Reader, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestChatHandler_Respond(t *testing.T) {
	mockSvc := new(MockChatService)
	mockSvc.On("Respond", mock.Anything, "user-1", "what is a cat?").Return("A cat is a mammal.", nil)

	handler := NewChatHandler(mockSvc)

	req := authenticatedRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"what is a cat?"}`), "user-1")
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "A cat is a mammal.", data["reply"])
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_Respond_Unauthenticated(t *testing.T) {
	handler := NewChatHandler(new(MockChatService))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_Respond_InvalidBody(t *testing.T) {
	handler := NewChatHandler(new(MockChatService))

	req := authenticatedRequest(http.MethodPost, "/chat", strings.NewReader("{not json"), "user-1")
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_Respond_EmptyMessage(t *testing.T) {
	mockSvc := new(MockChatService)
	mockSvc.On("Respond", mock.Anything, "user-1", "").Return("", domain.ErrEmptyMessage)

	handler := NewChatHandler(mockSvc)

	req := authenticatedRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`), "user-1")
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_Respond_ProviderFailure(t *testing.T) {
	mockSvc := new(MockChatService)
	mockSvc.On("Respond", mock.Anything, "user-1", "question").
		Return("", domain.NewProviderError("failed to generate completion", errors.New("timeout")))

	handler := NewChatHandler(mockSvc)

	req := authenticatedRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"question"}`), "user-1")
	rec := httptest.NewRecorder()
	handler.Respond(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// the user gets an apology, never the upstream failure detail
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, api.GenericErrorMessage, resp.Error)
	assert.NotContains(t, rec.Body.String(), "timeout")
}

func TestChatHandler_History(t *testing.T) {
	// a zoned timestamp must still render as UTC on the wire
	now := time.Date(2026, 8, 30, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	msgs := []domain.Message{
		domain.NewMessage(domain.RoleUser, "hello", now),
		domain.NewMessage(domain.RoleAssistant, "hi!", now),
	}

	mockSvc := new(MockChatService)
	mockSvc.On("History", mock.Anything, "user-1").Return(msgs, nil)

	handler := NewChatHandler(mockSvc)

	req := authenticatedRequest(http.MethodGet, "/chat/history", nil, "user-1")
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "user", resp.Data[0].Role)
	assert.Equal(t, "hello", resp.Data[0].Content)
	assert.Equal(t, "2026-08-30T12:00:00Z", resp.Data[0].CreatedAt)
	assert.Equal(t, "assistant", resp.Data[1].Role)
}

func TestChatHandler_History_Empty(t *testing.T) {
	mockSvc := new(MockChatService)
	mockSvc.On("History", mock.Anything, "user-1").Return([]domain.Message{}, nil)

	handler := NewChatHandler(mockSvc)

	req := authenticatedRequest(http.MethodGet, "/chat/history", nil, "user-1")
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
