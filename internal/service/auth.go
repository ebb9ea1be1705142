package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillbase/quillbase/internal/domain"
)

// apiKeyPrefix marks tokens issued by this service so stray secrets are easy
// to recognize in logs and scanners.
const apiKeyPrefix = "qb_"

// APIKeyRepository defines the repository interface for API key persistence.
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByHash(ctx context.Context, hash string) (*domain.APIKey, error)
}

// Identity is the authenticated caller resolved from an API key.
type Identity struct {
	UserID string
	Admin  bool
}

// AuthService issues and validates API keys. Only the SHA-256 hash of a token
// is ever stored; the plaintext token exists once, at creation time.
type AuthService struct {
	keys APIKeyRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(keys APIKeyRepository) *AuthService {
	return &AuthService{keys: keys}
}

// CreateAPIKey mints a new API key for userID and returns the plaintext
// token. The token cannot be recovered later.
func (s *AuthService) CreateAPIKey(ctx context.Context, userID string, admin bool) (string, error) {
	token, err := generateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate api token: %w", err)
	}
	return s.createKeyWithHash(ctx, userID, admin, token)
}

// CreateAPIKeyWithToken registers a caller-supplied token, used to bootstrap
// a deployment from configuration.
func (s *AuthService) CreateAPIKeyWithToken(ctx context.Context, userID string, admin bool, token string) (string, error) {
	if !IsValidAPIToken(token) {
		return "", domain.ErrInvalidAPIKey
	}
	return s.createKeyWithHash(ctx, userID, admin, token)
}

func (s *AuthService) createKeyWithHash(ctx context.Context, userID string, admin bool, token string) (string, error) {
	key := &domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		KeyHash:   hashToken(token),
		Admin:     admin,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return "", domain.NewStorageError("failed to store api key", err)
	}

	return token, nil
}

// ValidateAPIKey resolves a plaintext token to the identity it belongs to.
func (s *AuthService) ValidateAPIKey(ctx context.Context, token string) (*Identity, error) {
	key, err := s.GetAPIKeyByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: key.UserID, Admin: key.Admin}, nil
}

// GetAPIKeyByToken looks up the stored key for a plaintext token.
func (s *AuthService) GetAPIKeyByToken(ctx context.Context, token string) (*domain.APIKey, error) {
	if !IsValidAPIToken(token) {
		return nil, domain.ErrInvalidAPIKey
	}
	return s.keys.GetByHash(ctx, hashToken(token))
}

func generateAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsValidAPIToken reports whether token has the issued-token shape. It does
// not prove the token exists.
func IsValidAPIToken(token string) bool {
	return strings.HasPrefix(token, apiKeyPrefix) && len(token) > len(apiKeyPrefix)
}
